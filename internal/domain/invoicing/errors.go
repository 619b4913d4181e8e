package invoicing

import "github.com/dormbill/backend/internal/domain/shared"

var (
	ErrInvoiceNotFound = shared.NewDomainError("NOT_FOUND", "Invoice not found")
	ErrLineNotFound    = shared.NewDomainError("NOT_FOUND", "Invoice line not found")
	ErrPaymentNotFound = shared.NewDomainError("NOT_FOUND", "Payment not found")

	ErrMissingTenant      = shared.NewDomainError("INCOMPLETE_ROOM_DATA", "Selected room has no tenant id")
	ErrMissingRoom        = shared.NewDomainError("INCOMPLETE_ROOM_DATA", "Selection is missing a room id")
	ErrTenantMismatch     = shared.NewDomainError("INCOMPLETE_ROOM_DATA", "Selected tenant is not the room's active tenant")
	ErrEmptySelection     = shared.NewDomainError("INVALID_INPUT", "At least one room must be selected")
	ErrDuplicateSelection = shared.NewDomainError("INVALID_INPUT", "A room can only be selected once per batch")
	ErrUnknownSendMethod  = shared.NewDomainError("INVALID_INPUT", "Unsupported invoice send method")
	ErrInvalidDueDate     = shared.NewDomainError("INVALID_INPUT", "Due date is required")
	ErrInvalidBillMonth   = shared.NewDomainError("INVALID_INPUT", "Bill month is required")
	ErrNegativeLateFee    = shared.NewDomainError("INVALID_INPUT", "Late fee per day cannot be negative")
	ErrEmptyDescription   = shared.NewDomainError("INVALID_INPUT", "Line description is required")
	ErrInvalidUnitCount   = shared.NewDomainError("INVALID_INPUT", "Unit count must be greater than zero")
	ErrEmptyPaymentMethod = shared.NewDomainError("INVALID_INPUT", "Payment method is required")
	ErrEmptyChanges       = shared.NewDomainError("INVALID_INPUT", "No line fields to update")
	ErrExcessPayment      = shared.NewDomainError("INVALID_AMOUNT", "Payment amount exceeds the remaining balance")
	ErrNonPositivePayment = shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be greater than zero")
)
