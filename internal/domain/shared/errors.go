package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same code, so wrapped or reworded
// errors still match the sentinel values below.
func (e *DomainError) Is(target error) bool {
	var de *DomainError
	if !errors.As(target, &de) {
		return false
	}
	return de.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound     = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConflict     = NewDomainError("CONFLICT", "Resource was modified by another request")
	ErrUnauthorized = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden    = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
)

// Billing errors
var (
	ErrDuplicateCycle      = NewDomainError("DUPLICATE_CYCLE", "A meter cycle already exists for this date")
	ErrIncompleteRoomData  = NewDomainError("INCOMPLETE_ROOM_DATA", "Selected room has no resolvable tenant")
	ErrAlreadySettled      = NewDomainError("ALREADY_SETTLED", "Invoice has no remaining balance")
	ErrInvalidAmount       = NewDomainError("INVALID_AMOUNT", "Amount is not valid for this operation")
	ErrInvalidLineType     = NewDomainError("INVALID_LINE_TYPE", "Line type cannot be created through this operation")
	ErrBaseLineImmutable   = NewDomainError("FORBIDDEN", "Rent, water and electric lines cannot be modified")
	ErrDuplicateInvoiceNum = NewDomainError("CONFLICT", "Invoice number already allocated, retry the generation")
)
