package invoicing

import (
	"context"
	"time"

	"github.com/dormbill/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// InvoiceFilter extends shared.Filter with invoice-specific filters
type InvoiceFilter struct {
	shared.Filter
	BillMonth *time.Time
	Status    *InvoiceStatus
	RoomID    *uuid.UUID
	CycleID   *uuid.UUID
}

// InvoiceRepository defines the persistence contract for invoices
type InvoiceRepository interface {
	// FindByIDForProperty loads an invoice with its lines and payments.
	// Returns shared.ErrNotFound when the invoice belongs to another property.
	FindByIDForProperty(ctx context.Context, propertyID, id uuid.UUID) (*Invoice, error)

	// FindAllForProperty returns invoice headers matching the filter
	FindAllForProperty(ctx context.Context, propertyID uuid.UUID, filter InvoiceFilter) ([]Invoice, error)

	// CountForProperty counts invoices matching the filter
	CountForProperty(ctx context.Context, propertyID uuid.UUID, filter InvoiceFilter) (int64, error)

	// InvoicedRooms returns the rooms that already have an invoice for cycleID
	InvoicedRooms(ctx context.Context, propertyID, cycleID uuid.UUID) (map[uuid.UUID]bool, error)

	// CreateBatch persists the batch header and every invoice with its lines
	// in one transaction, assigning invoice numbers from the property's
	// monthly counter. Nothing is written if any invoice fails.
	CreateBatch(ctx context.Context, batch *InvoiceBatch, invoices []*Invoice) error

	// SaveLine inserts or updates one line, then recomputes and stores the
	// invoice total from the persisted line set
	SaveLine(ctx context.Context, inv *Invoice, line *InvoiceLine) error

	// DeleteLine removes one non-base line, then recomputes the total
	DeleteLine(ctx context.Context, inv *Invoice, lineID uuid.UUID) error

	// UpsertLateFee atomically inserts or overwrites the invoice's single
	// late_fee line, then recomputes the total
	UpsertLateFee(ctx context.Context, inv *Invoice, line *InvoiceLine) error

	// AddPayment inserts the payment and stores the invoice's new status
	// under an optimistic version check
	AddPayment(ctx context.Context, inv *Invoice, payment *Payment) error

	// RemovePayment deletes the payment and stores the invoice's new status
	// under an optimistic version check
	RemovePayment(ctx context.Context, inv *Invoice, paymentID uuid.UUID) error

	// DeleteUnpaidByBillMonth deletes every unpaid, payment-free invoice of
	// the bill month together with its lines, returning the number deleted
	DeleteUnpaidByBillMonth(ctx context.Context, propertyID uuid.UUID, billMonth time.Time) (int64, error)
}

// SendRecordRepository stores dispatch audit entries
type SendRecordRepository interface {
	// Save appends a send record
	Save(ctx context.Context, record *SendRecord) error

	// FindByInvoice lists send records for an invoice, newest first
	FindByInvoice(ctx context.Context, propertyID, invoiceID uuid.UUID) ([]SendRecord, error)
}
