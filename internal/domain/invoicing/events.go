package invoicing

import (
	"github.com/dormbill/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type constants
const (
	EventTypeInvoiceBatchGenerated = "InvoiceBatchGenerated"
	EventTypePaymentRecorded       = "PaymentRecorded"
	EventTypePaymentReversed       = "PaymentReversed"
	EventTypeLateFeeAccrued        = "LateFeeAccrued"
)

// InvoiceBatchGeneratedEvent is raised once a generation run has committed
type InvoiceBatchGeneratedEvent struct {
	shared.BaseDomainEvent
	BatchID      uuid.UUID       `json:"batch_id"`
	CycleID      uuid.UUID       `json:"cycle_id"`
	InvoiceCount int             `json:"invoice_count"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

// NewInvoiceBatchGeneratedEvent creates the event for a committed batch
func NewInvoiceBatchGeneratedEvent(batch *InvoiceBatch, invoices []*Invoice) *InvoiceBatchGeneratedEvent {
	total := decimal.Zero
	for _, inv := range invoices {
		total = total.Add(inv.TotalAmount)
	}
	return &InvoiceBatchGeneratedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceBatchGenerated, "InvoiceBatch", batch.ID, batch.PropertyID),
		BatchID:         batch.ID,
		CycleID:         batch.CycleID,
		InvoiceCount:    len(invoices),
		TotalAmount:     total,
	}
}

// PaymentRecordedEvent is raised when a payment is applied
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	PaymentID uuid.UUID       `json:"payment_id"`
	Method    string          `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
	Settled   bool            `json:"settled"`
}

// NewPaymentRecordedEvent creates a PaymentRecordedEvent
func NewPaymentRecordedEvent(inv *Invoice, p Payment) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypeInvoice, inv.ID, inv.PropertyID),
		PaymentID:       p.ID,
		Method:          p.Method,
		Amount:          p.Amount,
		Settled:         inv.IsPaid(),
	}
}

// PaymentReversedEvent is raised when a payment is deleted
type PaymentReversedEvent struct {
	shared.BaseDomainEvent
	PaymentID uuid.UUID       `json:"payment_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// NewPaymentReversedEvent creates a PaymentReversedEvent
func NewPaymentReversedEvent(inv *Invoice, p Payment) *PaymentReversedEvent {
	return &PaymentReversedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentReversed, AggregateTypeInvoice, inv.ID, inv.PropertyID),
		PaymentID:       p.ID,
		Amount:          p.Amount,
	}
}

// LateFeeAccruedEvent is raised when the late fee line is inserted or refreshed
type LateFeeAccruedEvent struct {
	shared.BaseDomainEvent
	Amount decimal.Decimal `json:"amount"`
	Days   int             `json:"days"`
}

// NewLateFeeAccruedEvent creates a LateFeeAccruedEvent
func NewLateFeeAccruedEvent(inv *Invoice, fee LateFee) *LateFeeAccruedEvent {
	return &LateFeeAccruedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLateFeeAccrued, AggregateTypeInvoice, inv.ID, inv.PropertyID),
		Amount:          fee.Amount,
		Days:            fee.Days,
	}
}
