package invoicing

import (
	"time"

	"github.com/google/uuid"
)

// SendStatus is the outcome of one document dispatch
type SendStatus string

const (
	SendStatusSent   SendStatus = "sent"
	SendStatusFailed SendStatus = "failed"
)

// SendRecord is a write-only audit entry for an invoice dispatch. Billing
// logic never reads it back.
type SendRecord struct {
	ID           uuid.UUID
	PropertyID   uuid.UUID
	InvoiceID    uuid.UUID
	Method       string
	Recipient    string
	Status       SendStatus
	Location     string
	ErrorMessage string
	SentAt       time.Time
}

// NewSendRecord builds the audit entry of a dispatch attempt. A non-nil
// sendErr marks it failed.
func NewSendRecord(propertyID, invoiceID uuid.UUID, method, recipient, location string, sendErr error) *SendRecord {
	rec := &SendRecord{
		ID:         uuid.New(),
		PropertyID: propertyID,
		InvoiceID:  invoiceID,
		Method:     method,
		Recipient:  recipient,
		Status:     SendStatusSent,
		Location:   location,
		SentAt:     time.Now(),
	}
	if sendErr != nil {
		rec.Status = SendStatusFailed
		rec.ErrorMessage = sendErr.Error()
	}
	return rec
}
