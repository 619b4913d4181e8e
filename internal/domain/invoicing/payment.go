package invoicing

import (
	"strings"
	"time"

	"github.com/dormbill/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Common payment methods. Other method strings are accepted as entered.
const (
	PaymentMethodCash         = "cash"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodQR           = "qr"
)

// Payment is one settlement event against an invoice
type Payment struct {
	ID            uuid.UUID
	InvoiceID     uuid.UUID
	PropertyID    uuid.UUID
	Method        string
	Amount        decimal.Decimal
	PaymentDate   time.Time
	Note          string
	ReceiptNumber string
	CreatedAt     time.Time
}

// PaymentInput describes a payment to record. A nil Amount settles the
// whole remaining balance.
type PaymentInput struct {
	Method        string
	Date          time.Time
	Note          string
	Amount        *decimal.Decimal
	ReceiptNumber string
}

// RecordPayment applies a payment. It fails with shared.ErrAlreadySettled
// when nothing remains, and with an INVALID_AMOUNT error when the supplied
// amount is not in (0, remaining]. The invoice becomes paid once the
// balance reaches zero.
func (i *Invoice) RecordPayment(in PaymentInput) (*Payment, error) {
	method := strings.TrimSpace(in.Method)
	if method == "" {
		return nil, ErrEmptyPaymentMethod
	}

	remaining := i.Balance()
	if !remaining.IsPositive() {
		return nil, shared.ErrAlreadySettled
	}

	amount := remaining
	if in.Amount != nil {
		amount = *in.Amount
		if !amount.IsPositive() {
			return nil, ErrNonPositivePayment
		}
		if amount.GreaterThan(remaining) {
			return nil, ErrExcessPayment
		}
	}

	date := in.Date
	if date.IsZero() {
		date = time.Now()
	}
	date = shared.DateOnly(date)

	payment := Payment{
		ID:            uuid.New(),
		InvoiceID:     i.ID,
		PropertyID:    i.PropertyID,
		Method:        method,
		Amount:        amount,
		PaymentDate:   date,
		Note:          strings.TrimSpace(in.Note),
		ReceiptNumber: in.ReceiptNumber,
		CreatedAt:     time.Now(),
	}
	i.Payments = append(i.Payments, payment)
	i.deriveStatus(&date)

	i.IncrementVersion()
	i.Touch()
	i.AddDomainEvent(NewPaymentRecordedEvent(i, payment))
	return &i.Payments[len(i.Payments)-1], nil
}

// RemovePayment reverses a payment and re-derives the settlement status.
// With no payments left, or a positive balance, the invoice is unpaid again
// and its paid date is cleared.
func (i *Invoice) RemovePayment(paymentID uuid.UUID) (Payment, error) {
	idx := -1
	for n, p := range i.Payments {
		if p.ID == paymentID {
			idx = n
			break
		}
	}
	if idx < 0 {
		return Payment{}, ErrPaymentNotFound
	}

	removed := i.Payments[idx]
	i.Payments = append(i.Payments[:idx:idx], i.Payments[idx+1:]...)
	i.ReconcileStatus()

	i.IncrementVersion()
	i.Touch()
	i.AddDomainEvent(NewPaymentReversedEvent(i, removed))
	return removed, nil
}

func (i *Invoice) deriveStatus(paidDate *time.Time) {
	if len(i.Payments) > 0 && !i.Balance().IsPositive() {
		i.Status = StatusPaid
		i.PaidDate = paidDate
		return
	}
	i.Status = StatusUnpaid
	i.PaidDate = nil
}
