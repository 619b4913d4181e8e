package invoicing

import (
	"strings"
	"time"

	"github.com/dormbill/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeInvoice is the aggregate type name for invoices
const AggregateTypeInvoice = "Invoice"

// InvoiceStatus represents the settlement status of an invoice
type InvoiceStatus string

const (
	StatusUnpaid InvoiceStatus = "unpaid"
	StatusPaid   InvoiceStatus = "paid"
)

// IsValid checks if the status is valid
func (s InvoiceStatus) IsValid() bool {
	return s == StatusUnpaid || s == StatusPaid
}

// String returns the string representation
func (s InvoiceStatus) String() string {
	return string(s)
}

// Invoice is one bill for one room and one billing month
type Invoice struct {
	shared.PropertyAggregateRoot
	BatchID       uuid.UUID
	RoomID        uuid.UUID
	TenantID      uuid.UUID
	CycleID       uuid.UUID
	InvoiceNumber string
	BillMonth     time.Time
	IssueDate     time.Time
	DueDate       time.Time
	LateFeePerDay decimal.Decimal
	TotalAmount   decimal.Decimal
	Status        InvoiceStatus
	PaidDate      *time.Time
	Lines         []InvoiceLine
	Payments      []Payment
}

// RecalculateTotal recomputes TotalAmount from every current line
func (i *Invoice) RecalculateTotal() {
	i.TotalAmount = CalculateTotal(i.Lines)
}

// PaidAmount sums all recorded payments
func (i *Invoice) PaidAmount() decimal.Decimal {
	paid := decimal.Zero
	for _, p := range i.Payments {
		paid = paid.Add(p.Amount)
	}
	return paid
}

// Balance is the outstanding amount: total minus payments
func (i *Invoice) Balance() decimal.Decimal {
	return i.TotalAmount.Sub(i.PaidAmount())
}

// ReconcileStatus re-derives status from the current total and payments.
// An invoice that becomes paid takes the date of its latest payment; one
// that stays paid keeps its paid date.
func (i *Invoice) ReconcileStatus() {
	paidDate := i.PaidDate
	if paidDate == nil {
		paidDate = i.lastPaymentDate()
	}
	i.deriveStatus(paidDate)
}

func (i *Invoice) lastPaymentDate() *time.Time {
	var last *time.Time
	for idx := range i.Payments {
		d := i.Payments[idx].PaymentDate
		if last == nil || d.After(*last) {
			last = &d
		}
	}
	return last
}

// IsPaid returns true if the invoice is settled
func (i *Invoice) IsPaid() bool {
	return i.Status == StatusPaid
}

// FindLine returns the line with id
func (i *Invoice) FindLine(id uuid.UUID) (*InvoiceLine, error) {
	for idx := range i.Lines {
		if i.Lines[idx].ID == id {
			return &i.Lines[idx], nil
		}
	}
	return nil, ErrLineNotFound
}

// LateFeeLine returns the late fee line, if one was accrued
func (i *Invoice) LateFeeLine() *InvoiceLine {
	for idx := range i.Lines {
		if i.Lines[idx].ItemType == LineTypeLateFee {
			return &i.Lines[idx]
		}
	}
	return nil
}

// AddLine appends a staff line. Only service and discount lines can be
// created here; a discount's unit price is stored negative.
func (i *Invoice) AddLine(lineType LineType, description string, unitPrice, unitCount decimal.Decimal) (*InvoiceLine, error) {
	if !lineType.IsStaffCreatable() {
		return nil, shared.ErrInvalidLineType
	}
	if strings.TrimSpace(description) == "" {
		return nil, ErrEmptyDescription
	}
	if !unitCount.IsPositive() {
		return nil, ErrInvalidUnitCount
	}

	i.Lines = append(i.Lines, newLine(i.ID, lineType, description, unitPrice, unitCount))
	i.RecalculateTotal()
	i.ReconcileStatus()
	i.Touch()
	return &i.Lines[len(i.Lines)-1], nil
}

// EditLine applies changes to a non-base line and recomputes the total.
// Rent, water and electric lines fail with shared.ErrForbidden and stay
// untouched.
func (i *Invoice) EditLine(lineID uuid.UUID, changes LineChanges) (*InvoiceLine, error) {
	line, err := i.FindLine(lineID)
	if err != nil {
		return nil, err
	}
	if line.ItemType.IsBase() {
		return nil, shared.ErrBaseLineImmutable
	}
	if changes.IsEmpty() {
		return nil, ErrEmptyChanges
	}
	if changes.Description != nil && strings.TrimSpace(*changes.Description) == "" {
		return nil, ErrEmptyDescription
	}
	if changes.UnitCount != nil && !changes.UnitCount.IsPositive() {
		return nil, ErrInvalidUnitCount
	}

	if changes.Description != nil {
		line.Description = strings.TrimSpace(*changes.Description)
	}
	if changes.UnitPrice != nil {
		line.UnitPrice = *changes.UnitPrice
	}
	if changes.UnitCount != nil {
		line.UnitCount = *changes.UnitCount
	}
	line.reprice()

	i.RecalculateTotal()
	i.ReconcileStatus()
	i.Touch()
	return line, nil
}

// RemoveLine deletes a non-base line and recomputes the total
func (i *Invoice) RemoveLine(lineID uuid.UUID) (InvoiceLine, error) {
	line, err := i.FindLine(lineID)
	if err != nil {
		return InvoiceLine{}, err
	}
	if line.ItemType.IsBase() {
		return InvoiceLine{}, shared.ErrBaseLineImmutable
	}

	removed := *line
	lines := make([]InvoiceLine, 0, len(i.Lines)-1)
	for _, l := range i.Lines {
		if l.ID != lineID {
			lines = append(lines, l)
		}
	}
	i.Lines = lines
	i.RecalculateTotal()
	i.ReconcileStatus()
	i.Touch()
	return removed, nil
}

// AccrueLateFee writes fee into the invoice's single late_fee line. It
// returns the line to persist, or nil when nothing should be stored: no
// line exists yet and the fee is zero.
func (i *Invoice) AccrueLateFee(fee LateFee) *InvoiceLine {
	existing := i.LateFeeLine()
	if existing == nil && !fee.Amount.IsPositive() {
		return nil
	}

	if existing == nil {
		i.Lines = append(i.Lines, newLine(i.ID, LineTypeLateFee, fee.Description(), i.LateFeePerDay, decimal.NewFromInt(int64(fee.Days))))
		existing = &i.Lines[len(i.Lines)-1]
	} else {
		existing.Description = fee.Description()
		existing.UnitPrice = i.LateFeePerDay
		existing.UnitCount = decimal.NewFromInt(int64(fee.Days))
		existing.reprice()
	}

	i.RecalculateTotal()
	i.ReconcileStatus()
	i.AddDomainEvent(NewLateFeeAccruedEvent(i, fee))
	return existing
}
