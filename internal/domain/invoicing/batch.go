package invoicing

import (
	"fmt"
	"time"

	"github.com/dormbill/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceBatch is the header row of one generation run
type InvoiceBatch struct {
	ID            uuid.UUID
	PropertyID    uuid.UUID
	CycleID       uuid.UUID
	BillMonth     time.Time
	DueDate       time.Time
	LateFeePerDay decimal.Decimal
	InvoiceCount  int
	CreatedAt     time.Time
}

// NewInvoiceBatch validates the batch parameters and normalizes the bill
// month to its first day.
func NewInvoiceBatch(propertyID, cycleID uuid.UUID, billMonth, dueDate time.Time, lateFeePerDay decimal.Decimal) (*InvoiceBatch, error) {
	if billMonth.IsZero() {
		return nil, ErrInvalidBillMonth
	}
	if dueDate.IsZero() {
		return nil, ErrInvalidDueDate
	}
	if lateFeePerDay.IsNegative() {
		return nil, ErrNegativeLateFee
	}
	return &InvoiceBatch{
		ID:            uuid.New(),
		PropertyID:    propertyID,
		CycleID:       cycleID,
		BillMonth:     shared.MonthStart(billMonth),
		DueDate:       shared.DateOnly(dueDate),
		LateFeePerDay: lateFeePerDay,
		CreatedAt:     time.Now(),
	}, nil
}

// ServiceCharge is one active recurring service billed with the rent
type ServiceCharge struct {
	Name     string
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// RoomCharges is everything needed to bill one room in a batch
type RoomCharges struct {
	RoomID        uuid.UUID
	TenantID      uuid.UUID
	RoomRate      decimal.Decimal
	WaterUnits    int64
	WaterRate     decimal.Decimal
	ElectricUnits int64
	ElectricRate  decimal.Decimal
	Services      []ServiceCharge
}

// Validate checks that the room can be billed
func (c RoomCharges) Validate() error {
	if c.RoomID == uuid.Nil {
		return ErrMissingRoom
	}
	if c.TenantID == uuid.Nil {
		return ErrMissingTenant
	}
	return nil
}

// NewInvoice builds the invoice for one room with its three base lines and
// one service line per active service. The invoice number is assigned when
// the batch is persisted.
func (b *InvoiceBatch) NewInvoice(charges RoomCharges, issueDate time.Time) (*Invoice, error) {
	if err := charges.Validate(); err != nil {
		return nil, err
	}

	inv := &Invoice{
		PropertyAggregateRoot: shared.NewPropertyAggregateRoot(b.PropertyID),
		BatchID:               b.ID,
		RoomID:                charges.RoomID,
		TenantID:              charges.TenantID,
		CycleID:               b.CycleID,
		BillMonth:             b.BillMonth,
		IssueDate:             shared.DateOnly(issueDate),
		DueDate:               b.DueDate,
		LateFeePerDay:         b.LateFeePerDay,
		Status:                StatusUnpaid,
	}

	one := decimal.NewFromInt(1)
	inv.Lines = append(inv.Lines,
		newLine(inv.ID, LineTypeRent, "Room rent", charges.RoomRate, one),
		newLine(inv.ID, LineTypeWater, unitsDescription("Water", charges.WaterUnits),
			charges.WaterRate, decimal.NewFromInt(charges.WaterUnits)),
		newLine(inv.ID, LineTypeElectric, unitsDescription("Electricity", charges.ElectricUnits),
			charges.ElectricRate, decimal.NewFromInt(charges.ElectricUnits)),
	)
	for _, svc := range charges.Services {
		qty := svc.Quantity
		if qty.IsZero() {
			qty = one
		}
		inv.Lines = append(inv.Lines, newLine(inv.ID, LineTypeService, svc.Name, svc.Price, qty))
	}
	inv.RecalculateTotal()
	return inv, nil
}

// FormatInvoiceNumber renders the human-readable number for the seq-th
// invoice of a property in billMonth, e.g. INV-202603-0007.
func FormatInvoiceNumber(billMonth time.Time, seq int64) string {
	return fmt.Sprintf("INV-%s-%04d", SequencePeriod(billMonth), seq)
}

// SequencePeriod is the counter key of a bill month (YYYYMM).
func SequencePeriod(billMonth time.Time) string {
	return billMonth.Format("200601")
}
