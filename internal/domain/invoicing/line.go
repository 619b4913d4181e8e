package invoicing

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineType classifies an invoice ledger entry
type LineType string

const (
	LineTypeRent     LineType = "rent"
	LineTypeWater    LineType = "water"
	LineTypeElectric LineType = "electric"
	LineTypeService  LineType = "service"
	LineTypeDiscount LineType = "discount"
	LineTypeLateFee  LineType = "late_fee"
)

// IsValid checks if the line type is known
func (t LineType) IsValid() bool {
	switch t {
	case LineTypeRent, LineTypeWater, LineTypeElectric, LineTypeService, LineTypeDiscount, LineTypeLateFee:
		return true
	}
	return false
}

// IsBase reports whether the type is generator-owned and immutable
func (t LineType) IsBase() bool {
	return t == LineTypeRent || t == LineTypeWater || t == LineTypeElectric
}

// IsStaffCreatable reports whether staff may add lines of this type
func (t LineType) IsStaffCreatable() bool {
	return t == LineTypeService || t == LineTypeDiscount
}

// String returns the string representation
func (t LineType) String() string {
	return string(t)
}

// InvoiceLine is one ledger entry of an invoice
type InvoiceLine struct {
	ID          uuid.UUID
	InvoiceID   uuid.UUID
	ItemType    LineType
	Description string
	UnitCount   decimal.Decimal
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal
}

func newLine(invoiceID uuid.UUID, lineType LineType, description string, unitPrice, unitCount decimal.Decimal) InvoiceLine {
	line := InvoiceLine{
		ID:          uuid.New(),
		InvoiceID:   invoiceID,
		ItemType:    lineType,
		Description: strings.TrimSpace(description),
		UnitCount:   unitCount,
		UnitPrice:   unitPrice,
	}
	line.reprice()
	return line
}

// reprice normalizes the discount sign and derives Amount.
func (l *InvoiceLine) reprice() {
	if l.ItemType == LineTypeDiscount {
		l.UnitPrice = l.UnitPrice.Abs().Neg()
	}
	l.Amount = l.UnitPrice.Mul(l.UnitCount)
}

// SignedAmount is the line's contribution to the invoice total. Discounts
// always reduce the total regardless of how their amount was stored.
func (l InvoiceLine) SignedAmount() decimal.Decimal {
	if l.ItemType == LineTypeDiscount {
		return l.Amount.Abs().Neg()
	}
	return l.Amount
}

// CalculateTotal recomputes an invoice total from its full line set:
// the sum of non-discount amounts minus the sum of absolute discount amounts.
func CalculateTotal(lines []InvoiceLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.SignedAmount())
	}
	return total
}

// LineChanges carries the optional fields of a line edit
type LineChanges struct {
	Description *string
	UnitPrice   *decimal.Decimal
	UnitCount   *decimal.Decimal
}

// IsEmpty reports whether no field is being changed
func (c LineChanges) IsEmpty() bool {
	return c.Description == nil && c.UnitPrice == nil && c.UnitCount == nil
}

func unitsDescription(label string, units int64) string {
	return fmt.Sprintf("%s (%d units)", label, units)
}
