package invoicing

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// LateFee is the derived overdue penalty of an invoice at a point in time
type LateFee struct {
	Amount decimal.Decimal `json:"late_fee"`
	Days   int             `json:"late_days"`
}

// Description renders the late fee line text
func (f LateFee) Description() string {
	return fmt.Sprintf("Late payment fee (%d days)", f.Days)
}

// ComputeLateFee derives the penalty of inv at now. Paid invoices and
// invoices not yet past due accrue nothing. Otherwise the fee is whole days
// overdue times the invoice's per-day charge.
func ComputeLateFee(inv *Invoice, now time.Time) LateFee {
	if inv.Status != StatusUnpaid || !now.After(inv.DueDate) {
		return LateFee{Amount: decimal.Zero}
	}
	days := int(math.Floor(now.Sub(inv.DueDate).Hours() / 24))
	return LateFee{
		Amount: inv.LateFeePerDay.Mul(decimal.NewFromInt(int64(days))),
		Days:   days,
	}
}

// IsOverdue reports whether the invoice is unpaid and past its due date
func (i *Invoice) IsOverdue(now time.Time) bool {
	return i.Status == StatusUnpaid && now.After(i.DueDate)
}
