package metering

import "github.com/shopspring/decimal"

// UnitsUsed returns current-previous floored at zero. It returns nil when
// either register value is missing so callers can tell "no meter yet" from
// "no consumption". Out-of-order values (a meter reset or a typo) clamp to 0.
func UnitsUsed(previous, current *int64) *int64 {
	if previous == nil || current == nil {
		return nil
	}
	units := *current - *previous
	if units < 0 {
		units = 0
	}
	return &units
}

// Charge returns units * rate. Undefined usage charges nothing.
func Charge(units *int64, rate decimal.Decimal) decimal.Decimal {
	if units == nil {
		return decimal.Zero
	}
	return decimal.NewFromInt(*units).Mul(rate)
}

// UnitsOrZero dereferences units, treating undefined usage as zero.
func UnitsOrZero(units *int64) int64 {
	if units == nil {
		return 0
	}
	return *units
}
