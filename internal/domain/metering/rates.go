package metering

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UtilityRates are the per-unit prices for water and electricity in effect
// for a property at a point in time.
type UtilityRates struct {
	Water    decimal.Decimal `json:"water"`
	Electric decimal.Decimal `json:"electric"`
}

// Validate rejects negative tariffs.
func (r UtilityRates) Validate() error {
	if r.Water.IsNegative() || r.Electric.IsNegative() {
		return ErrNegativeRate
	}
	return nil
}

// UtilityRateReader resolves the tariffs currently in effect for a property
type UtilityRateReader interface {
	CurrentRates(ctx context.Context, propertyID uuid.UUID) (UtilityRates, error)
}
