package metering

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MeterCycleRepository defines the persistence contract for meter cycles
type MeterCycleRepository interface {
	// FindByIDForProperty loads a cycle with its readings. Returns
	// shared.ErrNotFound when the cycle does not belong to the property.
	FindByIDForProperty(ctx context.Context, propertyID, id uuid.UUID) (*MeterCycle, error)

	// FindAllForProperty lists cycles, most recent date first. Readings are
	// not loaded.
	FindAllForProperty(ctx context.Context, propertyID uuid.UUID) ([]MeterCycle, error)

	// ExistsByDate reports whether another cycle of the property has date.
	// excludeID may be uuid.Nil.
	ExistsByDate(ctx context.Context, propertyID uuid.UUID, date time.Time, excludeID uuid.UUID) (bool, error)

	// Create inserts the cycle and its readings atomically
	Create(ctx context.Context, cycle *MeterCycle) error

	// ReplaceReadings overwrites the cycle date and swaps the whole reading
	// set in one transaction
	ReplaceReadings(ctx context.Context, cycle *MeterCycle) error

	// DeleteForProperty removes the cycle and its readings
	DeleteForProperty(ctx context.Context, propertyID, id uuid.UUID) error
}
