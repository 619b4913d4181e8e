package metering

import (
	"time"

	"github.com/dormbill/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeMeterCycle is the aggregate type name for meter cycles
const AggregateTypeMeterCycle = "MeterCycle"

// ReadingInput is one room's raw register values as entered by staff.
type ReadingInput struct {
	RoomID           uuid.UUID
	WaterPrevious    *int64
	WaterCurrent     *int64
	ElectricPrevious *int64
	ElectricCurrent  *int64
}

// MeterReading is one room's consumption record within a cycle. Units are
// derived on construction and the rates are a copy, not a reference.
type MeterReading struct {
	ID               uuid.UUID
	CycleID          uuid.UUID
	RoomID           uuid.UUID
	WaterPrevious    *int64
	WaterCurrent     *int64
	ElectricPrevious *int64
	ElectricCurrent  *int64
	WaterUnits       *int64
	ElectricUnits    *int64
	WaterRate        decimal.Decimal
	ElectricRate     decimal.Decimal
}

// WaterCharge returns the water charge at the snapshotted rate.
func (r MeterReading) WaterCharge() decimal.Decimal {
	return Charge(r.WaterUnits, r.WaterRate)
}

// ElectricCharge returns the electricity charge at the snapshotted rate.
func (r MeterReading) ElectricCharge() decimal.Decimal {
	return Charge(r.ElectricUnits, r.ElectricRate)
}

// MeterCycle is one dated snapshot of meter readings for a property.
type MeterCycle struct {
	shared.PropertyAggregateRoot
	CycleDate time.Time
	Readings  []MeterReading
}

// NewMeterCycle builds a cycle for date, stamping every reading with rates.
func NewMeterCycle(propertyID uuid.UUID, date time.Time, inputs []ReadingInput, rates UtilityRates) (*MeterCycle, error) {
	if propertyID == uuid.Nil {
		return nil, ErrPropertyRequired
	}
	cycle := &MeterCycle{
		PropertyAggregateRoot: shared.NewPropertyAggregateRoot(propertyID),
	}
	if err := cycle.ReplaceReadings(date, inputs, rates); err != nil {
		return nil, err
	}
	return cycle, nil
}

// ReplaceReadings discards every existing reading and installs the supplied
// set together with the new cycle date. Rooms not present in inputs lose
// their reading for this cycle.
func (c *MeterCycle) ReplaceReadings(date time.Time, inputs []ReadingInput, rates UtilityRates) error {
	if date.IsZero() {
		return ErrEmptyCycleDate
	}
	if err := rates.Validate(); err != nil {
		return err
	}

	seen := make(map[uuid.UUID]struct{}, len(inputs))
	readings := make([]MeterReading, 0, len(inputs))
	for _, in := range inputs {
		if in.RoomID == uuid.Nil {
			return ErrMissingRoom
		}
		if _, dup := seen[in.RoomID]; dup {
			return ErrDuplicateRoom
		}
		seen[in.RoomID] = struct{}{}
		if negative(in.WaterPrevious, in.WaterCurrent, in.ElectricPrevious, in.ElectricCurrent) {
			return ErrNegativeReading
		}

		readings = append(readings, MeterReading{
			ID:               uuid.New(),
			CycleID:          c.ID,
			RoomID:           in.RoomID,
			WaterPrevious:    in.WaterPrevious,
			WaterCurrent:     in.WaterCurrent,
			ElectricPrevious: in.ElectricPrevious,
			ElectricCurrent:  in.ElectricCurrent,
			WaterUnits:       UnitsUsed(in.WaterPrevious, in.WaterCurrent),
			ElectricUnits:    UnitsUsed(in.ElectricPrevious, in.ElectricCurrent),
			WaterRate:        rates.Water,
			ElectricRate:     rates.Electric,
		})
	}

	c.CycleDate = shared.DateOnly(date)
	c.Readings = readings
	c.Touch()
	return nil
}

// ReadingForRoom returns the reading of roomID, if any.
func (c *MeterCycle) ReadingForRoom(roomID uuid.UUID) (MeterReading, bool) {
	for _, r := range c.Readings {
		if r.RoomID == roomID {
			return r, true
		}
	}
	return MeterReading{}, false
}

func negative(values ...*int64) bool {
	for _, v := range values {
		if v != nil && *v < 0 {
			return true
		}
	}
	return false
}
