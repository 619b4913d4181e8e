package metering

import (
	"testing"
	"time"

	"github.com/dormbill/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRates() UtilityRates {
	return UtilityRates{Water: decimal.NewFromInt(15), Electric: decimal.NewFromInt(8)}
}

func TestNewMeterCycle(t *testing.T) {
	propertyID := uuid.New()
	roomA, roomB := uuid.New(), uuid.New()
	date := time.Date(2026, 3, 31, 17, 45, 0, 0, time.FixedZone("ICT", 7*3600))

	t.Run("snapshots rates and derives units", func(t *testing.T) {
		cycle, err := NewMeterCycle(propertyID, date, []ReadingInput{
			{RoomID: roomA, WaterPrevious: ptr(100), WaterCurrent: ptr(110), ElectricPrevious: ptr(500), ElectricCurrent: ptr(520)},
			{RoomID: roomB, WaterPrevious: ptr(50), WaterCurrent: ptr(40)},
		}, testRates())
		require.NoError(t, err)

		assert.Equal(t, propertyID, cycle.PropertyID)
		assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), cycle.CycleDate)
		require.Len(t, cycle.Readings, 2)

		a, ok := cycle.ReadingForRoom(roomA)
		require.True(t, ok)
		assert.Equal(t, cycle.ID, a.CycleID)
		assert.Equal(t, int64(10), *a.WaterUnits)
		assert.Equal(t, int64(20), *a.ElectricUnits)
		assert.True(t, a.WaterCharge().Equal(decimal.NewFromInt(150)))
		assert.True(t, a.ElectricCharge().Equal(decimal.NewFromInt(160)))

		b, ok := cycle.ReadingForRoom(roomB)
		require.True(t, ok)
		assert.Equal(t, int64(0), *b.WaterUnits)
		assert.Nil(t, b.ElectricUnits)
		assert.True(t, b.WaterRate.Equal(a.WaterRate))
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		_, err := NewMeterCycle(uuid.Nil, date, nil, testRates())
		assert.ErrorIs(t, err, ErrPropertyRequired)

		_, err = NewMeterCycle(propertyID, time.Time{}, nil, testRates())
		assert.ErrorIs(t, err, ErrEmptyCycleDate)

		_, err = NewMeterCycle(propertyID, date, []ReadingInput{{}}, testRates())
		assert.ErrorIs(t, err, ErrMissingRoom)

		_, err = NewMeterCycle(propertyID, date, []ReadingInput{{RoomID: roomA}, {RoomID: roomA}}, testRates())
		assert.ErrorIs(t, err, ErrDuplicateRoom)

		_, err = NewMeterCycle(propertyID, date, []ReadingInput{{RoomID: roomA, WaterCurrent: ptr(-1)}}, testRates())
		assert.ErrorIs(t, err, ErrNegativeReading)

		_, err = NewMeterCycle(propertyID, date, nil, UtilityRates{Water: decimal.NewFromInt(-1)})
		assert.ErrorIs(t, err, ErrNegativeRate)
	})

	t.Run("validation errors are invalid input", func(t *testing.T) {
		_, err := NewMeterCycle(propertyID, date, []ReadingInput{{}}, testRates())
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestMeterCycle_ReplaceReadings(t *testing.T) {
	propertyID := uuid.New()
	roomA, roomB := uuid.New(), uuid.New()
	cycle, err := NewMeterCycle(propertyID, time.Now(), []ReadingInput{
		{RoomID: roomA, WaterPrevious: ptr(1), WaterCurrent: ptr(2)},
		{RoomID: roomB, WaterPrevious: ptr(1), WaterCurrent: ptr(2)},
	}, testRates())
	require.NoError(t, err)

	newRates := UtilityRates{Water: decimal.NewFromInt(20), Electric: decimal.NewFromInt(9)}
	newDate := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)
	err = cycle.ReplaceReadings(newDate, []ReadingInput{
		{RoomID: roomA, WaterPrevious: ptr(2), WaterCurrent: ptr(7)},
	}, newRates)
	require.NoError(t, err)

	assert.Equal(t, newDate, cycle.CycleDate)
	require.Len(t, cycle.Readings, 1, "omitted rooms are dropped")
	_, ok := cycle.ReadingForRoom(roomB)
	assert.False(t, ok)

	a, _ := cycle.ReadingForRoom(roomA)
	assert.Equal(t, int64(5), *a.WaterUnits)
	assert.True(t, a.WaterRate.Equal(decimal.NewFromInt(20)))
}
