package metering

import (
	"context"
	"testing"
	"time"

	"github.com/dormbill/backend/internal/domain/shared"
	"github.com/dormbill/backend/internal/infrastructure/persistence"
	"github.com/dormbill/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func i64(v int64) *int64 { return &v }

type cycleFixture struct {
	svc      *CycleService
	property *testutil.PropertyFixture
	roomA    uuid.UUID
	roomB    uuid.UUID
}

func newCycleFixture(t *testing.T) *cycleFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	f := testutil.NewPropertyFixture(db)
	roomA := f.AddRoom(t, "A101", 3000)
	roomB := f.AddRoom(t, "B102", 2800)
	f.AddTenant(t, roomA, "Somchai", "somchai@example.com")
	f.SetRates(t, 15, 8, time.Now().AddDate(0, -1, 0))

	svc := NewCycleService(
		persistence.NewGormMeterCycleRepository(db),
		persistence.NewGormUtilityRateReader(db),
		persistence.NewGormRoomDirectory(db),
		persistence.NewGormInvoiceRepository(db),
	)
	return &cycleFixture{svc: svc, property: f, roomA: roomA, roomB: roomB}
}

func (f *cycleFixture) request(date string, rooms ...uuid.UUID) CycleRequest {
	req := CycleRequest{CycleDate: date}
	for _, id := range rooms {
		req.Readings = append(req.Readings, ReadingRequest{
			RoomID:           id,
			WaterPrevious:    i64(100),
			WaterCurrent:     i64(110),
			ElectricPrevious: i64(200),
			ElectricCurrent:  i64(220),
		})
	}
	return req
}

func TestCycleService_Create(t *testing.T) {
	f := newCycleFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, f.property.PropertyID, f.request("2026-03-01", f.roomA, f.roomB))
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", resp.CycleDate)
	require.Len(t, resp.Readings, 2)
	for _, r := range resp.Readings {
		assert.Equal(t, int64(10), *r.WaterUnits)
		assert.Equal(t, int64(20), *r.ElectricUnits)
		assert.True(t, decimal.NewFromInt(15).Equal(r.WaterRate))
		assert.True(t, decimal.NewFromInt(150).Equal(r.WaterCharge))
		assert.True(t, decimal.NewFromInt(160).Equal(r.ElectricCharge))
	}

	t.Run("duplicate date", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.property.PropertyID, f.request("2026-03-01", f.roomA))
		assert.ErrorIs(t, err, shared.ErrDuplicateCycle)
	})

	t.Run("same date for another property", func(t *testing.T) {
		_, err := f.svc.Create(ctx, uuid.New(), f.request("2026-03-01"))
		assert.NoError(t, err)
	})

	t.Run("invalid date", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.property.PropertyID, f.request("01/03/2026"))
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestCycleService_RatesAreSnapshotted(t *testing.T) {
	f := newCycleFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.property.PropertyID, f.request("2026-03-01", f.roomA))
	require.NoError(t, err)

	f.property.SetRates(t, 20, 9, time.Now().AddDate(0, 0, -1))

	got, err := f.svc.Get(ctx, f.property.PropertyID, created.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(15).Equal(got.Readings[0].WaterRate))
	assert.True(t, decimal.NewFromInt(8).Equal(got.Readings[0].ElectricRate))

	replaced, err := f.svc.Replace(ctx, f.property.PropertyID, created.ID, f.request("2026-03-01", f.roomA))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(20).Equal(replaced.Readings[0].WaterRate))
}

func TestCycleService_Replace(t *testing.T) {
	f := newCycleFixture(t)
	ctx := context.Background()
	pid := f.property.PropertyID

	march, err := f.svc.Create(ctx, pid, f.request("2026-03-01", f.roomA, f.roomB))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, pid, f.request("2026-04-01", f.roomA))
	require.NoError(t, err)

	t.Run("swaps the whole reading set", func(t *testing.T) {
		resp, err := f.svc.Replace(ctx, pid, march.ID, f.request("2026-03-02", f.roomB))
		require.NoError(t, err)
		assert.Equal(t, "2026-03-02", resp.CycleDate)
		require.Len(t, resp.Readings, 1)
		assert.Equal(t, f.roomB, resp.Readings[0].RoomID)

		got, err := f.svc.Get(ctx, pid, march.ID)
		require.NoError(t, err)
		assert.Len(t, got.Readings, 1)
	})

	t.Run("date collides with another cycle", func(t *testing.T) {
		_, err := f.svc.Replace(ctx, pid, march.ID, f.request("2026-04-01", f.roomA))
		assert.ErrorIs(t, err, shared.ErrDuplicateCycle)
	})

	t.Run("foreign property", func(t *testing.T) {
		_, err := f.svc.Replace(ctx, uuid.New(), march.ID, f.request("2026-05-01"))
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestCycleService_ListAndDelete(t *testing.T) {
	f := newCycleFixture(t)
	ctx := context.Background()
	pid := f.property.PropertyID

	first, err := f.svc.Create(ctx, pid, f.request("2026-02-01", f.roomA))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, pid, f.request("2026-03-01", f.roomA))
	require.NoError(t, err)

	list, err := f.svc.List(ctx, pid)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2026-03-01", list[0].CycleDate)

	require.NoError(t, f.svc.Delete(ctx, pid, first.ID))
	_, err = f.svc.Get(ctx, pid, first.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	assert.ErrorIs(t, f.svc.Delete(ctx, pid, first.ID), shared.ErrNotFound)
}

func TestCycleService_Candidates(t *testing.T) {
	f := newCycleFixture(t)
	ctx := context.Background()
	pid := f.property.PropertyID

	cycle, err := f.svc.Create(ctx, pid, f.request("2026-03-01", f.roomA, f.roomB))
	require.NoError(t, err)

	candidates, err := f.svc.Candidates(ctx, pid, cycle.ID)
	require.NoError(t, err)
	require.Len(t, candidates, 1, "room without a tenant is excluded")

	c := candidates[0]
	assert.Equal(t, f.roomA, c.RoomID)
	assert.Equal(t, "A101", c.RoomName)
	assert.Equal(t, "Somchai", c.TenantName)
	assert.True(t, decimal.NewFromInt(3310).Equal(c.EstimatedTotal))
	assert.False(t, c.AlreadyInvoiced)

	_, err = f.svc.Candidates(ctx, uuid.New(), cycle.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
