package invoicing

import (
	"context"
	"fmt"
	"testing"
	"time"

	meteringapp "github.com/dormbill/backend/internal/application/metering"
	"github.com/dormbill/backend/internal/infrastructure/persistence"
	"github.com/dormbill/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

type billingFixture struct {
	db       *gorm.DB
	property *testutil.PropertyFixture
	repo     *persistence.GormInvoiceRepository

	generation *GenerationService
	lateFees   *LateFeeService
	ledger     *LedgerService
	payments   *PaymentService
	invoices   *InvoiceService
	bus        *testutil.RecordingPublisher

	roomA, roomB uuid.UUID
	tenantA      uuid.UUID
	cycleID      uuid.UUID
}

type sequentialReceipts struct{ n int }

func (r *sequentialReceipts) Next() string {
	r.n++
	return fmt.Sprintf("RCP-%d", r.n)
}

// newBillingFixture seeds room A101 (rent 3000, tenant) and B102 (rent 2800,
// vacant) with a 2026-03-01 cycle reading 10 water and 20 electric units
// each at rates 15 and 8.
func newBillingFixture(t *testing.T) *billingFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	f := testutil.NewPropertyFixture(db)
	fx := &billingFixture{db: db, property: f}

	fx.roomA = f.AddRoom(t, "A101", 3000)
	fx.roomB = f.AddRoom(t, "B102", 2800)
	_, fx.tenantA = f.AddTenant(t, fx.roomA, "Somchai", "somchai@example.com")
	f.SetRates(t, 15, 8, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	cycles := persistence.NewGormMeterCycleRepository(db)
	rooms := persistence.NewGormRoomDirectory(db)
	fx.repo = persistence.NewGormInvoiceRepository(db)

	cycleSvc := meteringapp.NewCycleService(cycles, persistence.NewGormUtilityRateReader(db), rooms, fx.repo)
	cycle, err := cycleSvc.Create(context.Background(), f.PropertyID, meteringapp.CycleRequest{
		CycleDate: "2026-03-01",
		Readings: []meteringapp.ReadingRequest{
			reading(fx.roomA), reading(fx.roomB),
		},
	})
	require.NoError(t, err)
	fx.cycleID = cycle.ID

	fx.bus = &testutil.RecordingPublisher{}
	clock := func() time.Time { return fixedNow }

	fx.generation = NewGenerationService(fx.repo, cycles, rooms, GenerationDefaults{
		LateFeePerDay: decimal.NewFromInt(100),
		DueDays:       7,
	})
	fx.generation.now = clock
	fx.generation.SetEventPublisher(fx.bus)

	fx.lateFees = NewLateFeeService(fx.repo)
	fx.lateFees.now = clock
	fx.lateFees.SetEventPublisher(fx.bus)

	fx.ledger = NewLedgerService(fx.repo)

	fx.payments = NewPaymentService(fx.repo, fx.lateFees, &sequentialReceipts{})
	fx.payments.now = clock
	fx.payments.SetEventPublisher(fx.bus)

	fx.invoices = NewInvoiceService(fx.repo, fx.lateFees)
	fx.invoices.now = clock
	return fx
}

func reading(roomID uuid.UUID) meteringapp.ReadingRequest {
	return meteringapp.ReadingRequest{
		RoomID:           roomID,
		WaterPrevious:    testutil.Int64(100),
		WaterCurrent:     testutil.Int64(110),
		ElectricPrevious: testutil.Int64(200),
		ElectricCurrent:  testutil.Int64(220),
	}
}

func dec(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// generateA bills room A101 for 2026-03 at 100 per day late fee and returns
// the new invoice id.
func (fx *billingFixture) generateA(t *testing.T, dueDate string) uuid.UUID {
	t.Helper()
	res, err := fx.generation.Generate(context.Background(), fx.property.PropertyID, GenerateInvoicesRequest{
		CycleID:       fx.cycleID,
		BillMonth:     "2026-03",
		DueDate:       dueDate,
		LateFeePerDay: dec(100),
		Rooms:         []RoomSelection{{RoomID: fx.roomA, TenantID: &fx.tenantA}},
	})
	require.NoError(t, err)
	require.Len(t, res.Invoices, 1)
	return res.Invoices[0].ID
}
