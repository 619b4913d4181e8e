package integration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	invoicingapp "github.com/dormbill/backend/internal/application/invoicing"
	meteringapp "github.com/dormbill/backend/internal/application/metering"
	"github.com/dormbill/backend/internal/domain/invoicing"
	"github.com/dormbill/backend/internal/domain/shared"
	"github.com/dormbill/backend/internal/infrastructure/event"
	"github.com/dormbill/backend/internal/infrastructure/persistence"
	"github.com/dormbill/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	code := m.Run()
	CleanupSharedContainer()
	os.Exit(code)
}

const farDueDate = "2099-12-31"

// billingEnv is one property with rooms A101 (rent 3000, internet 300)
// and B102 (rent 2800), rates 15 water and 8 electric, and the full
// service graph over a PostgreSQL database
type billingEnv struct {
	db         *TestDB
	propertyID uuid.UUID
	roomA      uuid.UUID
	roomB      uuid.UUID
	tenantA    uuid.UUID
	tenantB    uuid.UUID

	cycles     *meteringapp.CycleService
	generation *invoicingapp.GenerationService
	invoices   *invoicingapp.InvoiceService
	ledger     *invoicingapp.LedgerService
	payments   *invoicingapp.PaymentService
}

func newBillingEnv(t *testing.T) *billingEnv {
	t.Helper()
	tdb := NewSharedTestDB(t)
	prop := testutil.NewPropertyFixture(tdb.DB)

	env := &billingEnv{db: tdb, propertyID: prop.PropertyID}
	env.roomA = prop.AddRoom(t, "A101", 3000)
	env.roomB = prop.AddRoom(t, "B102", 2800)
	var contractA uuid.UUID
	contractA, env.tenantA = prop.AddTenant(t, env.roomA, "Somchai", "somchai@example.com")
	_, env.tenantB = prop.AddTenant(t, env.roomB, "Malee", "malee@example.com")
	prop.AddService(t, contractA, "Internet", 300, 1)
	prop.SetRates(t, 15, 8, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	cycleRepo := persistence.NewGormMeterCycleRepository(tdb.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(tdb.DB)
	rooms := persistence.NewGormRoomDirectory(tdb.DB)

	bus := event.NewInMemoryEventBus()
	bus.Subscribe(event.NewAuditLogHandler(tdb.DB))

	receipts, err := invoicingapp.NewSnowflakeReceipts(7)
	require.NoError(t, err)

	lateFees := invoicingapp.NewLateFeeService(invoiceRepo)
	lateFees.SetEventPublisher(bus)

	env.cycles = meteringapp.NewCycleService(cycleRepo, persistence.NewGormUtilityRateReader(tdb.DB), rooms, invoiceRepo)
	env.generation = invoicingapp.NewGenerationService(invoiceRepo, cycleRepo, rooms, invoicingapp.GenerationDefaults{
		LateFeePerDay: decimal.NewFromInt(50),
		DueDays:       7,
	})
	env.generation.SetEventPublisher(bus)
	env.invoices = invoicingapp.NewInvoiceService(invoiceRepo, lateFees)
	env.ledger = invoicingapp.NewLedgerService(invoiceRepo)
	env.payments = invoicingapp.NewPaymentService(invoiceRepo, lateFees, receipts)
	env.payments.SetEventPublisher(bus)
	return env
}

func (env *billingEnv) createCycle(t *testing.T, ctx context.Context, date string) uuid.UUID {
	t.Helper()
	cycle, err := env.cycles.Create(ctx, env.propertyID, meteringapp.CycleRequest{
		CycleDate: date,
		Readings: []meteringapp.ReadingRequest{
			{RoomID: env.roomA, WaterPrevious: testutil.Int64(100), WaterCurrent: testutil.Int64(110), ElectricPrevious: testutil.Int64(200), ElectricCurrent: testutil.Int64(220)},
			{RoomID: env.roomB, WaterPrevious: testutil.Int64(50), WaterCurrent: testutil.Int64(55), ElectricPrevious: testutil.Int64(300), ElectricCurrent: testutil.Int64(310)},
		},
	})
	require.NoError(t, err)
	return cycle.ID
}

func (env *billingEnv) generate(ctx context.Context, cycleID uuid.UUID, dueDate string, rooms ...uuid.UUID) (*invoicingapp.BatchResult, error) {
	tenants := map[uuid.UUID]uuid.UUID{env.roomA: env.tenantA, env.roomB: env.tenantB}
	selections := make([]invoicingapp.RoomSelection, 0, len(rooms))
	for _, room := range rooms {
		tenant := tenants[room]
		selections = append(selections, invoicingapp.RoomSelection{RoomID: room, TenantID: &tenant})
	}
	return env.generation.Generate(ctx, env.propertyID, invoicingapp.GenerateInvoicesRequest{
		CycleID:   cycleID,
		BillMonth: "2026-03",
		DueDate:   dueDate,
		Rooms:     selections,
	})
}

func invoiceFor(t *testing.T, batch *invoicingapp.BatchResult, room uuid.UUID) invoicingapp.InvoiceSummary {
	t.Helper()
	for _, inv := range batch.Invoices {
		if inv.RoomID == room {
			return inv
		}
	}
	t.Fatalf("no invoice for room %s", room)
	return invoicingapp.InvoiceSummary{}
}

func TestBillingFlow(t *testing.T) {
	env := newBillingEnv(t)
	ctx, cancel := testutil.ContextWithTimeout(t, 60*time.Second)
	defer cancel()

	cycleID := env.createCycle(t, ctx, "2026-03-01")

	t.Run("duplicate cycle date is rejected", func(t *testing.T) {
		_, err := env.cycles.Create(ctx, env.propertyID, meteringapp.CycleRequest{CycleDate: "2026-03-01"})
		assert.ErrorIs(t, err, shared.ErrDuplicateCycle)
	})

	t.Run("candidates estimate each occupied room", func(t *testing.T) {
		candidates, err := env.cycles.Candidates(ctx, env.propertyID, cycleID)
		require.NoError(t, err)
		require.Len(t, candidates, 2)

		totals := map[uuid.UUID]string{}
		for _, c := range candidates {
			totals[c.RoomID] = c.EstimatedTotal.String()
			assert.False(t, c.AlreadyInvoiced)
		}
		// services are billed but not part of the estimate
		assert.Equal(t, "3310", totals[env.roomA])
		assert.Equal(t, "2955", totals[env.roomB])
	})

	batch, err := env.generate(ctx, cycleID, farDueDate, env.roomA, env.roomB)
	require.NoError(t, err)
	require.Equal(t, 2, batch.InvoiceCount)
	assert.Equal(t, "6565", batch.TotalAmount.String())

	invA := invoiceFor(t, batch, env.roomA)
	invB := invoiceFor(t, batch, env.roomB)
	assert.Regexp(t, `^INV-202603-\d{4}$`, invA.InvoiceNumber)
	assert.NotEqual(t, invA.InvoiceNumber, invB.InvoiceNumber)

	t.Run("detail carries rent utilities and services", func(t *testing.T) {
		detail, err := env.invoices.GetDetail(ctx, env.propertyID, invA.ID)
		require.NoError(t, err)
		assert.Equal(t, "3610", detail.TotalAmount.String())
		assert.Equal(t, "3610", detail.Balance.String())
		assert.Len(t, detail.Lines, 4)
		assert.False(t, detail.Overdue)
	})

	t.Run("candidates flag invoiced rooms", func(t *testing.T) {
		candidates, err := env.cycles.Candidates(ctx, env.propertyID, cycleID)
		require.NoError(t, err)
		for _, c := range candidates {
			assert.True(t, c.AlreadyInvoiced, "room %s", c.RoomName)
		}
	})

	t.Run("discount line lowers the stored total", func(t *testing.T) {
		resp, err := env.ledger.AddLine(ctx, env.propertyID, invA.ID, invoicingapp.AddLineRequest{
			ItemType:    "discount",
			Description: "Loyalty",
			UnitPrice:   decimal.NewFromInt(110),
		})
		require.NoError(t, err)
		assert.Equal(t, "3500", resp.TotalAmount.String())
		assert.Equal(t, "-110", resp.Line.Amount.String())
	})

	t.Run("payments settle and reopen the invoice", func(t *testing.T) {
		partial := decimal.NewFromInt(1500)
		first, err := env.payments.RecordPayment(ctx, env.propertyID, invA.ID, invoicingapp.RecordPaymentRequest{
			Method: "transfer", Amount: &partial,
		})
		require.NoError(t, err)
		assert.Equal(t, "unpaid", first.InvoiceStatus)
		assert.Equal(t, "2000", first.Balance.String())
		assert.NotEmpty(t, first.Payment.ReceiptNumber)

		settle, err := env.payments.RecordPayment(ctx, env.propertyID, invA.ID, invoicingapp.RecordPaymentRequest{Method: "cash"})
		require.NoError(t, err)
		assert.Equal(t, "paid", settle.InvoiceStatus)
		assert.True(t, settle.Balance.IsZero())
		require.NotNil(t, settle.PaidDate)
		assert.NotEqual(t, first.Payment.ReceiptNumber, settle.Payment.ReceiptNumber)

		_, err = env.payments.RecordPayment(ctx, env.propertyID, invA.ID, invoicingapp.RecordPaymentRequest{Method: "cash"})
		assert.ErrorIs(t, err, shared.ErrAlreadySettled)

		reopened, err := env.payments.DeletePayment(ctx, env.propertyID, invA.ID, settle.Payment.ID)
		require.NoError(t, err)
		assert.Equal(t, "unpaid", reopened.InvoiceStatus)
		assert.Nil(t, reopened.PaidDate)
		assert.Equal(t, "2000", reopened.Balance.String())

		_, err = env.payments.RecordPayment(ctx, env.propertyID, invA.ID, invoicingapp.RecordPaymentRequest{Method: "cash"})
		require.NoError(t, err)
	})

	t.Run("bulk delete removes only unpaid invoices", func(t *testing.T) {
		resp, err := env.invoices.DeleteUnpaidBatch(ctx, env.propertyID, "2026-03")
		require.NoError(t, err)
		assert.EqualValues(t, 1, resp.DeletedCount)

		_, err = env.invoices.GetDetail(ctx, env.propertyID, invB.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		_, err = env.invoices.GetDetail(ctx, env.propertyID, invA.ID)
		assert.NoError(t, err)
		assert.Zero(t, env.db.Count("invoice_lines", "invoice_id = ?", invB.ID))
	})

	t.Run("invoices are scoped to their property", func(t *testing.T) {
		_, err := env.invoices.GetDetail(ctx, uuid.New(), invA.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("billing events are audited", func(t *testing.T) {
		assert.EqualValues(t, 1, env.db.Count("billing_audit_logs",
			"property_id = ? AND event_type = ?", env.propertyID, invoicing.EventTypeInvoiceBatchGenerated))
		assert.EqualValues(t, 3, env.db.Count("billing_audit_logs",
			"property_id = ? AND event_type = ?", env.propertyID, invoicing.EventTypePaymentRecorded))
		assert.EqualValues(t, 1, env.db.Count("billing_audit_logs",
			"property_id = ? AND event_type = ?", env.propertyID, invoicing.EventTypePaymentReversed))
	})
}

func TestInvoiceNumbering_ConcurrentBatches(t *testing.T) {
	env := newBillingEnv(t)
	ctx, cancel := testutil.ContextWithTimeout(t, 60*time.Second)
	defer cancel()
	cycleID := env.createCycle(t, ctx, "2026-03-01")

	const runs = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers []string
		errs    []error
	)
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			batch, err := env.generate(ctx, cycleID, farDueDate, env.roomA, env.roomB)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			for _, inv := range batch.Invoices {
				numbers = append(numbers, inv.InvoiceNumber)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	require.Len(t, numbers, runs*2)

	sort.Strings(numbers)
	for i, n := range numbers {
		assert.Equal(t, fmt.Sprintf("INV-202603-%04d", i+1), n)
	}
}

func TestPayment_ConcurrentSettlementAppliesOnce(t *testing.T) {
	env := newBillingEnv(t)
	ctx, cancel := testutil.ContextWithTimeout(t, 60*time.Second)
	defer cancel()
	cycleID := env.createCycle(t, ctx, "2026-03-01")

	batch, err := env.generate(ctx, cycleID, farDueDate, env.roomB)
	require.NoError(t, err)
	invoiceID := batch.Invoices[0].ID

	const attempts = 5
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failures  []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.payments.RecordPayment(ctx, env.propertyID, invoiceID, invoicingapp.RecordPaymentRequest{Method: "cash"})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			succeeded++
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	for _, err := range failures {
		assert.True(t, errors.Is(err, shared.ErrConflict) || errors.Is(err, shared.ErrAlreadySettled), "unexpected error: %v", err)
	}
	assert.EqualValues(t, 1, env.db.Count("invoice_payments", "invoice_id = ?", invoiceID))

	detail, err := env.invoices.GetDetail(ctx, env.propertyID, invoiceID)
	require.NoError(t, err)
	assert.Equal(t, "paid", detail.Status)
	assert.True(t, detail.Balance.IsZero())
}

func TestLateFee_ConcurrentAccrualKeepsOneLine(t *testing.T) {
	env := newBillingEnv(t)
	ctx, cancel := testutil.ContextWithTimeout(t, 60*time.Second)
	defer cancel()
	cycleID := env.createCycle(t, ctx, "2026-03-01")

	batch, err := env.generate(ctx, cycleID, "2026-03-10", env.roomB)
	require.NoError(t, err)
	invoiceID := batch.Invoices[0].ID

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = env.invoices.GetDetail(ctx, env.propertyID, invoiceID)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, env.db.Count("invoice_lines", "invoice_id = ? AND item_type = ?", invoiceID, "late_fee"))

	detail, err := env.invoices.GetDetail(ctx, env.propertyID, invoiceID)
	require.NoError(t, err)
	assert.True(t, detail.Overdue)
	require.Positive(t, detail.LateDays)
	expectedFee := decimal.NewFromInt(50).Mul(decimal.NewFromInt(int64(detail.LateDays)))
	assert.True(t, expectedFee.Equal(detail.LateFee), "late fee %s, want %s", detail.LateFee, expectedFee)
	assert.True(t, decimal.NewFromInt(2955).Add(expectedFee).Equal(detail.TotalAmount))

	settle, err := env.payments.RecordPayment(ctx, env.propertyID, invoiceID, invoicingapp.RecordPaymentRequest{Method: "cash"})
	require.NoError(t, err)
	assert.Equal(t, "paid", settle.InvoiceStatus)
	assert.True(t, settle.Payment.Amount.Equal(detail.TotalAmount))
}
