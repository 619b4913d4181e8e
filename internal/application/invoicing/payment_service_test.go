package invoicing

import (
	"context"
	"testing"
	"time"

	"github.com/dormbill/backend/internal/domain/invoicing"
	"github.com/dormbill/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentService_SettlementRoundTrip(t *testing.T) {
	fx := newBillingFixture(t)
	ctx := context.Background()
	pid := fx.property.PropertyID

	roomC := fx.property.AddRoom(t, "C103", 1000)
	_, tenantC := fx.property.AddTenant(t, roomC, "Malee", "malee@example.com")
	batch, err := fx.generation.Generate(ctx, pid, GenerateInvoicesRequest{
		CycleID:   fx.cycleID,
		BillMonth: "2026-03",
		DueDate:   "2026-03-31",
		Rooms:     []RoomSelection{{RoomID: roomC, TenantID: &tenantC}},
	})
	require.NoError(t, err)
	invoiceID := batch.Invoices[0].ID

	paid, err := fx.payments.RecordPayment(ctx, pid, invoiceID, RecordPaymentRequest{
		Method: "cash",
		Amount: dec(1000),
	})
	require.NoError(t, err)
	assert.Equal(t, "paid", paid.InvoiceStatus)
	require.NotNil(t, paid.PaidDate)
	assert.Equal(t, "2026-03-15", *paid.PaidDate)
	assert.True(t, paid.Balance.IsZero())
	require.NotNil(t, paid.Payment)
	assert.Equal(t, "RCP-1", paid.Payment.ReceiptNumber)

	reversed, err := fx.payments.DeletePayment(ctx, pid, invoiceID, paid.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, "unpaid", reversed.InvoiceStatus)
	assert.Nil(t, reversed.PaidDate)
	assert.True(t, decimal.NewFromInt(1000).Equal(reversed.Balance))

	stored, err := fx.repo.FindByIDForProperty(ctx, pid, invoiceID)
	require.NoError(t, err)
	assert.Equal(t, invoicing.StatusUnpaid, stored.Status)
	assert.Empty(t, stored.Payments)
	assert.Equal(t, []string{
		invoicing.EventTypeInvoiceBatchGenerated,
		invoicing.EventTypePaymentRecorded,
		invoicing.EventTypePaymentReversed,
	}, fx.bus.Types())
}

func TestPaymentService_PartialPayments(t *testing.T) {
	fx := newBillingFixture(t)
	ctx := context.Background()
	pid := fx.property.PropertyID
	invoiceID := fx.generateA(t, "2026-03-31")

	first, err := fx.payments.RecordPayment(ctx, pid, invoiceID, RecordPaymentRequest{
		Method:      "bank_transfer",
		PaymentDate: "2026-03-12",
		Amount:      dec(1000),
	})
	require.NoError(t, err)
	assert.Equal(t, "unpaid", first.InvoiceStatus)
	assert.True(t, decimal.NewFromInt(2310).Equal(first.Balance))

	t.Run("more than the remaining balance", func(t *testing.T) {
		_, err := fx.payments.RecordPayment(ctx, pid, invoiceID, RecordPaymentRequest{Method: "cash", Amount: dec(5000)})
		assert.ErrorIs(t, err, shared.ErrInvalidAmount)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		_, err := fx.payments.RecordPayment(ctx, pid, invoiceID, RecordPaymentRequest{Method: "cash", Amount: dec(0)})
		assert.ErrorIs(t, err, shared.ErrInvalidAmount)
	})

	second, err := fx.payments.RecordPayment(ctx, pid, invoiceID, RecordPaymentRequest{Method: "qr"})
	require.NoError(t, err)
	assert.Equal(t, "paid", second.InvoiceStatus)
	assert.True(t, decimal.NewFromInt(2310).Equal(second.Payment.Amount), "no amount settles the rest")

	t.Run("already settled", func(t *testing.T) {
		_, err := fx.payments.RecordPayment(ctx, pid, invoiceID, RecordPaymentRequest{Method: "cash"})
		assert.ErrorIs(t, err, shared.ErrAlreadySettled)
	})

	list, err := fx.payments.ListPayments(ctx, pid, invoiceID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2026-03-15", list[0].PaymentDate)
	assert.Equal(t, "2026-03-12", list[1].PaymentDate)

	t.Run("removing one payment reopens the invoice", func(t *testing.T) {
		res, err := fx.payments.DeletePayment(ctx, pid, invoiceID, list[1].ID)
		require.NoError(t, err)
		assert.Equal(t, "unpaid", res.InvoiceStatus)
		assert.True(t, decimal.NewFromInt(1000).Equal(res.Balance))
	})
}

func TestPaymentService_SettlementIncludesLateFee(t *testing.T) {
	fx := newBillingFixture(t)
	ctx := context.Background()
	invoiceID := fx.generateA(t, "2026-03-10")

	res, err := fx.payments.RecordPayment(ctx, fx.property.PropertyID, invoiceID, RecordPaymentRequest{Method: "cash"})
	require.NoError(t, err)
	assert.Equal(t, "paid", res.InvoiceStatus)
	assert.True(t, decimal.NewFromInt(3810).Equal(res.Payment.Amount))
}

func TestLateFeeService_EnsureLateFee(t *testing.T) {
	fx := newBillingFixture(t)
	ctx := context.Background()
	pid := fx.property.PropertyID
	invoiceID := fx.generateA(t, "2026-03-10")

	detail, err := fx.invoices.GetDetail(ctx, pid, invoiceID)
	require.NoError(t, err)
	assert.True(t, detail.Overdue)
	assert.Equal(t, 5, detail.LateDays)
	assert.True(t, decimal.NewFromInt(500).Equal(detail.LateFee))
	assert.True(t, decimal.NewFromInt(3810).Equal(detail.TotalAmount))
	assert.Len(t, detail.Lines, 4)

	t.Run("repeat reads keep a single line", func(t *testing.T) {
		again, err := fx.invoices.GetDetail(ctx, pid, invoiceID)
		require.NoError(t, err)
		assert.Len(t, again.Lines, 4)
		assert.True(t, decimal.NewFromInt(3810).Equal(again.TotalAmount))
	})

	t.Run("a later read updates the same line", func(t *testing.T) {
		later := fixedNow.Add(48 * time.Hour)
		fx.lateFees.now = func() time.Time { return later }
		fx.invoices.now = func() time.Time { return later }
		t.Cleanup(func() {
			fx.lateFees.now = func() time.Time { return fixedNow }
			fx.invoices.now = func() time.Time { return fixedNow }
		})

		again, err := fx.invoices.GetDetail(ctx, pid, invoiceID)
		require.NoError(t, err)
		assert.Equal(t, 7, again.LateDays)
		assert.Len(t, again.Lines, 4)
		assert.True(t, decimal.NewFromInt(4010).Equal(again.TotalAmount))
	})

	var lateFeeEvents int
	for _, typ := range fx.bus.Types() {
		if typ == invoicing.EventTypeLateFeeAccrued {
			lateFeeEvents++
		}
	}
	assert.Equal(t, 2, lateFeeEvents)
}

func TestLateFeeService_NotOverdue(t *testing.T) {
	fx := newBillingFixture(t)
	ctx := context.Background()
	invoiceID := fx.generateA(t, "2026-03-31")

	inv, err := fx.repo.FindByIDForProperty(ctx, fx.property.PropertyID, invoiceID)
	require.NoError(t, err)
	out, fee, err := fx.lateFees.EnsureLateFee(ctx, inv)
	require.NoError(t, err)
	assert.Same(t, inv, out)
	assert.True(t, fee.Amount.IsZero())
	assert.Nil(t, out.LateFeeLine())
}
