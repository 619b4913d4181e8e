package invoicing

import (
	"context"
	"testing"

	"github.com/dormbill/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceService_DeleteUnpaidBatch(t *testing.T) {
	fx := newBillingFixture(t)
	ctx := context.Background()
	pid := fx.property.PropertyID

	untouched := fx.generateA(t, "2026-03-31")
	partlyPaid := fx.generateA(t, "2026-03-31")
	settled := fx.generateA(t, "2026-03-31")

	_, err := fx.payments.RecordPayment(ctx, pid, partlyPaid, RecordPaymentRequest{Method: "cash", Amount: dec(10)})
	require.NoError(t, err)
	_, err = fx.payments.RecordPayment(ctx, pid, settled, RecordPaymentRequest{Method: "cash"})
	require.NoError(t, err)

	t.Run("other month is untouched", func(t *testing.T) {
		res, err := fx.invoices.DeleteUnpaidBatch(ctx, pid, "2026-04")
		require.NoError(t, err)
		assert.Zero(t, res.DeletedCount)
	})

	res, err := fx.invoices.DeleteUnpaidBatch(ctx, pid, "2026-03")
	require.NoError(t, err)
	assert.Equal(t, "2026-03", res.BillMonth)
	assert.Equal(t, int64(1), res.DeletedCount)

	_, err = fx.repo.FindByIDForProperty(ctx, pid, untouched)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = fx.repo.FindByIDForProperty(ctx, pid, partlyPaid)
	assert.NoError(t, err)
	_, err = fx.repo.FindByIDForProperty(ctx, pid, settled)
	assert.NoError(t, err)

	t.Run("invalid month", func(t *testing.T) {
		_, err := fx.invoices.DeleteUnpaidBatch(ctx, pid, "March")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestInvoiceService_List(t *testing.T) {
	fx := newBillingFixture(t)
	ctx := context.Background()
	pid := fx.property.PropertyID

	first := fx.generateA(t, "2026-03-31")
	fx.generateA(t, "2026-03-31")
	_, err := fx.payments.RecordPayment(ctx, pid, first, RecordPaymentRequest{Method: "cash"})
	require.NoError(t, err)

	page, err := fx.invoices.List(ctx, pid, ListInvoicesRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)

	paid, err := fx.invoices.List(ctx, pid, ListInvoicesRequest{Status: "paid"})
	require.NoError(t, err)
	require.Len(t, paid.Items, 1)
	assert.Equal(t, first, paid.Items[0].ID)

	byRoom, err := fx.invoices.List(ctx, pid, ListInvoicesRequest{RoomID: fx.roomB.String()})
	require.NoError(t, err)
	assert.Empty(t, byRoom.Items)

	other, err := fx.invoices.List(ctx, uuid.New(), ListInvoicesRequest{BillMonth: "2026-03"})
	require.NoError(t, err)
	assert.Zero(t, other.Total)

	_, err = fx.invoices.List(ctx, pid, ListInvoicesRequest{Status: "void"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestInvoiceService_GetDetail(t *testing.T) {
	fx := newBillingFixture(t)
	ctx := context.Background()
	invoiceID := fx.generateA(t, "2026-03-31")

	detail, err := fx.invoices.GetDetail(ctx, fx.property.PropertyID, invoiceID)
	require.NoError(t, err)
	assert.False(t, detail.Overdue)
	assert.Zero(t, detail.LateDays)
	assert.True(t, detail.Balance.Equal(detail.TotalAmount))
	assert.Equal(t, "2026-03", detail.BillMonth)
	assert.Equal(t, "2026-03-31", detail.DueDate)

	_, err = fx.invoices.GetDetail(ctx, uuid.New(), invoiceID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
