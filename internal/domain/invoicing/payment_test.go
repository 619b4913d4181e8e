package invoicing

import (
	"testing"
	"time"

	"github.com/dormbill/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// invoiceWithTotal returns an unpaid invoice whose only line is rent of total.
func invoiceWithTotal(total int64) *Invoice {
	inv := &Invoice{
		PropertyAggregateRoot: shared.NewPropertyAggregateRoot(uuid.New()),
		Status:                StatusUnpaid,
		DueDate:               time.Now().AddDate(0, 0, 10),
	}
	inv.Lines = []InvoiceLine{newLine(inv.ID, LineTypeRent, "Room rent", d(total), d(1))}
	inv.RecalculateTotal()
	return inv
}

func TestInvoice_SettlementRoundTrip(t *testing.T) {
	inv := invoiceWithTotal(1000)
	paidOn := time.Date(2026, 4, 2, 15, 0, 0, 0, time.UTC)

	payment, err := inv.RecordPayment(PaymentInput{Method: PaymentMethodCash, Date: paidOn, Note: "front desk"})
	require.NoError(t, err)

	assert.True(t, payment.Amount.Equal(d(1000)))
	assert.Equal(t, StatusPaid, inv.Status)
	require.NotNil(t, inv.PaidDate)
	assert.Equal(t, time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC), *inv.PaidDate)
	assert.True(t, inv.Balance().IsZero())

	_, err = inv.RecordPayment(PaymentInput{Method: PaymentMethodCash})
	assert.ErrorIs(t, err, shared.ErrAlreadySettled)

	_, err = inv.RemovePayment(payment.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusUnpaid, inv.Status)
	assert.Nil(t, inv.PaidDate)
	assert.True(t, inv.Balance().Equal(d(1000)))
}

func TestInvoice_PartialPayments(t *testing.T) {
	inv := invoiceWithTotal(1000)
	amount := d(400)

	first, err := inv.RecordPayment(PaymentInput{Method: PaymentMethodBankTransfer, Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, StatusUnpaid, inv.Status)
	assert.Nil(t, inv.PaidDate)
	assert.True(t, inv.Balance().Equal(d(600)))

	t.Run("rejects overpayment", func(t *testing.T) {
		tooMuch := d(601)
		_, err := inv.RecordPayment(PaymentInput{Method: PaymentMethodCash, Amount: &tooMuch})
		assert.ErrorIs(t, err, shared.ErrInvalidAmount)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		zero := decimal.Zero
		_, err := inv.RecordPayment(PaymentInput{Method: PaymentMethodCash, Amount: &zero})
		assert.ErrorIs(t, err, shared.ErrInvalidAmount)
	})

	second, err := inv.RecordPayment(PaymentInput{Method: PaymentMethodCash})
	require.NoError(t, err)
	assert.True(t, second.Amount.Equal(d(600)), "no amount settles the remainder")
	assert.Equal(t, StatusPaid, inv.Status)

	_, err = inv.RemovePayment(first.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusUnpaid, inv.Status, "positive balance reverts to unpaid")
	assert.Nil(t, inv.PaidDate)
	assert.True(t, inv.Balance().Equal(d(400)))
}

func TestInvoice_RecordPaymentValidation(t *testing.T) {
	inv := invoiceWithTotal(1000)

	_, err := inv.RecordPayment(PaymentInput{Method: " "})
	assert.ErrorIs(t, err, ErrEmptyPaymentMethod)

	_, err = inv.RemovePayment(uuid.New())
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestInvoice_PaymentEventsAndVersion(t *testing.T) {
	inv := invoiceWithTotal(500)
	version := inv.Version

	p, err := inv.RecordPayment(PaymentInput{Method: PaymentMethodQR})
	require.NoError(t, err)
	_, err = inv.RemovePayment(p.ID)
	require.NoError(t, err)

	assert.Equal(t, version+2, inv.Version)
	events := inv.GetDomainEvents()
	require.Len(t, events, 2)
	assert.Equal(t, EventTypePaymentRecorded, events[0].EventType())
	assert.Equal(t, EventTypePaymentReversed, events[1].EventType())
	assert.Equal(t, inv.PropertyID, events[0].PropertyID())
}

func TestInvoice_LineChangesRederiveStatus(t *testing.T) {
	first := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	second := time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC)

	t.Run("charge on a paid invoice reopens it", func(t *testing.T) {
		inv := invoiceWithTotal(1000)
		_, err := inv.RecordPayment(PaymentInput{Method: PaymentMethodCash, Date: first})
		require.NoError(t, err)

		line, err := inv.AddLine(LineTypeService, "Key replacement", d(100), d(1))
		require.NoError(t, err)
		assert.Equal(t, StatusUnpaid, inv.Status)
		assert.Nil(t, inv.PaidDate)
		assert.True(t, inv.Balance().Equal(d(100)))

		_, err = inv.RemoveLine(line.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusPaid, inv.Status)
		require.NotNil(t, inv.PaidDate)
		assert.Equal(t, first, *inv.PaidDate)
	})

	t.Run("discount settles a part-paid invoice on the latest payment date", func(t *testing.T) {
		inv := invoiceWithTotal(1000)
		_, err := inv.RecordPayment(PaymentInput{Method: PaymentMethodCash, Date: first, Amount: ptr(d(500))})
		require.NoError(t, err)
		_, err = inv.RecordPayment(PaymentInput{Method: PaymentMethodCash, Date: second, Amount: ptr(d(300))})
		require.NoError(t, err)

		line, err := inv.AddLine(LineTypeDiscount, "Goodwill", d(200), d(1))
		require.NoError(t, err)
		assert.Equal(t, StatusPaid, inv.Status)
		require.NotNil(t, inv.PaidDate)
		assert.Equal(t, second, *inv.PaidDate)

		price := d(150)
		_, err = inv.EditLine(line.ID, LineChanges{UnitPrice: &price})
		require.NoError(t, err)
		assert.Equal(t, StatusUnpaid, inv.Status)
		assert.True(t, inv.Balance().Equal(d(50)))
	})

	t.Run("unpaid invoice without payments stays unpaid", func(t *testing.T) {
		inv := invoiceWithTotal(100)
		_, err := inv.AddLine(LineTypeDiscount, "Waiver", d(100), d(1))
		require.NoError(t, err)
		assert.True(t, inv.Balance().IsZero())
		assert.Equal(t, StatusUnpaid, inv.Status)
	})
}

func ptr(v decimal.Decimal) *decimal.Decimal { return &v }
