package invoicing

import (
	"context"
	"errors"
	"testing"

	"github.com/dormbill/backend/internal/domain/invoicing"
	"github.com/dormbill/backend/internal/domain/shared"
	"github.com/dormbill/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDispatcher struct {
	fail map[uuid.UUID]bool
	docs []InvoiceDocument
}

func (d *fakeDispatcher) Method() string { return "pdf" }

func (d *fakeDispatcher) Dispatch(_ context.Context, doc InvoiceDocument) (DispatchResult, error) {
	d.docs = append(d.docs, doc)
	if d.fail[doc.Invoice.ID] {
		return DispatchResult{}, errors.New("renderer unavailable")
	}
	return DispatchResult{
		Recipient: doc.TenantEmail,
		Location:  "invoices/" + doc.Invoice.InvoiceNumber + ".pdf",
	}, nil
}

func TestNotificationService_SendInvoices(t *testing.T) {
	fx := newBillingFixture(t)
	ctx := context.Background()
	pid := fx.property.PropertyID

	ok := fx.generateA(t, "2026-03-31")
	broken := fx.generateA(t, "2026-03-31")

	dispatcher := &fakeDispatcher{fail: map[uuid.UUID]bool{broken: true}}
	svc := NewNotificationService(fx.invoices, persistence.NewGormRoomDirectory(fx.db),
		persistence.NewGormSendRecordRepository(fx.db), dispatcher)
	assert.Equal(t, []string{"pdf"}, svc.Methods())

	results, err := svc.SendInvoices(ctx, pid, SendInvoicesRequest{
		InvoiceIDs: []uuid.UUID{ok, broken, uuid.New()},
		Method:     "pdf",
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "sent", results[0].Status)
	assert.Equal(t, "somchai@example.com", results[0].Recipient)
	assert.Equal(t, "invoices/INV-202603-0001.pdf", results[0].Location)

	assert.Equal(t, "failed", results[1].Status)
	assert.Equal(t, "renderer unavailable", results[1].Error)

	assert.Equal(t, "failed", results[2].Status, "unknown invoices are reported, not fatal")

	require.Len(t, dispatcher.docs, 2)
	assert.Equal(t, "A101", dispatcher.docs[0].RoomName)
	assert.Equal(t, "Somchai", dispatcher.docs[0].TenantName)

	records, err := svc.ListSendRecords(ctx, pid, ok)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, string(invoicing.SendStatusSent), records[0].Status)

	t.Run("unknown method", func(t *testing.T) {
		_, err := svc.SendInvoices(ctx, pid, SendInvoicesRequest{InvoiceIDs: []uuid.UUID{ok}, Method: "fax"})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("records of another property", func(t *testing.T) {
		_, err := svc.ListSendRecords(ctx, uuid.New(), ok)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
