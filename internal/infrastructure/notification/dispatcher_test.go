package notification

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"sync"
	"testing"

	appinvoicing "github.com/dormbill/backend/internal/application/invoicing"
	"github.com/dormbill/backend/internal/infrastructure/printing"
	"github.com/dormbill/backend/internal/infrastructure/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	mu   sync.Mutex
	html []string
	err  error
}

func (r *fakeRenderer) Render(_ context.Context, req *printing.RenderRequest) (*printing.RenderResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.html = append(r.html, req.HTML)
	return &printing.RenderResult{PDFData: []byte("%PDF-1.7 " + req.Title)}, nil
}

func (r *fakeRenderer) Close() error { return nil }

type capturedMail struct {
	from, to string
	message  []byte
}

type fakeSender struct {
	sent []capturedMail
	err  error
}

func (s *fakeSender) Send(_ context.Context, from, to string, message []byte) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, capturedMail{from: from, to: to, message: message})
	return nil
}

func newTestPrinter(t *testing.T, renderer printing.PDFRenderer) *Printer {
	t.Helper()
	tmpl, err := printing.NewInvoiceTemplate("en-US", "THB")
	require.NoError(t, err)
	return NewPrinter(tmpl, renderer, "Sunrise Dorm", 2)
}

func sampleDocument() appinvoicing.InvoiceDocument {
	header := appinvoicing.InvoiceHeaderResponse{
		ID:            uuid.New(),
		InvoiceNumber: "INV-202603-0001",
		BillMonth:     "2026-03",
		IssueDate:     "2026-03-15",
		DueDate:       "2026-03-22",
		TotalAmount:   decimal.NewFromInt(3310),
		Status:        "unpaid",
	}
	return appinvoicing.InvoiceDocument{
		PropertyID: uuid.MustParse("6f1c2a4e-0000-4000-8000-000000000001"),
		Invoice: appinvoicing.InvoiceDetailResponse{
			InvoiceHeaderResponse: header,
			Lines: []appinvoicing.LineResponse{
				{ItemType: "rent", Description: "Room rent", UnitCount: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(3000), Amount: decimal.NewFromInt(3000)},
				{ItemType: "water", Description: "Water", UnitCount: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(15), Amount: decimal.NewFromInt(150)},
				{ItemType: "electricity", Description: "Electricity", UnitCount: decimal.NewFromInt(20), UnitPrice: decimal.NewFromInt(8), Amount: decimal.NewFromInt(160)},
			},
			PaidAmount: decimal.Zero,
			Balance:    decimal.NewFromInt(3310),
		},
		RoomName:    "A101",
		TenantName:  "Somchai",
		TenantEmail: "somchai@example.com",
	}
}

func TestPDFDispatcher_StoresUnderInvoiceKey(t *testing.T) {
	renderer := &fakeRenderer{}
	store := storage.NewMemoryDocumentStore()
	d := NewPDFDispatcher(newTestPrinter(t, renderer), store, "invoices")
	doc := sampleDocument()

	assert.Equal(t, "pdf", d.Method())
	result, err := d.Dispatch(context.Background(), doc)
	require.NoError(t, err)

	key := "invoices/6f1c2a4e-0000-4000-8000-000000000001/INV-202603-0001.pdf"
	assert.Equal(t, "memory://"+key, result.Location)
	assert.Equal(t, "somchai@example.com", result.Recipient)

	data, ok := store.Get(key)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))

	require.Len(t, renderer.html, 1)
	html := renderer.html[0]
	assert.Contains(t, html, "Sunrise Dorm")
	assert.Contains(t, html, "A101")
	assert.Contains(t, html, "3,310.00")
}

func TestPDFDispatcher_RenderFailure(t *testing.T) {
	renderer := &fakeRenderer{err: printing.NewRenderError(printing.ErrCodeRenderFailed, "chrome crashed", nil)}
	store := storage.NewMemoryDocumentStore()
	d := NewPDFDispatcher(newTestPrinter(t, renderer), store, "invoices")

	_, err := d.Dispatch(context.Background(), sampleDocument())
	require.Error(t, err)
	var renderErr *printing.RenderError
	assert.True(t, errors.As(err, &renderErr))
	assert.Equal(t, printing.ErrCodeRenderFailed, renderErr.Code)
}

func TestPrinter_CancelledWhileWaitingForSlot(t *testing.T) {
	tmpl, err := printing.NewInvoiceTemplate("en-US", "THB")
	require.NoError(t, err)
	p := NewPrinter(tmpl, &fakeRenderer{}, "", 1)
	p.slots <- struct{}{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Print(ctx, sampleDocument())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmailDispatcher_AttachesPDF(t *testing.T) {
	sender := &fakeSender{}
	d := NewEmailDispatcher(newTestPrinter(t, &fakeRenderer{}), sender, "billing@sunrise.example")
	doc := sampleDocument()

	assert.Equal(t, "email", d.Method())
	result, err := d.Dispatch(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "somchai@example.com", result.Recipient)
	assert.Equal(t, "mailto:somchai@example.com", result.Location)

	require.Len(t, sender.sent, 1)
	sent := sender.sent[0]
	assert.Equal(t, "billing@sunrise.example", sent.from)
	assert.Equal(t, "somchai@example.com", sent.to)

	msg, err := mail.ReadMessage(strings.NewReader(string(sent.message)))
	require.NoError(t, err)
	subject, err := new(mime.WordDecoder).DecodeHeader(msg.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "Invoice INV-202603-0001 for 2026-03", subject)

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mediaType)

	mr := multipart.NewReader(msg.Body, params["boundary"])
	body, err := mr.NextPart()
	require.NoError(t, err)
	text, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Contains(t, string(text), "Hello Somchai")
	assert.Contains(t, string(text), "Amount due: 3310.00")

	attachment, err := mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "INV-202603-0001.pdf", attachment.FileName())
	encoded, err := io.ReadAll(attachment)
	require.NoError(t, err)
	pdf, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(string(encoded), "\r\n", ""))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 Invoice INV-202603-0001", string(pdf))
}

func TestEmailDispatcher_Failures(t *testing.T) {
	t.Run("no recipient", func(t *testing.T) {
		sender := &fakeSender{}
		d := NewEmailDispatcher(newTestPrinter(t, &fakeRenderer{}), sender, "billing@sunrise.example")
		doc := sampleDocument()
		doc.TenantEmail = ""

		_, err := d.Dispatch(context.Background(), doc)
		assert.ErrorIs(t, err, ErrNoRecipient)
		assert.Empty(t, sender.sent)
	})

	t.Run("smtp rejects", func(t *testing.T) {
		sender := &fakeSender{err: errors.New("550 mailbox unavailable")}
		d := NewEmailDispatcher(newTestPrinter(t, &fakeRenderer{}), sender, "billing@sunrise.example")

		_, err := d.Dispatch(context.Background(), sampleDocument())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "INV-202603-0001")
		assert.Contains(t, err.Error(), "550")
	})
}
