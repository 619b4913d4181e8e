package notification

import (
	"context"

	appinvoicing "github.com/dormbill/backend/internal/application/invoicing"
	"github.com/dormbill/backend/internal/infrastructure/logger"
	"github.com/dormbill/backend/internal/infrastructure/storage"
	"go.uber.org/zap"
)

// MethodPDF stores the printed invoice and reports its location
const MethodPDF = "pdf"

// PDFDispatcher prints invoices into a document store
type PDFDispatcher struct {
	printer *Printer
	store   storage.DocumentStore
	prefix  string
}

// NewPDFDispatcher creates a new PDFDispatcher. Documents are keyed under
// prefix/<property>/<invoice_number>.pdf.
func NewPDFDispatcher(printer *Printer, store storage.DocumentStore, prefix string) *PDFDispatcher {
	return &PDFDispatcher{printer: printer, store: store, prefix: prefix}
}

// Method implements appinvoicing.Dispatcher
func (d *PDFDispatcher) Method() string {
	return MethodPDF
}

// Dispatch prints doc and uploads the PDF
func (d *PDFDispatcher) Dispatch(ctx context.Context, doc appinvoicing.InvoiceDocument) (appinvoicing.DispatchResult, error) {
	pdf, err := d.printer.Print(ctx, doc)
	if err != nil {
		return appinvoicing.DispatchResult{}, err
	}

	key := storage.InvoiceKey(d.prefix, doc.PropertyID, doc.Invoice.InvoiceNumber)
	location, err := d.store.Put(ctx, key, pdf, "application/pdf")
	if err != nil {
		return appinvoicing.DispatchResult{}, err
	}

	logger.L(ctx).Debug("Invoice PDF stored",
		zap.String("invoice_number", doc.Invoice.InvoiceNumber),
		zap.String("location", location),
		zap.Int("bytes", len(pdf)),
	)
	return appinvoicing.DispatchResult{Recipient: doc.TenantEmail, Location: location}, nil
}

var _ appinvoicing.Dispatcher = (*PDFDispatcher)(nil)
