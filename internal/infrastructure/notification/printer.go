// Package notification delivers invoice documents: a printed PDF kept in
// object storage, or the same PDF mailed to the tenant.
package notification

import (
	"context"
	"fmt"

	appinvoicing "github.com/dormbill/backend/internal/application/invoicing"
	"github.com/dormbill/backend/internal/infrastructure/printing"
	"github.com/samber/lo"
)

// Printer turns an invoice document into PDF bytes. At most poolSize renders
// run at once.
type Printer struct {
	template     *printing.InvoiceTemplate
	renderer     printing.PDFRenderer
	propertyName string
	slots        chan struct{}
}

// NewPrinter creates a Printer. A non-positive poolSize allows one render at
// a time.
func NewPrinter(tmpl *printing.InvoiceTemplate, renderer printing.PDFRenderer, propertyName string, poolSize int) *Printer {
	if poolSize <= 0 {
		poolSize = 1
	}
	return &Printer{
		template:     tmpl,
		renderer:     renderer,
		propertyName: propertyName,
		slots:        make(chan struct{}, poolSize),
	}
}

// Print renders doc to PDF
func (p *Printer) Print(ctx context.Context, doc appinvoicing.InvoiceDocument) ([]byte, error) {
	html, err := p.template.Render(p.view(doc))
	if err != nil {
		return nil, err
	}

	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-p.slots }()

	result, err := p.renderer.Render(ctx, &printing.RenderRequest{
		HTML:  html,
		Title: "Invoice " + doc.Invoice.InvoiceNumber,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to print invoice %s: %w", doc.Invoice.InvoiceNumber, err)
	}
	return result.PDFData, nil
}

func (p *Printer) view(doc appinvoicing.InvoiceDocument) printing.InvoiceView {
	inv := doc.Invoice
	return printing.InvoiceView{
		PropertyName:  p.propertyName,
		InvoiceNumber: inv.InvoiceNumber,
		BillMonth:     inv.BillMonth,
		IssueDate:     inv.IssueDate,
		DueDate:       inv.DueDate,
		RoomName:      doc.RoomName,
		TenantName:    doc.TenantName,
		Status:        inv.Status,
		Lines: lo.Map(inv.Lines, func(l appinvoicing.LineResponse, _ int) printing.LineView {
			return printing.LineView{
				ItemType:    l.ItemType,
				Description: l.Description,
				UnitCount:   l.UnitCount,
				UnitPrice:   l.UnitPrice,
				Amount:      l.Amount,
			}
		}),
		Total:    inv.TotalAmount,
		Paid:     inv.PaidAmount,
		Balance:  inv.Balance,
		LateDays: inv.LateDays,
	}
}
