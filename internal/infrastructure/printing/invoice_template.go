package printing

import (
	"bytes"
	"embed"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

//go:embed templates/invoice.html.tmpl
var templateFS embed.FS

// InvoiceView is the printable form of an invoice
type InvoiceView struct {
	PropertyName  string
	InvoiceNumber string
	BillMonth     string
	IssueDate     string
	DueDate       string
	RoomName      string
	TenantName    string
	Status        string
	Lines         []LineView
	Total         decimal.Decimal
	Paid          decimal.Decimal
	Balance       decimal.Decimal
	LateDays      int
}

// LineView is one printed invoice line. Amount carries the sign it adds to
// the total.
type LineView struct {
	ItemType    string
	Description string
	UnitCount   decimal.Decimal
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal
}

// InvoiceTemplate renders InvoiceView to HTML with amounts formatted for a
// locale
type InvoiceTemplate struct {
	tmpl     *template.Template
	currency string
}

// NewInvoiceTemplate parses the embedded invoice template. locale is a BCP 47
// tag such as "th-TH"; an unparsable tag falls back to English.
func NewInvoiceTemplate(locale, currency string) (*InvoiceTemplate, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	printer := message.NewPrinter(tag)
	caser := cases.Title(tag)

	funcs := template.FuncMap{
		"money": func(d decimal.Decimal) string {
			return printer.Sprint(number.Decimal(d.InexactFloat64(), number.Scale(2)))
		},
		"qty": func(d decimal.Decimal) string {
			return printer.Sprint(number.Decimal(d.InexactFloat64(), number.MaxFractionDigits(2)))
		},
		"label": func(itemType string) string {
			return caser.String(strings.ReplaceAll(itemType, "_", " "))
		},
	}

	tmpl, err := template.New("invoice.html.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/invoice.html.tmpl")
	if err != nil {
		return nil, NewRenderError(ErrCodeTemplate, "parse invoice template", err)
	}
	return &InvoiceTemplate{tmpl: tmpl, currency: currency}, nil
}

// Render executes the template for view
func (t *InvoiceTemplate) Render(view InvoiceView) (string, error) {
	var buf bytes.Buffer
	data := struct {
		InvoiceView
		Currency string
	}{view, t.currency}
	if err := t.tmpl.Execute(&buf, data); err != nil {
		return "", NewRenderError(ErrCodeTemplate, "render invoice "+view.InvoiceNumber, err)
	}
	return buf.String(), nil
}
