package printing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleView() InvoiceView {
	return InvoiceView{
		InvoiceNumber: "INV-202603-0001",
		BillMonth:     "2026-03",
		IssueDate:     "2026-03-01",
		DueDate:       "2026-03-10",
		RoomName:      "A101",
		TenantName:    "Somchai <Jr>",
		Status:        "unpaid",
		Lines: []LineView{
			{ItemType: "rent", Description: "Room rent", UnitCount: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(3000), Amount: decimal.NewFromInt(3000)},
			{ItemType: "late_fee", Description: "Late payment fee (5 days)", UnitCount: decimal.NewFromInt(5), UnitPrice: decimal.NewFromInt(100), Amount: decimal.NewFromInt(500)},
			{ItemType: "discount", Description: "Loyalty", UnitCount: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(-200), Amount: decimal.NewFromInt(-200)},
		},
		Total:    decimal.NewFromInt(3300),
		Paid:     decimal.Zero,
		Balance:  decimal.NewFromInt(3300),
		LateDays: 5,
	}
}

func TestInvoiceTemplate_Render(t *testing.T) {
	tmpl, err := NewInvoiceTemplate("en-US", "THB")
	require.NoError(t, err)

	out, err := tmpl.Render(sampleView())
	require.NoError(t, err)

	assert.Contains(t, out, "INV-202603-0001")
	assert.Contains(t, out, "Amount (THB)")
	assert.Contains(t, out, "Late Fee", "item types are title cased")
	assert.Contains(t, out, "3,300", "amounts use grouping separators")
	assert.Contains(t, out, "Overdue by 5 days")
	assert.Contains(t, out, "Somchai &lt;Jr&gt;", "tenant names are escaped")
	assert.NotContains(t, out, "PAID")
}

func TestInvoiceTemplate_PaidStamp(t *testing.T) {
	tmpl, err := NewInvoiceTemplate("not a locale", "THB")
	require.NoError(t, err)

	view := sampleView()
	view.Status = "paid"
	view.LateDays = 0
	out, err := tmpl.Render(view)
	require.NoError(t, err)
	assert.Contains(t, out, "PAID")
	assert.NotContains(t, out, "Overdue")
}
