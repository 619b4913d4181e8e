package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"asc", "ASC"},
		{" ASC ", "ASC"},
		{"desc", "DESC"},
		{"", "DESC"},
		{"asc; DROP TABLE invoices", "DESC"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidateSortOrder(tt.in), tt.in)
	}
}

func TestValidateSortField(t *testing.T) {
	assert.Equal(t, "due_date", ValidateSortField("due_date", InvoiceSortFields, "created_at"))
	assert.Equal(t, "created_at", ValidateSortField("", InvoiceSortFields, "created_at"))
	assert.Equal(t, "created_at", ValidateSortField("tenant_id", InvoiceSortFields, "created_at"))
	assert.Equal(t, "created_at", ValidateSortField("status; --", InvoiceSortFields, "created_at"))
}
