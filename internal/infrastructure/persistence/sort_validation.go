package persistence

import (
	"strings"

	"gorm.io/gorm"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed != "" && allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// InvoiceSortFields contains allowed sort fields for invoices
var InvoiceSortFields = map[string]bool{
	"created_at":     true,
	"invoice_number": true,
	"bill_month":     true,
	"due_date":       true,
	"total_amount":   true,
	"status":         true,
}

// applyPaging applies a whitelisted order and the page window. The id
// tiebreaker keeps pages stable when the sort column has duplicates.
func applyPaging(query *gorm.DB, orderBy, orderDir string, page, pageSize int, allowed map[string]bool, defaultField string) *gorm.DB {
	field := ValidateSortField(orderBy, allowed, defaultField)
	query = query.Order(field + " " + ValidateSortOrder(orderDir)).Order("id")
	if page > 0 && pageSize > 0 {
		query = query.Offset((page - 1) * pageSize).Limit(pageSize)
	}
	return query
}
