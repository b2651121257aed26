package persistence

import (
	"strings"
)

// Sort parameters arrive from query strings and end up interpolated
// into ORDER BY clauses, so both field and direction are whitelisted
// rather than escaped.

// ValidateSortOrder normalizes the direction to ASC or DESC, defaulting
// to DESC for anything unrecognized.
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "ASC") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns the field when it appears in the whitelist
// and defaultField otherwise.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	if trimmed := strings.TrimSpace(sortField); allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CommonSortFields contains fields common to most entities
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// TransactionSortFields contains allowed sort fields for sale transactions
var TransactionSortFields = map[string]bool{
	"id":                 true,
	"created_at":         true,
	"updated_at":         true,
	"transaction_number": true,
	"cashier_name":       true,
	"status":             true,
	"total_value":        true,
	"accumulated_refund": true,
}

// RefundSortFields contains allowed sort fields for refunds
var RefundSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"refund_number":  true,
	"transaction_id": true,
	"refund_amount":  true,
}
