package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	cases := map[string]string{
		"":                           "DESC",
		"ASC":                        "ASC",
		"asc":                        "ASC",
		"DESC":                       "DESC",
		"desc":                       "DESC",
		"INVALID":                    "DESC",
		"ASC; DROP TABLE refunds;--": "DESC",
		"   ":                        "DESC",
		"  asc  ":                    "ASC",
	}

	for input, want := range cases {
		t.Run("input "+input, func(t *testing.T) {
			assert.Equal(t, want, ValidateSortOrder(input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	allowedFields := map[string]bool{
		"id":         true,
		"created_at": true,
		"updated_at": true,
		"name":       true,
	}

	tests := []struct {
		name         string
		input        string
		allowedMap   map[string]bool
		defaultField string
		expected     string
	}{
		{"empty string returns default", "", allowedFields, "created_at", "created_at"},
		{"valid field returns field", "name", allowedFields, "created_at", "name"},
		{"valid field id returns field", "id", allowedFields, "created_at", "id"},
		{"invalid field returns default", "invalid_field", allowedFields, "created_at", "created_at"},
		{"sql injection attempt returns default", "id; DROP TABLE refunds;--", allowedFields, "created_at", "created_at"},
		{"case sensitive - uppercase invalid", "NAME", allowedFields, "created_at", "created_at"},
		{"whitespace only returns default", "   ", allowedFields, "created_at", "created_at"},
		{"whitespace around valid field returns field", "  name  ", allowedFields, "created_at", "name"},
		{"field with spaces injection returns default", "name refunds", allowedFields, "created_at", "created_at"},
		{"field with quotes injection returns default", "name'--", allowedFields, "created_at", "created_at"},
		{"empty default with valid field", "name", allowedFields, "", "name"},
		{"empty default with invalid field", "invalid", allowedFields, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateSortField(tt.input, tt.allowedMap, tt.defaultField)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSortFieldsWhitelists(t *testing.T) {
	whitelists := map[string]map[string]bool{
		"CommonSortFields":      CommonSortFields,
		"TransactionSortFields": TransactionSortFields,
		"RefundSortFields":      RefundSortFields,
	}

	commonFields := []string{"id", "created_at", "updated_at"}

	for name, whitelist := range whitelists {
		t.Run(name+" contains common fields", func(t *testing.T) {
			for _, field := range commonFields {
				assert.True(t, whitelist[field], "%s should contain '%s'", name, field)
			}
		})
	}

	t.Run("TransactionSortFields covers domain columns", func(t *testing.T) {
		assert.True(t, TransactionSortFields["transaction_number"])
		assert.True(t, TransactionSortFields["status"])
		assert.True(t, TransactionSortFields["total_value"])
	})

	t.Run("RefundSortFields covers domain columns", func(t *testing.T) {
		assert.True(t, RefundSortFields["refund_number"])
		assert.True(t, RefundSortFields["refund_amount"])
	})
}

func TestSQLInjectionPrevention(t *testing.T) {
	injectionPayloads := []string{
		"id; DROP TABLE refunds;--",
		"id' OR '1'='1",
		"id\"; DROP TABLE refunds;--",
		"id UNION SELECT * FROM refunds",
		"id ORDER BY 1",
		"id, (SELECT refund_amount FROM refunds)",
		"CASE WHEN 1=1 THEN id ELSE name END",
		"id/**/;DROP TABLE refunds",
		"id\n; DROP TABLE refunds",
		"id\t; DROP TABLE refunds",
		"' OR ''='",
		"1; EXEC xp_cmdshell('dir')",
	}

	for _, payload := range injectionPayloads {
		label := payload[:min(len(payload), 30)]

		t.Run("field: "+label, func(t *testing.T) {
			result := ValidateSortField(payload, RefundSortFields, "created_at")
			assert.Equal(t, "created_at", result, "payload must fall back to default: %s", payload)
		})

		t.Run("order: "+label, func(t *testing.T) {
			assert.Equal(t, "DESC", ValidateSortOrder(payload), "payload must fall back to DESC: %s", payload)
		})
	}
}
