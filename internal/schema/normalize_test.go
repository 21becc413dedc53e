package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"askdata/internal/schema"
)

func TestNormalizeValueDates(t *testing.T) {
	n := schema.NewNormalizer()

	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"iso passes through", "2024-01-15", "2024-01-15"},
		{"us slash format", "01/15/2024", "2024-01-15"},
		{"eu slash format", "15/01/2024", "2024-01-15"},
		{"full text month", "March 5, 2024", "2024-03-05"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.NormalizeValue(tt.value))
		})
	}
}

func TestNormalizeValuePhonesAndNumbers(t *testing.T) {
	n := schema.NewNormalizer()

	assert.Equal(t, "5551234567", n.NormalizeValue("(555) 123-4567"))
	assert.Equal(t, "15551234567", n.NormalizeValue("+1-555-123-4567"))

	assert.Equal(t, "1200", n.NormalizeValue("$1,200"))
	assert.Equal(t, "1200.00", n.NormalizeValue("$1,200.00"))
	assert.Equal(t, "85", n.NormalizeValue("85%"))
	assert.Equal(t, "3500", n.NormalizeValue("€3 500"))
}

func TestNormalizeValueNames(t *testing.T) {
	n := schema.NewNormalizer()

	assert.Equal(t, "john smith", n.NormalizeValue("Smith, John"))
	assert.Equal(t, "ada lovelace", n.NormalizeValue("  Ada   Lovelace "))
	assert.Equal(t, "", n.NormalizeValue(""))
}

func TestDetectFormat(t *testing.T) {
	n := schema.NewNormalizer()

	tests := []struct {
		value string
		want  string
	}{
		{"2024-01-15", "date"},
		{"(555) 123-4567", "phone"},
		{"$1,200", "number"},
		{"jane@example.com", "email"},
		{"John Smith", "name"},
		{"hello", "text"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, n.DetectFormat(tt.value))
		})
	}
}
