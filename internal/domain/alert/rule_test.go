package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRule_DefaultExpression(t *testing.T) {
	rule, err := Compile("stockQuantity <= lowStockAlert")
	require.NoError(t, err)

	tests := []struct {
		name  string
		facts Facts
		want  bool
	}{
		{name: "below threshold", facts: Facts{StockQuantity: 2, LowStockAlert: 5}, want: true},
		{name: "at threshold", facts: Facts{StockQuantity: 5, LowStockAlert: 5}, want: true},
		{name: "above threshold", facts: Facts{StockQuantity: 9, LowStockAlert: 5}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rule.Evaluate(tt.facts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRule_ExpiryAndCategory(t *testing.T) {
	rule, err := Compile(`daysToExpiry < 30 || (category == "dairy" && stockQuantity < 10)`)
	require.NoError(t, err)

	got, err := rule.Evaluate(Facts{StockQuantity: 50, DaysToExpiry: 3})
	require.NoError(t, err)
	assert.True(t, got)

	got, err = rule.Evaluate(Facts{StockQuantity: 4, Category: "dairy", DaysToExpiry: NoExpiry})
	require.NoError(t, err)
	assert.True(t, got)

	got, err = rule.Evaluate(Facts{StockQuantity: 4, Category: "grain", DaysToExpiry: NoExpiry})
	require.NoError(t, err)
	assert.False(t, got)
}

func TestCompile_Errors(t *testing.T) {
	_, err := Compile("stockQuantity <=")
	assert.Error(t, err)

	_, err = Compile("stockQuantity + 1.0")
	assert.ErrorContains(t, err, "must evaluate to bool")

	_, err = Compile("unknownVar > 1")
	assert.Error(t, err)
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	expiry := now.Add(72 * time.Hour)

	assert.Equal(t, int64(3), DaysUntil(&expiry, now))
	assert.Equal(t, NoExpiry, DaysUntil(nil, now))

	past := now.Add(-36 * time.Hour)
	assert.Equal(t, int64(-2), DaysUntil(&past, now))
}
