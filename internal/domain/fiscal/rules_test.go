package fiscal

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleFor(t *testing.T) {
	for _, typ := range AllObligationTypes() {
		rule, ok := RuleFor(typ)
		require.True(t, ok, "type %s", typ)
		assert.Equal(t, typ, rule.Type)
		assert.NotEmpty(t, rule.Label)
		assert.NotZero(t, rule.DeadlineDay)
	}

	_, ok := RuleFor(ObligationType("tva"))
	assert.False(t, ok)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Patente", ObligationPatente.Label())
	assert.Equal(t, "Taxe foncière", ObligationTaxeFonciere.Label())
	// Unknown types fall back to the raw value.
	assert.Equal(t, "tva", ObligationType("tva").Label())
}

func TestDeadlineFor(t *testing.T) {
	tests := []struct {
		typ      ObligationType
		expected time.Time
	}{
		{ObligationPatente, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC)},
		{ObligationBail, time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)},
		{ObligationIGS, time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)},
		{ObligationTaxeFonciere, time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)},
		{ObligationDSF, time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)},
		{ObligationDARP, time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		deadline, ok := DeadlineFor(tt.typ, 2025)
		require.True(t, ok, "type %s", tt.typ)
		assert.Equal(t, tt.expected, deadline, "type %s", tt.typ)
	}

	_, ok := DeadlineFor(ObligationType("tva"), 2025)
	assert.False(t, ok)
}

func TestIGSAmountFor(t *testing.T) {
	tests := []struct {
		turnover int64
		amount   int64
		ok       bool
	}{
		{0, 20_000, true},
		{499_999, 20_000, true},
		{500_000, 20_000, true}, // bracket bounds are inclusive
		{500_001, 30_000, true},
		{1_000_000, 30_000, true},
		{4_000_000, 150_000, true},
		{20_000_000, 500_000, true},
		{50_000_000, 2_000_000, true},
		{50_000_001, 0, false}, // above the simplified-regime ceiling
	}
	for _, tt := range tests {
		amount, ok := IGSAmountFor(decimal.NewFromInt(tt.turnover))
		assert.Equal(t, tt.ok, ok, "turnover %d", tt.turnover)
		if tt.ok {
			assert.True(t, decimal.NewFromInt(tt.amount).Equal(amount),
				"turnover %d: expected %d, got %s", tt.turnover, tt.amount, amount)
		}
	}

	_, ok := IGSAmountFor(decimal.NewFromInt(-1))
	assert.False(t, ok)
}
