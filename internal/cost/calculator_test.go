package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClaudeCost(t *testing.T) {
	calc := NewCalculator(DefaultRates())

	// 1M input + 1M output on sonnet = 3.00 + 15.00.
	got := calc.Claude("claude-sonnet-4-5-20250929", 1_000_000, 1_000_000, 0, 0)
	assert.InDelta(t, 18.00, got, 1e-9)
}

func TestClaudeCostCacheMultipliers(t *testing.T) {
	calc := NewCalculator(DefaultRates())

	// Cache write at 1.25x input rate, cache read at 0.1x.
	got := calc.Claude("claude-haiku-4-5-20251001", 0, 0, 1_000_000, 1_000_000)
	assert.InDelta(t, 0.80*1.25+0.80*0.1, got, 1e-9)
}

func TestClaudeCostUnknownModel(t *testing.T) {
	calc := NewCalculator(DefaultRates())
	assert.Zero(t, calc.Claude("gpt-99", 1_000_000, 1_000_000, 0, 0))
}

func TestPerplexityQueryCost(t *testing.T) {
	calc := NewCalculator(DefaultRates())
	assert.InDelta(t, 0.005, calc.PerplexityQuery(), 1e-9)
}
