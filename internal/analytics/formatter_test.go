package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanize(t *testing.T) {
	cases := map[string]string{
		"no_mistake":          "No Mistake",
		"early_exit":          "Early Exit",
		"breakout":            "Breakout",
		"Morning Session":     "Morning Session",
		"FOMO_entry":          "FOMO Entry",
		"Not Selected":        "Not Selected",
		"mean_reversion_long": "Mean Reversion Long",
		"":                    "",
	}

	for input, want := range cases {
		assert.Equal(t, want, Humanize(input), "input %q", input)
	}
}

func TestFormatPreservesOrderAndValues(t *testing.T) {
	groups := []GroupMetrics{
		{Key: "scalping", Metrics: StrategyMetrics{TotalTrades: 3, WinCount: 2, WinRate: 66.67, TotalPnL: 500}},
		{Key: "no_mistake", Metrics: StrategyMetrics{TotalTrades: 1, LossCount: 1, TotalPnL: -50, AvgLossSize: 50}},
	}

	records := Format(groups)
	require.Len(t, records, 2)

	assert.Equal(t, "scalping", records[0].Key)
	assert.Equal(t, "Scalping", records[0].Label)
	assert.Equal(t, 3, records[0].TotalTrades)
	assert.Equal(t, 66.67, records[0].WinRate)
	assert.Equal(t, 500.0, records[0].TotalPnL)

	assert.Equal(t, "no_mistake", records[1].Key)
	assert.Equal(t, "No Mistake", records[1].Label)
	assert.Equal(t, -50.0, records[1].TotalPnL)
	assert.Equal(t, 50.0, records[1].AvgLossSize)
}

func TestFormatEmpty(t *testing.T) {
	assert.Empty(t, Format(nil))
}
