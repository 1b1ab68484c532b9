package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradebook/journal-api/internal/types"
)

func TestEnrichTradeDefaults(t *testing.T) {
	trade := types.CompletedTrade{TradeID: "T1", Symbol: "RELIANCE"}

	enriched := EnrichTrade(trade, nil)
	assert.Equal(t, types.DefaultStrategy, enriched.Strategy)
	assert.Equal(t, types.DefaultMistake, enriched.Mistake)
	assert.Equal(t, types.DefaultFeelings, enriched.Feelings)
}

func TestEnrichTradeMissingEntry(t *testing.T) {
	trade := types.CompletedTrade{TradeID: "T1", JournalEntryID: "JRN_ghost"}

	enriched := EnrichTrade(trade, map[string]types.JournalEntry{})
	assert.Equal(t, types.DefaultStrategy, enriched.Strategy)
	assert.Equal(t, types.DefaultMistake, enriched.Mistake)
	assert.Equal(t, types.DefaultFeelings, enriched.Feelings)
}

func TestEnrichTradeResolvesMetadata(t *testing.T) {
	entries := map[string]types.JournalEntry{
		"JRN_1": {
			EntryID:     "JRN_1",
			Strategy:    types.StringOrList{"breakout"},
			Mistake:     "early_exit",
			Feelings:    types.StringOrList{"confident"},
			Notes:       "gap up open",
			StopLoss:    2400,
			TargetPrice: 2550,
		},
	}

	trade := types.CompletedTrade{TradeID: "T1", JournalEntryID: "JRN_1"}
	enriched := EnrichTrade(trade, entries)

	assert.Equal(t, "breakout", enriched.Strategy)
	assert.Equal(t, "early_exit", enriched.Mistake)
	assert.Equal(t, "confident", enriched.Feelings)
	assert.Equal(t, "gap up open", enriched.Notes)
	assert.Equal(t, 2400.0, enriched.StopLoss)
	assert.Equal(t, 2550.0, enriched.TargetPrice)
}

func TestEnrichTradeVariantShapes(t *testing.T) {
	tests := []struct {
		name  string
		entry types.JournalEntry
		want  string
	}{
		{
			name:  "first element of a list",
			entry: types.JournalEntry{Strategy: types.StringOrList{"scalping", "swing"}},
			want:  "scalping",
		},
		{
			name:  "blank leading elements skipped",
			entry: types.JournalEntry{Strategy: types.StringOrList{"", "  ", "swing"}},
			want:  "swing",
		},
		{
			name:  "whitespace trimmed",
			entry: types.JournalEntry{Strategy: types.StringOrList{"  breakout  "}},
			want:  "breakout",
		},
		{
			name:  "empty list falls back to default",
			entry: types.JournalEntry{Strategy: types.StringOrList{}},
			want:  types.DefaultStrategy,
		},
		{
			name:  "nil falls back to default",
			entry: types.JournalEntry{},
			want:  types.DefaultStrategy,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			entries := map[string]types.JournalEntry{"JRN_1": tc.entry}
			trade := types.CompletedTrade{JournalEntryID: "JRN_1"}
			assert.Equal(t, tc.want, EnrichTrade(trade, entries).Strategy)
		})
	}
}

func TestEnrichTradeBlankMistake(t *testing.T) {
	entries := map[string]types.JournalEntry{
		"JRN_1": {Mistake: "   "},
	}
	trade := types.CompletedTrade{JournalEntryID: "JRN_1"}
	assert.Equal(t, types.DefaultMistake, EnrichTrade(trade, entries).Mistake)
}

func TestEnrichDoesNotMutateInput(t *testing.T) {
	trades := []types.CompletedTrade{
		{TradeID: "T1", JournalEntryID: "JRN_1"},
		{TradeID: "T2"},
	}
	entries := map[string]types.JournalEntry{
		"JRN_1": {Strategy: types.StringOrList{"breakout"}},
	}

	enriched := Enrich(trades, entries)
	require.Len(t, enriched, 2)

	assert.Equal(t, "breakout", enriched[0].Strategy)
	assert.Equal(t, types.DefaultStrategy, enriched[1].Strategy)
	assert.Empty(t, trades[0].Strategy)
	assert.Empty(t, trades[1].Strategy)
}
