package journal

import (
	"strings"

	"github.com/tradebook/journal-api/internal/types"
)

// Enrich joins each trade with the journal entry it references and resolves
// the variant-shaped metadata fields to single canonical strings. It is pure
// and total: absent or blank metadata degrades to the documented defaults,
// never to an error, since un-journaled trades are the common case.
func Enrich(trades []types.CompletedTrade, entries map[string]types.JournalEntry) []types.CompletedTrade {
	enriched := make([]types.CompletedTrade, len(trades))
	for i, trade := range trades {
		enriched[i] = EnrichTrade(trade, entries)
	}
	return enriched
}

// EnrichTrade resolves metadata for a single trade. The input is copied,
// never mutated.
func EnrichTrade(trade types.CompletedTrade, entries map[string]types.JournalEntry) types.CompletedTrade {
	entry, found := types.JournalEntry{}, false
	if trade.JournalEntryID != "" {
		entry, found = entries[trade.JournalEntryID]
	}

	if !found {
		trade.Strategy = types.DefaultStrategy
		trade.Mistake = types.DefaultMistake
		trade.Feelings = types.DefaultFeelings
		return trade
	}

	trade.Strategy = firstOrDefault(entry.Strategy, types.DefaultStrategy)
	trade.Mistake = stringOrDefault(entry.Mistake, types.DefaultMistake)
	trade.Feelings = firstOrDefault(entry.Feelings, types.DefaultFeelings)
	trade.Notes = entry.Notes
	trade.StopLoss = entry.StopLoss
	trade.TargetPrice = entry.TargetPrice
	return trade
}

// firstOrDefault resolves the legacy string-or-array shape: the first
// non-blank element wins, else the default.
func firstOrDefault(values types.StringOrList, def string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return def
}

func stringOrDefault(s, def string) string {
	if trimmed := strings.TrimSpace(s); trimmed != "" {
		return trimmed
	}
	return def
}
