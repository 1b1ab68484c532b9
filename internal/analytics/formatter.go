package analytics

import "strings"

// ChartRecord is one presentation-ready row: the raw group key, a
// human-readable label and the group's metrics. Numeric values and ordering
// are exactly as the aggregator produced them; formatting only touches
// label text.
type ChartRecord struct {
	Key             string  `json:"key"`
	Label           string  `json:"label"`
	TotalTrades     int     `json:"total_trades"`
	WinCount        int     `json:"win_count"`
	LossCount       int     `json:"loss_count"`
	BreakEvenCount  int     `json:"break_even_count"`
	WinRate         float64 `json:"win_rate"`
	TotalPnL        float64 `json:"total_pnl"`
	AvgWinSize      float64 `json:"avg_win_size"`
	AvgLossSize     float64 `json:"avg_loss_size"`
	RiskRewardRatio float64 `json:"risk_reward_ratio"`
	ProfitFactor    float64 `json:"profit_factor"`
	AvgDuration     float64 `json:"avg_duration"`
	AvgReturnPct    float64 `json:"avg_return_pct"`
}

// Format shapes aggregated groups into chart-ready records, preserving the
// aggregator's iteration order.
func Format(groups []GroupMetrics) []ChartRecord {
	records := make([]ChartRecord, len(groups))
	for i, group := range groups {
		m := group.Metrics
		records[i] = ChartRecord{
			Key:             group.Key,
			Label:           Humanize(group.Key),
			TotalTrades:     m.TotalTrades,
			WinCount:        m.WinCount,
			LossCount:       m.LossCount,
			BreakEvenCount:  m.BreakEvenCount,
			WinRate:         m.WinRate,
			TotalPnL:        m.TotalPnL,
			AvgWinSize:      m.AvgWinSize,
			AvgLossSize:     m.AvgLossSize,
			RiskRewardRatio: m.RiskRewardRatio,
			ProfitFactor:    m.ProfitFactor,
			AvgDuration:     m.AvgDuration,
			AvgReturnPct:    m.AvgReturnPct,
		}
	}
	return records
}

// Humanize turns a stored group key into a display label: underscores
// become spaces and each word gets a leading capital ("no_mistake" ->
// "No Mistake"). Existing capitalization inside a word is left alone so
// acronyms like "FOMO" survive.
func Humanize(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == ' '
	})
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
