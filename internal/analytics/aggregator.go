package analytics

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/tradebook/journal-api/internal/broker"
	"github.com/tradebook/journal-api/internal/types"
)

// GroupKey selects the dimension trades are aggregated over.
type GroupKey string

const (
	GroupStrategy GroupKey = "strategy"
	GroupMistake  GroupKey = "mistake"
	GroupDay      GroupKey = "day"
	GroupEmotion  GroupKey = "emotion"
	GroupSlot     GroupKey = "slot"
)

// ErrInvalidGroupKey signals a programming-contract violation: callers must
// pass one of the supported dimensions. Data-quality problems never raise.
var ErrInvalidGroupKey = errors.New("invalid group key")

// ParseGroupKey validates a request string against the supported dimensions.
func ParseGroupKey(s string) (GroupKey, error) {
	switch GroupKey(s) {
	case GroupStrategy, GroupMistake, GroupDay, GroupEmotion, GroupSlot:
		return GroupKey(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidGroupKey, s)
}

// StrategyMetrics is the per-group statistics block. Every ratio substitutes
// 0 for an empty denominator, so output never carries NaN or Inf.
type StrategyMetrics struct {
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

// GroupMetrics pairs one group key with its metrics, in the aggregator's
// output order.
type GroupMetrics struct {
	Key     string          `json:"key"`
	Metrics StrategyMetrics `json:"metrics"`
}

// Weekday names in the fixed output order for the day dimension.
var weekdayOrder = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// Session slot labels aligned to Indian market hours. Boundary minutes are
// measured from midnight IST; the 13:16-13:44 gap intentionally falls
// outside all sessions.
const (
	slotMorning   = "Morning Session"
	slotMiddle    = "Middle Session"
	slotAfternoon = "Afternoon Session"
	slotOutside   = "Outside Trading Hours"
)

// Aggregate groups trades by the requested dimension and computes per-group
// statistics. Output ordering: fixed weekday order for the day dimension,
// otherwise descending total P&L with lexicographic key tie-break.
func Aggregate(trades []types.CompletedTrade, groupBy GroupKey) ([]GroupMetrics, error) {
	if _, err := ParseGroupKey(string(groupBy)); err != nil {
		return nil, err
	}

	buckets := make(map[string][]types.CompletedTrade)
	for _, trade := range trades {
		key := groupValue(trade, groupBy)
		buckets[key] = append(buckets[key], trade)
	}

	groups := make([]GroupMetrics, 0, len(buckets))
	for key, group := range buckets {
		groups = append(groups, GroupMetrics{Key: key, Metrics: Compute(group)})
	}

	sortGroups(groups, groupBy)
	return groups, nil
}

// Compute derives the statistics block for one set of trades. Trades with
// zero P&L (including open positions) classify as break-even; only closed
// winners and losers move the averages and ratios.
func Compute(trades []types.CompletedTrade) StrategyMetrics {
	var m StrategyMetrics
	m.TotalTrades = len(trades)
	if m.TotalTrades == 0 {
		return m
	}

	winSum := decimal.Zero
	lossSum := decimal.Zero
	totalPnL := decimal.Zero
	var durationSum, returnSum float64

	for _, trade := range trades {
		pnl := decimal.NewFromFloat(trade.PnL)
		totalPnL = totalPnL.Add(pnl)
		durationSum += trade.DurationMinutes
		returnSum += trade.ReturnPct

		switch {
		case trade.PnL > 0:
			m.WinCount++
			winSum = winSum.Add(pnl)
		case trade.PnL < 0:
			m.LossCount++
			lossSum = lossSum.Add(pnl)
		default:
			m.BreakEvenCount++
		}
	}

	m.TotalPnL = round2(totalPnL)
	m.WinRate = round2(decimal.NewFromInt(int64(m.WinCount)).
		Div(decimal.NewFromInt(int64(m.TotalTrades))).
		Mul(decimal.NewFromInt(100)))

	lossAbs := lossSum.Abs()
	if m.WinCount > 0 {
		m.AvgWinSize = round2(winSum.Div(decimal.NewFromInt(int64(m.WinCount))))
	}
	if m.LossCount > 0 {
		m.AvgLossSize = round2(lossAbs.Div(decimal.NewFromInt(int64(m.LossCount))))
	}
	if m.AvgLossSize != 0 {
		m.RiskRewardRatio = round2(decimal.NewFromFloat(m.AvgWinSize).
			Div(decimal.NewFromFloat(m.AvgLossSize)))
	}
	if !lossAbs.IsZero() {
		m.ProfitFactor = round2(winSum.Div(lossAbs))
	}

	m.AvgDuration = round2(decimal.NewFromFloat(durationSum).
		Div(decimal.NewFromInt(int64(m.TotalTrades))))
	m.AvgReturnPct = round2(decimal.NewFromFloat(returnSum).
		Div(decimal.NewFromInt(int64(m.TotalTrades))))
	return m
}

// groupValue extracts the bucket key for one trade.
func groupValue(trade types.CompletedTrade, groupBy GroupKey) string {
	switch groupBy {
	case GroupStrategy:
		return trade.Strategy
	case GroupMistake:
		return trade.Mistake
	case GroupEmotion:
		return trade.Feelings
	case GroupDay:
		return weekday(trade)
	case GroupSlot:
		return sessionSlot(trade)
	}
	return ""
}

// weekday derives the day name from the entry timestamp (exit as fallback)
// in UTC, fixed regardless of server locale for reproducibility.
func weekday(trade types.CompletedTrade) string {
	ts := trade.EntryTimestamp
	if ts.IsZero() && trade.ExitTimestamp != nil {
		ts = *trade.ExitTimestamp
	}
	return ts.UTC().Weekday().String()
}

// sessionSlot buckets the entry (fallback exit) timestamp's IST wall time
// into fixed market session ranges.
func sessionSlot(trade types.CompletedTrade) string {
	ts := trade.EntryTimestamp
	if ts.IsZero() && trade.ExitTimestamp != nil {
		ts = *trade.ExitTimestamp
	}

	local := ts.In(broker.IST)
	minute := local.Hour()*60 + local.Minute()

	switch {
	case minute >= 9*60+15 && minute <= 11*60+15:
		return slotMorning
	case minute >= 11*60+16 && minute <= 13*60+15:
		return slotMiddle
	case minute >= 13*60+45 && minute <= 15*60+30:
		return slotAfternoon
	}
	return slotOutside
}

func sortGroups(groups []GroupMetrics, groupBy GroupKey) {
	if groupBy == GroupDay {
		rank := make(map[string]int, len(weekdayOrder))
		for i, day := range weekdayOrder {
			rank[day] = i
		}
		sort.SliceStable(groups, func(i, j int) bool {
			return rank[groups[i].Key] < rank[groups[j].Key]
		})
		return
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Metrics.TotalPnL != groups[j].Metrics.TotalPnL {
			return groups[i].Metrics.TotalPnL > groups[j].Metrics.TotalPnL
		}
		return groups[i].Key < groups[j].Key
	})
}

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
