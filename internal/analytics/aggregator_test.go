package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradebook/journal-api/internal/broker"
	"github.com/tradebook/journal-api/internal/types"
)

func closedTrade(pnl float64) types.CompletedTrade {
	exit := time.Date(2026, 3, 4, 11, 0, 0, 0, time.UTC)
	return types.CompletedTrade{
		Symbol:          "RELIANCE",
		Quantity:        10,
		PnL:             pnl,
		EntryTimestamp:  exit.Add(-30 * time.Minute),
		ExitTimestamp:   &exit,
		DurationMinutes: 30,
	}
}

func TestParseGroupKey(t *testing.T) {
	for _, key := range []string{"strategy", "mistake", "day", "emotion", "slot"} {
		parsed, err := ParseGroupKey(key)
		require.NoError(t, err)
		assert.Equal(t, GroupKey(key), parsed)
	}

	_, err := ParseGroupKey("symbol")
	assert.ErrorIs(t, err, ErrInvalidGroupKey)
	_, err = ParseGroupKey("")
	assert.ErrorIs(t, err, ErrInvalidGroupKey)
}

func TestComputeMetrics(t *testing.T) {
	trades := []types.CompletedTrade{
		closedTrade(100), closedTrade(200), closedTrade(300),
		closedTrade(-50), closedTrade(-150),
	}

	m := Compute(trades)
	assert.Equal(t, 5, m.TotalTrades)
	assert.Equal(t, 3, m.WinCount)
	assert.Equal(t, 2, m.LossCount)
	assert.Equal(t, 0, m.BreakEvenCount)
	assert.Equal(t, 60.0, m.WinRate)
	assert.Equal(t, 400.0, m.TotalPnL)
	assert.Equal(t, 200.0, m.AvgWinSize)
	assert.Equal(t, 100.0, m.AvgLossSize)
	assert.Equal(t, 2.0, m.RiskRewardRatio)
	assert.Equal(t, 3.0, m.ProfitFactor)
	assert.Equal(t, 30.0, m.AvgDuration)
}

func TestComputeEmptyAndZeroDivision(t *testing.T) {
	empty := Compute(nil)
	assert.Equal(t, StrategyMetrics{}, empty)

	// All winners: loss-based ratios stay 0 rather than dividing by zero.
	winners := Compute([]types.CompletedTrade{closedTrade(100), closedTrade(50)})
	assert.Equal(t, 100.0, winners.WinRate)
	assert.Equal(t, 0.0, winners.AvgLossSize)
	assert.Equal(t, 0.0, winners.RiskRewardRatio)
	assert.Equal(t, 0.0, winners.ProfitFactor)

	// All losers: win-based numbers stay 0.
	losers := Compute([]types.CompletedTrade{closedTrade(-100)})
	assert.Equal(t, 0.0, losers.WinRate)
	assert.Equal(t, 0.0, losers.AvgWinSize)
	assert.Equal(t, 0.0, losers.RiskRewardRatio)
}

func TestComputeOpenTradesAreBreakEven(t *testing.T) {
	open := types.CompletedTrade{Symbol: "TCS", Quantity: 10}

	m := Compute([]types.CompletedTrade{closedTrade(100), open})
	assert.Equal(t, 2, m.TotalTrades)
	assert.Equal(t, 1, m.WinCount)
	assert.Equal(t, 1, m.BreakEvenCount)
	assert.Equal(t, 50.0, m.WinRate)
}

func TestAggregateInvalidGroupKey(t *testing.T) {
	_, err := Aggregate(nil, GroupKey("symbol"))
	assert.ErrorIs(t, err, ErrInvalidGroupKey)
}

func TestAggregateByStrategySortsByPnL(t *testing.T) {
	a := closedTrade(100)
	a.Strategy = "breakout"
	b := closedTrade(500)
	b.Strategy = "scalping"
	c := closedTrade(-50)
	c.Strategy = "breakout"

	groups, err := Aggregate([]types.CompletedTrade{a, b, c}, GroupStrategy)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "scalping", groups[0].Key)
	assert.Equal(t, 500.0, groups[0].Metrics.TotalPnL)
	assert.Equal(t, "breakout", groups[1].Key)
	assert.Equal(t, 50.0, groups[1].Metrics.TotalPnL)
	assert.Equal(t, 2, groups[1].Metrics.TotalTrades)
}

func TestAggregateTiesBreakByKey(t *testing.T) {
	a := closedTrade(100)
	a.Mistake = "fomo_entry"
	b := closedTrade(100)
	b.Mistake = "early_exit"

	groups, err := Aggregate([]types.CompletedTrade{a, b}, GroupMistake)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "early_exit", groups[0].Key)
	assert.Equal(t, "fomo_entry", groups[1].Key)
}

func TestAggregateByDayFixedOrder(t *testing.T) {
	// 2026-03-06 is a Friday, 2026-03-04 a Wednesday, 2026-03-02 a Monday.
	tradeOn := func(day int, pnl float64) types.CompletedTrade {
		trade := closedTrade(pnl)
		trade.EntryTimestamp = time.Date(2026, 3, day, 10, 0, 0, 0, time.UTC)
		return trade
	}

	groups, err := Aggregate([]types.CompletedTrade{
		tradeOn(6, 900), tradeOn(2, -10), tradeOn(4, 100),
	}, GroupDay)
	require.NoError(t, err)
	require.Len(t, groups, 3)

	assert.Equal(t, "Monday", groups[0].Key)
	assert.Equal(t, "Wednesday", groups[1].Key)
	assert.Equal(t, "Friday", groups[2].Key)
}

func TestWeekdayFallsBackToExit(t *testing.T) {
	exit := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC) // Thursday
	trade := types.CompletedTrade{ExitTimestamp: &exit}
	assert.Equal(t, "Thursday", weekday(trade))
}

func TestSessionSlotBoundaries(t *testing.T) {
	at := func(hour, minute int) types.CompletedTrade {
		return types.CompletedTrade{
			EntryTimestamp: time.Date(2026, 3, 4, hour, minute, 0, 0, broker.IST),
		}
	}

	tests := []struct {
		hour, minute int
		want         string
	}{
		{9, 14, slotOutside},
		{9, 15, slotMorning},
		{11, 15, slotMorning},
		{11, 16, slotMiddle},
		{13, 15, slotMiddle},
		{13, 16, slotOutside},
		{13, 44, slotOutside},
		{13, 45, slotAfternoon},
		{15, 30, slotAfternoon},
		{15, 31, slotOutside},
		{3, 0, slotOutside},
	}

	for _, tc := range tests {
		got := sessionSlot(at(tc.hour, tc.minute))
		assert.Equal(t, tc.want, got, "%02d:%02d", tc.hour, tc.minute)
	}
}

func TestSessionSlotConvertsToIST(t *testing.T) {
	// 04:45 UTC is 10:15 IST, inside the morning session.
	trade := types.CompletedTrade{
		EntryTimestamp: time.Date(2026, 3, 4, 4, 45, 0, 0, time.UTC),
	}
	assert.Equal(t, slotMorning, sessionSlot(trade))
}

func TestAggregateBySlotPartitionsAllTrades(t *testing.T) {
	trades := []types.CompletedTrade{
		{EntryTimestamp: time.Date(2026, 3, 4, 10, 0, 0, 0, broker.IST), PnL: 100},
		{EntryTimestamp: time.Date(2026, 3, 4, 12, 0, 0, 0, broker.IST), PnL: -50},
		{EntryTimestamp: time.Date(2026, 3, 4, 14, 0, 0, 0, broker.IST), PnL: 25},
		{EntryTimestamp: time.Date(2026, 3, 4, 20, 0, 0, 0, broker.IST), PnL: 10},
	}

	groups, err := Aggregate(trades, GroupSlot)
	require.NoError(t, err)
	require.Len(t, groups, 4)

	total := 0
	for _, g := range groups {
		total += g.Metrics.TotalTrades
	}
	assert.Equal(t, len(trades), total)
}
