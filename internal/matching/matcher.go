package matching

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/tradebook/journal-api/internal/types"
)

// Policy selects how a symbol's order stream is paired into trades. The two
// policies are not numerically equivalent once a round trip contains more
// than two fills, so consumers must pick one explicitly and never mix them.
type Policy string

const (
	// PolicyWeightedAverage tracks one running position per symbol with a
	// quantity-weighted entry price; each opposing fill closes against that
	// average. Suits position-centric chart views.
	PolicyWeightedAverage Policy = "weighted"
	// PolicyStrictFIFO pairs the oldest unmatched fill of each side,
	// producing one trade per pair. Suits table-style trade listings.
	PolicyStrictFIFO Policy = "fifo"
)

// ErrUnknownPolicy signals a programming-contract violation: an unsupported
// policy name reached the matcher.
var ErrUnknownPolicy = errors.New("unknown matching policy")

// ParsePolicy maps a request string onto a Policy. Empty input selects the
// weighted-average default.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "":
		return PolicyWeightedAverage, nil
	case PolicyWeightedAverage, PolicyStrictFIFO:
		return Policy(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

// Matcher reconstructs round-trip trades from canonical order streams.
// A Matcher is cheap to create and single-use per run; it holds the trade
// id sequence and an injectable clock for open-position durations.
type Matcher struct {
	policy Policy
	now    func() time.Time
	seq    int
}

func NewMatcher(policy Policy) *Matcher {
	return &Matcher{
		policy: policy,
		now:    time.Now,
	}
}

// MatchAll groups orders by symbol and matches each symbol independently.
// Symbols are processed in lexicographic order so trade ids are stable
// across runs over the same input.
func (m *Matcher) MatchAll(orders []types.CanonicalOrder) []types.CompletedTrade {
	m.seq = 0

	bySymbol := make(map[string][]types.CanonicalOrder)
	for _, order := range orders {
		bySymbol[order.Symbol] = append(bySymbol[order.Symbol], order)
	}

	symbols := make([]string, 0, len(bySymbol))
	for symbol := range bySymbol {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	var trades []types.CompletedTrade
	for _, symbol := range symbols {
		trades = append(trades, m.MatchSymbol(symbol, bySymbol[symbol])...)
	}
	return trades
}

// MatchSymbol converts one symbol's orders into completed trades plus at
// most one trailing open position (weighted policy) or the remaining
// unmatched fills (FIFO policy). Malformed orders are skipped with a
// warning, never aborting the rest of the stream.
func (m *Matcher) MatchSymbol(symbol string, orders []types.CanonicalOrder) []types.CompletedTrade {
	valid := m.validOrders(symbol, orders)
	sortOrders(valid)

	switch m.policy {
	case PolicyStrictFIFO:
		return m.matchFIFO(symbol, valid)
	default:
		return m.matchWeighted(symbol, valid)
	}
}

// validOrders drops orders that cannot represent a fill: missing required
// fields, non-positive quantity, negative price, or a non-COMPLETE status.
func (m *Matcher) validOrders(symbol string, orders []types.CanonicalOrder) []types.CanonicalOrder {
	logger := log.With().Str("service", "matching").Str("symbol", symbol).Logger()

	valid := make([]types.CanonicalOrder, 0, len(orders))
	for _, order := range orders {
		if !order.Matchable() {
			logger.Warn().
				Str("order_id", order.OrderID).
				Int64("quantity", order.Quantity).
				Float64("average_price", order.AveragePrice).
				Str("status", order.Status).
				Strs("missing_fields", order.MissingFields()).
				Msg("skipping unmatchable order")
			continue
		}
		valid = append(valid, order)
	}
	return valid
}

// sortOrders orders ascending by timestamp, breaking ties by order id so
// streams with duplicate timestamps still match deterministically.
func sortOrders(orders []types.CanonicalOrder) {
	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].OrderTimestamp.Equal(orders[j].OrderTimestamp) {
			return orders[i].OrderTimestamp.Before(orders[j].OrderTimestamp)
		}
		return orders[i].OrderID < orders[j].OrderID
	})
}

// matchWeighted runs the position state machine. An opposing order larger
// than the open quantity closes the open amount and the remainder opens a
// fresh position in the opposite direction; quantity is never dropped.
func (m *Matcher) matchWeighted(symbol string, orders []types.CanonicalOrder) []types.CompletedTrade {
	var trades []types.CompletedTrade
	var pos position

	for _, order := range orders {
		if pos.flat() {
			pos.open(order)
			continue
		}

		if pos.sideMatches(order) {
			pos.add(order)
			continue
		}

		exitQty := order.Quantity
		if open := pos.absQuantity(); exitQty > open {
			exitQty = open
		}
		if exitQty > 0 {
			trades = append(trades, m.emitTrade(symbol, &pos, order, exitQty))
			pos.reduce(exitQty)
		}

		if remainder := order.Quantity - exitQty; remainder > 0 {
			reversal := order
			reversal.Quantity = remainder
			pos.open(reversal)
		}
	}

	if !pos.flat() {
		trades = append(trades, m.emitOpenTrade(symbol, &pos))
	}
	return trades
}

// emitTrade closes exitQty of the position against an opposing order.
func (m *Matcher) emitTrade(symbol string, pos *position, exit types.CanonicalOrder, exitQty int64) types.CompletedTrade {
	exitTS := exit.OrderTimestamp
	journalID := pos.journalEntryID()
	if journalID == "" {
		journalID = exit.JournalEntryID
	}

	return m.buildTrade(tradeParams{
		symbol:     symbol,
		short:      pos.isShort,
		quantity:   exitQty,
		entryPrice: pos.averageEntryPrice,
		exitPrice:  exit.AveragePrice,
		entryTS:    pos.entryTimestamp,
		exitTS:     &exitTS,
		journalID:  journalID,
	})
}

// emitOpenTrade represents the trailing unmatched position. It carries zero
// P&L and no exit; duration measures entry to now.
func (m *Matcher) emitOpenTrade(symbol string, pos *position) types.CompletedTrade {
	return m.buildTrade(tradeParams{
		symbol:     symbol,
		short:      pos.isShort,
		quantity:   pos.absQuantity(),
		entryPrice: pos.averageEntryPrice,
		entryTS:    pos.entryTimestamp,
		journalID:  pos.journalEntryID(),
	})
}

type tradeParams struct {
	symbol     string
	short      bool
	quantity   int64
	entryPrice float64
	exitPrice  float64
	entryTS    time.Time
	exitTS     *time.Time
	journalID  string
}

// buildTrade assigns the next sequence id and computes direction-adjusted
// P&L and return. All numeric outputs are rounded to 2 decimal places here,
// at emission, and nowhere earlier.
func (m *Matcher) buildTrade(p tradeParams) types.CompletedTrade {
	m.seq++
	trade := types.CompletedTrade{
		TradeID:        fmt.Sprintf("T%d", m.seq),
		Symbol:         p.symbol,
		Side:           types.TradeLong,
		Quantity:       p.quantity,
		EntryPrice:     round2(p.entryPrice),
		EntryTimestamp: p.entryTS,
		JournalEntryID: p.journalID,
	}
	if p.short {
		trade.Side = types.TradeShort
	}

	if p.exitTS == nil {
		// Open position: zero P&L, duration runs to the current clock.
		trade.DurationMinutes = round2(m.now().Sub(p.entryTS).Minutes())
		return trade
	}

	trade.ExitPrice = round2(p.exitPrice)
	trade.ExitTimestamp = p.exitTS
	trade.DurationMinutes = round2(p.exitTS.Sub(p.entryTS).Minutes())

	entry := decimal.NewFromFloat(p.entryPrice)
	exit := decimal.NewFromFloat(p.exitPrice)
	move := exit.Sub(entry)
	if p.short {
		move = entry.Sub(exit)
	}

	pnl := move.Mul(decimal.NewFromInt(p.quantity))
	trade.PnL, _ = pnl.Round(2).Float64()

	if !entry.IsZero() {
		pct := move.Div(entry).Mul(decimal.NewFromInt(100))
		trade.ReturnPct, _ = pct.Round(2).Float64()
	}
	return trade
}

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
