package matching

import "github.com/tradebook/journal-api/internal/types"

// lot is one fill with quantity still awaiting an opposing match under the
// strict-FIFO policy.
type lot struct {
	order     types.CanonicalOrder
	remaining int64
}

// matchFIFO pairs the oldest unmatched fill of each side: for every order,
// pop opposing lots front-to-back and match min(quantity), producing one
// trade per pair. The older fill of each pair is the entry, so a SELL that
// predates its BUY yields a SHORT trade. Leftover lots become open trades,
// one per unmatched fill.
func (m *Matcher) matchFIFO(symbol string, orders []types.CanonicalOrder) []types.CompletedTrade {
	var trades []types.CompletedTrade
	var buys, sells []lot

	for _, order := range orders {
		remaining := order.Quantity
		opposing := &sells
		if order.Side == types.SideSell {
			opposing = &buys
		}

		for remaining > 0 && len(*opposing) > 0 {
			entry := &(*opposing)[0]

			matched := remaining
			if entry.remaining < matched {
				matched = entry.remaining
			}

			trades = append(trades, m.emitPair(symbol, entry.order, order, matched))

			entry.remaining -= matched
			remaining -= matched
			if entry.remaining == 0 {
				*opposing = (*opposing)[1:]
			}
		}

		if remaining > 0 {
			l := lot{order: order, remaining: remaining}
			if order.Side == types.SideSell {
				sells = append(sells, l)
			} else {
				buys = append(buys, l)
			}
		}
	}

	for _, l := range buys {
		trades = append(trades, m.emitOpenLot(symbol, l, false))
	}
	for _, l := range sells {
		trades = append(trades, m.emitOpenLot(symbol, l, true))
	}
	return trades
}

// emitPair closes matched quantity between an entry lot and the incoming
// opposing order.
func (m *Matcher) emitPair(symbol string, entry, exit types.CanonicalOrder, matched int64) types.CompletedTrade {
	exitTS := exit.OrderTimestamp
	journalID := entry.JournalEntryID
	if journalID == "" {
		journalID = exit.JournalEntryID
	}

	return m.buildTrade(tradeParams{
		symbol:     symbol,
		short:      entry.Side == types.SideSell,
		quantity:   matched,
		entryPrice: entry.AveragePrice,
		exitPrice:  exit.AveragePrice,
		entryTS:    entry.OrderTimestamp,
		exitTS:     &exitTS,
		journalID:  journalID,
	})
}

func (m *Matcher) emitOpenLot(symbol string, l lot, short bool) types.CompletedTrade {
	return m.buildTrade(tradeParams{
		symbol:     symbol,
		short:      short,
		quantity:   l.remaining,
		entryPrice: l.order.AveragePrice,
		entryTS:    l.order.OrderTimestamp,
		journalID:  l.order.JournalEntryID,
	})
}
