package matching

import (
	"time"

	"github.com/tradebook/journal-api/internal/types"
)

// position is the running state for one symbol while matching under the
// weighted-average policy. openQuantity is signed: positive long, negative
// short. isShort is fixed at the moment the position opens from flat and
// only changes when the position fully closes and reopens.
type position struct {
	openQuantity      int64
	averageEntryPrice float64
	entryOrders       []types.CanonicalOrder
	isShort           bool
	entryTimestamp    time.Time
}

func (p *position) flat() bool {
	return p.openQuantity == 0
}

// reset returns the position to flat, clearing all entry state.
func (p *position) reset() {
	*p = position{}
}

// open starts a new position from flat. The order's side decides direction:
// an opening SELL makes the position short.
func (p *position) open(order types.CanonicalOrder) {
	p.isShort = order.Side == types.SideSell
	p.averageEntryPrice = order.AveragePrice
	p.entryOrders = []types.CanonicalOrder{order}
	p.entryTimestamp = order.OrderTimestamp
	if p.isShort {
		p.openQuantity = -order.Quantity
	} else {
		p.openQuantity = order.Quantity
	}
}

// add accumulates a same-side fill, recomputing the entry price as the
// quantity-weighted average of existing and new fills.
func (p *position) add(order types.CanonicalOrder) {
	existing := p.absQuantity()
	total := existing + order.Quantity
	p.averageEntryPrice = (p.averageEntryPrice*float64(existing) +
		order.AveragePrice*float64(order.Quantity)) / float64(total)
	p.entryOrders = append(p.entryOrders, order)
	if p.isShort {
		p.openQuantity -= order.Quantity
	} else {
		p.openQuantity += order.Quantity
	}
}

// reduce consumes qty of the open position. The caller guarantees
// qty <= absQuantity().
func (p *position) reduce(qty int64) {
	if p.isShort {
		p.openQuantity += qty
	} else {
		p.openQuantity -= qty
	}
	if p.openQuantity == 0 {
		p.reset()
	}
}

func (p *position) absQuantity() int64 {
	if p.openQuantity < 0 {
		return -p.openQuantity
	}
	return p.openQuantity
}

// sideMatches reports whether the order adds to the current direction.
func (p *position) sideMatches(order types.CanonicalOrder) bool {
	if p.isShort {
		return order.Side == types.SideSell
	}
	return order.Side == types.SideBuy
}

// journalEntryID returns the journal linkage of the earliest entry order
// that carries one.
func (p *position) journalEntryID() string {
	for _, o := range p.entryOrders {
		if o.JournalEntryID != "" {
			return o.JournalEntryID
		}
	}
	return ""
}
