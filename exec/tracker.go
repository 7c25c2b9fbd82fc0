package exec

import (
	"sync"

	"github.com/google/uuid"

	"github.com/polymkt/trader/broker"
)

// Tracker keeps every order's latest state plus the append-only event
// history. It is fed by submission results and, when a lifecycle
// stream is attached, by asynchronous fill updates.
type Tracker struct {
	mu      sync.RWMutex
	orders  map[string]Report
	history []Report
}

func NewTracker() *Tracker {
	return &Tracker{orders: make(map[string]Report)}
}

// NewOrderID mints a client order identifier.
func NewOrderID() string {
	return uuid.NewString()
}

// Record appends a report snapshot and updates the order's live state.
func (t *Tracker) Record(r Report) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.orders[r.OrderID] = r
	t.history = append(t.history, r)
}

// ApplyFill folds an asynchronous fill update into the tracked order.
// Unknown orders are ignored: they belong to another session and the
// next tick reconciles them from venue state.
func (t *Tracker) ApplyFill(upd broker.FillUpdate) (Report, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.orders[upd.OrderID]
	if !ok {
		return Report{}, false
	}

	if upd.FilledNotional > 0 {
		prevNotional := r.FilledNotional
		r.FilledNotional += upd.FilledNotional
		r.FilledShares += upd.FilledShares
		if r.FilledNotional > 0 {
			r.AveragePrice = (r.AveragePrice*prevNotional + upd.Price*upd.FilledNotional) / r.FilledNotional
		}
		r.Fees += upd.Fees
	}
	if upd.Status != "" {
		r.Status = Status(upd.Status)
	} else if r.RemainingNotional() <= 1e-9 {
		r.Status = StatusFilled
	} else {
		r.Status = StatusPartial
	}
	r.Timestamp = upd.Timestamp

	t.orders[upd.OrderID] = r
	t.history = append(t.history, r)
	return r, true
}

// Get returns the latest state for an order.
func (t *Tracker) Get(orderID string) (Report, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.orders[orderID]
	return r, ok
}

// History returns a copy of the append-only event log.
func (t *Tracker) History() []Report {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Report(nil), t.history...)
}

// Open lists orders that are still pending or partially filled.
func (t *Tracker) Open() []Report {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []Report
	for _, r := range t.orders {
		if r.Status == StatusPending || r.Status == StatusPartial {
			out = append(out, r)
		}
	}
	return out
}
