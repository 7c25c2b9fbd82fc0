// Package position tracks open positions and decides when they close.
package position

import (
	"sync"
	"time"

	"github.com/polymkt/trader/market"
	"github.com/polymkt/trader/pkg/id"
	"github.com/polymkt/trader/strategies"
)

// StrategyEntry is the per-strategy snapshot captured when a position
// opens, consumed later by that strategy's exit evaluator.
type StrategyEntry struct {
	Exclusive    bool               `json:"exclusive"`
	ExpectedHold time.Duration      `json:"expected_hold"`
	Meta         map[string]float64 `json:"meta"`
}

// Position is one open holding on a market side.
type Position struct {
	ID       string      `json:"id"`
	MarketID string      `json:"market_id"`
	Side     market.Side `json:"side"`

	Notional float64 `json:"notional"`
	Shares   float64 `json:"shares"`
	// EntryYes is the yes-price at entry regardless of side.
	EntryYes float64 `json:"entry_yes"`
	Fees     float64 `json:"fees"`

	OpenedAt   time.Time `json:"opened_at"`
	BestPnlPct float64   `json:"best_pnl_pct"`
	// EntryScore is the consensus bias at entry, the anchor of the
	// fair-value decay model.
	EntryScore float64 `json:"entry_score"`

	MinHold time.Duration `json:"min_hold"`

	Strategies map[string]StrategyEntry `json:"strategies"`

	// Holds collects the hold directives emitted by exit evaluators
	// this cycle, for observability.
	Holds map[string]string `json:"holds,omitempty"`
}

// New builds a position from a fill, capturing strategy entry
// snapshots from the contributing strategies.
func New(marketID string, side market.Side, notional, shares, entryYes, fees, entryScore float64, minHold time.Duration, contribs []strategies.Contribution) *Position {
	p := &Position{
		ID:         id.New(),
		MarketID:   marketID,
		Side:       side,
		Notional:   notional,
		Shares:     shares,
		EntryYes:   entryYes,
		Fees:       fees,
		OpenedAt:   time.Now().UTC(),
		EntryScore: entryScore,
		MinHold:    minHold,
		Strategies: make(map[string]StrategyEntry, len(contribs)),
	}
	for _, c := range contribs {
		meta := make(map[string]float64, len(c.Metadata))
		for k, v := range c.Metadata {
			meta[k] = v
		}
		p.Strategies[c.Name] = StrategyEntry{
			Exclusive:    c.Exclusive,
			ExpectedHold: c.ExpectedHold,
			Meta:         meta,
		}
	}
	return p
}

// ApplyFill folds an additional fill into the position.
func (p *Position) ApplyFill(notional, shares, priceYes, fees float64) {
	total := p.Notional + notional
	if total > 0 && p.Shares+shares > 0 {
		p.EntryYes = (p.EntryYes*p.Shares + priceYes*shares) / (p.Shares + shares)
	}
	p.Notional = total
	p.Shares += shares
	p.Fees += fees
}

// Mark returns the price this position would exit at: a yes holder
// sells into the bid, a no holder buys back at the ask.
func (p *Position) Mark(snap market.Snapshot) float64 {
	var mark float64
	if p.Side == market.Yes {
		mark = snap.Bid
	} else {
		mark = snap.Ask
	}
	if mark <= 0 {
		mark = snap.Mid()
	}
	return mark
}

// Pnl returns unrealized pnl at the given yes-mark.
func (p *Position) Pnl(mark float64) float64 {
	if p.Side == market.Yes {
		return p.Shares * (mark - p.EntryYes)
	}
	return p.Shares * (p.EntryYes - mark)
}

// PnlPct returns unrealized pnl as a fraction of notional.
func (p *Position) PnlPct(mark float64) float64 {
	if p.Notional <= 0 {
		return 0
	}
	return p.Pnl(mark) / p.Notional
}

// Age returns how long the position has been open.
func (p *Position) Age(now time.Time) time.Duration {
	return now.Sub(p.OpenedAt)
}

// Book holds the open positions, at most one per (market, side).
type Book struct {
	mu        sync.RWMutex
	positions map[string]*Position
}

func NewBook() *Book {
	return &Book{positions: make(map[string]*Position)}
}

func bookKey(marketID string, side market.Side) string {
	return marketID + "::" + string(side)
}

// Add stores a position; it reports false when one is already open for
// the same market and side.
func (b *Book) Add(p *Position) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := bookKey(p.MarketID, p.Side)
	if _, exists := b.positions[k]; exists {
		return false
	}
	b.positions[k] = p
	return true
}

// Get returns the open position for (market, side).
func (b *Book) Get(marketID string, side market.Side) (*Position, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p, ok := b.positions[bookKey(marketID, side)]
	return p, ok
}

// Remove closes out a position slot.
func (b *Book) Remove(marketID string, side market.Side) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.positions, bookKey(marketID, side))
}

// All returns the open positions in no particular order.
func (b *Book) All() []*Position {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*Position, 0, len(b.positions))
	for _, p := range b.positions {
		out = append(out, p)
	}
	return out
}

// SideNotional sums open notional per side for one market.
func (b *Book) SideNotional(marketID string) (yes, no float64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if p, ok := b.positions[bookKey(marketID, market.Yes)]; ok {
		yes = p.Notional
	}
	if p, ok := b.positions[bookKey(marketID, market.No)]; ok {
		no = p.Notional
	}
	return yes, no
}
