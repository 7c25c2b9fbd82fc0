// Package journal persists the three append-only event streams every
// run produces: order outcomes, fills, and realized exits. Aggregate
// views are always rebuilt from the streams, never maintained as
// mutable state, so a crash can lose at most the line being written.
package journal

import (
	"time"

	"github.com/polymkt/trader/broker"
	"github.com/polymkt/trader/exec"
	"github.com/polymkt/trader/market"
)

// RealizedExit is the immutable record appended when a position closes.
type RealizedExit struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	MarketID  string      `json:"market_id"`
	Side      market.Side `json:"side"`
	Reason    string      `json:"reason"`

	Notional   float64 `json:"notional"`
	Shares     float64 `json:"shares"`
	EntryPrice float64 `json:"entry_price"`
	ExitPrice  float64 `json:"exit_price"`

	Pnl          float64 `json:"pnl"`
	Fees         float64 `json:"fees"`
	PnlAfterFees float64 `json:"pnl_after_fees"`

	HoldingSeconds float64  `json:"holding_seconds"`
	Strategies     []string `json:"strategies"`
}

// Journal accepts the event streams. Implementations must treat every
// record as append-only and must not block the decision loop: a failed
// write is logged and dropped, never retried inline.
type Journal interface {
	RecordOrder(exec.Report)
	RecordFill(broker.FillUpdate)
	RecordExit(RealizedExit)
	Close() error
}

// Multi fans records out to several journals, e.g. JSONL plus SQLite.
type Multi []Journal

func (m Multi) RecordOrder(r exec.Report) {
	for _, j := range m {
		j.RecordOrder(r)
	}
}

func (m Multi) RecordFill(f broker.FillUpdate) {
	for _, j := range m {
		j.RecordFill(f)
	}
}

func (m Multi) RecordExit(e RealizedExit) {
	for _, j := range m {
		j.RecordExit(e)
	}
}

func (m Multi) Close() error {
	var first error
	for _, j := range m {
		if err := j.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// DayWindow returns the UTC day bounds containing t, shifted by the
// reset hour used for daily loss accounting.
func DayWindow(t time.Time, resetHour int) (time.Time, time.Time) {
	shifted := t.UTC().Add(-time.Duration(resetHour) * time.Hour)
	start := time.Date(shifted.Year(), shifted.Month(), shifted.Day(), 0, 0, 0, 0, time.UTC).
		Add(time.Duration(resetHour) * time.Hour)
	return start, start.Add(24 * time.Hour)
}
