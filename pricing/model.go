// Package pricing estimates fill prices for binary-market orders under
// selectable slippage conventions. The same models price live orders
// and backtest fills so the two paths cannot drift apart.
package pricing

import (
	"fmt"

	"github.com/polymkt/trader/market"
)

// Model selects the fill-price convention.
type Model string

const (
	// Taker crosses the book at the far touch.
	Taker Model = "taker"
	// Maker posts at the near touch.
	Maker Model = "maker"
	// MakerLimit posts passively at the opposite touch.
	MakerLimit Model = "maker_limit"
	// Mid prices at the theoretical midpoint.
	Mid Model = "mid"
)

// Valid reports whether m names a known model.
func (m Model) Valid() bool {
	switch m {
	case Taker, Maker, MakerLimit, Mid:
		return true
	}
	return false
}

// Config selects the model and its basis-point offsets. Taker offsets
// worsen the price (paying up to ensure the cross); maker offsets
// improve it (posting inside).
type Config struct {
	Model          Model   `json:"model" yaml:"model"`
	MakerOffsetBps float64 `json:"maker_offset_bps" yaml:"maker_offset_bps"`
	TakerOffsetBps float64 `json:"taker_offset_bps" yaml:"taker_offset_bps"`
}

func DefaultConfig() Config {
	return Config{Model: Taker}
}

func (c Config) Validate() error {
	if !c.Model.Valid() {
		return fmt.Errorf("pricing model must be one of taker, maker, maker_limit, mid: %q", c.Model)
	}
	return nil
}

// applyOffset shifts a price by bps of itself in the given direction
// and clamps it back into the valid probability band.
func applyOffset(px, bps float64, up bool) float64 {
	if bps == 0 {
		return market.Clamp01(px)
	}
	delta := px * bps / 10000
	if up {
		px += delta
	} else {
		px -= delta
	}
	return market.Clamp01(px)
}

// EntryPrice estimates the fill price for opening a position on side.
func EntryPrice(cfg Config, snap market.Snapshot, side market.Side) float64 {
	switch cfg.Model {
	case Mid:
		return market.Clamp01(snap.Mid())
	case Maker, MakerLimit:
		// Passive entry: a yes buyer posts at (or through) the bid, a
		// no buyer at the ask.
		if side == market.Yes {
			return applyOffset(snap.Bid, cfg.MakerOffsetBps, false)
		}
		return applyOffset(snap.Ask, cfg.MakerOffsetBps, true)
	default: // Taker
		if side == market.Yes {
			return applyOffset(snap.Ask, cfg.TakerOffsetBps, true)
		}
		return applyOffset(snap.Bid, cfg.TakerOffsetBps, false)
	}
}

// ExitPrice estimates the fill price for closing a position on side;
// the aggressing direction reverses relative to entry.
func ExitPrice(cfg Config, snap market.Snapshot, side market.Side) float64 {
	switch cfg.Model {
	case Mid:
		return market.Clamp01(snap.Mid())
	case Maker, MakerLimit:
		if side == market.Yes {
			return applyOffset(snap.Ask, cfg.MakerOffsetBps, true)
		}
		return applyOffset(snap.Bid, cfg.MakerOffsetBps, false)
	default: // Taker
		if side == market.Yes {
			return applyOffset(snap.Bid, cfg.TakerOffsetBps, false)
		}
		return applyOffset(snap.Ask, cfg.TakerOffsetBps, true)
	}
}

// SharesForNotional converts notional into outcome shares at the entry
// price. A "no" position is economically short yes, so its share count
// prices off the complement.
func SharesForNotional(notional, entryYes float64, side market.Side) float64 {
	if side == market.Yes {
		if entryYes <= 0 {
			return 0
		}
		return notional / entryYes
	}
	comp := 1 - entryYes
	if comp <= 0 {
		return 0
	}
	return notional / comp
}

// RoundTripFees computes total fees for a position: fee rate on the
// executed notional, doubled when both the entry and exit legs cross
// the book as taker.
func RoundTripFees(notional, feeRate float64, takerBothLegs bool) float64 {
	fees := notional * feeRate
	if takerBothLegs {
		fees *= 2
	}
	return fees
}
