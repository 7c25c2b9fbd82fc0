package risk

import (
	"fmt"
	"math"

	"github.com/polymkt/trader/market"
)

// PriceGuardConfig bounds how far an entry price may sit from the
// observable market before the order is refused.
type PriceGuardConfig struct {
	Enabled        bool    `json:"enabled" yaml:"enabled"`
	MaxAbsFromTop  float64 `json:"max_abs_from_top" yaml:"max_abs_from_top"`
	MaxAbsFromLast float64 `json:"max_abs_from_last" yaml:"max_abs_from_last"`
	MaxRelPct      float64 `json:"max_rel_pct" yaml:"max_rel_pct"`
}

func DefaultPriceGuardConfig() PriceGuardConfig {
	return PriceGuardConfig{
		Enabled:        true,
		MaxAbsFromTop:  0.05,
		MaxAbsFromLast: 0.10,
		MaxRelPct:      0.15,
	}
}

// checkPrice compares the proposed fill reference against top-of-book
// and the last trade. Disabled guards pass everything.
func checkPrice(cfg PriceGuardConfig, d *Decision, entry float64, snap market.Snapshot, side market.Side) {
	if !cfg.Enabled || entry <= 0 {
		return
	}

	top := snap.Ask
	if side == market.No {
		top = snap.Bid
	}
	if top > 0 {
		dev := math.Abs(entry - top)
		if cfg.MaxAbsFromTop > 0 && dev > cfg.MaxAbsFromTop {
			d.add(CodePriceGuard, fmt.Sprintf("entry %.4f deviates %.4f from top %.4f (abs cap %.4f)",
				entry, dev, top, cfg.MaxAbsFromTop))
			return
		}
		if cfg.MaxRelPct > 0 && dev/top > cfg.MaxRelPct {
			d.add(CodePriceGuard, fmt.Sprintf("entry %.4f deviates %.2f%% from top %.4f (rel cap %.2f%%)",
				entry, 100*dev/top, top, 100*cfg.MaxRelPct))
			return
		}
	}

	if last := snap.LastTradePrice; last > 0 && cfg.MaxAbsFromLast > 0 {
		if dev := math.Abs(entry - last); dev > cfg.MaxAbsFromLast {
			d.add(CodePriceGuard, fmt.Sprintf("entry %.4f deviates %.4f from last trade %.4f (cap %.4f)",
				entry, dev, last, cfg.MaxAbsFromLast))
		}
	}
}

// checkDepth clamps the order down to same-side book depth. Markets
// without depth data pass untouched; a clamp that would land under the
// minimum position size rejects instead.
func checkDepth(d *Decision, size, depth, minPosition float64) float64 {
	if depth <= 0 {
		return size
	}
	if depth < minPosition {
		d.add(CodeDepth, fmt.Sprintf("depth %.2f below minimum position %.2f", depth, minPosition))
		return size
	}
	if size <= depth {
		return size
	}
	clamped := depth
	d.Clamped = true
	if clamped < minPosition {
		d.add(CodeDepth, fmt.Sprintf("clamped size %.2f below minimum position %.2f", clamped, minPosition))
	}
	return clamped
}

// checkSideExposure rejects orders that would skew total yes/no
// notional beyond the configured ratio. A limit of zero disables it.
func checkSideExposure(d *Decision, limit, size float64, side market.Side, yesNotional, noNotional float64) {
	if limit <= 0 {
		return
	}
	futureYes, futureNo := yesNotional, noNotional
	if side == market.Yes {
		futureYes += size
	} else {
		futureNo += size
	}

	larger, smaller := futureYes, futureNo
	if futureNo > futureYes {
		larger, smaller = futureNo, futureYes
	}
	if smaller < size {
		smaller = size
	}
	if ratio := larger / smaller; ratio > limit {
		d.add(CodeSideExposure, fmt.Sprintf("side ratio %.2f exceeds limit %.2f (yes=%.2f no=%.2f)",
			ratio, limit, futureYes, futureNo))
	}
}
