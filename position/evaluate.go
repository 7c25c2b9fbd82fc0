package position

import (
	"time"

	"github.com/polymkt/trader/market"
)

// exitOrder fixes which strategy evaluators run first. Exclusive
// entries (arbitrage, event) outrank shared ones.
var exitOrder = []string{"micro_arbitrage", "event_driven", "mean_reversion"}

func priority(entry StrategyEntry) int {
	if entry.Exclusive {
		return 2
	}
	return 1
}

// Evaluate runs every applicable exit evaluator for one position and
// cycle. Strategy evaluators matching an entry snapshot run first, in
// priority order, and the first close wins. Protective hold directives
// (event hold window, hold to resolution) suppress every baseline
// close except the stop loss. When nothing closes, all hold reasons
// are merged into the position for observability.
func Evaluate(cfg ExitConfig, stratCfg StrategyExitConfig, p *Position, snap market.Snapshot, now time.Time) ExitDecision {
	holds := make(map[string]string)

	var protective bool
	for pass := 2; pass >= 1; pass-- {
		for _, name := range exitOrder {
			entry, ok := p.Strategies[name]
			if !ok || priority(entry) != pass {
				continue
			}
			var d ExitDecision
			switch name {
			case "mean_reversion":
				d = evaluateMeanReversion(stratCfg, p, entry, snap)
			case "event_driven":
				d = evaluateEventDriven(stratCfg, p, entry, snap, now)
			case "micro_arbitrage":
				d = evaluateMicroArb(stratCfg, p, entry, snap)
			default:
				continue
			}
			if d.Close {
				return d
			}
			if d.Reason != "" {
				holds[d.Strategy] = d.Reason
				if d.Reason == ReasonEventHoldWindow || d.Reason == ReasonEventHoldToResolution {
					protective = true
				}
			}
		}
	}

	base := EvaluateBaseline(cfg, p, snap, now)
	if base.Close {
		stopped := cfg.StopLossPct > 0 && base.Metadata["pnl_pct"] <= -cfg.StopLossPct
		if !protective || stopped {
			return base
		}
		holds["baseline"] = "suppressed:" + base.Reason
	} else if base.Reason != "" {
		holds["baseline"] = base.Reason
	}

	p.Holds = holds
	return ExitDecision{Strategy: "none", Metadata: base.Metadata}
}
