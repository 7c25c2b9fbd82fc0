package position

import (
	"math"
	"time"

	"github.com/polymkt/trader/market"
)

// Close reasons. The set is closed: aggregation and reporting key off
// these exact strings.
const (
	ReasonTpSl         = "tp_sl"
	ReasonTime         = "time"
	ReasonDeadZone     = "dead_zone"
	ReasonInvalidation = "invalidation"
	ReasonTrailing     = "trailing"

	ReasonMeanReversionTarget   = "mean_reversion_target"
	ReasonEventHoldWindow       = "event_hold_window"
	ReasonEventHoldToResolution = "event_hold_to_resolution"
	ReasonEventTrailingStop     = "event_trailing_stop"
	ReasonMicroArbEdgeCost      = "micro_arbitrage_external_edge_cost"

	// Event-driven signal closes carry a sub-reason suffix.
	ReasonEventPrefix = "strategy_event_driven:"
)

// ExitDecision is one evaluator's verdict for one position and cycle.
type ExitDecision struct {
	Strategy string
	Reason   string
	Close    bool
	Metadata map[string]float64
}

// ExitConfig tunes the baseline exit rules shared by all positions.
type ExitConfig struct {
	HoldingSeconds int `json:"holding_seconds" yaml:"holding_seconds"`
	MinHoldSeconds int `json:"min_hold_seconds" yaml:"min_hold_seconds"`

	StopLossPct   float64 `json:"stop_loss_pct" yaml:"stop_loss_pct"`
	TakeProfitPct float64 `json:"take_profit_pct" yaml:"take_profit_pct"`

	TrailingTriggerPct float64 `json:"trailing_trigger_pct" yaml:"trailing_trigger_pct"`
	TrailingDecayPct   float64 `json:"trailing_decay_pct" yaml:"trailing_decay_pct"`

	// BreakevenTriggerPct arms a stop at flat once unrealized profit
	// has reached it; zero disables.
	BreakevenTriggerPct float64 `json:"breakeven_trigger_pct" yaml:"breakeven_trigger_pct"`

	// Fair-value decay model backing dead-zone and invalidation.
	FeeRate        float64 `json:"fee_rate" yaml:"fee_rate"`
	RiskPremium    float64 `json:"risk_premium" yaml:"risk_premium"`
	EdgeTauSeconds float64 `json:"edge_tau_seconds" yaml:"edge_tau_seconds"`
}

func DefaultExitConfig() ExitConfig {
	return ExitConfig{
		HoldingSeconds:      3600,
		MinHoldSeconds:      120,
		StopLossPct:         0.10,
		TakeProfitPct:       0.15,
		TrailingTriggerPct:  0.03,
		TrailingDecayPct:    0.02,
		BreakevenTriggerPct: 0.02,
		FeeRate:             0.02,
		RiskPremium:         0.005,
		EdgeTauSeconds:      300,
	}
}

// edge estimates the remaining informational edge of the position: the
// entry conviction decays toward the market over tau, and whatever
// gap is left versus the current mid is the edge, signed for the side.
func (cfg ExitConfig) edge(p *Position, snap market.Snapshot, age time.Duration) (raw, effective float64) {
	pEntry := 0.5 + 0.5*p.EntryScore
	decay := math.Exp(-age.Seconds() / cfg.EdgeTauSeconds)
	pHat := 0.5 + (pEntry-0.5)*decay
	raw = pHat - snap.Mid()
	effective = raw
	if p.Side == market.No {
		effective = -raw
	}
	return raw, effective
}

// EvaluateBaseline applies the shared exit rules in their fixed
// priority: stop loss, take profit, breakeven, time, dead zone,
// invalidation, trailing. Stop loss ignores the minimum hold;
// everything else waits it out.
func EvaluateBaseline(cfg ExitConfig, p *Position, snap market.Snapshot, now time.Time) ExitDecision {
	mark := p.Mark(snap)
	pnlPct := p.PnlPct(mark)
	if pnlPct > p.BestPnlPct {
		p.BestPnlPct = pnlPct
	}
	age := p.Age(now)
	minHold := p.MinHold
	if minHold <= 0 {
		minHold = time.Duration(cfg.MinHoldSeconds) * time.Second
	}
	held := age >= minHold

	meta := map[string]float64{
		"pnl_pct":  pnlPct,
		"best_pct": p.BestPnlPct,
		"age_sec":  age.Seconds(),
	}
	closeWith := func(reason string) ExitDecision {
		return ExitDecision{Strategy: "baseline", Reason: reason, Close: true, Metadata: meta}
	}

	if cfg.StopLossPct > 0 && pnlPct <= -cfg.StopLossPct {
		return closeWith(ReasonTpSl)
	}
	if !held {
		return ExitDecision{Strategy: "baseline", Reason: "min_hold", Metadata: meta}
	}
	if cfg.TakeProfitPct > 0 && pnlPct >= cfg.TakeProfitPct {
		return closeWith(ReasonTpSl)
	}
	if cfg.BreakevenTriggerPct > 0 && p.BestPnlPct >= cfg.BreakevenTriggerPct && pnlPct <= 0 {
		meta["breakeven"] = 1
		return closeWith(ReasonTpSl)
	}

	holding := time.Duration(cfg.HoldingSeconds) * time.Second
	if holding > 0 && age >= holding {
		return closeWith(ReasonTime)
	}

	rawEdge, effEdge := cfg.edge(p, snap, age)
	budget := cfg.FeeRate + snap.Spread()/2 + cfg.RiskPremium
	meta["edge"] = rawEdge
	meta["cost_budget"] = budget

	if math.Abs(rawEdge) <= budget {
		return closeWith(ReasonDeadZone)
	}
	if effEdge < 0 {
		return closeWith(ReasonInvalidation)
	}
	if cfg.TrailingTriggerPct > 0 && p.BestPnlPct >= cfg.TrailingTriggerPct &&
		p.BestPnlPct-pnlPct >= cfg.TrailingDecayPct {
		return closeWith(ReasonTrailing)
	}

	return ExitDecision{Strategy: "baseline", Metadata: meta}
}
