// Package consensus combines weighted strategy contributions into a
// single trade intent per market, or an explained hold.
package consensus

import (
	"math"

	"github.com/polymkt/trader/market"
	"github.com/polymkt/trader/strategies"
)

// Action is the direction of a trade intent.
type Action string

const (
	ActionYes  Action = "yes"
	ActionNo   Action = "no"
	ActionHold Action = "hold"
)

// Hold reasons recorded on intents that do not trade.
const (
	ReasonNoStrategies          = "no_strategies_enabled"
	ReasonNoSignal              = "no_signal"
	ReasonInvalidWeight         = "invalid_weight"
	ReasonWeakSignal            = "weak_signal"
	ReasonInsufficientConsensus = "insufficient_consensus"
	ReasonInsufficientEdge      = "insufficient_edge"
)

// Intent is the consensus output for one market and cycle. Guards later
// mutate Risk in place; Contributions are retained for audit.
type Intent struct {
	MarketID      string
	Action        Action
	Size          float64
	Confidence    float64
	Bias          float64
	Reason        string
	Contributions []strategies.Contribution
	Risk          RiskMetadata
}

// RiskMetadata accumulates guard outcomes on an intent.
type RiskMetadata struct {
	Approved   bool
	Rejections []string
	Clamped    bool
	Recovery   bool
}

// Reject marks the intent rejected with a reason code.
func (m *RiskMetadata) Reject(reason string) {
	m.Approved = false
	m.Rejections = append(m.Rejections, reason)
}

// Config tunes signal admission and sizing.
type Config struct {
	SignalFloor  float64            `json:"signal_floor" yaml:"signal_floor"`
	ConsensusMin int                `json:"consensus_min" yaml:"consensus_min"`
	MarketFloors map[string]float64 `json:"market_floors" yaml:"market_floors"`

	// Cost prefilter: estimated edge must clear fees plus half the
	// spread plus this premium before an entry is worth attempting.
	RiskPremium float64 `json:"risk_premium" yaml:"risk_premium"`
	FeeRate     float64 `json:"fee_rate" yaml:"fee_rate"`

	Balance             float64 `json:"balance" yaml:"balance"`
	MaxSingleOrderRatio float64 `json:"max_single_order_ratio" yaml:"max_single_order_ratio"`
	MinPosition         float64 `json:"min_position" yaml:"min_position"`
}

func DefaultConfig() Config {
	return Config{
		SignalFloor:         0.15,
		ConsensusMin:        2,
		RiskPremium:         0.005,
		FeeRate:             0.02,
		Balance:             10000,
		MaxSingleOrderRatio: 0.05,
		MinPosition:         10,
	}
}

// Engine runs every active evaluator over a snapshot and folds the
// surviving contributions into one intent.
type Engine struct {
	cfg        Config
	evaluators []strategies.Evaluator
	weights    map[string]float64
}

func New(cfg Config, evaluators []strategies.Evaluator, weights map[string]float64) *Engine {
	return &Engine{cfg: cfg, evaluators: evaluators, weights: weights}
}

// Forget purges evaluator caches for a resolved market.
func (e *Engine) Forget(marketID string) {
	for _, ev := range e.evaluators {
		ev.Forget(marketID)
	}
}

func (e *Engine) weight(name string) float64 {
	if w, ok := e.weights[name]; ok {
		return w
	}
	return 1
}

func (e *Engine) floor(marketID string) float64 {
	if f, ok := e.cfg.MarketFloors[marketID]; ok {
		return f
	}
	return e.cfg.SignalFloor
}

// Decide evaluates the snapshot and returns the intent. The returned
// intent always carries the full contribution list.
func (e *Engine) Decide(snap market.Snapshot) Intent {
	intent := Intent{MarketID: snap.MarketID, Action: ActionHold}
	if len(e.evaluators) == 0 {
		intent.Reason = ReasonNoStrategies
		return intent
	}

	var contribs []strategies.Contribution
	for _, ev := range e.evaluators {
		if c, ok := ev.Evaluate(snap); ok {
			contribs = append(contribs, c)
		}
	}
	intent.Contributions = contribs
	if len(contribs) == 0 {
		intent.Reason = ReasonNoSignal
		return intent
	}

	var sumWC, sumWCB, sumW float64
	for _, c := range contribs {
		w := e.weight(c.Name)
		sumW += w
		sumWC += w * c.Confidence
		sumWCB += w * c.Confidence * c.Bias
	}
	if sumWC <= 0 || sumW <= 0 {
		intent.Reason = ReasonInvalidWeight
		return intent
	}
	bias := sumWCB / sumWC
	conf := sumWC / sumW
	intent.Bias = bias
	intent.Confidence = conf

	// An exclusive contribution (arbitrage, event) dominates the vote
	// and is exempt from the agreement count.
	lead := dominant(contribs)

	floor := e.floor(snap.MarketID)
	if math.Abs(bias) < floor || conf < floor {
		intent.Reason = ReasonWeakSignal
		return intent
	}

	if lead == nil || !lead.Exclusive {
		agree := 0
		for _, c := range contribs {
			if c.Bias*bias > 0 {
				agree++
			}
		}
		if agree < e.cfg.ConsensusMin {
			intent.Reason = ReasonInsufficientConsensus
			return intent
		}
	}

	if !e.edgeCoversCosts(snap, contribs) {
		intent.Reason = ReasonInsufficientEdge
		return intent
	}

	if bias > 0 {
		intent.Action = ActionYes
	} else {
		intent.Action = ActionNo
	}
	intent.Size = e.size(snap, contribs, conf)
	intent.Risk.Approved = true
	return intent
}

// dominant returns the highest-confidence exclusive contribution, nil
// when none is exclusive.
func dominant(contribs []strategies.Contribution) *strategies.Contribution {
	var best *strategies.Contribution
	for i := range contribs {
		c := &contribs[i]
		if !c.Exclusive {
			continue
		}
		if best == nil || c.Confidence > best.Confidence {
			best = c
		}
	}
	return best
}

// edgeCoversCosts estimates the exploitable edge from contribution
// metadata and requires it to beat the round-trip cost budget.
func (e *Engine) edgeCoversCosts(snap market.Snapshot, contribs []strategies.Contribution) bool {
	budget := e.cfg.FeeRate + snap.Spread()/2 + e.cfg.RiskPremium
	edge := 0.0
	for _, c := range contribs {
		var est float64
		switch c.Name {
		case "mean_reversion":
			est = math.Abs(c.Metadata["deviation"])
		case "momentum":
			est = math.Abs(c.Metadata["delta_24h"]) * snap.Mid()
		case "micro_arbitrage":
			// Net edge already accounts for fees.
			return true
		default:
			est = math.Abs(c.Bias) * snap.Spread()
		}
		if est > edge {
			edge = est
		}
	}
	return edge > budget
}

// size converts confidence into notional: a balance-ratio base scaled
// by the strongest size hint and damped in volatile markets.
func (e *Engine) size(snap market.Snapshot, contribs []strategies.Contribution, conf float64) float64 {
	base := e.cfg.Balance * e.cfg.MaxSingleOrderRatio

	hint := 1.0
	for _, c := range contribs {
		if c.SizeHint > 0 && c.SizeHint < hint {
			hint = c.SizeHint
		}
	}
	scale := clamp(hint*conf, 0.10, 0.12)

	volFactor := 1.0
	switch {
	case snap.Volatility > 0.2:
		volFactor = 0.5
	case snap.Volatility > 0.1:
		volFactor = 0.75
	}

	size := base * scale * volFactor
	if size < e.cfg.MinPosition {
		size = e.cfg.MinPosition
	}
	return size
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
