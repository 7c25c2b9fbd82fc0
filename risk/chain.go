package risk

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/polymkt/trader/consensus"
	"github.com/polymkt/trader/market"
)

// Config aggregates every guard's tuning.
type Config struct {
	Ratio             RatioConfig      `json:"ratio" yaml:"ratio"`
	PriceGuard        PriceGuardConfig `json:"price_guard" yaml:"price_guard"`
	SideExposureLimit float64          `json:"side_exposure_limit" yaml:"side_exposure_limit"`
	Dedupe            DedupeConfig     `json:"dedupe" yaml:"dedupe"`
	KillSwitch        KillSwitchConfig `json:"kill_switch" yaml:"kill_switch"`
}

func DefaultConfig() Config {
	return Config{
		Ratio:             DefaultRatioConfig(),
		PriceGuard:        DefaultPriceGuardConfig(),
		SideExposureLimit: 3,
		Dedupe:            DefaultDedupeConfig(),
		KillSwitch:        DefaultKillSwitchConfig(),
	}
}

// Portfolio is the account view the guards evaluate against.
type Portfolio struct {
	Balance float64
	// Returns is the recent realized-return sample backing the VaR cap.
	Returns []float64
	// Open notional per side for the intent's market.
	YesNotional float64
	NoNotional  float64
	// DayRealized is today's realized pnl from the ledger.
	DayRealized float64
}

// Chain runs every pre-trade guard in a fixed order. It owns the
// dedupe index and the kill-switch, the only stateful guards.
type Chain struct {
	cfg    Config
	index  *IntentIndex
	killer *KillSwitch
	log    *zap.Logger
}

func NewChain(cfg Config, initialBalance float64, log *zap.Logger) *Chain {
	if log == nil {
		log = zap.NewNop()
	}
	return &Chain{
		cfg:    cfg,
		index:  NewIntentIndex(cfg.Dedupe),
		killer: NewKillSwitch(cfg.KillSwitch, initialBalance),
		log:    log,
	}
}

// KillSwitch exposes the switch for engine-level state checks.
func (c *Chain) KillSwitch() *KillSwitch { return c.killer }

// Check runs the guard chain over an approved intent. The intent's
// risk metadata and size are updated in place; the returned decision
// carries the full violation detail.
func (c *Chain) Check(intent *consensus.Intent, snap market.Snapshot, entry float64, port Portfolio) Decision {
	d := Decision{Allowed: true, FinalSize: intent.Size}
	if intent.Action == consensus.ActionHold {
		d.add(CodeRiskRatio, "hold intents are not routed")
		return d
	}
	side := market.Yes
	if intent.Action == consensus.ActionNo {
		side = market.No
	}

	// Kill-switch first: a tripped switch makes the rest moot, and a
	// recovery state scales everything downstream.
	ks := c.killer.Evaluate(port.DayRealized)
	if ks.Active {
		d.add(CodeKillSwitch, fmt.Sprintf("daily loss %.2f breached limit %.2f, cooling down",
			port.DayRealized, c.killer.Threshold()))
		c.finish(intent, &d)
		return d
	}
	if ks.Recovery {
		d.Recovery = true
		d.FinalSize *= ks.SizeScale
		d.Clamped = true
	}

	d.FinalSize = checkRatio(c.cfg.Ratio, &d, d.FinalSize, port.Balance, port.Returns, snap, side)
	checkPrice(c.cfg.PriceGuard, &d, entry, snap, side)
	d.FinalSize = checkDepth(&d, d.FinalSize, snap.DepthFor(side), c.cfg.Ratio.MinPosition)
	checkSideExposure(&d, c.cfg.SideExposureLimit, d.FinalSize, side, port.YesNotional, port.NoNotional)

	// Dedupe runs last and records the intent no matter what came
	// before, so repeated rejections stay visible in the audit trail.
	if c.index.Seen(intent.MarketID, side, d.FinalSize) {
		d.add(CodeDuplicate, fmt.Sprintf("intent for %s %s repeated inside dedupe window", intent.MarketID, side))
	}

	c.finish(intent, &d)
	return d
}

func (c *Chain) finish(intent *consensus.Intent, d *Decision) {
	intent.Risk.Approved = d.Allowed
	intent.Risk.Rejections = append(intent.Risk.Rejections, d.Reasons()...)
	intent.Risk.Clamped = d.Clamped
	intent.Risk.Recovery = d.Recovery
	if d.Allowed {
		intent.Size = d.FinalSize
		return
	}
	c.log.Debug("intent rejected",
		zap.String("market", intent.MarketID),
		zap.String("action", string(intent.Action)),
		zap.Strings("reasons", d.Reasons()),
	)
}
