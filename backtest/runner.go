// Package backtest replays fixture snapshots through the same
// consensus, guard, pricing and exit code the live engine uses, so a
// parameter that looks good offline behaves identically online.
package backtest

import (
	"time"

	"go.uber.org/zap"

	"github.com/polymkt/trader/consensus"
	"github.com/polymkt/trader/market"
	"github.com/polymkt/trader/position"
	"github.com/polymkt/trader/pricing"
	"github.com/polymkt/trader/risk"
)

// Params is one parameter point of the sweep.
type Params struct {
	HoldingSeconds int            `json:"holding_seconds"`
	Pricing        pricing.Config `json:"pricing"`
	FeeRate        float64        `json:"fee_rate"`
	InitialBalance float64        `json:"initial_balance"`
}

// Trade is one simulated round trip.
type Trade struct {
	MarketID   string
	Action     consensus.Action
	Notional   float64
	Shares     float64
	EntryPrice float64
	ExitPrice  float64
	Pnl        float64
	Fees       float64
	PnlAfter   float64
	Reason     string
	Win        bool
	Strategies []string
}

// Result aggregates one run.
type Result struct {
	Params Params
	RunTag string

	ClosedTrades int
	Wins         int
	WinRate      float64
	Pnl          float64
	Fees         float64
	PnlAfterFees float64
	TotalReturn  float64
	FinalBalance float64

	Trades []Trade
}

// EngineFactory builds a fresh consensus engine per run so evaluator
// caches cannot leak between parameter points.
type EngineFactory func() *consensus.Engine

// Runner replays snapshot cycles under a parameter point.
type Runner struct {
	newEngine EngineFactory
	guardCfg  risk.Config
	exitCfg   position.ExitConfig
	cycles    [][]market.Snapshot
	log       *zap.Logger
}

func NewRunner(newEngine EngineFactory, guardCfg risk.Config, exitCfg position.ExitConfig, cycles [][]market.Snapshot, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	// Stateful guards would couple runs to wall-clock time; the replay
	// disables them and keeps the pure sizing and book checks.
	guardCfg.Dedupe = risk.DedupeConfig{}
	guardCfg.KillSwitch = risk.KillSwitchConfig{}
	return &Runner{
		newEngine: newEngine,
		guardCfg:  guardCfg,
		exitCfg:   exitCfg,
		cycles:    cycles,
		log:       log,
	}
}

// syntheticExit projects the book forward over the holding horizon
// using the observed 24h drift, clamped into the valid price band.
func syntheticExit(snap market.Snapshot, holdingSeconds int) market.Snapshot {
	f := 1 + snap.PriceChange24h*float64(holdingSeconds)/86400
	out := snap
	out.Bid = market.Clamp01(snap.Bid * f)
	out.Ask = market.Clamp01(snap.Ask * f)
	if out.Ask < out.Bid {
		out.Ask = out.Bid
	}
	return out
}

// Run replays every cycle once. Identical inputs and parameters always
// produce an identical trade list.
func (r *Runner) Run(p Params, tag string) Result {
	eng := r.newEngine()
	chain := risk.NewChain(r.guardCfg, p.InitialBalance, r.log)

	exitCfg := r.exitCfg
	exitCfg.HoldingSeconds = p.HoldingSeconds
	exitCfg.MinHoldSeconds = 0
	exitCfg.FeeRate = p.FeeRate

	res := Result{Params: p, RunTag: tag}
	balance := p.InitialBalance
	var returns []float64
	baseTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, cycle := range r.cycles {
		for _, snap := range cycle {
			intent := eng.Decide(snap)
			if intent.Action == consensus.ActionHold {
				continue
			}
			side := market.Yes
			if intent.Action == consensus.ActionNo {
				side = market.No
			}

			entryPx := pricing.EntryPrice(p.Pricing, snap, side)
			d := chain.Check(&intent, snap, entryPx, risk.Portfolio{
				Balance: balance,
				Returns: returns,
			})
			if !d.Allowed {
				continue
			}

			notional := intent.Size
			shares := pricing.SharesForNotional(notional, entryPx, side)
			pos := position.New(snap.MarketID, side, notional, shares, entryPx, 0,
				intent.Bias, 0, intent.Contributions)
			pos.OpenedAt = baseTime

			exitSnap := syntheticExit(snap, p.HoldingSeconds)
			exitTime := baseTime.Add(time.Duration(p.HoldingSeconds) * time.Second)
			decision := position.EvaluateBaseline(exitCfg, pos, exitSnap, exitTime)
			reason := decision.Reason
			if !decision.Close {
				reason = position.ReasonTime
			}

			exitPx := pricing.ExitPrice(p.Pricing, exitSnap, side)
			pnl := pos.Pnl(exitPx)
			fees := pricing.RoundTripFees(notional, p.FeeRate, p.Pricing.Model == pricing.Taker)
			pnlAfter := pnl - fees

			strategies := make([]string, 0, len(intent.Contributions))
			for _, c := range intent.Contributions {
				strategies = append(strategies, c.Name)
			}

			res.Trades = append(res.Trades, Trade{
				MarketID:   snap.MarketID,
				Action:     intent.Action,
				Notional:   notional,
				Shares:     shares,
				EntryPrice: entryPx,
				ExitPrice:  exitPx,
				Pnl:        pnl,
				Fees:       fees,
				PnlAfter:   pnlAfter,
				Reason:     reason,
				Win:        pnlAfter > 0,
				Strategies: strategies,
			})
			res.ClosedTrades++
			if pnlAfter > 0 {
				res.Wins++
			}
			res.Pnl += pnl
			res.Fees += fees
			res.PnlAfterFees += pnlAfter
			balance += pnlAfter
			if notional > 0 {
				returns = append(returns, pnlAfter/notional)
			}
		}
	}

	if res.ClosedTrades > 0 {
		res.WinRate = float64(res.Wins) / float64(res.ClosedTrades)
	}
	if p.InitialBalance > 0 {
		res.TotalReturn = res.PnlAfterFees / p.InitialBalance
	}
	res.FinalBalance = p.InitialBalance + res.PnlAfterFees
	return res
}
