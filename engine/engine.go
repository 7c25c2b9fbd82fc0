// Package engine drives the decision loop: one scheduler goroutine
// ticks at a fixed interval, and each tick flows snapshots through
// consensus, the guard chain, execution and the exit evaluators.
// No two ticks ever overlap.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/polymkt/trader/broker"
	"github.com/polymkt/trader/consensus"
	"github.com/polymkt/trader/exec"
	"github.com/polymkt/trader/journal"
	"github.com/polymkt/trader/market"
	"github.com/polymkt/trader/pkg/id"
	"github.com/polymkt/trader/position"
	"github.com/polymkt/trader/pricing"
	"github.com/polymkt/trader/risk"
	"github.com/polymkt/trader/telemetry"
)

// Config tunes the scheduler itself.
type Config struct {
	TickIntervalSeconds int `json:"tick_interval_seconds" yaml:"tick_interval_seconds"`
	FetchTimeoutSeconds int `json:"fetch_timeout_seconds" yaml:"fetch_timeout_seconds"`
	ResetHour           int `json:"reset_hour" yaml:"reset_hour"`
	// MaxReturns bounds the realized-return sample kept for VaR.
	MaxReturns int `json:"max_returns" yaml:"max_returns"`
}

func DefaultConfig() Config {
	return Config{
		TickIntervalSeconds: 30,
		FetchTimeoutSeconds: 10,
		MaxReturns:          256,
	}
}

// TickInterval returns the tick period as a duration.
func (c Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalSeconds) * time.Second
}

// FetchTimeout returns the per-tick snapshot fetch budget.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// DayPnlSource answers the kill-switch's daily loss query.
type DayPnlSource interface {
	DayRealizedPnl(now time.Time, resetHour int) (float64, error)
}

// Params collects the engine's collaborators.
type Params struct {
	Config       Config
	Provider     market.SnapshotProvider
	Consensus    *consensus.Engine
	Guards       *risk.Chain
	Exec         *exec.Service
	Journal      journal.Journal
	DayPnl       DayPnlSource
	ExitConfig   position.ExitConfig
	StrategyExit position.StrategyExitConfig
	Pricing      pricing.Config
	Balance      float64
	Logger       *zap.Logger
}

// Engine owns all shared mutable state: the position book, the return
// sample, the running balance and the snapshot store. Only the tick
// goroutine writes to them.
type Engine struct {
	cfg          Config
	provider     market.SnapshotProvider
	consensus    *consensus.Engine
	guards       *risk.Chain
	execSvc      *exec.Service
	jour         journal.Journal
	dayPnl       DayPnlSource
	exitCfg      position.ExitConfig
	stratExitCfg position.StrategyExitConfig
	pricingCfg   pricing.Config
	log          *zap.Logger
	now          func() time.Time

	book           *position.Book
	store          *market.SnapshotStore
	balance        float64
	initialBalance float64
	returns        []float64
	fills          <-chan broker.FillUpdate
}

func New(p Params) *Engine {
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		cfg:            p.Config,
		provider:       p.Provider,
		consensus:      p.Consensus,
		guards:         p.Guards,
		execSvc:        p.Exec,
		jour:           p.Journal,
		dayPnl:         p.DayPnl,
		exitCfg:        p.ExitConfig,
		stratExitCfg:   p.StrategyExit,
		pricingCfg:     p.Pricing,
		log:            log,
		now:            time.Now,
		book:           position.NewBook(),
		store:          market.NewSnapshotStore(),
		balance:        p.Balance,
		initialBalance: p.Balance,
	}
}

// Book exposes the open positions, for tests and reporting.
func (e *Engine) Book() *position.Book { return e.book }

// Balance returns the running account balance.
func (e *Engine) Balance() float64 { return e.balance }

// AttachFillStream wires an asynchronous fill channel, typically the
// broker lifecycle streamer, drained at the start of every tick.
func (e *Engine) AttachFillStream(ch <-chan broker.FillUpdate) { e.fills = ch }

// Run ticks until the context ends. A tick that overruns the interval
// simply delays the next one; ticks never run concurrently.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.TickInterval())
	defer ticker.Stop()

	e.log.Info("engine started", zap.Duration("interval", e.cfg.TickInterval()))
	for {
		select {
		case <-ctx.Done():
			e.log.Info("engine stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := e.Tick(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				e.log.Error("tick failed", zap.Error(err))
			}
		}
	}
}

// Tick runs one full decision cycle.
func (e *Engine) Tick(ctx context.Context) error {
	defer telemetry.TicksTotal.Inc()

	e.drainFills()

	fetchCtx := ctx
	if e.cfg.FetchTimeoutSeconds > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, e.cfg.FetchTimeout())
		defer cancel()
	}
	start := e.now()
	snaps, err := e.provider.Snapshots(fetchCtx)
	telemetry.SnapshotFetchSeconds.Observe(e.now().Sub(start).Seconds())
	if err != nil {
		return err
	}

	for _, snap := range snaps {
		e.store.Set(snap)
	}

	// Entries first, then exits: a freshly tripped kill-switch stops
	// the remaining entries mid-cycle but never touches the exits.
	entriesHalted := false
	for _, snap := range snaps {
		if snap.Resolved {
			e.consensus.Forget(snap.MarketID)
			continue
		}
		if snap.Degraded {
			e.log.Debug("skipping degraded market",
				zap.String("market", snap.MarketID),
				zap.String("reason", snap.DegradedReason))
			continue
		}
		if entriesHalted {
			break
		}
		halted, err := e.tryEnter(ctx, snap)
		if err != nil {
			e.log.Warn("entry failed", zap.String("market", snap.MarketID), zap.Error(err))
		}
		entriesHalted = entriesHalted || halted
	}

	e.evaluateExits(ctx)
	telemetry.OpenPositions.Set(float64(len(e.book.All())))
	return nil
}

// tryEnter runs consensus and the guard chain for one market and
// submits the approved intent. The bool result reports a kill-switch
// trip, which halts further entries this tick.
func (e *Engine) tryEnter(ctx context.Context, snap market.Snapshot) (bool, error) {
	intent := e.consensus.Decide(snap)
	telemetry.IntentsTotal.WithLabelValues(string(intent.Action), intent.Reason).Inc()
	if intent.Action == consensus.ActionHold {
		return false, nil
	}

	side := market.Yes
	if intent.Action == consensus.ActionNo {
		side = market.No
	}
	if _, open := e.book.Get(snap.MarketID, side); open {
		return false, nil
	}

	dayPnl := 0.0
	if e.dayPnl != nil {
		v, err := e.dayPnl.DayRealizedPnl(e.now(), e.cfg.ResetHour)
		if err != nil {
			e.log.Warn("day pnl lookup failed", zap.Error(err))
		} else {
			dayPnl = v
		}
	}
	yesN, noN := e.book.SideNotional(snap.MarketID)
	entryPx := pricing.EntryPrice(e.pricingCfg, snap, side)

	decision := e.guards.Check(&intent, snap, entryPx, risk.Portfolio{
		Balance:     e.balance,
		Returns:     e.returns,
		YesNotional: yesN,
		NoNotional:  noN,
		DayRealized: dayPnl,
	})
	ksActive := false
	for _, v := range decision.Violations {
		telemetry.GuardRejections.WithLabelValues(v.Code).Inc()
		if v.Code == risk.CodeKillSwitch {
			ksActive = true
		}
	}
	telemetry.KillSwitchActive.Set(boolGauge(ksActive))
	if !decision.Allowed {
		return ksActive, nil
	}

	rep, err := e.execSvc.Submit(ctx, snap, exec.Order{
		MarketID: snap.MarketID,
		Side:     side,
		Notional: intent.Size,
		Mode:     "entry",
	})
	telemetry.OrdersTotal.WithLabelValues(string(rep.Status)).Inc()
	if err != nil {
		// Fatal venue error: nothing more for this market this tick.
		return false, err
	}
	if rep.FilledNotional <= 0 {
		return false, nil
	}

	pos := position.New(snap.MarketID, side, rep.FilledNotional, rep.FilledShares,
		rep.AveragePrice, rep.Fees, intent.Bias, 0, intent.Contributions)
	if !e.book.Add(pos) {
		e.log.Warn("duplicate position slot, ignoring fill",
			zap.String("market", snap.MarketID), zap.String("side", string(side)))
		return false, nil
	}
	e.log.Info("position opened",
		zap.String("market", snap.MarketID),
		zap.String("side", string(side)),
		zap.Float64("notional", rep.FilledNotional),
		zap.Float64("entry", rep.AveragePrice),
	)
	return false, nil
}

// evaluateExits walks every open position and closes the ones whose
// exit evaluators fire. Exits run even while the kill-switch is
// active.
func (e *Engine) evaluateExits(ctx context.Context) {
	now := e.now()
	for _, pos := range e.book.All() {
		snap, ok := e.store.Get(pos.MarketID)
		if !ok {
			continue
		}
		d := position.Evaluate(e.exitCfg, e.stratExitCfg, pos, snap, now)
		if !d.Close {
			continue
		}
		if err := e.closePosition(ctx, pos, snap, d, now); err != nil {
			e.log.Warn("close failed, will retry next tick",
				zap.String("market", pos.MarketID), zap.Error(err))
		}
	}
}

func (e *Engine) closePosition(ctx context.Context, pos *position.Position, snap market.Snapshot, d position.ExitDecision, now time.Time) error {
	rep, err := e.execSvc.SubmitClose(ctx, snap, exec.Order{
		MarketID: pos.MarketID,
		Side:     pos.Side,
		Notional: pos.Notional,
	})
	telemetry.OrdersTotal.WithLabelValues(string(rep.Status)).Inc()
	if err != nil {
		return err
	}
	if rep.FilledNotional <= 0 {
		return nil
	}

	exitYes := rep.AveragePrice
	pnl := pos.Pnl(exitYes)
	fees := pos.Fees + rep.Fees
	strategies := make([]string, 0, len(pos.Strategies))
	for name := range pos.Strategies {
		strategies = append(strategies, name)
	}

	rec := journal.RealizedExit{
		ID:             id.New(),
		Timestamp:      now.UTC(),
		MarketID:       pos.MarketID,
		Side:           pos.Side,
		Reason:         d.Reason,
		Notional:       pos.Notional,
		Shares:         pos.Shares,
		EntryPrice:     pos.EntryYes,
		ExitPrice:      exitYes,
		Pnl:            pnl,
		Fees:           fees,
		PnlAfterFees:   pnl - fees,
		HoldingSeconds: pos.Age(now).Seconds(),
		Strategies:     strategies,
	}
	e.jour.RecordExit(rec)
	telemetry.ExitsTotal.WithLabelValues(d.Reason).Inc()

	e.book.Remove(pos.MarketID, pos.Side)
	e.balance += rec.PnlAfterFees
	telemetry.RealizedPnl.Set(e.balance - e.initialBalance)
	if pos.Notional > 0 {
		e.returns = append(e.returns, rec.PnlAfterFees/pos.Notional)
		if limit := e.cfg.MaxReturns; limit > 0 && len(e.returns) > limit {
			e.returns = e.returns[len(e.returns)-limit:]
		}
	}

	e.log.Info("position closed",
		zap.String("market", pos.MarketID),
		zap.String("side", string(pos.Side)),
		zap.String("reason", d.Reason),
		zap.Float64("pnl_after_fees", rec.PnlAfterFees),
	)
	return nil
}

// drainFills applies any queued asynchronous fill updates before the
// cycle reads position or order state.
func (e *Engine) drainFills() {
	if e.fills == nil {
		return
	}
	for {
		select {
		case upd, ok := <-e.fills:
			if !ok {
				e.fills = nil
				return
			}
			e.jour.RecordFill(upd)
			if rep, known := e.execSvc.Tracker().ApplyFill(upd); known {
				e.jour.RecordOrder(rep)
			}
		default:
			return
		}
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
