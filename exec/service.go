package exec

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/polymkt/trader/broker"
	"github.com/polymkt/trader/market"
	"github.com/polymkt/trader/pricing"
)

// Config tunes submission behavior.
type Config struct {
	RetryAttempts  int     `json:"retry_attempts" yaml:"retry_attempts"`
	BackoffSeconds float64 `json:"backoff_seconds" yaml:"backoff_seconds"`
	// ReduceOnlyFallback retries a rejected close as a reduce-only
	// order before giving up.
	ReduceOnlyFallback bool    `json:"reduce_only_fallback" yaml:"reduce_only_fallback"`
	FeeRate            float64 `json:"fee_rate" yaml:"fee_rate"`

	Pricing pricing.Config `json:"pricing" yaml:"pricing"`
}

func DefaultConfig() Config {
	return Config{
		RetryAttempts:      3,
		BackoffSeconds:     0.5,
		ReduceOnlyFallback: true,
		FeeRate:            0.02,
		Pricing:            pricing.DefaultConfig(),
	}
}

// Order is a priced submission request built from an approved intent.
type Order struct {
	MarketID   string
	Side       market.Side
	Notional   float64
	ReduceOnly bool
	// Mode annotates the report (entry, exit, reduce_only).
	Mode string
}

// Recorder receives every execution outcome; the journal implements it.
type Recorder interface {
	RecordOrder(Report)
}

type nopRecorder struct{}

func (nopRecorder) RecordOrder(Report) {}

// Service submits orders through a venue with bounded retries.
type Service struct {
	cfg      Config
	venue    broker.Venue
	tracker  *Tracker
	recorder Recorder
	log      *zap.Logger
	sleep    func(context.Context, time.Duration) error
}

func NewService(cfg Config, venue broker.Venue, tracker *Tracker, recorder Recorder, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if tracker == nil {
		tracker = NewTracker()
	}
	return &Service{
		cfg:      cfg,
		venue:    venue,
		tracker:  tracker,
		recorder: recorder,
		log:      log,
		sleep:    sleepCtx,
	}
}

// Tracker exposes the lifecycle tracker.
func (s *Service) Tracker() *Tracker { return s.tracker }

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Submit prices and routes one order. Transient venue rejections are
// retried with exponential backoff up to the attempt budget; fatal
// rejections return immediately. Every outcome, success or not, lands
// in the tracker and the order record stream.
func (s *Service) Submit(ctx context.Context, snap market.Snapshot, ord Order) (Report, error) {
	rep := Report{
		OrderID:           NewOrderID(),
		MarketID:          ord.MarketID,
		Side:              ord.Side,
		RequestedNotional: ord.Notional,
		Status:            StatusPending,
		Mode:              ord.Mode,
		ReduceOnly:        ord.ReduceOnly,
		Timestamp:         time.Now().UTC(),
	}
	px := pricing.EntryPrice(s.cfg.Pricing, snap, ord.Side)
	if ord.ReduceOnly || ord.Mode == "exit" {
		px = pricing.ExitPrice(s.cfg.Pricing, snap, ord.Side)
	}
	rep.RequestedShares = pricing.SharesForNotional(ord.Notional, px, ord.Side)
	s.tracker.Record(rep)

	req := broker.OrderRequest{
		OrderID:    rep.OrderID,
		MarketID:   ord.MarketID,
		Side:       ord.Side,
		Notional:   ord.Notional,
		LimitPrice: px,
		ReduceOnly: ord.ReduceOnly,
	}

	var lastErr error
	backoff := time.Duration(s.cfg.BackoffSeconds * float64(time.Second))
	attempts := s.cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		rep.Attempts = attempt
		res, err := s.venue.SubmitOrder(ctx, req)
		if err == nil {
			rep.FilledNotional = res.FilledNotional
			rep.FilledShares = res.FilledShares
			rep.AveragePrice = res.AveragePrice
			rep.Fees = res.Fees
			rep.Status = StatusFilled
			if rep.RemainingNotional() > 1e-9 {
				rep.Status = StatusPartial
			}
			rep.Timestamp = res.Timestamp
			s.finish(rep)
			return rep, nil
		}

		lastErr = err
		if broker.Fatal(err) || ctx.Err() != nil {
			rep.Status = StatusError
			rep.Error = err.Error()
			s.finish(rep)
			return rep, fmt.Errorf("submit %s %s: %w", ord.MarketID, ord.Side, err)
		}
		if !broker.Transient(err) {
			// Unclassified errors get one retry round like transient
			// ones; the venue boundary is not always tidy.
			s.log.Warn("unclassified venue error, treating as transient",
				zap.String("market", ord.MarketID), zap.Error(err))
		}
		if attempt < attempts {
			if err := s.sleep(ctx, backoff); err != nil {
				break
			}
			backoff *= 2
		}
	}

	rep.Status = StatusRejected
	if lastErr != nil {
		rep.Error = lastErr.Error()
	}
	s.finish(rep)
	return rep, nil
}

// SubmitClose routes a close order, falling back to reduce-only when
// the direct close is rejected and the fallback is enabled.
func (s *Service) SubmitClose(ctx context.Context, snap market.Snapshot, ord Order) (Report, error) {
	ord.Mode = "exit"
	rep, err := s.Submit(ctx, snap, ord)
	if err != nil {
		return rep, err
	}
	if rep.Status == StatusRejected && s.cfg.ReduceOnlyFallback && !ord.ReduceOnly {
		s.log.Info("close rejected, retrying reduce-only",
			zap.String("market", ord.MarketID), zap.String("order", rep.OrderID))
		ord.ReduceOnly = true
		ord.Mode = "reduce_only"
		return s.Submit(ctx, snap, ord)
	}
	return rep, nil
}

func (s *Service) finish(rep Report) {
	s.tracker.Record(rep)
	s.recorder.RecordOrder(rep)
	s.log.Debug("order outcome",
		zap.String("order", rep.OrderID),
		zap.String("market", rep.MarketID),
		zap.String("status", string(rep.Status)),
		zap.Int("attempts", rep.Attempts),
		zap.Float64("filled", rep.FilledNotional),
	)
}
