package broker

import (
	"context"
	"sync"
	"time"

	"github.com/polymkt/trader/market"
	"github.com/polymkt/trader/pricing"
)

// SimVenue fills orders deterministically against the latest snapshot
// it has been shown, using the shared pricing models. It backs tests
// and offline runs.
type SimVenue struct {
	pricing pricing.Config
	feeRate float64
	now     func() time.Time

	mu    sync.RWMutex
	books map[string]market.Snapshot

	// FailWith, when set, rejects the next submissions with the given
	// error until the counter runs out. Tests use this to exercise
	// retry behavior.
	failMu    sync.Mutex
	failErr   error
	failCount int
}

func NewSimVenue(p pricing.Config, feeRate float64) *SimVenue {
	return &SimVenue{
		pricing: p,
		feeRate: feeRate,
		now:     time.Now,
		books:   make(map[string]market.Snapshot),
	}
}

// Observe updates the venue's view of a market.
func (v *SimVenue) Observe(snap market.Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.books[snap.MarketID] = snap
}

// FailNext makes the next n submissions fail with err.
func (v *SimVenue) FailNext(n int, err error) {
	v.failMu.Lock()
	defer v.failMu.Unlock()
	v.failErr = err
	v.failCount = n
}

func (v *SimVenue) injectedFailure() error {
	v.failMu.Lock()
	defer v.failMu.Unlock()
	if v.failCount > 0 {
		v.failCount--
		return v.failErr
	}
	return nil
}

func (v *SimVenue) SubmitOrder(ctx context.Context, req OrderRequest) (OrderResult, error) {
	if err := ctx.Err(); err != nil {
		return OrderResult{}, err
	}
	if err := v.injectedFailure(); err != nil {
		return OrderResult{}, err
	}

	v.mu.RLock()
	snap, ok := v.books[req.MarketID]
	v.mu.RUnlock()
	if !ok {
		return OrderResult{}, ErrInvalidMarket
	}

	px := pricing.EntryPrice(v.pricing, snap, req.Side)
	if req.ReduceOnly {
		px = pricing.ExitPrice(v.pricing, snap, req.Side)
	}
	if req.LimitPrice > 0 {
		// Respect the limit: a yes buy above limit (or no buy below)
		// fills at the limit itself.
		if req.Side == market.Yes && px > req.LimitPrice {
			px = req.LimitPrice
		}
		if req.Side == market.No && px < req.LimitPrice {
			px = req.LimitPrice
		}
	}

	shares := pricing.SharesForNotional(req.Notional, px, req.Side)
	fees := req.Notional * v.feeRate

	return OrderResult{
		OrderID:        req.OrderID,
		FilledNotional: req.Notional,
		FilledShares:   shares,
		AveragePrice:   px,
		Fees:           fees,
		Timestamp:      v.now(),
	}, nil
}
