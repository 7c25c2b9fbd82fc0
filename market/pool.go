package market

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Fetcher fetches one market's snapshot. Providers that can only serve
// per-market requests plug in here and get fan-out for free.
type Fetcher interface {
	Fetch(ctx context.Context, marketID string) (Snapshot, error)
}

// PoolProvider turns a per-market Fetcher into a SnapshotProvider by
// fanning requests out over a bounded worker set. Failed markets fall
// back to their cached snapshot, marked degraded; markets with no
// cache yet are dropped for the cycle.
type PoolProvider struct {
	fetcher     Fetcher
	markets     []string
	concurrency int
	timeout     time.Duration
	log         *zap.Logger

	mu    sync.Mutex
	cache map[string]Snapshot
}

func NewPoolProvider(fetcher Fetcher, markets []string, concurrency int, timeout time.Duration, log *zap.Logger) *PoolProvider {
	if concurrency < 1 {
		concurrency = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PoolProvider{
		fetcher:     fetcher,
		markets:     markets,
		concurrency: concurrency,
		timeout:     timeout,
		log:         log,
		cache:       make(map[string]Snapshot),
	}
}

func (p *PoolProvider) Snapshots(ctx context.Context) ([]Snapshot, error) {
	results := make([]Snapshot, len(p.markets))
	ok := make([]bool, len(p.markets))

	sem := make(chan struct{}, p.concurrency)
	var wg sync.WaitGroup
	for i, id := range p.markets {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			fctx := ctx
			if p.timeout > 0 {
				var cancel context.CancelFunc
				fctx, cancel = context.WithTimeout(ctx, p.timeout)
				defer cancel()
			}
			snap, err := p.fetcher.Fetch(fctx, id)
			if err != nil {
				p.log.Warn("snapshot fetch failed, using cache",
					zap.String("market", id), zap.Error(err))
				p.mu.Lock()
				cached, has := p.cache[id]
				p.mu.Unlock()
				if !has {
					return
				}
				cached.Degraded = true
				cached.DegradedReason = ReasonProviderException
				results[i], ok[i] = cached, true
				return
			}
			p.mu.Lock()
			p.cache[id] = snap
			p.mu.Unlock()
			results[i], ok[i] = snap, true
		}(i, id)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Snapshot, 0, len(results))
	for i, s := range results {
		if ok[i] {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptyPayload
	}
	return out, nil
}
