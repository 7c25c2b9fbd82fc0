package market

import (
	"context"
	"errors"
	"sync"
)

// SnapshotProvider yields the current snapshot set for all tracked
// markets. Implementations belong to the data collaborator; the core
// only pulls.
type SnapshotProvider interface {
	Snapshots(ctx context.Context) ([]Snapshot, error)
}

// ErrEmptyPayload is returned by providers that answered but delivered
// no markets.
var ErrEmptyPayload = errors.New("provider returned empty payload")

const (
	ReasonProviderException    = "provider_exception"
	ReasonProviderEmptyPayload = "provider_empty_payload"
)

// CachedProvider wraps a SnapshotProvider and serves the last good
// snapshot set when the upstream call fails, marking every served
// snapshot degraded so the core can avoid trading on stale data.
type CachedProvider struct {
	upstream SnapshotProvider

	mu   sync.Mutex
	last []Snapshot
}

func NewCachedProvider(upstream SnapshotProvider) *CachedProvider {
	return &CachedProvider{upstream: upstream}
}

func (c *CachedProvider) Snapshots(ctx context.Context) ([]Snapshot, error) {
	snaps, err := c.upstream.Snapshots(ctx)
	if err == nil && len(snaps) == 0 {
		err = ErrEmptyPayload
	}
	if err == nil {
		c.mu.Lock()
		c.last = append(c.last[:0:0], snaps...)
		c.mu.Unlock()
		return snaps, nil
	}

	c.mu.Lock()
	cached := append([]Snapshot(nil), c.last...)
	c.mu.Unlock()
	if len(cached) == 0 {
		return nil, err
	}

	reason := ReasonProviderException
	if errors.Is(err, ErrEmptyPayload) {
		reason = ReasonProviderEmptyPayload
	}
	for i := range cached {
		cached[i].Degraded = true
		cached[i].DegradedReason = reason
	}
	return cached, nil
}

// SnapshotStore keeps the latest snapshot per market for components
// that need the most recent view outside the tick flow.
type SnapshotStore struct {
	mu    sync.RWMutex
	snaps map[string]Snapshot
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{snaps: make(map[string]Snapshot)}
}

func (st *SnapshotStore) Set(s Snapshot) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.snaps[s.MarketID] = s
}

func (st *SnapshotStore) Get(marketID string) (Snapshot, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.snaps[marketID]
	return s, ok
}
