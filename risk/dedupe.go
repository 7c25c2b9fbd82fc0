package risk

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/polymkt/trader/market"
)

// DedupeConfig bounds the order-intent index in time and size.
type DedupeConfig struct {
	WindowSeconds int    `json:"window_seconds" yaml:"window_seconds"`
	MaxEntries    int    `json:"max_entries" yaml:"max_entries"`
	SnapshotPath  string `json:"snapshot_path" yaml:"snapshot_path"`
	AuditPath     string `json:"audit_path" yaml:"audit_path"`
}

func DefaultDedupeConfig() DedupeConfig {
	return DedupeConfig{WindowSeconds: 120, MaxEntries: 512}
}

type intentRecord struct {
	Seen time.Time `json:"seen"`
	Size float64   `json:"size"`
}

// IntentIndex remembers the last order intent per (market, direction)
// so the same entry cannot be submitted twice inside the window. It is
// persisted as a JSON snapshot so dedupe survives restarts.
type IntentIndex struct {
	cfg DedupeConfig
	now func() time.Time

	mu      sync.Mutex
	entries map[string]intentRecord
}

func NewIntentIndex(cfg DedupeConfig) *IntentIndex {
	idx := &IntentIndex{
		cfg:     cfg,
		now:     time.Now,
		entries: make(map[string]intentRecord),
	}
	if cfg.SnapshotPath != "" {
		idx.load()
	}
	return idx
}

func key(marketID string, side market.Side) string {
	return marketID + "::" + string(side)
}

// Seen reports whether an identical-direction intent was recorded
// within the window, then records the new intent regardless. Rejected
// duplicates are therefore also remembered, which keeps a flapping
// signal from retrying every cycle.
func (ix *IntentIndex) Seen(marketID string, side market.Side, size float64) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	now := ix.now()
	k := key(marketID, side)
	prev, ok := ix.entries[k]
	dup := ok && now.Sub(prev.Seen) < time.Duration(ix.cfg.WindowSeconds)*time.Second

	ix.entries[k] = intentRecord{Seen: now, Size: size}
	ix.pruneLocked(now)
	ix.persistLocked()
	ix.auditLocked(now, marketID, side, size, dup)
	return dup
}

// pruneLocked drops entries older than twice the window, then trims the
// oldest entries past the size bound. The cushion keeps recently
// expired keys visible for inspection without unbounded growth.
func (ix *IntentIndex) pruneLocked(now time.Time) {
	cutoff := now.Add(-2 * time.Duration(ix.cfg.WindowSeconds) * time.Second)
	for k, rec := range ix.entries {
		if rec.Seen.Before(cutoff) {
			delete(ix.entries, k)
		}
	}
	if ix.cfg.MaxEntries <= 0 || len(ix.entries) <= ix.cfg.MaxEntries {
		return
	}
	type kv struct {
		k string
		t time.Time
	}
	all := make([]kv, 0, len(ix.entries))
	for k, rec := range ix.entries {
		all = append(all, kv{k, rec.Seen})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].t.Before(all[j].t) })
	for _, e := range all[:len(all)-ix.cfg.MaxEntries] {
		delete(ix.entries, e.k)
	}
}

func (ix *IntentIndex) persistLocked() {
	if ix.cfg.SnapshotPath == "" {
		return
	}
	data, err := json.Marshal(ix.entries)
	if err != nil {
		return
	}
	// Snapshot loss only weakens dedupe after a restart; never fail
	// the guard chain over it.
	_ = os.WriteFile(ix.cfg.SnapshotPath, data, 0o644)
}

func (ix *IntentIndex) load() {
	data, err := os.ReadFile(ix.cfg.SnapshotPath)
	if err != nil {
		return
	}
	var entries map[string]intentRecord
	if err := json.Unmarshal(data, &entries); err != nil {
		return
	}
	ix.entries = entries
}

func (ix *IntentIndex) auditLocked(now time.Time, marketID string, side market.Side, size float64, dup bool) {
	if ix.cfg.AuditPath == "" {
		return
	}
	f, err := os.OpenFile(ix.cfg.AuditPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	w := csv.NewWriter(f)
	_ = w.Write([]string{
		now.UTC().Format(time.RFC3339),
		marketID,
		string(side),
		strconv.FormatFloat(size, 'f', -1, 64),
		fmt.Sprintf("%t", dup),
	})
	w.Flush()
}

// Len reports the current index size, for tests and metrics.
func (ix *IntentIndex) Len() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.entries)
}
