package market

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// FixtureProvider replays snapshot sets loaded from a JSON-lines file,
// one line per snapshot. Lines sharing a timestamp form one cycle. It
// backs offline runs and backtests.
type FixtureProvider struct {
	mu     sync.Mutex
	cycles [][]Snapshot
	next   int
	loop   bool
}

// LoadFixture reads a JSONL snapshot file. Consecutive lines with the
// same Time value are grouped into a single cycle.
func LoadFixture(path string, loop bool) (*FixtureProvider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()

	var cycles [][]Snapshot
	var cur []Snapshot
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var s Snapshot
		if err := json.Unmarshal(line, &s); err != nil {
			return nil, fmt.Errorf("parse fixture line: %w", err)
		}
		if len(cur) > 0 && !cur[0].Time.Equal(s.Time) {
			cycles = append(cycles, cur)
			cur = nil
		}
		cur = append(cur, s)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	if len(cur) > 0 {
		cycles = append(cycles, cur)
	}
	if len(cycles) == 0 {
		return nil, fmt.Errorf("fixture %s contains no snapshots", path)
	}
	return &FixtureProvider{cycles: cycles, loop: loop}, nil
}

// NewFixtureProvider wraps pre-built cycles, used by tests.
func NewFixtureProvider(cycles [][]Snapshot, loop bool) *FixtureProvider {
	return &FixtureProvider{cycles: cycles, loop: loop}
}

// Snapshots returns the next cycle. After the last cycle it either wraps
// (loop mode) or reports an empty payload.
func (p *FixtureProvider) Snapshots(ctx context.Context) ([]Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.next >= len(p.cycles) {
		if !p.loop {
			return nil, ErrEmptyPayload
		}
		p.next = 0
	}
	cycle := p.cycles[p.next]
	p.next++
	return append([]Snapshot(nil), cycle...), nil
}

// Cycles returns the underlying snapshot cycles, used by the backtest
// runner which needs the whole series up front.
func (p *FixtureProvider) Cycles() [][]Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]Snapshot, len(p.cycles))
	for i, c := range p.cycles {
		out[i] = append([]Snapshot(nil), c...)
	}
	return out
}

// Remaining reports how many cycles are left before exhaustion.
func (p *FixtureProvider) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loop {
		return len(p.cycles)
	}
	return len(p.cycles) - p.next
}
