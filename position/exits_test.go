package position

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/polymkt/trader/market"
)

var exitBase = time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)

func openYes() *Position {
	return &Position{
		ID:       "pos-1",
		MarketID: "mkt-1",
		Side:     market.Yes,
		Notional: 100,
		Shares:   200,
		EntryYes: 0.50,
		OpenedAt: exitBase,
	}
}

func TestEvaluateBaseline(t *testing.T) {
	t.Parallel()
	cfg := DefaultExitConfig()

	tests := []struct {
		name       string
		setup      func(*Position)
		snap       market.Snapshot
		age        time.Duration
		wantClose  bool
		wantReason string
	}{
		{
			name:       "stop loss ignores min hold",
			snap:       market.Snapshot{Bid: 0.43, Ask: 0.45},
			age:        30 * time.Second,
			wantClose:  true,
			wantReason: ReasonTpSl,
		},
		{
			name:       "min hold gates everything else",
			snap:       market.Snapshot{Bid: 0.52, Ask: 0.54},
			age:        30 * time.Second,
			wantClose:  false,
			wantReason: "min_hold",
		},
		{
			name:       "take profit",
			snap:       market.Snapshot{Bid: 0.58, Ask: 0.60},
			age:        300 * time.Second,
			wantClose:  true,
			wantReason: ReasonTpSl,
		},
		{
			name:       "breakeven stop after giving back the gain",
			setup:      func(p *Position) { p.BestPnlPct = 0.03 },
			snap:       market.Snapshot{Bid: 0.50, Ask: 0.52},
			age:        300 * time.Second,
			wantClose:  true,
			wantReason: ReasonTpSl,
		},
		{
			name:       "time exit at the holding horizon",
			snap:       market.Snapshot{Bid: 0.50, Ask: 0.52},
			age:        3700 * time.Second,
			wantClose:  true,
			wantReason: ReasonTime,
		},
		{
			name:       "dead zone when edge is inside the cost budget",
			snap:       market.Snapshot{Bid: 0.49, Ask: 0.51},
			age:        300 * time.Second,
			wantClose:  true,
			wantReason: ReasonDeadZone,
		},
		{
			name:       "invalidation when the edge flips against the side",
			setup:      func(p *Position) { p.EntryScore = -0.8 },
			snap:       market.Snapshot{Bid: 0.49, Ask: 0.51},
			age:        300 * time.Second,
			wantClose:  true,
			wantReason: ReasonInvalidation,
		},
		{
			name: "trailing stop from the high-water mark",
			setup: func(p *Position) {
				p.EntryScore = 0.8
				p.BestPnlPct = 0.05
			},
			snap:       market.Snapshot{Bid: 0.51, Ask: 0.53},
			age:        300 * time.Second,
			wantClose:  true,
			wantReason: ReasonTrailing,
		},
		{
			name:      "healthy position stays open",
			setup:     func(p *Position) { p.EntryScore = 0.8 },
			snap:      market.Snapshot{Bid: 0.51, Ask: 0.53},
			age:       300 * time.Second,
			wantClose: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := openYes()
			if tt.setup != nil {
				tt.setup(p)
			}
			d := EvaluateBaseline(cfg, p, tt.snap, exitBase.Add(tt.age))
			assert.Equal(t, tt.wantClose, d.Close)
			if tt.wantReason != "" {
				assert.Equal(t, tt.wantReason, d.Reason)
			}
		})
	}
}

func TestEvaluateBaselineBreakevenMetadata(t *testing.T) {
	t.Parallel()
	cfg := DefaultExitConfig()
	p := openYes()
	p.BestPnlPct = 0.03

	d := EvaluateBaseline(cfg, p, market.Snapshot{Bid: 0.50, Ask: 0.52}, exitBase.Add(300*time.Second))
	assert.True(t, d.Close)
	assert.InDelta(t, 1, d.Metadata["breakeven"], 1e-9, "breakeven closes are distinguishable in metadata")
}

func TestEvaluateBaselineTracksHighWaterMark(t *testing.T) {
	t.Parallel()
	cfg := DefaultExitConfig()
	p := openYes()
	p.EntryScore = 0.8

	EvaluateBaseline(cfg, p, market.Snapshot{Bid: 0.52, Ask: 0.54}, exitBase.Add(200*time.Second))
	assert.InDelta(t, 0.04, p.BestPnlPct, 1e-9)

	EvaluateBaseline(cfg, p, market.Snapshot{Bid: 0.51, Ask: 0.53}, exitBase.Add(260*time.Second))
	assert.InDelta(t, 0.04, p.BestPnlPct, 1e-9, "the mark never regresses")
}

func TestEdgeDecaysTowardMarket(t *testing.T) {
	t.Parallel()
	cfg := DefaultExitConfig()
	p := openYes()
	p.EntryScore = 0.8

	snap := market.Snapshot{Bid: 0.49, Ask: 0.51}
	rawFresh, _ := cfg.edge(p, snap, 0)
	rawAged, effAged := cfg.edge(p, snap, 20*time.Minute)
	assert.InDelta(t, 0.40, rawFresh, 1e-9, "fresh conviction is the full entry score gap")
	assert.Less(t, rawAged, rawFresh, "conviction decays toward the market")
	assert.Equal(t, rawAged, effAged, "yes side keeps the raw sign")

	p.Side = market.No
	_, effNo := cfg.edge(p, snap, 20*time.Minute)
	assert.InDelta(t, -rawAged, effNo, 1e-9)
}
