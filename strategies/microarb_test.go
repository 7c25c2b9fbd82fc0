package strategies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polymkt/trader/market"
)

func arbSnap() market.Snapshot {
	return market.Snapshot{
		MarketID:         "mkt-1",
		Bid:              0.42,
		Ask:              0.44,
		ExternalBid:      0.50,
		ExternalAsk:      0.52,
		ExternalReal:     true,
		DepthYesNotional: 100,
		DepthNoNotional:  100,
	}
}

func TestMicroArbExternalBuyEdge(t *testing.T) {
	t.Parallel()
	m := NewMicroArb(DefaultMicroArbConfig())

	// Local ask 0.44 against external bid 0.50: 0.055 net of the taker
	// fee, well past the minimum edge.
	c, ok := m.Evaluate(arbSnap())
	require.True(t, ok)
	assert.Equal(t, "micro_arbitrage", c.Name)
	assert.True(t, c.Exclusive)
	assert.InDelta(t, 1, c.Bias, 1e-9)
	assert.InDelta(t, 0.055, c.Metadata["net_edge"], 1e-9)
	assert.InDelta(t, 0, c.Metadata["internal"], 1e-9)
	assert.InDelta(t, 1, c.Confidence, 1e-9)
}

func TestMicroArbExternalSellEdge(t *testing.T) {
	t.Parallel()
	m := NewMicroArb(DefaultMicroArbConfig())

	snap := arbSnap()
	snap.Bid, snap.Ask = 0.56, 0.58
	snap.ExternalBid, snap.ExternalAsk = 0.48, 0.50
	c, ok := m.Evaluate(snap)
	require.True(t, ok)
	assert.InDelta(t, -1, c.Bias, 1e-9)
	assert.InDelta(t, 0.055, c.Metadata["net_edge"], 1e-9)
}

func TestMicroArbExternalAbstains(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*market.Snapshot)
	}{
		{"synthetic reference", func(s *market.Snapshot) { s.ExternalReal = false }},
		{"crossed external quote", func(s *market.Snapshot) { s.ExternalAsk = 0.49 }},
		{"external quote too wide", func(s *market.Snapshot) { s.ExternalBid, s.ExternalAsk = 0.40, 0.50 }},
		{"local book too wide", func(s *market.Snapshot) { s.Bid = 0.38 }},
		{"thin book", func(s *market.Snapshot) { s.DepthYesNotional, s.DepthNoNotional = 10, 10 }},
		{"edge below minimum", func(s *market.Snapshot) { s.ExternalBid, s.ExternalAsk = 0.445, 0.455 }},
	}

	m := NewMicroArb(DefaultMicroArbConfig())
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			snap := arbSnap()
			tt.mutate(&snap)
			_, ok := m.Evaluate(snap)
			assert.False(t, ok)
		})
	}
}

func TestMicroArbInternalMode(t *testing.T) {
	t.Parallel()
	cfg := DefaultMicroArbConfig()
	cfg.Mode = MicroArbInternal
	m := NewMicroArb(cfg)

	// Derived reference mid 0.50 against local ask 0.46: edge 0.03 after
	// both legs' fees, above the internal threshold.
	snap := market.Snapshot{
		Bid: 0.44, Ask: 0.46,
		ExternalBid: 0.48, ExternalAsk: 0.52,
	}
	c, ok := m.Evaluate(snap)
	require.True(t, ok)
	assert.InDelta(t, 1, c.Bias, 1e-9)
	assert.InDelta(t, 0.03, c.Metadata["net_edge"], 1e-9)
	assert.InDelta(t, 1, c.Metadata["internal"], 1e-9)

	// Below the internal threshold nothing fires.
	snap.Ask = 0.48
	snap.Bid = 0.46
	_, ok = m.Evaluate(snap)
	assert.False(t, ok)
}
