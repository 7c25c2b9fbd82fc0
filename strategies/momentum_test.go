package strategies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polymkt/trader/market"
)

func TestMomentumEvaluate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		snap     market.Snapshot
		wantOK   bool
		wantBias float64
		wantConf float64
	}{
		{
			name:   "below threshold",
			snap:   market.Snapshot{PriceChange24h: 0.01, PriceChange1h: 0.01},
			wantOK: false,
		},
		{
			name:   "hour move disagrees",
			snap:   market.Snapshot{PriceChange24h: 0.05, PriceChange1h: -0.01},
			wantOK: false,
		},
		{
			name:   "hour move too small",
			snap:   market.Snapshot{PriceChange24h: 0.05, PriceChange1h: 0.001},
			wantOK: false,
		},
		{
			name:     "quiet market saturates",
			snap:     market.Snapshot{PriceChange24h: 0.05, PriceChange1h: 0.01},
			wantOK:   true,
			wantBias: 1,
			wantConf: 1,
		},
		{
			name:     "volatility normalizes",
			snap:     market.Snapshot{PriceChange24h: 0.05, PriceChange1h: 0.01, Volatility: 0.25},
			wantOK:   true,
			wantBias: 0.2,
			wantConf: 0.1,
		},
		{
			name:     "short side",
			snap:     market.Snapshot{PriceChange24h: -0.05, PriceChange1h: -0.01, Volatility: 0.25},
			wantOK:   true,
			wantBias: -0.2,
			wantConf: 0.1,
		},
	}

	m := NewMomentum(DefaultMomentumConfig())
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, ok := m.Evaluate(tt.snap)
			if !tt.wantOK {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.InDelta(t, tt.wantBias, c.Bias, 1e-9)
			assert.InDelta(t, tt.wantConf, c.Confidence, 1e-9)
			assert.Equal(t, tt.snap.PriceChange24h, c.Metadata["delta_24h"])
		})
	}
}

func TestMomentumConsistencyOptional(t *testing.T) {
	t.Parallel()
	cfg := DefaultMomentumConfig()
	cfg.RequireConsistency = false
	m := NewMomentum(cfg)

	_, ok := m.Evaluate(market.Snapshot{PriceChange24h: 0.05, PriceChange1h: -0.02})
	assert.True(t, ok, "disagreeing 1h move only matters when consistency is required")
}
