package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/polymkt/trader/market"
)

func TestHistoricalVar(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.9, historicalVar(nil), 1e-9, "no history assumes the worst plausible loss")

	returns := []float64{-0.40, -0.30}
	for i := 0; i < 18; i++ {
		returns = append(returns, 0.05)
	}
	// p5 of 20 samples lands on the second-worst return.
	assert.InDelta(t, 0.30, historicalVar(returns), 1e-9)

	assert.InDelta(t, 0.9, historicalVar([]float64{0, 0, 0}), 1e-9, "flat history carries no information")
}

func TestCheckRatioCaps(t *testing.T) {
	t.Parallel()
	cfg := DefaultRatioConfig()
	snap := market.Snapshot{DepthYesNotional: 500, DepthNoNotional: 500}

	d := Decision{Allowed: true}
	got := checkRatio(cfg, &d, 600, 10000, nil, snap, market.Yes)
	assert.InDelta(t, 500, got, 1e-9, "balance-ratio cap binds first")
	assert.True(t, d.Clamped)
	assert.True(t, d.Allowed)

	d = Decision{Allowed: true}
	got = checkRatio(cfg, &d, 400, 10000, nil, snap, market.Yes)
	assert.InDelta(t, 400, got, 1e-9)
	assert.False(t, d.Clamped)
}

func TestCheckRatioVarCap(t *testing.T) {
	t.Parallel()
	cfg := DefaultRatioConfig()
	cfg.MaxSingleOrderRatio = 1 // take the balance cap out of play
	snap := market.Snapshot{DepthYesNotional: 5000, DepthNoNotional: 5000}

	// Tail loss 0.5 turns the 10% VaR budget into a 2000 cap.
	returns := []float64{-0.5, 0.1, 0.1, 0.1, 0.1}
	d := Decision{Allowed: true}
	got := checkRatio(cfg, &d, 3000, 10000, returns, snap, market.Yes)
	assert.InDelta(t, 2000, got, 1e-9)
	assert.True(t, d.Clamped)
}

func TestCheckRatioMinPosition(t *testing.T) {
	t.Parallel()
	cfg := DefaultRatioConfig()
	snap := market.Snapshot{DepthYesNotional: 500}

	d := Decision{Allowed: true}
	checkRatio(cfg, &d, 5, 10000, nil, snap, market.Yes)
	assert.False(t, d.Allowed)
	assert.Equal(t, []string{CodeRiskRatio}, d.Reasons())
}

func TestCheckRatioLiquidityFloor(t *testing.T) {
	t.Parallel()
	cfg := DefaultRatioConfig()
	snap := market.Snapshot{DepthYesNotional: 50}

	d := Decision{Allowed: true}
	checkRatio(cfg, &d, 100, 10000, nil, snap, market.Yes)
	assert.False(t, d.Allowed)
	assert.Equal(t, []string{CodeLiquidity}, d.Reasons())
}

func TestCheckRatioNotionalStep(t *testing.T) {
	t.Parallel()
	cfg := DefaultRatioConfig()
	cfg.NotionalStep = 5
	snap := market.Snapshot{DepthYesNotional: 500}

	d := Decision{Allowed: true}
	got := checkRatio(cfg, &d, 63, 10000, nil, snap, market.Yes)
	assert.InDelta(t, 60, got, 1e-9, "size floors to the step")
}
