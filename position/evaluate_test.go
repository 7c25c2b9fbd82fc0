package position

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polymkt/trader/market"
)

func withStrategy(p *Position, name string, entry StrategyEntry) *Position {
	if p.Strategies == nil {
		p.Strategies = make(map[string]StrategyEntry)
	}
	p.Strategies[name] = entry
	return p
}

func TestEvaluateMicroArbClosesWhenEdgeGone(t *testing.T) {
	t.Parallel()
	p := withStrategy(openYes(), "micro_arbitrage", StrategyEntry{
		Exclusive: true,
		Meta:      map[string]float64{"internal": 0},
	})

	// External bid has converged below the local ask: nothing left to
	// capture after fees.
	snap := market.Snapshot{
		Bid: 0.43, Ask: 0.45,
		ExternalBid: 0.44, ExternalAsk: 0.46,
	}
	d := Evaluate(DefaultExitConfig(), DefaultStrategyExitConfig(), p, snap, exitBase.Add(10*time.Second))
	require.True(t, d.Close)
	assert.Equal(t, ReasonMicroArbEdgeCost, d.Reason)
	assert.Equal(t, "micro_arbitrage", d.Strategy)
}

func TestEvaluateMicroArbHoldsWhileEdgeRemains(t *testing.T) {
	t.Parallel()
	p := withStrategy(openYes(), "micro_arbitrage", StrategyEntry{
		Exclusive: true,
		Meta:      map[string]float64{"internal": 0},
	})

	snap := market.Snapshot{
		Bid: 0.46, Ask: 0.48,
		ExternalBid: 0.50, ExternalAsk: 0.52,
	}
	d := Evaluate(DefaultExitConfig(), DefaultStrategyExitConfig(), p, snap, exitBase.Add(10*time.Second))
	assert.False(t, d.Close)
}

func TestEvaluateMeanReversionTarget(t *testing.T) {
	t.Parallel()
	p := withStrategy(openYes(), "mean_reversion", StrategyEntry{
		Meta: map[string]float64{"deviation": 0.08, "target": 0.48},
	})

	// Deviation has collapsed from 0.08 to 0.01, inside the target band.
	snap := market.Snapshot{Bid: 0.46, Ask: 0.48}
	d := Evaluate(DefaultExitConfig(), DefaultStrategyExitConfig(), p, snap, exitBase.Add(10*time.Second))
	require.True(t, d.Close)
	assert.Equal(t, ReasonMeanReversionTarget, d.Reason)
}

func TestEvaluateMeanReversionStop(t *testing.T) {
	t.Parallel()
	p := withStrategy(openYes(), "mean_reversion", StrategyEntry{
		Meta: map[string]float64{"deviation": 0.08, "target": 0.48},
	})
	p.EntryYes = 0.42 // entered near the dislocation, stop fires on thesis failure

	// Deviation grew to 0.13 in the entry direction: the dislocation
	// deepened instead of reverting.
	snap := market.Snapshot{Bid: 0.34, Ask: 0.36}
	d := Evaluate(DefaultExitConfig(), DefaultStrategyExitConfig(), p, snap, exitBase.Add(10*time.Second))
	require.True(t, d.Close)
	assert.Equal(t, ReasonInvalidation, d.Reason)
	assert.Equal(t, "mean_reversion", d.Strategy)
}

func TestEvaluateEventHoldSuppressesBaseline(t *testing.T) {
	t.Parallel()
	p := withStrategy(openYes(), "event_driven", StrategyEntry{
		Exclusive: true,
		Meta:      map[string]float64{"volume_spike": 0.95, "sentiment": 0.5},
	})

	// Way past the holding horizon, but the spike rides to resolution.
	snap := market.Snapshot{Bid: 0.50, Ask: 0.52}
	d := Evaluate(DefaultExitConfig(), DefaultStrategyExitConfig(), p, snap, exitBase.Add(2*time.Hour))
	assert.False(t, d.Close)
	assert.Equal(t, "suppressed:"+ReasonTime, p.Holds["baseline"])
	assert.Equal(t, ReasonEventHoldToResolution, p.Holds["event_driven"])
}

func TestEvaluateEventHoldNeverSuppressesStopLoss(t *testing.T) {
	t.Parallel()
	p := withStrategy(openYes(), "event_driven", StrategyEntry{
		Exclusive: true,
		Meta:      map[string]float64{"volume_spike": 0.95, "sentiment": 0.5},
	})

	snap := market.Snapshot{Bid: 0.43, Ask: 0.45}
	d := Evaluate(DefaultExitConfig(), DefaultStrategyExitConfig(), p, snap, exitBase.Add(2*time.Hour))
	require.True(t, d.Close, "a protective hold does not override the stop loss")
	assert.Equal(t, ReasonTpSl, d.Reason)
}

func TestEvaluateEventTrailingStop(t *testing.T) {
	t.Parallel()
	p := withStrategy(openYes(), "event_driven", StrategyEntry{
		Exclusive: true,
		Meta:      map[string]float64{"volume_spike": 0.7, "sentiment": 0.5},
	})
	p.BestPnlPct = 0.06

	// Past the hold window with the gain decaying from the peak.
	snap := market.Snapshot{Bid: 0.515, Ask: 0.535, SentimentScore: 0.5}
	d := Evaluate(DefaultExitConfig(), DefaultStrategyExitConfig(), p, snap, exitBase.Add(1000*time.Second))
	require.True(t, d.Close)
	assert.Equal(t, ReasonEventTrailingStop, d.Reason)
}

func TestEvaluateEventSentimentReversal(t *testing.T) {
	t.Parallel()
	p := withStrategy(openYes(), "event_driven", StrategyEntry{
		Exclusive: true,
		Meta:      map[string]float64{"volume_spike": 0.3, "sentiment": 0.5},
	})

	snap := market.Snapshot{Bid: 0.50, Ask: 0.52, SentimentScore: -0.4}
	d := Evaluate(DefaultExitConfig(), DefaultStrategyExitConfig(), p, snap, exitBase.Add(1000*time.Second))
	require.True(t, d.Close)
	assert.Equal(t, ReasonEventPrefix+"sentiment_reversal", d.Reason)
}

func TestEvaluateExclusiveRunsFirst(t *testing.T) {
	t.Parallel()
	p := withStrategy(openYes(), "mean_reversion", StrategyEntry{
		Meta: map[string]float64{"deviation": 0.08, "target": 0.48},
	})
	withStrategy(p, "micro_arbitrage", StrategyEntry{
		Exclusive: true,
		Meta:      map[string]float64{"internal": 0},
	})

	// Both would close; the exclusive arbitrage evaluator wins the race.
	snap := market.Snapshot{
		Bid: 0.46, Ask: 0.48,
		ExternalBid: 0.44, ExternalAsk: 0.46,
	}
	d := Evaluate(DefaultExitConfig(), DefaultStrategyExitConfig(), p, snap, exitBase.Add(10*time.Second))
	require.True(t, d.Close)
	assert.Equal(t, "micro_arbitrage", d.Strategy)
}
