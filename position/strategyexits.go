package position

import (
	"math"
	"time"

	"github.com/polymkt/trader/market"
)

// StrategyExitConfig tunes the per-strategy exit evaluators.
type StrategyExitConfig struct {
	// Mean reversion: close once the deviation has collapsed to this
	// fraction of its entry value, stop out once it has grown past the
	// stop multiple.
	MeanRevTargetFraction float64 `json:"meanrev_target_fraction" yaml:"meanrev_target_fraction"`
	MeanRevStopMultiple   float64 `json:"meanrev_stop_multiple" yaml:"meanrev_stop_multiple"`

	// Event driven: spikes above HoldToResolutionSpike ride to market
	// resolution; spikes above HoldWindowSpike are protected for the
	// hold window before signal-based closes apply.
	EventHoldWindowSeconds int     `json:"event_hold_window_seconds" yaml:"event_hold_window_seconds"`
	EventHoldWindowSpike   float64 `json:"event_hold_window_spike" yaml:"event_hold_window_spike"`
	EventHoldToResolution  float64 `json:"event_hold_to_resolution_spike" yaml:"event_hold_to_resolution_spike"`
	EventTrailingTrigger   float64 `json:"event_trailing_trigger" yaml:"event_trailing_trigger"`
	EventTrailingDecay     float64 `json:"event_trailing_decay" yaml:"event_trailing_decay"`
	EventSentimentReversal float64 `json:"event_sentiment_reversal" yaml:"event_sentiment_reversal"`
	EventVolumeFade        float64 `json:"event_volume_fade" yaml:"event_volume_fade"`

	// Micro arbitrage: the fee subtracted when re-checking the edge,
	// and the internal-mode threshold fraction that ends the trade.
	MicroArbFee               float64 `json:"microarb_fee" yaml:"microarb_fee"`
	MicroArbInternalThreshold float64 `json:"microarb_internal_threshold" yaml:"microarb_internal_threshold"`
}

func DefaultStrategyExitConfig() StrategyExitConfig {
	return StrategyExitConfig{
		MeanRevTargetFraction:     0.25,
		MeanRevStopMultiple:       1.6,
		EventHoldWindowSeconds:    900,
		EventHoldWindowSpike:      0.6,
		EventHoldToResolution:     0.9,
		EventTrailingTrigger:      0.045,
		EventTrailingDecay:        0.02,
		EventSentimentReversal:    0.25,
		EventVolumeFade:           0.4,
		MicroArbFee:               0.005,
		MicroArbInternalThreshold: 0.015,
	}
}

// evaluateMeanReversion closes once price has reverted through the
// entry deviation target, or invalidates when the deviation keeps
// growing against the position.
func evaluateMeanReversion(cfg StrategyExitConfig, p *Position, entry StrategyEntry, snap market.Snapshot) ExitDecision {
	entryDev := entry.Meta["deviation"]
	target := entry.Meta["target"]
	if entryDev == 0 || target <= 0 {
		return ExitDecision{Strategy: "mean_reversion"}
	}
	curDev := target - snap.Mid()
	meta := map[string]float64{"entry_deviation": entryDev, "deviation": curDev}

	targetBand := math.Max(0.01, math.Abs(entryDev)*cfg.MeanRevTargetFraction)
	if math.Abs(curDev) <= targetBand {
		return ExitDecision{Strategy: "mean_reversion", Reason: ReasonMeanReversionTarget, Close: true, Metadata: meta}
	}
	if math.Abs(curDev) >= math.Abs(entryDev)*cfg.MeanRevStopMultiple && curDev*entryDev > 0 {
		// The dislocation deepened instead of reverting: the entry
		// thesis is gone.
		return ExitDecision{Strategy: "mean_reversion", Reason: ReasonInvalidation, Close: true, Metadata: meta}
	}
	return ExitDecision{Strategy: "mean_reversion", Metadata: meta}
}

// evaluateEventDriven protects fresh event positions for their hold
// window, then closes on sentiment reversal, sentiment decay, volume
// fade, or a trailing stop from the high-water mark.
func evaluateEventDriven(cfg StrategyExitConfig, p *Position, entry StrategyEntry, snap market.Snapshot, now time.Time) ExitDecision {
	spike := entry.Meta["volume_spike"]
	entrySent := entry.Meta["sentiment"]
	age := p.Age(now)
	mark := p.Mark(snap)
	pnlPct := p.PnlPct(mark)
	meta := map[string]float64{"volume_spike": spike, "pnl_pct": pnlPct}

	if spike >= cfg.EventHoldToResolution {
		return ExitDecision{Strategy: "event_driven", Reason: ReasonEventHoldToResolution, Metadata: meta}
	}

	window := entry.ExpectedHold
	if window <= 0 {
		window = time.Duration(cfg.EventHoldWindowSeconds) * time.Second
	}
	if age < window && spike >= cfg.EventHoldWindowSpike {
		return ExitDecision{Strategy: "event_driven", Reason: ReasonEventHoldWindow, Metadata: meta}
	}

	if cfg.EventTrailingTrigger > 0 && p.BestPnlPct >= cfg.EventTrailingTrigger &&
		p.BestPnlPct-pnlPct >= cfg.EventTrailingDecay {
		return ExitDecision{Strategy: "event_driven", Reason: ReasonEventTrailingStop, Close: true, Metadata: meta}
	}

	cur := snap.SentimentScore
	if entrySent != 0 && cur*entrySent < 0 && math.Abs(cur) >= cfg.EventSentimentReversal {
		return ExitDecision{Strategy: "event_driven", Reason: ReasonEventPrefix + "sentiment_reversal", Close: true, Metadata: meta}
	}
	if entrySent != 0 && math.Abs(cur) < math.Abs(entrySent)*cfg.EventSentimentReversal {
		return ExitDecision{Strategy: "event_driven", Reason: ReasonEventPrefix + "sentiment_decay", Close: true, Metadata: meta}
	}
	if entryVol := entry.Meta["entry_volume"]; entryVol > 0 && snap.Volume24h < entryVol*cfg.EventVolumeFade {
		return ExitDecision{Strategy: "event_driven", Reason: ReasonEventPrefix + "volume_fade", Close: true, Metadata: meta}
	}

	return ExitDecision{Strategy: "event_driven", Metadata: meta}
}

// evaluateMicroArb ends the trade the moment the captured edge no
// longer pays for the fees to unwind it.
func evaluateMicroArb(cfg StrategyExitConfig, p *Position, entry StrategyEntry, snap market.Snapshot) ExitDecision {
	internal := entry.Meta["internal"] > 0
	var edge float64
	if internal {
		ref := (snap.ExternalBid + snap.ExternalAsk) / 2
		if p.Side == market.Yes {
			edge = ref - snap.Ask - 2*cfg.MicroArbFee
		} else {
			edge = snap.Bid - ref - 2*cfg.MicroArbFee
		}
		if edge <= cfg.MicroArbInternalThreshold*0.5 {
			return ExitDecision{Strategy: "micro_arbitrage", Reason: ReasonMicroArbEdgeCost, Close: true,
				Metadata: map[string]float64{"edge": edge}}
		}
		return ExitDecision{Strategy: "micro_arbitrage", Metadata: map[string]float64{"edge": edge}}
	}

	if p.Side == market.Yes {
		edge = (snap.ExternalBid - snap.Ask) - cfg.MicroArbFee
	} else {
		edge = (snap.Bid - snap.ExternalAsk) - cfg.MicroArbFee
	}
	if edge <= 0 {
		return ExitDecision{Strategy: "micro_arbitrage", Reason: ReasonMicroArbEdgeCost, Close: true,
			Metadata: map[string]float64{"edge": edge}}
	}
	return ExitDecision{Strategy: "micro_arbitrage", Metadata: map[string]float64{"edge": edge}}
}
