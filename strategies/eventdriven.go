package strategies

import (
	"math"
	"sync"
	"time"

	"github.com/polymkt/trader/indicators"
	"github.com/polymkt/trader/market"
)

// EventDrivenConfig tunes the event-driven evaluator.
type EventDrivenConfig struct {
	Weight float64 `json:"weight" yaml:"weight"`

	MinSentiment   float64 `json:"min_sentiment" yaml:"min_sentiment"`
	MinVolumeSpike float64 `json:"min_volume_spike" yaml:"min_volume_spike"`

	// MaxAgeSeconds discards sentiment older than this outright;
	// HalfLifeSeconds drives the exponential recency decay applied
	// before that.
	MaxAgeSeconds   int `json:"max_age_seconds" yaml:"max_age_seconds"`
	HalfLifeSeconds int `json:"half_life_seconds" yaml:"half_life_seconds"`

	// TrustedSources receive full confidence; everything else is
	// treated as synthetic and held to a higher spike bar.
	TrustedSources []string `json:"trusted_sources" yaml:"trusted_sources"`
}

func DefaultEventDrivenConfig() EventDrivenConfig {
	return EventDrivenConfig{
		Weight:          1.0,
		MinSentiment:    0.3,
		MinVolumeSpike:  1.2,
		MaxAgeSeconds:   1800,
		HalfLifeSeconds: 900,
		TrustedSources:  []string{"news", "social"},
	}
}

// EventDriven trades fresh sentiment confirmed by a volume spike. The
// volume baseline is an EWMA of recent 24h volume per market.
type EventDriven struct {
	cfg EventDrivenConfig
	now func() time.Time

	mu     sync.Mutex
	avgVol map[string]*indicators.EWMA
}

func init() {
	Register("event_driven", func() Evaluator { return NewEventDriven(DefaultEventDrivenConfig()) })
}

func NewEventDriven(cfg EventDrivenConfig) *EventDriven {
	return &EventDriven{cfg: cfg, now: time.Now, avgVol: make(map[string]*indicators.EWMA)}
}

func (e *EventDriven) Name() string { return "event_driven" }

func (e *EventDriven) Forget(marketID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.avgVol, marketID)
}

func (e *EventDriven) trusted(source string) bool {
	for _, s := range e.cfg.TrustedSources {
		if s == source {
			return true
		}
	}
	return false
}

func (e *EventDriven) spikeRatio(marketID string, vol float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	ewma, seen := e.avgVol[marketID]
	if !seen {
		ewma = indicators.NewEWMA(0.1)
		e.avgVol[marketID] = ewma
	}
	avg := ewma.Value()
	ewma.Update(vol)
	if ewma.Count() == 1 || avg <= 0 {
		return 1
	}
	return vol / avg
}

func (e *EventDriven) Evaluate(snap market.Snapshot) (Contribution, bool) {
	score := snap.SentimentScore
	if math.Abs(score) < e.cfg.MinSentiment || snap.SentimentUpdatedAt.IsZero() {
		return Contribution{}, false
	}

	age := e.now().Sub(snap.SentimentUpdatedAt)
	if age < 0 {
		age = 0
	}
	if age > time.Duration(e.cfg.MaxAgeSeconds)*time.Second {
		return Contribution{}, false
	}

	spike := e.spikeRatio(snap.MarketID, snap.Volume24h)
	minSpike := e.cfg.MinVolumeSpike
	confScale := 1.0
	if !e.trusted(snap.SentimentSource) {
		minSpike *= 1.5
		confScale = 0.7
	}
	if spike < minSpike {
		return Contribution{}, false
	}

	decay := math.Pow(0.5, age.Seconds()/float64(e.cfg.HalfLifeSeconds))
	conf := clamp(math.Abs(score)*confScale*decay, 0, 1)
	score *= decay
	if math.Abs(score) < e.cfg.MinSentiment*0.5 || conf <= 0 {
		return Contribution{}, false
	}

	hold := time.Duration(600+spike*1800) * time.Second

	return Contribution{
		Name:         e.Name(),
		Bias:         clamp(score, -1, 1),
		Confidence:   conf,
		SizeHint:     1.0,
		Exclusive:    true,
		ExpectedHold: hold,
		Metadata: map[string]float64{
			"sentiment":    score,
			"volume_spike": spike,
			"age_seconds":  age.Seconds(),
		},
	}, true
}
