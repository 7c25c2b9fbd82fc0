package strategies

import (
	"math"

	"github.com/polymkt/trader/market"
)

// MomentumConfig tunes the momentum evaluator.
type MomentumConfig struct {
	Weight    float64 `json:"weight" yaml:"weight"`
	Threshold float64 `json:"threshold" yaml:"threshold"`

	// RequireConsistency additionally demands the 1h move agree in sign
	// with the 24h move and clear a minimum magnitude.
	RequireConsistency bool    `json:"require_consistency" yaml:"require_consistency"`
	MinHourMagnitude   float64 `json:"min_hour_magnitude" yaml:"min_hour_magnitude"`
}

func DefaultMomentumConfig() MomentumConfig {
	return MomentumConfig{
		Weight:             1.0,
		Threshold:          0.02,
		RequireConsistency: true,
		MinHourMagnitude:   0.005,
	}
}

// Momentum trades continuation of the 24h price move, normalized by
// realized volatility so quiet markets are not mistaken for trends.
type Momentum struct {
	cfg MomentumConfig
}

func init() {
	Register("momentum", func() Evaluator { return NewMomentum(DefaultMomentumConfig()) })
}

func NewMomentum(cfg MomentumConfig) *Momentum { return &Momentum{cfg: cfg} }

func (m *Momentum) Name() string           { return "momentum" }
func (m *Momentum) Forget(marketID string) {}

func (m *Momentum) Evaluate(snap market.Snapshot) (Contribution, bool) {
	delta := snap.PriceChange24h
	if math.Abs(delta) < m.cfg.Threshold {
		return Contribution{}, false
	}

	if m.cfg.RequireConsistency {
		hour := snap.PriceChange1h
		if math.Abs(hour) < m.cfg.MinHourMagnitude || hour*delta < 0 {
			return Contribution{}, false
		}
	}

	norm := math.Max(m.cfg.Threshold, snap.Volatility)
	bias := clamp(delta/norm, -1, 1)
	conf := clamp(math.Abs(delta)/(norm*2), 0, 1)

	return Contribution{
		Name:       m.Name(),
		Bias:       bias,
		Confidence: conf,
		SizeHint:   1.0,
		Metadata: map[string]float64{
			"delta_24h": delta,
			"delta_1h":  snap.PriceChange1h,
			"norm":      norm,
		},
	}, true
}
