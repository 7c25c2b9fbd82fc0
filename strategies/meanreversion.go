package strategies

import (
	"math"
	"sync"

	"github.com/polymkt/trader/indicators"
	"github.com/polymkt/trader/market"
)

// MeanReversionConfig tunes the mean reversion evaluator.
type MeanReversionConfig struct {
	Weight       float64 `json:"weight" yaml:"weight"`
	Alpha        float64 `json:"alpha" yaml:"alpha"`
	MinDeviation float64 `json:"min_deviation" yaml:"min_deviation"`
	Sensitivity  float64 `json:"sensitivity" yaml:"sensitivity"`
	MaxHistory   int     `json:"max_history" yaml:"max_history"`

	// VetoOnMomentum abstains when the 24h move points against the
	// reversion and is itself strong enough to trade on.
	VetoOnMomentum    bool    `json:"veto_on_momentum" yaml:"veto_on_momentum"`
	MomentumThreshold float64 `json:"momentum_threshold" yaml:"momentum_threshold"`
}

func DefaultMeanReversionConfig() MeanReversionConfig {
	return MeanReversionConfig{
		Weight:            1.0,
		Alpha:             0.2,
		MinDeviation:      0.05,
		Sensitivity:       0.25,
		MaxHistory:        64,
		VetoOnMomentum:    true,
		MomentumThreshold: 0.02,
	}
}

// MeanReversion tracks an exponentially weighted fair-value target per
// market and trades deviations of the midpoint from that target.
type MeanReversion struct {
	cfg MeanReversionConfig

	mu      sync.Mutex
	targets map[string]*indicators.EWMA
}

func init() {
	Register("mean_reversion", func() Evaluator { return NewMeanReversion(DefaultMeanReversionConfig()) })
}

func NewMeanReversion(cfg MeanReversionConfig) *MeanReversion {
	return &MeanReversion{
		cfg:     cfg,
		targets: make(map[string]*indicators.EWMA),
	}
}

func (m *MeanReversion) Name() string { return "mean_reversion" }

func (m *MeanReversion) Forget(marketID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.targets, marketID)
}

// target folds the new mid into the EWMA fair value, seeding from the
// first observation. The target stays inside the valid price band.
func (m *MeanReversion) target(marketID string, mid float64) (float64, int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ewma, seen := m.targets[marketID]
	if !seen {
		ewma = indicators.NewEWMA(m.cfg.Alpha)
		m.targets[marketID] = ewma
	}
	t := market.Clamp01(ewma.Update(mid))
	n := ewma.Count()
	if m.cfg.MaxHistory > 0 && n > m.cfg.MaxHistory {
		n = m.cfg.MaxHistory
	}
	return t, n
}

func (m *MeanReversion) Evaluate(snap market.Snapshot) (Contribution, bool) {
	mid := snap.Mid()
	if mid <= 0 {
		return Contribution{}, false
	}

	target, n := m.target(snap.MarketID, mid)
	if n < 2 {
		// One observation tells us nothing about reversion yet.
		return Contribution{}, false
	}

	diff := target - mid
	if math.Abs(diff) < m.cfg.MinDeviation {
		return Contribution{}, false
	}

	if m.cfg.VetoOnMomentum {
		delta := snap.PriceChange24h
		if math.Abs(delta) >= m.cfg.MomentumThreshold && delta*diff > 0 {
			// The move that created the deviation is still running.
			return Contribution{}, false
		}
	}

	bias := clamp(diff/m.cfg.Sensitivity, -1, 1)
	conf := clamp(math.Abs(diff)/(m.cfg.Sensitivity*0.75), 0, 1)

	return Contribution{
		Name:       m.Name(),
		Bias:       bias,
		Confidence: conf,
		SizeHint:   1.0,
		Metadata: map[string]float64{
			"deviation": diff,
			"target":    target,
			"mid":       mid,
		},
	}, true
}
