package strategies

import (
	"math"
	"time"

	"github.com/polymkt/trader/market"
)

// MicroArbMode selects how the reference price is sourced.
type MicroArbMode string

const (
	// MicroArbInternal trades against a derived cross-market reference.
	MicroArbInternal MicroArbMode = "internal"
	// MicroArbExternal trades only against observed external quotes.
	MicroArbExternal MicroArbMode = "external"
)

// MicroArbConfig tunes the micro-arbitrage evaluator.
type MicroArbConfig struct {
	Weight float64      `json:"weight" yaml:"weight"`
	Mode   MicroArbMode `json:"mode" yaml:"mode"`

	TakerFee    float64 `json:"taker_fee" yaml:"taker_fee"`
	ExternalFee float64 `json:"external_fee" yaml:"external_fee"`

	// MinNetEdge is the minimum edge after fees before acting in
	// external mode; InternalEdgeThreshold is the internal equivalent.
	MinNetEdge            float64 `json:"min_net_edge" yaml:"min_net_edge"`
	InternalEdgeThreshold float64 `json:"internal_edge_threshold" yaml:"internal_edge_threshold"`

	// LocalSpreadCap rejects markets whose own book is too wide to
	// cross economically; ExternalSpreadMax bounds the external quote
	// width (a crossed or wider-than-max external book is not
	// trusted).
	LocalSpreadCap    float64 `json:"local_spread_cap" yaml:"local_spread_cap"`
	ExternalSpreadMax float64 `json:"external_spread_max" yaml:"external_spread_max"`

	MinDepthNotional float64 `json:"min_depth_notional" yaml:"min_depth_notional"`
}

func DefaultMicroArbConfig() MicroArbConfig {
	return MicroArbConfig{
		Weight:                1.0,
		Mode:                  MicroArbExternal,
		TakerFee:              0.005,
		ExternalFee:           0.005,
		MinNetEdge:            0.005,
		InternalEdgeThreshold: 0.015,
		LocalSpreadCap:        0.05,
		ExternalSpreadMax:     0.05,
		MinDepthNotional:      50,
	}
}

// MicroArb looks for price discrepancies between the local book and an
// external reference, net of fees. Its contributions are exclusive:
// they stand alone rather than joining a consensus vote.
type MicroArb struct {
	cfg MicroArbConfig
}

func init() {
	Register("micro_arbitrage", func() Evaluator { return NewMicroArb(DefaultMicroArbConfig()) })
}

func NewMicroArb(cfg MicroArbConfig) *MicroArb { return &MicroArb{cfg: cfg} }

func (m *MicroArb) Name() string           { return "micro_arbitrage" }
func (m *MicroArb) Forget(marketID string) {}

func (m *MicroArb) Evaluate(snap market.Snapshot) (Contribution, bool) {
	if snap.Bid <= 0 || snap.Ask <= 0 {
		return Contribution{}, false
	}
	if m.cfg.Mode == MicroArbInternal {
		return m.evaluateInternal(snap)
	}
	return m.evaluateExternal(snap)
}

func (m *MicroArb) evaluateExternal(snap market.Snapshot) (Contribution, bool) {
	if !snap.ExternalReal {
		return Contribution{}, false
	}
	if snap.Spread() > m.cfg.LocalSpreadCap {
		return Contribution{}, false
	}
	extSpread := snap.ExternalSpread()
	if extSpread <= 0 || extSpread > m.cfg.ExternalSpreadMax {
		return Contribution{}, false
	}
	if snap.DepthYesNotional < m.cfg.MinDepthNotional && snap.DepthNoNotional < m.cfg.MinDepthNotional {
		return Contribution{}, false
	}

	// Buy locally, offload externally; or the reverse.
	buyEdge := (snap.ExternalBid - snap.Ask) - m.cfg.TakerFee
	sellEdge := (snap.Bid - snap.ExternalAsk) - m.cfg.TakerFee

	switch {
	case buyEdge > m.cfg.MinNetEdge:
		return m.contribution(1, buyEdge, "external"), true
	case sellEdge > m.cfg.MinNetEdge:
		return m.contribution(-1, sellEdge, "external"), true
	}
	return Contribution{}, false
}

func (m *MicroArb) evaluateInternal(snap market.Snapshot) (Contribution, bool) {
	ref := (snap.ExternalBid + snap.ExternalAsk) / 2
	if ref <= 0 {
		return Contribution{}, false
	}
	fees := m.cfg.TakerFee + m.cfg.ExternalFee
	longEdge := ref - snap.Ask - fees
	shortEdge := snap.Bid - ref - fees

	switch {
	case longEdge > m.cfg.InternalEdgeThreshold:
		return m.contribution(1, longEdge, "internal"), true
	case shortEdge > m.cfg.InternalEdgeThreshold:
		return m.contribution(-1, shortEdge, "internal"), true
	}
	return Contribution{}, false
}

func (m *MicroArb) contribution(sign, edge float64, mode string) Contribution {
	conf := clamp(math.Abs(edge)/(m.cfg.MinNetEdge*4), 0.3, 1)
	modeVal := 0.0
	if mode == "internal" {
		modeVal = 1
	}
	return Contribution{
		Name:         m.Name(),
		Bias:         sign,
		Confidence:   conf,
		SizeHint:     1.0,
		Exclusive:    true,
		ExpectedHold: 5 * time.Minute,
		Metadata: map[string]float64{
			"edge":     edge * sign,
			"net_edge": edge,
			"internal": modeVal,
		},
	}
}
