package backtest

import (
	"fmt"

	"github.com/polymkt/trader/pricing"
)

// SweepSpec is the parameter grid: the cross product of holding
// horizons and maker/taker offsets, under one pricing model.
type SweepSpec struct {
	Model           pricing.Model `json:"model" yaml:"model"`
	HoldingSeconds  []int         `json:"holding_seconds" yaml:"holding_seconds"`
	MakerOffsetsBps []float64     `json:"maker_offsets_bps" yaml:"maker_offsets_bps"`
	TakerOffsetsBps []float64     `json:"taker_offsets_bps" yaml:"taker_offsets_bps"`
	FeeRate         float64       `json:"fee_rate" yaml:"fee_rate"`
	InitialBalance  float64       `json:"initial_balance" yaml:"initial_balance"`
}

// Points expands the grid. Empty offset lists mean a single zero
// offset so a bare holding sweep still runs.
func (s SweepSpec) Points() []Params {
	makers := s.MakerOffsetsBps
	if len(makers) == 0 {
		makers = []float64{0}
	}
	takers := s.TakerOffsetsBps
	if len(takers) == 0 {
		takers = []float64{0}
	}
	var out []Params
	for _, h := range s.HoldingSeconds {
		for _, m := range makers {
			for _, t := range takers {
				out = append(out, Params{
					HoldingSeconds: h,
					Pricing: pricing.Config{
						Model:          s.Model,
						MakerOffsetBps: m,
						TakerOffsetBps: t,
					},
					FeeRate:        s.FeeRate,
					InitialBalance: s.InitialBalance,
				})
			}
		}
	}
	return out
}

// Sweep runs every parameter point and optionally appends each result
// to the ledger at ledgerPath.
func Sweep(r *Runner, spec SweepSpec, tag, ledgerPath string) ([]Result, error) {
	points := spec.Points()
	results := make([]Result, 0, len(points))
	for i, p := range points {
		res := r.Run(p, fmt.Sprintf("%s-%03d", tag, i))
		if ledgerPath != "" {
			if err := AppendLedger(ledgerPath, res); err != nil {
				return results, err
			}
		}
		results = append(results, res)
	}
	return results, nil
}
