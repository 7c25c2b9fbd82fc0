package risk

import (
	"fmt"
	"math"
	"sort"

	"github.com/polymkt/trader/market"
)

// RatioConfig caps order notional against balance and portfolio VaR.
type RatioConfig struct {
	MaxSingleOrderRatio float64 `json:"max_single_order_ratio" yaml:"max_single_order_ratio"`
	MaxVarRatio         float64 `json:"max_var_ratio" yaml:"max_var_ratio"`
	MinLiquidity        float64 `json:"min_liquidity" yaml:"min_liquidity"`
	NotionalStep        float64 `json:"notional_step" yaml:"notional_step"`
	MinPosition         float64 `json:"min_position" yaml:"min_position"`
}

func DefaultRatioConfig() RatioConfig {
	return RatioConfig{
		MaxSingleOrderRatio: 0.05,
		MaxVarRatio:         0.10,
		MinLiquidity:        100,
		NotionalStep:        1,
		MinPosition:         10,
	}
}

// historicalVar returns |p5| of the return sample, the loss magnitude
// used to translate a VaR budget into notional. With no history the
// worst plausible binary-market loss applies.
func historicalVar(returns []float64) float64 {
	if len(returns) == 0 {
		return 0.9
	}
	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)
	idx := int(math.Floor(0.05 * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	v := math.Abs(sorted[idx])
	if v <= 0 {
		return 0.9
	}
	return v
}

// checkRatio applies balance-ratio, VaR and liquidity caps, returning
// the admitted size. The size is floored to the notional step.
func checkRatio(cfg RatioConfig, d *Decision, size, balance float64, returns []float64, snap market.Snapshot, side market.Side) float64 {
	capLiq := balance * cfg.MaxSingleOrderRatio

	hv := historicalVar(returns)
	capVar := balance * cfg.MaxVarRatio / hv

	admitted := size
	if admitted > capLiq {
		admitted = capLiq
		d.Clamped = true
	}
	if admitted > capVar {
		admitted = capVar
		d.Clamped = true
	}

	if depth := snap.DepthFor(side); depth > 0 && depth < cfg.MinLiquidity {
		d.add(CodeLiquidity, fmt.Sprintf("depth %.2f below minimum liquidity %.2f", depth, cfg.MinLiquidity))
	}

	if cfg.NotionalStep > 0 {
		admitted = math.Floor(admitted/cfg.NotionalStep) * cfg.NotionalStep
	}
	if admitted < cfg.MinPosition {
		d.add(CodeRiskRatio, fmt.Sprintf("admitted size %.2f below minimum position %.2f (caps liq=%.2f var=%.2f)",
			admitted, cfg.MinPosition, capLiq, capVar))
	}
	return admitted
}
