// Package risk implements the pre-trade guard chain: every approved
// intent has passed sizing caps, price sanity, depth, exposure, dedupe
// and the daily kill-switch.
package risk

// Violation codes produced by the guard chain.
const (
	CodeRiskRatio    = "risk_ratio"
	CodeLiquidity    = "liquidity"
	CodePriceGuard   = "price_guard"
	CodeDepth        = "depth"
	CodeSideExposure = "side_exposure"
	CodeDuplicate    = "duplicate_intent"
	CodeKillSwitch   = "kill_switch"
	CodeMinSize      = "min_size"
)

type Violation struct {
	Code string
	Msg  string
}

// Decision is the accumulated outcome of the guard chain. Guards
// annotate violations instead of returning errors; the intent proceeds
// only when Allowed survives every stage.
type Decision struct {
	Allowed    bool
	Violations []Violation

	// FinalSize is the (possibly clamped) notional the chain approved.
	FinalSize float64
	Clamped   bool

	// Recovery marks approvals made while the kill-switch is in its
	// post-cooldown recovery state.
	Recovery bool
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Reasons returns the violation codes, for intent metadata.
func (d *Decision) Reasons() []string {
	out := make([]string, 0, len(d.Violations))
	for _, v := range d.Violations {
		out = append(out, v.Code)
	}
	return out
}
