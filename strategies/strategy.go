package strategies

import (
	"fmt"
	"sort"
	"time"

	"github.com/polymkt/trader/market"
)

// Contribution is one evaluator's opinion on a single snapshot.
// Bias is signed (-1 short yes / +1 long yes), Confidence in [0,1].
type Contribution struct {
	Name       string
	Bias       float64
	Confidence float64
	SizeHint   float64

	// Exclusive contributions bypass the consensus agreement count and
	// give their exit evaluators priority over baseline rules.
	Exclusive bool

	// ExpectedHold suggests how long the resulting position should be
	// given to play out before time-based exits apply.
	ExpectedHold time.Duration

	Metadata map[string]float64
}

// Evaluator scores one snapshot, abstaining by returning ok=false.
// Implementations may keep bounded per-market history but must never
// mutate the snapshot; Forget drops a market's history once resolved.
type Evaluator interface {
	Name() string
	Evaluate(snap market.Snapshot) (Contribution, bool)
	Forget(marketID string)
}

// Factory builds a configured evaluator instance.
type Factory func() Evaluator

var registry = map[string]Factory{}

// Register adds an evaluator factory under its name. Duplicate names
// panic at init time since that is always a programming error.
func Register(name string, f Factory) {
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("strategies: duplicate evaluator %q", name))
	}
	registry[name] = f
}

// Names lists the registered evaluators sorted for deterministic output.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ByName instantiates a registered evaluator.
func ByName(name string) (Evaluator, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown evaluator: %s", name)
	}
	return f(), nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
