// Package indicators provides small streaming statistics used by the
// strategy evaluators. Each indicator consumes one scalar sample at a
// time and never looks back over stored history.
package indicators

// EWMA is a streaming exponentially weighted moving average. The first
// sample seeds the average directly.
type EWMA struct {
	alpha float64
	value float64
	count int
}

// NewEWMA creates an average with the given smoothing factor. An alpha
// of 1 tracks the last sample exactly; smaller values smooth harder.
func NewEWMA(alpha float64) *EWMA {
	return &EWMA{alpha: alpha}
}

// Update folds one sample in and returns the new average.
func (e *EWMA) Update(x float64) float64 {
	if e.count == 0 {
		e.value = x
	} else {
		e.value += e.alpha * (x - e.value)
	}
	e.count++
	return e.value
}

// Value returns the current average, zero before any sample.
func (e *EWMA) Value() float64 { return e.value }

// Count reports how many samples have been folded in.
func (e *EWMA) Count() int { return e.count }

// Reset discards all state.
func (e *EWMA) Reset() {
	e.value = 0
	e.count = 0
}
