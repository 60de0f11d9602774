package bdf

import "github.com/jangwj7/dae-cpp/internal/dae"

// KMax is the highest BDF order the history ring supports.
const KMax = 6

// History is the fixed-capacity ring of accepted states described in
// SPEC_FULL.md §3: cleared at solve start, one slot appended per
// accepted step, oldest discarded once the ring holds more than KMax
// states (callers take the current order's worth via Last).
type History struct {
	times  []float64
	states []dae.State
}

// NewHistory returns an empty history ring.
func NewHistory() *History { return &History{} }

// Push records a newly accepted (t, x) pair, newest first, trimming
// anything beyond KMax.
func (h *History) Push(t float64, x dae.State) {
	h.times = append([]float64{t}, h.times...)
	h.states = append([]dae.State{x.Clone()}, h.states...)
	if len(h.times) > KMax {
		h.times = h.times[:KMax]
		h.states = h.states[:KMax]
	}
}

// Len reports how many accepted states are currently retained.
func (h *History) Len() int { return len(h.times) }

// Last returns the k most recent (time, state) pairs, newest first. It
// panics if k exceeds Len(); callers are expected to bound k by the
// current order, which the step controller already bounds by history
// depth.
func (h *History) Last(k int) ([]float64, []dae.State) {
	return h.times[:k], h.states[:k]
}

// Clear empties the ring, as required at the start of every solve.
func (h *History) Clear() {
	h.times = nil
	h.states = nil
}
