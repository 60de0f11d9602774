package dae

import (
	"errors"
	"fmt"
)

// Sentinel errors for the unrecoverable (solve-local) failure category
// of §7. Recoverable, step-local failures (a single rejected step) never
// reach the caller; these are the categorized failures that do.
var (
	// ErrStepUnderflow indicates dt fell below Config.DtMin while the
	// controller was trying to recover from rejected steps.
	ErrStepUnderflow = errors.New("dae: step size underflow (below dt_min)")

	// ErrRejectionBudgetExceeded indicates the controller exhausted its
	// retry budget without accepting a step.
	ErrRejectionBudgetExceeded = errors.New("dae: exceeded step rejection budget")

	// ErrNonFiniteState indicates a NaN or Inf appeared in the state
	// vector or a callback's output.
	ErrNonFiniteState = errors.New("dae: non-finite state encountered")

	// ErrInconsistentPattern indicates a user-supplied Jacobian callback
	// returned a CSR structure inconsistent with the
	// pattern discovered on an earlier call. This is fatal: silently
	// accepting a new pattern risks a silently wrong answer (§9 open
	// question (b)).
	ErrInconsistentPattern = errors.New("dae: jacobian sparsity pattern changed between calls")

	// ErrNewtonDivergedRepeatedly indicates every retry at the smallest
	// permissible dt still diverged.
	ErrNewtonDivergedRepeatedly = errors.New("dae: newton iteration diverged at minimum step size")
)

// SolveError wraps one of the sentinel errors above with the step index
// and simulation time at which it was detected, following the same
// wrap-a-sentinel-with-context convention as dynamo.SimulationError in
// the teacher repository.
type SolveError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("dae: step %d (t=%g): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SolveError) Unwrap() error { return e.Wrapped }
