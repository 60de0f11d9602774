// Package dae defines the capability set a collaborator implements to
// drive the solver in internal/bdf: a residual, an optional analytic
// Jacobian, a mass matrix, and an optional observer. The interfaces are
// the stable contract described in SPEC_FULL.md §9 ("polymorphism of
// callbacks") — tagged function-object records would work as well, but
// small interfaces are the idiomatic Go rendering of the same
// requirement.
//
// # Example
//
//	prob := problems.NewRobertson()
//	cfg := dae.DefaultConfig()
//	result, err := bdf.Solve(prob, x0, t1, cfg, nil)
//
// # Thread Safety
//
// A Residual implementation is called synchronously from a single
// goroutine for the duration of one Solve call; it need not be
// reentrant.
package dae

import (
	"fmt"
	"math"

	"github.com/jangwj7/dae-cpp/internal/csr"
)

// State is a dense, caller-owned state vector of length N.
type State []float64

// Clone returns an independent copy of s.
func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

// IsValid reports whether every component is finite.
func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Norm returns the Euclidean norm of s.
func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// WeightedNorm returns the RMS norm of s scaled component-wise by w,
// i.e. sqrt(mean((s_i / w_i)^2)), the norm the Newton iterator's
// convergence test (§4.5) is defined against.
func (s State) WeightedNorm(w []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	sum := 0.0
	for i, v := range s {
		r := v / w[i]
		sum += r * r
	}
	return math.Sqrt(sum / float64(len(s)))
}

// Residual evaluates f(x, t) in M*x' = f(x, t). Implementations must be
// pure with respect to solver-visible state.
type Residual interface {
	Eval(x State, t float64) State
	Dim() int
}

// MassProvider fills a CSR builder with the (possibly singular) mass
// matrix. Called exactly once per solve and cached by the core for the
// remainder of that solve.
type MassProvider interface {
	Mass(b *csr.Builder)
}

// AnalyticJacobian is implemented by a Residual that can also supply
// J = df/dx directly instead of relying on finite differences.
type AnalyticJacobian interface {
	Jacobian(b *csr.Builder, x State, t float64)
}

// Observer receives (x, t) after a step is accepted and committed to
// history. It is a pull callback from the core: no inversion of control
// beyond "tell me when a step lands" is implied.
type Observer interface {
	OnAccept(x State, t float64)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(x State, t float64)

func (f ObserverFunc) OnAccept(x State, t float64) { f(x, t) }

// TimeStepping selects the controller policy described in §4.7.
type TimeStepping int

const (
	// Fixed keeps dt at Config.DtInit on every accepted step, including
	// slow-convergence steps. A rejected step still shrinks dt by
	// DtDecreaseFactor, and dt then stays at the reduced value.
	Fixed TimeStepping = 0
	// Adaptive adjusts dt. The BDF order ramps up to BDFOrder and drops
	// on rejection, but is not lowered on slow convergence.
	Adaptive TimeStepping = 1
	// AdaptiveOrder adjusts dt and, in addition to the ramp and the drop
	// on rejection, lowers the BDF order on slow convergence.
	AdaptiveOrder TimeStepping = 2
)

// Config is the flat configuration record of SPEC_FULL.md §6, loadable
// from YAML via internal/config.
type Config struct {
	T0       float64 `yaml:"t0"`
	DtInit   float64 `yaml:"dt_init"`
	DtMin    float64 `yaml:"dt_min"`
	DtMax    float64 `yaml:"dt_max"`
	BDFOrder int     `yaml:"bdf_order"`

	Atol float64 `yaml:"atol"`
	Rtol float64 `yaml:"rtol"`

	MaxNewtonIter int          `yaml:"max_newton_iter"`
	TimeStepping  TimeStepping `yaml:"time_stepping"`

	DtIncreaseThreshold int     `yaml:"dt_increase_threshold"`
	DtIncreaseFactor    float64 `yaml:"dt_increase_factor"`
	DtDecreaseFactor    float64 `yaml:"dt_decrease_factor"`

	FdTol float64 `yaml:"fd_tol"`

	Verbosity int `yaml:"verbosity"`

	MaxRejections int `yaml:"max_rejections"`
}

// DefaultConfig returns the double-precision defaults. Single-precision
// builds (the dae_single build tag, see precision_single.go) relax the
// tolerance defaults by several orders of magnitude per §6.
func DefaultConfig() Config {
	return Config{
		T0:                  0,
		DtInit:              1e-6,
		DtMin:               1e-14,
		DtMax:               math.Inf(1),
		BDFOrder:            5,
		Atol:                atolDefault,
		Rtol:                rtolDefault,
		MaxNewtonIter:       10,
		TimeStepping:        AdaptiveOrder,
		DtIncreaseThreshold: 3,
		DtIncreaseFactor:    2.0,
		DtDecreaseFactor:    0.5,
		FdTol:               fdTolDefault,
		Verbosity:           0,
		MaxRejections:       50,
	}
}

// Validate reports programmer errors (§7): these must be caught before
// any integration begins, never surfaced mid-solve.
func (c Config) Validate() error {
	if c.BDFOrder < 1 || c.BDFOrder > 6 {
		return fmt.Errorf("dae: bdf_order must be in [1,6], got %d", c.BDFOrder)
	}
	if c.Atol < 0 || c.Rtol < 0 {
		return fmt.Errorf("dae: tolerances must be non-negative")
	}
	if c.DtInit <= 0 {
		return fmt.Errorf("dae: dt_init must be positive")
	}
	if c.DtMin < 0 || (c.DtMax > 0 && c.DtMin > c.DtMax) {
		return fmt.Errorf("dae: dt_min/dt_max out of order")
	}
	if c.MaxNewtonIter < 1 {
		return fmt.Errorf("dae: max_newton_iter must be >= 1")
	}
	if c.DtIncreaseFactor <= 1 {
		return fmt.Errorf("dae: dt_increase_factor must be > 1")
	}
	if c.DtDecreaseFactor <= 0 || c.DtDecreaseFactor >= 1 {
		return fmt.Errorf("dae: dt_decrease_factor must be in (0,1)")
	}
	return nil
}

// Counters collects the diagnostic totals mentioned in §3 ("step
// state"): total steps, Newton iterations, rejections, Jacobian
// evaluations and linear solves.
type Counters struct {
	Steps            int
	Rejections       int
	NewtonIterations int
	JacobianEvals    int
	LinearSolves     int
	GRebuilds        int
	FinalOrder       int
}

// Result is the outcome of one Solve call: the final state is also
// written back into the caller's State in place, per §3's ownership
// rule, but Result additionally carries the diagnostics a caller or the
// storage layer needs.
type Result struct {
	Final    State
	FinalT   float64
	Counters Counters
}
