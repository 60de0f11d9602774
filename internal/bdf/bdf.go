// Package bdf implements the variable-order, variable-step BDF time
// integrator of SPEC_FULL.md §4.6: it drives the controller, the Newton
// iterator and the history ring through one complete Solve call.
package bdf

import (
	"errors"
	"fmt"
	"math"

	"github.com/jangwj7/dae-cpp/internal/csr"
	"github.com/jangwj7/dae-cpp/internal/dae"
	"github.com/jangwj7/dae-cpp/internal/jacobian"
	"github.com/jangwj7/dae-cpp/internal/linsolve"
	"github.com/jangwj7/dae-cpp/internal/newton"
	"github.com/jangwj7/dae-cpp/internal/residual"
	"github.com/jangwj7/dae-cpp/internal/stepctrl"
)

// dtRebuildRatio bounds how much dt may drift since G was last built
// before the residual assembler is forced to rebuild it (§4.4 policy
// (ii)).
const dtRebuildRatio = 0.1

// easyIterThreshold is the Newton-iteration count at or below which a
// converged step is classified "easy" for the controller's increase
// policy.
const easyIterThreshold = 2

// Solve integrates problem from x0 at t0 (cfg.T0) to t1, overwriting x0
// in place with the solution at t1, per §3's ownership rule. obs may be
// nil.
func Solve(problem dae.Residual, x0 dae.State, t1 float64, cfg dae.Config, obs dae.Observer) (dae.Result, error) {
	if err := cfg.Validate(); err != nil {
		return dae.Result{}, err
	}
	if problem == nil {
		return dae.Result{}, fmt.Errorf("dae: problem must not be nil")
	}
	n := problem.Dim()
	if n <= 0 {
		return dae.Result{}, fmt.Errorf("dae: problem dimension must be positive, got %d", n)
	}
	if len(x0) != n {
		return dae.Result{}, fmt.Errorf("dae: initial state has length %d, want %d", len(x0), n)
	}

	mass, err := buildMass(problem, n)
	if err != nil {
		return dae.Result{}, err
	}

	var jacEng *jacobian.Engine
	if aj, ok := problem.(dae.AnalyticJacobian); ok {
		jacEng = jacobian.NewAnalytic(n, aj)
	} else {
		jacEng = jacobian.NewFiniteDifference(n, problem, cfg.FdTol)
	}

	asm := residual.New(mass, problem, jacEng)
	solver := linsolve.New()
	it := &newton.Iterator{
		Assembler: asm,
		Solver:    solver,
		Params: newton.Params{
			Atol:          cfg.Atol,
			Rtol:          cfg.Rtol,
			MaxIterations: cfg.MaxNewtonIter,
		},
	}
	ctrl := stepctrl.New(cfg)
	hist := NewHistory()

	t := cfg.T0
	x := x0.Clone()
	hist.Push(t, x)
	// The initial condition is not an "accepted step" (invariant 2); the
	// observer is not called for it.

	dt := cfg.DtInit
	order := 1
	counters := dae.Counters{}

	var cachedG *csr.Matrix
	lastBuiltDt, lastBuiltOrder := 0.0, 0
	forceRebuildNext := false

	for t < t1 {
		remaining := t1 - t
		stepDt := dt
		final := false
		if stepDt >= remaining {
			stepDt = remaining
			final = true
		}
		if !final && stepDt < cfg.DtMin {
			return dae.Result{Final: x, FinalT: t, Counters: counters},
				&dae.SolveError{Step: counters.Steps, Time: t, Wrapped: dae.ErrStepUnderflow}
		}

		k := order
		if k > hist.Len() {
			k = hist.Len()
		}
		if k > KMax {
			k = KMax
		}
		histTimes, histStates := hist.Last(k)

		tNext := t + stepDt
		alphas := Coefficients(tNext, histTimes, k)
		predictor := Predictor(tNext, histTimes, histStates, k)

		rebuild := lastBuiltOrder == 0 ||
			k != lastBuiltOrder ||
			math.Abs(stepDt-lastBuiltDt) > dtRebuildRatio*lastBuiltDt ||
			forceRebuildNext

		result := it.Solve(predictor, histStates, alphas, tNext, rebuild, orNil(rebuild, cachedG))
		counters.NewtonIterations += result.Iterations
		counters.JacobianEvals = jacEng.Evals()
		if result.G != nil {
			counters.LinearSolves += result.Iterations
		}
		if rebuild {
			counters.GRebuilds++
		}

		forceRebuildNext = result.Outcome == newton.SlowConverged

		sig := classify(result.Outcome, result.Iterations)
		decision := ctrl.Decide(sig, stepDt, k, counters.Steps)
		if decision.Err != nil {
			wrapped := decision.Err
			// The controller reports only dt underflow or an exhausted
			// rejection budget; if dt underflowed and the underlying
			// cause was repeated Newton divergence rather than a
			// singular Jacobian, report the more specific sentinel.
			if result.Outcome == newton.Diverged && errors.Is(wrapped, dae.ErrStepUnderflow) {
				wrapped = dae.ErrNewtonDivergedRepeatedly
			}
			return dae.Result{Final: x, FinalT: t, Counters: counters},
				&dae.SolveError{Step: counters.Steps, Time: t, Wrapped: wrapped}
		}

		if decision.Accept {
			if !result.X.IsValid() {
				return dae.Result{Final: x, FinalT: t, Counters: counters},
					&dae.SolveError{Step: counters.Steps, Time: t, Wrapped: dae.ErrNonFiniteState}
			}
			x = result.X
			if final {
				t = t1
			} else {
				t = tNext
			}
			hist.Push(t, x)
			counters.Steps++
			counters.FinalOrder = k
			if obs != nil {
				obs.OnAccept(x, t)
			}
			cachedG = result.G
			lastBuiltDt, lastBuiltOrder = stepDt, k
			dt = decision.Dt
			order = decision.Order
		} else {
			counters.Rejections++
			dt = decision.Dt
			order = decision.Order
		}
	}

	copy(x0, x)
	return dae.Result{Final: x, FinalT: t, Counters: counters}, nil
}

func classify(outcome newton.Outcome, iterations int) stepctrl.Signal {
	switch outcome {
	case newton.Converged:
		if iterations <= easyIterThreshold {
			return stepctrl.ConvergedEasily
		}
		return stepctrl.ConvergedNormal
	case newton.SlowConverged:
		return stepctrl.Slow
	case newton.Diverged:
		return stepctrl.Failed
	case newton.SingularJacobian:
		return stepctrl.Singular
	default:
		return stepctrl.Failed
	}
}

func buildMass(problem dae.Residual, n int) (*csr.Matrix, error) {
	mp, ok := problem.(dae.MassProvider)
	if !ok {
		return csr.Identity(n), nil
	}
	b := csr.NewBuilder(n)
	mp.Mass(b)
	m, err := b.Finalize()
	if err != nil {
		return nil, fmt.Errorf("dae: mass matrix callback produced an invalid matrix: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("dae: mass matrix callback produced an invalid matrix: %w", err)
	}
	if m.N != n {
		return nil, fmt.Errorf("dae: mass matrix size %d does not match problem dimension %d", m.N, n)
	}
	return m, nil
}

func orNil(rebuild bool, g *csr.Matrix) *csr.Matrix {
	if rebuild {
		return nil
	}
	return g
}
