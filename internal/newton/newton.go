// Package newton implements the damped Newton loop of SPEC_FULL.md §4.5:
// repeatedly solve G*delta = -r and update x <- x + lambda*delta, with
// line-search damping and convergence/divergence/stall classification.
package newton

import (
	"errors"
	"math"

	"github.com/jangwj7/dae-cpp/internal/csr"
	"github.com/jangwj7/dae-cpp/internal/dae"
	"github.com/jangwj7/dae-cpp/internal/linsolve"
	"github.com/jangwj7/dae-cpp/internal/residual"
)

// Outcome classifies how a Newton solve ended.
type Outcome int

const (
	Converged Outcome = iota
	SlowConverged
	Diverged
	SingularJacobian
)

func (o Outcome) String() string {
	switch o {
	case Converged:
		return "converged"
	case SlowConverged:
		return "slow_converged"
	case Diverged:
		return "diverged"
	case SingularJacobian:
		return "singular_jac"
	default:
		return "unknown"
	}
}

// LambdaMin bounds how far the line search will back off. A finite trial
// point at LambdaMin is accepted even if the residual norm did not
// decrease; divergence is declared only when the trial points stay
// non-finite down past LambdaMin.
const LambdaMin = 1.0 / 64

// Params carries the subset of dae.Config the iterator needs, so this
// package does not import the CLI-facing config shape directly.
type Params struct {
	Atol          float64
	Rtol          float64
	MaxIterations int
}

// Iterator drives one Newton solve per BDF step.
type Iterator struct {
	Assembler *residual.Assembler
	Solver    *linsolve.Facade
	Params    Params
}

// Result is the outcome of one Solve call.
type Result struct {
	X          dae.State
	G          *csr.Matrix
	Iterations int
	Outcome    Outcome
}

// Solve runs the damped Newton loop starting from predictor x0. history
// holds the previous k accepted states (most recent first); alphas[0]
// multiplies the unknown iterate, alphas[1:] multiply history. cachedG,
// when non-nil and rebuildG is false, is reused for every iteration
// (modified-Newton / Shamanskii iteration) instead of refactorizing at
// every step.
func (it *Iterator) Solve(x0 dae.State, history []dae.State, alphas []float64, t float64, rebuildG bool, cachedG *csr.Matrix) Result {
	x := x0.Clone()
	g := cachedG

	prevDeltaNorm := math.Inf(1)
	growing := 0

	for iter := 0; iter < it.Params.MaxIterations; iter++ {
		r := it.Assembler.Eval(x, append([]dae.State{x}, history...), alphas, t)
		rNorm := r.Norm()

		if g == nil || (rebuildG && iter == 0) {
			var err error
			g, err = it.Assembler.StepMatrix(x, alphas[0], t)
			if err != nil {
				return Result{X: x, Outcome: SingularJacobian, Iterations: iter}
			}
			if err := it.Solver.Factorize(g); err != nil {
				if errors.Is(err, linsolve.ErrSingular) {
					return Result{X: x, G: g, Outcome: SingularJacobian, Iterations: iter}
				}
				return Result{X: x, G: g, Outcome: SingularJacobian, Iterations: iter}
			}
		}

		negR := make([]float64, len(r))
		for i, v := range r {
			negR[i] = -v
		}
		delta, err := it.Solver.Solve(negR)
		if err != nil {
			return Result{X: x, G: g, Outcome: SingularJacobian, Iterations: iter + 1}
		}

		lambda, xTry, newRNorm := it.lineSearch(x, delta, history, alphas, t, rNorm)
		if lambda < LambdaMin {
			return Result{X: x, G: g, Outcome: Diverged, Iterations: iter + 1}
		}
		x = xTry

		deltaNorm := dae.State(delta).Norm()
		if !x.IsValid() {
			return Result{X: x, G: g, Outcome: Diverged, Iterations: iter + 1}
		}

		weights := make([]float64, len(x))
		for i := range x {
			weights[i] = it.Params.Atol + it.Params.Rtol*math.Abs(x[i])
		}
		if dae.State(delta).WeightedNorm(weights) <= 1.0 {
			outcome := Converged
			if iter+1 > it.Params.MaxIterations/2 {
				outcome = SlowConverged
			}
			return Result{X: x, G: g, Outcome: outcome, Iterations: iter + 1}
		}

		if deltaNorm > prevDeltaNorm {
			growing++
			if growing >= 2 {
				return Result{X: x, G: g, Outcome: Diverged, Iterations: iter + 1}
			}
		} else {
			growing = 0
		}
		prevDeltaNorm = deltaNorm
		_ = newRNorm
	}
	return Result{X: x, G: g, Outcome: SlowConverged, Iterations: it.Params.MaxIterations}
}

// lineSearch halves lambda from 1 until the residual norm does not
// increase or lambda reaches LambdaMin; a non-finite trial point keeps
// halving and returns once lambda drops below LambdaMin.
func (it *Iterator) lineSearch(x dae.State, delta []float64, history []dae.State, alphas []float64, t float64, baseRNorm float64) (lambda float64, xTry dae.State, rNorm float64) {
	lambda = 1.0
	for {
		xTry = make(dae.State, len(x))
		for i := range x {
			xTry[i] = x[i] + lambda*delta[i]
		}
		if !xTry.IsValid() {
			lambda /= 2
			if lambda < LambdaMin {
				return lambda, xTry, math.Inf(1)
			}
			continue
		}
		rTry := it.Assembler.Eval(xTry, append([]dae.State{xTry}, history...), alphas, t)
		rNorm = rTry.Norm()
		if rNorm <= baseRNorm || lambda <= LambdaMin {
			return lambda, xTry, rNorm
		}
		lambda /= 2
	}
}
