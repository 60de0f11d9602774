// Package jacobian implements the two Jacobian-delivery strategies
// described in SPEC_FULL.md §4.3: an analytic path that trusts a
// collaborator-supplied CSR builder, and a finite-difference path that
// estimates J column by column. Both share one pattern-stability
// contract: the sparsity structure discovered on the first call is
// assumed stable afterwards, and a later mismatch is a fatal,
// categorized failure (§9 open question (b)), never a silent re-pattern.
package jacobian

import (
	"fmt"
	"math"

	"github.com/jangwj7/dae-cpp/internal/csr"
	"github.com/jangwj7/dae-cpp/internal/dae"
)

// zeroEps is the magnitude below which a finite-difference entry is
// treated as structurally zero and dropped from the discovered pattern.
const zeroEps = 1e-300

// Engine delivers J = df/dx at (x, t). It does not form the step matrix
// G; the residual assembler does that by combining J with the mass
// matrix.
type Engine struct {
	dim      int
	analytic dae.AnalyticJacobian
	residual dae.Residual
	fdTol    float64

	pattern *csr.Matrix // fingerprint-only; values are stale by design
	keep    []map[int]bool
	evals   int
}

// NewAnalytic wraps a collaborator-supplied Jacobian callback.
func NewAnalytic(dim int, ajac dae.AnalyticJacobian) *Engine {
	return &Engine{dim: dim, analytic: ajac}
}

// NewFiniteDifference builds an engine that estimates J by perturbing
// one state component at a time by eps = fdTol * max(|x_i|, 1).
func NewFiniteDifference(dim int, residual dae.Residual, fdTol float64) *Engine {
	return &Engine{dim: dim, residual: residual, fdTol: fdTol}
}

// Evals returns the number of times Eval performed real work (an
// analytic call, or one full sweep of residual perturbations).
func (e *Engine) Evals() int { return e.evals }

// Eval returns J(x, t) in CSR form.
func (e *Engine) Eval(x dae.State, t float64) (*csr.Matrix, error) {
	var j *csr.Matrix
	var err error
	if e.analytic != nil {
		j, err = e.evalAnalytic(x, t)
	} else {
		j, err = e.evalFiniteDifference(x, t)
	}
	if err != nil {
		return nil, err
	}
	e.evals++

	if e.pattern == nil {
		e.pattern = j
	} else if !csr.SamePattern(e.pattern, j) {
		return nil, fmt.Errorf("jacobian: %w", dae.ErrInconsistentPattern)
	} else {
		e.pattern = j
	}
	return j, nil
}

func (e *Engine) evalAnalytic(x dae.State, t float64) (*csr.Matrix, error) {
	b := csr.NewBuilder(e.dim)
	e.analytic.Jacobian(b, x, t)
	j, err := b.Finalize()
	if err != nil {
		return nil, fmt.Errorf("jacobian: analytic callback produced an invalid matrix: %w", err)
	}
	if err := j.Validate(); err != nil {
		return nil, fmt.Errorf("jacobian: analytic callback produced an invalid matrix: %w", err)
	}
	return j, nil
}

func (e *Engine) evalFiniteDifference(x dae.State, t float64) (*csr.Matrix, error) {
	n := e.dim
	f0 := e.residual.Eval(x, t)

	cols := make([][]float64, n)
	for c := 0; c < n; c++ {
		if e.keep != nil && !anyRowWantsColumn(e.keep, c) {
			cols[c] = nil
			continue
		}
		eps := e.fdTol * math.Max(math.Abs(x[c]), 1)
		xp := x.Clone()
		xp[c] += eps
		fp := e.residual.Eval(xp, t)

		col := make([]float64, n)
		for r := 0; r < n; r++ {
			col[r] = (fp[r] - f0[r]) / eps
		}
		cols[c] = col
	}

	b := csr.NewBuilder(n)
	if e.keep == nil {
		// First call: discover the pattern by keeping every
		// non-negligible entry.
		e.keep = make([]map[int]bool, n)
		for r := 0; r < n; r++ {
			e.keep[r] = make(map[int]bool)
		}
		for c := 0; c < n; c++ {
			if cols[c] == nil {
				continue
			}
			for r := 0; r < n; r++ {
				if math.Abs(cols[c][r]) > zeroEps {
					e.keep[r][c] = true
					b.Append(r, c, cols[c][r])
				}
			}
		}
	} else {
		for c := 0; c < n; c++ {
			if cols[c] == nil {
				continue
			}
			for r := 0; r < n; r++ {
				if e.keep[r][c] {
					b.Append(r, c, cols[c][r])
				}
			}
		}
	}

	j, err := b.Finalize()
	if err != nil {
		return nil, fmt.Errorf("jacobian: finite-difference assembly failed: %w", err)
	}
	return j, nil
}

func anyRowWantsColumn(keep []map[int]bool, c int) bool {
	for _, row := range keep {
		if row[c] {
			return true
		}
	}
	return false
}
