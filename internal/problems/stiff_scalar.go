package problems

import (
	"math"

	"github.com/jangwj7/dae-cpp/internal/csr"
	"github.com/jangwj7/dae-cpp/internal/dae"
)

// StiffScalar is x' = -Lambda*x with a large, configurable Lambda, a
// one-variable linear ODE whose closed form x(t) = x0*exp(-Lambda*t) is
// used to check the solver's accepted solution stays within its
// requested tolerance band, not merely that it runs.
type StiffScalar struct {
	Lambda float64
}

// NewStiffScalar returns the standard S2 instance, Lambda = 1e6.
func NewStiffScalar() StiffScalar { return StiffScalar{Lambda: 1e6} }

func (StiffScalar) Dim() int { return 1 }

func (p StiffScalar) Eval(x dae.State, t float64) dae.State {
	return dae.State{-p.Lambda * x[0]}
}

func (p StiffScalar) Jacobian(b *csr.Builder, x dae.State, t float64) {
	b.Append(0, 0, -p.Lambda)
}

// Exact returns the closed-form solution at t given initial value x0.
func (p StiffScalar) Exact(x0, t float64) float64 {
	return x0 * math.Exp(-p.Lambda*t)
}
