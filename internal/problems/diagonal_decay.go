package problems

import (
	"math"

	"github.com/jangwj7/dae-cpp/internal/csr"
	"github.com/jangwj7/dae-cpp/internal/dae"
)

// DiagonalDecay is an N-variable identity-mass linear system
// x_i' = -lambda_i * x_i with geometrically spaced eigenvalues
// lambda_i = 10^-i, i = 0..N-1. Its components decay at widely
// different, mild rates, giving the order controller room to ramp past
// order 2 once the slower components dominate -- exactly the
// regression the S3 scenario checks.
type DiagonalDecay struct {
	Lambda []float64
}

// NewDiagonalDecay builds the standard S3 instance with n components,
// lambda_i = 10^-i.
func NewDiagonalDecay(n int) DiagonalDecay {
	lambda := make([]float64, n)
	for i := range lambda {
		lambda[i] = math.Pow(10, float64(-i))
	}
	return DiagonalDecay{Lambda: lambda}
}

func (p DiagonalDecay) Dim() int { return len(p.Lambda) }

func (p DiagonalDecay) Eval(x dae.State, t float64) dae.State {
	f := make(dae.State, len(x))
	for i, xi := range x {
		f[i] = -p.Lambda[i] * xi
	}
	return f
}

func (p DiagonalDecay) Jacobian(b *csr.Builder, x dae.State, t float64) {
	for i, l := range p.Lambda {
		b.Append(i, i, -l)
	}
}

// InitialCondition returns the all-ones starting vector used by S3.
func (p DiagonalDecay) InitialCondition() dae.State {
	x := make(dae.State, len(p.Lambda))
	for i := range x {
		x[i] = 1
	}
	return x
}

// Exact returns component i's closed-form value x0_i*exp(-lambda_i*t).
func (p DiagonalDecay) Exact(x0 dae.State, i int, t float64) float64 {
	return x0[i] * math.Exp(-p.Lambda[i]*t)
}
