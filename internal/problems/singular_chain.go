package problems

import (
	"github.com/jangwj7/dae-cpp/internal/csr"
	"github.com/jangwj7/dae-cpp/internal/dae"
)

// SingularChain is a 2-variable DAE with a singular mass matrix
// diag(1, 0):
//
//	x1' = -x1
//	 0  =  x1^2 - x2
//
// x1 decays exponentially and x2 is pinned to the algebraic constraint
// x2 = x1^2 at every accepted step regardless of step size or order,
// which is what the S4 scenario checks.
type SingularChain struct{}

func (SingularChain) Dim() int { return 2 }

func (SingularChain) Eval(x dae.State, t float64) dae.State {
	return dae.State{
		-x[0],
		x[0]*x[0] - x[1],
	}
}

func (SingularChain) Mass(b *csr.Builder) {
	b.Append(0, 0, 1)
}

func (SingularChain) Jacobian(b *csr.Builder, x dae.State, t float64) {
	b.Append(0, 0, -1)
	b.Append(1, 0, 2*x[0])
	b.Append(1, 1, -1)
}

// ConsistentInitialCondition returns a starting point already on the
// constraint manifold, x2 = x1^2.
func (SingularChain) ConsistentInitialCondition() dae.State {
	return dae.State{1, 1}
}
