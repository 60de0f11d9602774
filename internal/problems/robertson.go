// Package problems collects the concrete dae.Residual implementations
// used by the CLI, the scenario suite and the benchmark command: the
// Robertson chemical kinetics DAE, a scalar stiff decay, a diagonal
// multi-rate system, a singular-mass constraint chain, a 1-D
// drift-diffusion/Poisson DAE and a deliberately misbehaving Jacobian
// used to exercise the solver's pattern-mismatch failure path.
package problems

import (
	"github.com/jangwj7/dae-cpp/internal/csr"
	"github.com/jangwj7/dae-cpp/internal/dae"
)

// Robertson is the classic Robertson chemical-kinetics DAE (see
// MATLAB's ode15s documentation):
//
//	x1' = -0.04*x1 + 1e4*x2*x3
//	x2' =  0.04*x1 - 1e4*x2*x3 - 3e7*x2^2
//	 0  =  x1 + x2 + x3 - 1
//
// The third equation is a conservation law, not a differential
// equation: the mass matrix is diag(1, 1, 0). x1+x2+x3 should equal 1
// to within solver tolerance at every accepted step.
type Robertson struct{}

func (Robertson) Dim() int { return 3 }

func (Robertson) Eval(x dae.State, t float64) dae.State {
	return dae.State{
		-0.04*x[0] + 1.0e4*x[1]*x[2],
		0.04*x[0] - 1.0e4*x[1]*x[2] - 3.0e7*x[1]*x[1],
		x[0] + x[1] + x[2] - 1,
	}
}

func (Robertson) Mass(b *csr.Builder) {
	b.Append(0, 0, 1)
	b.Append(1, 1, 1)
}

func (Robertson) Jacobian(b *csr.Builder, x dae.State, t float64) {
	b.Append(0, 0, -0.04)
	b.Append(0, 1, 1.0e4*x[2])
	b.Append(0, 2, 1.0e4*x[1])
	b.Append(1, 0, 0.04)
	b.Append(1, 1, -1.0e4*x[2]-6.0e7*x[1])
	b.Append(1, 2, -1.0e4*x[1])
	b.Append(2, 0, 1)
	b.Append(2, 1, 1)
	b.Append(2, 2, 1)
}

// RobertsonInitialCondition is the textbook (slightly inconsistent,
// per the original implementation's comment) starting point x3 =
// 1e-3, used to exercise initialization from an off-manifold point.
func RobertsonInitialCondition() dae.State {
	return dae.State{1, 0, 1e-3}
}
