package newton

import (
	"math"
	"testing"

	"github.com/jangwj7/dae-cpp/internal/csr"
	"github.com/jangwj7/dae-cpp/internal/dae"
	"github.com/jangwj7/dae-cpp/internal/jacobian"
	"github.com/jangwj7/dae-cpp/internal/linsolve"
	"github.com/jangwj7/dae-cpp/internal/residual"
)

// decayResidual implements f(x) = -x, whose BDF1 step equation
// (x - x_prev)/dt = -x has the exact solution x = x_prev/(1+dt).
type decayResidual struct{}

func (decayResidual) Dim() int { return 1 }
func (decayResidual) Eval(x dae.State, t float64) dae.State {
	return dae.State{-x[0]}
}

func (decayResidual) Jacobian(b *csr.Builder, x dae.State, t float64) {
	b.Append(0, 0, -1.0)
}

func TestNewtonConvergesOnLinearDecay(t *testing.T) {
	res := decayResidual{}
	mass := csr.Identity(1)
	jacEng := jacobian.NewAnalytic(1, res)
	asm := residual.New(mass, res, jacEng)

	it := &Iterator{
		Assembler: asm,
		Solver:    linsolve.New(),
		Params:    Params{Atol: 1e-12, Rtol: 1e-10, MaxIterations: 20},
	}

	dt := 0.1
	alphas := []float64{1 / dt, -1 / dt} // BDF1: (x - xprev)/dt
	history := []dae.State{{1.0}}

	result := it.Solve(dae.State{1.0}, history, alphas, 0.1, true, nil)
	if result.Outcome != Converged && result.Outcome != SlowConverged {
		t.Fatalf("expected convergence, got %v", result.Outcome)
	}
	want := 1.0 / (1 + dt)
	if math.Abs(result.X[0]-want) > 1e-8 {
		t.Errorf("x = %v, want %v", result.X[0], want)
	}
}

type singularResidual struct{}

func (singularResidual) Dim() int                           { return 2 }
func (singularResidual) Eval(x dae.State, t float64) dae.State { return dae.State{x[0] + x[1], x[0] + x[1]} }
func (singularResidual) Jacobian(b *csr.Builder, x dae.State, t float64) {
	b.Append(0, 0, 1)
	b.Append(0, 1, 1)
	b.Append(1, 0, 1)
	b.Append(1, 1, 1)
}

func TestNewtonReportsSingularJacobian(t *testing.T) {
	res := singularResidual{}
	mass := csr.New(2) // zero mass -> G = -J, still singular since J is rank-deficient
	mass.Ia = []int{0, 0, 0}
	jacEng := jacobian.NewAnalytic(2, res)
	asm := residual.New(mass, res, jacEng)

	it := &Iterator{
		Assembler: asm,
		Solver:    linsolve.New(),
		Params:    Params{Atol: 1e-10, Rtol: 1e-10, MaxIterations: 5},
	}
	result := it.Solve(dae.State{1, 1}, []dae.State{{1, 1}}, []float64{1, -1}, 0, true, nil)
	if result.Outcome != SingularJacobian {
		t.Fatalf("expected SingularJacobian, got %v", result.Outcome)
	}
}
