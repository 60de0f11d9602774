package problems

import (
	"github.com/jangwj7/dae-cpp/internal/csr"
	"github.com/jangwj7/dae-cpp/internal/dae"
)

// BadPattern is a 2-variable, otherwise well-posed ODE whose analytic
// Jacobian callback deliberately reports a different sparsity pattern
// on its second call than on its first. It exists solely to exercise
// the solver's fatal pattern-mismatch path (dae.ErrInconsistentPattern):
// a correct integrator must stop with a categorized, unrecoverable
// error rather than silently re-pattern and produce a quietly wrong
// answer.
type BadPattern struct {
	calls int
}

func (*BadPattern) Dim() int { return 2 }

func (*BadPattern) Eval(x dae.State, t float64) dae.State {
	return dae.State{-x[0], -x[1]}
}

// Jacobian returns the honest diagonal pattern on the first call and an
// extra off-diagonal entry on every call after that.
func (p *BadPattern) Jacobian(b *csr.Builder, x dae.State, t float64) {
	p.calls++
	b.Append(0, 0, -1)
	b.Append(1, 1, -1)
	if p.calls > 1 {
		b.Append(0, 1, 0.01)
	}
}
