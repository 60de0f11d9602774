package jacobian

import (
	"errors"
	"math"
	"testing"

	"github.com/jangwj7/dae-cpp/internal/csr"
	"github.com/jangwj7/dae-cpp/internal/dae"
)

// linearResidual implements f(x) = A*x for a fixed dense A, so its exact
// Jacobian is A itself -- a simple check that finite differences converge.
type linearResidual struct {
	a [][]float64
}

func (r *linearResidual) Dim() int { return len(r.a) }

func (r *linearResidual) Eval(x dae.State, t float64) dae.State {
	n := len(r.a)
	f := make(dae.State, n)
	for i := 0; i < n; i++ {
		sum := 0.0
		for j := 0; j < n; j++ {
			sum += r.a[i][j] * x[j]
		}
		f[i] = sum
	}
	return f
}

func TestFiniteDifferenceMatchesLinearOperator(t *testing.T) {
	a := [][]float64{{2, -1}, {0, 3}}
	res := &linearResidual{a: a}
	eng := NewFiniteDifference(2, res, 1e-6)

	j, err := eng.Eval(dae.State{1, 1}, 0)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	for i := range a {
		cols, vals := j.Row(i)
		got := make(map[int]float64)
		for k, c := range cols {
			got[c] = vals[k]
		}
		for jj, want := range a[i] {
			if want == 0 {
				continue
			}
			if math.Abs(got[jj]-want) > 1e-4 {
				t.Errorf("J[%d][%d] = %v, want ~%v", i, jj, got[jj], want)
			}
		}
	}
}

type badPatternJacobian struct {
	call int
}

func (b *badPatternJacobian) Jacobian(builder *csr.Builder, x dae.State, t float64) {
	b.call++
	builder.Append(0, 0, 1.0)
	if b.call == 1 {
		builder.Append(1, 1, 1.0)
	} else {
		// Second call introduces a structurally new entry.
		builder.Append(1, 0, 1.0)
		builder.Append(1, 1, 1.0)
	}
}

func TestAnalyticPatternChangeIsFatal(t *testing.T) {
	aj := &badPatternJacobian{}
	eng := NewAnalytic(2, aj)

	if _, err := eng.Eval(dae.State{0, 0}, 0); err != nil {
		t.Fatalf("first call should succeed: %v", err)
	}
	_, err := eng.Eval(dae.State{0, 0}, 1)
	if err == nil {
		t.Fatal("expected a fatal pattern-mismatch error on second call")
	}
	if !errors.Is(err, dae.ErrInconsistentPattern) {
		t.Errorf("expected ErrInconsistentPattern, got %v", err)
	}
}
