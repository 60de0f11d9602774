package linsolve

import (
	"errors"
	"math"
	"testing"

	"github.com/jangwj7/dae-cpp/internal/csr"
)

func buildDiag(vals []float64) *csr.Matrix {
	b := csr.NewBuilder(len(vals))
	for i, v := range vals {
		b.Append(i, i, v)
	}
	m, _ := b.Finalize()
	return m
}

func TestSolveDiagonal(t *testing.T) {
	m := buildDiag([]float64{2, 4, 8})
	f := New()
	if err := f.Factorize(m); err != nil {
		t.Fatalf("factorize: %v", err)
	}
	x, err := f.Solve([]float64{2, 8, 8})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	want := []float64{1, 2, 1}
	for i := range want {
		if math.Abs(x[i]-want[i]) > 1e-12 {
			t.Errorf("x[%d] = %v, want %v", i, x[i], want[i])
		}
	}
}

func TestSolveDenseSystemWithPivoting(t *testing.T) {
	// G = [[0, 1], [1, 1]] requires a row swap to avoid a zero pivot.
	b := csr.NewBuilder(2)
	b.Append(0, 1, 1)
	b.Append(1, 0, 1)
	b.Append(1, 1, 1)
	m, _ := b.Finalize()

	f := New()
	if err := f.Factorize(m); err != nil {
		t.Fatalf("factorize: %v", err)
	}
	x, err := f.Solve([]float64{3, 5})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	// x2 = 3, x1 + x2 = 5 -> x1 = 2
	if math.Abs(x[0]-2) > 1e-12 || math.Abs(x[1]-3) > 1e-12 {
		t.Errorf("x = %v, want [2 3]", x)
	}
}

func TestSingularMatrixDetected(t *testing.T) {
	b := csr.NewBuilder(2)
	b.Append(0, 0, 1)
	b.Append(0, 1, 1)
	b.Append(1, 0, 1)
	b.Append(1, 1, 1)
	m, _ := b.Finalize() // rank-deficient

	f := New()
	err := f.Factorize(m)
	if err == nil {
		t.Fatal("expected singular-matrix error")
	}
	if !errors.Is(err, ErrSingular) {
		t.Errorf("expected ErrSingular, got %v", err)
	}
}

func TestSymbolicAnalysisCachedAcrossSamePattern(t *testing.T) {
	f := New()
	m1 := buildDiag([]float64{1, 2})
	m2 := buildDiag([]float64{3, 4}) // same pattern, different values

	if err := f.Factorize(m1); err != nil {
		t.Fatalf("factorize 1: %v", err)
	}
	if err := f.Factorize(m2); err != nil {
		t.Fatalf("factorize 2: %v", err)
	}
	if f.Stats.SymbolicAnalyses != 1 {
		t.Errorf("expected 1 symbolic analysis for an unchanged pattern, got %d", f.Stats.SymbolicAnalyses)
	}
	if f.Stats.NumericFactorizations != 2 {
		t.Errorf("expected 2 numeric factorizations, got %d", f.Stats.NumericFactorizations)
	}
}
