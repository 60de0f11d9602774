// Package csr implements the three-array Compressed Sparse Row matrix
// format the solver uses for the mass matrix, the Jacobian and the
// assembled step matrix G.
package csr

import (
	"fmt"
	"sort"
)

// Matrix is a square N x N sparse matrix in 3-array CSR form: A holds the
// nonzero values, Ja the column index of each value, and Ia the row
// pointers (Ia[i] is the index into A/Ja of the first entry of row i,
// Ia[N] == len(A)). Column order within a row is ascending; duplicate
// (row, col) pairs are never produced by this package.
type Matrix struct {
	N  int
	A  []float64
	Ja []int
	Ia []int
}

// New returns an empty N x N matrix with no nonzeros.
func New(n int) *Matrix {
	return &Matrix{N: n, Ia: make([]int, n+1)}
}

// Identity returns the N x N identity matrix in CSR form.
func Identity(n int) *Matrix {
	m := &Matrix{
		N:  n,
		A:  make([]float64, n),
		Ja: make([]int, n),
		Ia: make([]int, n+1),
	}
	for i := 0; i < n; i++ {
		m.A[i] = 1
		m.Ja[i] = i
		m.Ia[i] = i
	}
	m.Ia[n] = n
	return m
}

// NNZ returns the number of stored entries, including explicit zeros.
func (m *Matrix) NNZ() int { return len(m.A) }

// Row returns the column indices and values of row i, in ascending
// column order. The returned slices alias m's storage and must not be
// retained past the next call that mutates m.
func (m *Matrix) Row(i int) ([]int, []float64) {
	lo, hi := m.Ia[i], m.Ia[i+1]
	return m.Ja[lo:hi], m.A[lo:hi]
}

// Validate checks the structural invariants the rest of the package
// assumes: Ia is non-decreasing and sized N+1, Ia[N] == nnz, and every
// column index is in range and strictly ascending within its row (which
// also rules out duplicate entries).
func (m *Matrix) Validate() error {
	if len(m.Ia) != m.N+1 {
		return fmt.Errorf("csr: row pointer array has length %d, want %d", len(m.Ia), m.N+1)
	}
	if m.Ia[m.N] != len(m.A) {
		return fmt.Errorf("csr: ia[N]=%d does not match nnz=%d", m.Ia[m.N], len(m.A))
	}
	if len(m.Ja) != len(m.A) {
		return fmt.Errorf("csr: ja has length %d, a has length %d", len(m.Ja), len(m.A))
	}
	for i := 0; i < m.N; i++ {
		if m.Ia[i] > m.Ia[i+1] {
			return fmt.Errorf("csr: row pointers not non-decreasing at row %d", i)
		}
		cols, _ := m.Row(i)
		for k, c := range cols {
			if c < 0 || c >= m.N {
				return fmt.Errorf("csr: row %d has out-of-range column %d", i, c)
			}
			if k > 0 && cols[k-1] >= c {
				return fmt.Errorf("csr: row %d columns not strictly ascending (duplicate or unsorted entry at column %d)", i, c)
			}
		}
	}
	return nil
}

// SamePattern reports whether a and b share identical row pointers and
// column indices. Used by the linear-solver facade to decide whether a
// cached symbolic factorization can be reused.
func SamePattern(a, b *Matrix) bool {
	if a.N != b.N || len(a.Ja) != len(b.Ja) {
		return false
	}
	for i := range a.Ia {
		if a.Ia[i] != b.Ia[i] {
			return false
		}
	}
	for i := range a.Ja {
		if a.Ja[i] != b.Ja[i] {
			return false
		}
	}
	return true
}

// Builder accumulates rows of possibly-unsorted (column, value) pairs and
// produces a finalized, column-sorted Matrix. It is the append-row
// construction path mentioned in the design: a collaborator fills a
// Builder once per call, and the core discards or compacts it afterwards.
type Builder struct {
	n    int
	rows [][]entry
}

type entry struct {
	col int
	val float64
}

// NewBuilder starts a builder for an n x n matrix.
func NewBuilder(n int) *Builder {
	return &Builder{n: n, rows: make([][]entry, n)}
}

// Append adds one nonzero (possibly an explicit zero) to row i. Appending
// the same (row, col) pair twice is a caller error; Finalize detects it.
func (b *Builder) Append(row, col int, val float64) {
	b.rows[row] = append(b.rows[row], entry{col, val})
}

// Finalize sorts each row by column and packs the builder into CSR form.
// It returns an error if any row contains a duplicate column.
func (b *Builder) Finalize() (*Matrix, error) {
	m := &Matrix{N: b.n, Ia: make([]int, b.n+1)}
	for i := 0; i < b.n; i++ {
		row := b.rows[i]
		sort.Slice(row, func(a, c int) bool { return row[a].col < row[c].col })
		for k, e := range row {
			if k > 0 && row[k-1].col == e.col {
				return nil, fmt.Errorf("csr: duplicate entry at (%d, %d)", i, e.col)
			}
			m.Ja = append(m.Ja, e.col)
			m.A = append(m.A, e.val)
		}
		m.Ia[i+1] = len(m.A)
	}
	return m, nil
}

// Combine performs the structured linear combination C <- alpha*a + beta*b
// required by the residual assembler to build G = alpha0*M - dt*J. a and
// b may have different sparsity patterns; each row is merged by walking
// both column lists in ascending order, emitting one entry per distinct
// column. Exact-zero cancellations are kept in the output so the
// resulting pattern is deterministic and reusable across calls.
func Combine(alpha float64, a *Matrix, beta float64, b *Matrix) (*Matrix, error) {
	if a.N != b.N {
		return nil, fmt.Errorf("csr: combine size mismatch %d vs %d", a.N, b.N)
	}
	n := a.N
	out := &Matrix{N: n, Ia: make([]int, n+1)}
	for i := 0; i < n; i++ {
		aCols, aVals := a.Row(i)
		bCols, bVals := b.Row(i)
		ai, bi := 0, 0
		for ai < len(aCols) || bi < len(bCols) {
			switch {
			case bi >= len(bCols) || (ai < len(aCols) && aCols[ai] < bCols[bi]):
				out.Ja = append(out.Ja, aCols[ai])
				out.A = append(out.A, alpha*aVals[ai])
				ai++
			case ai >= len(aCols) || bCols[bi] < aCols[ai]:
				out.Ja = append(out.Ja, bCols[bi])
				out.A = append(out.A, beta*bVals[bi])
				bi++
			default:
				out.Ja = append(out.Ja, aCols[ai])
				out.A = append(out.A, alpha*aVals[ai]+beta*bVals[bi])
				ai++
				bi++
			}
		}
		out.Ia[i+1] = len(out.A)
	}
	return out, nil
}

// MulVec computes y = A*x.
func (m *Matrix) MulVec(x []float64) []float64 {
	y := make([]float64, m.N)
	for i := 0; i < m.N; i++ {
		cols, vals := m.Row(i)
		sum := 0.0
		for k, c := range cols {
			sum += vals[k] * x[c]
		}
		y[i] = sum
	}
	return y
}

// Clone returns a deep copy of m.
func (m *Matrix) Clone() *Matrix {
	c := &Matrix{N: m.N}
	c.A = append(c.A, m.A...)
	c.Ja = append(c.Ja, m.Ja...)
	c.Ia = append(c.Ia, m.Ia...)
	return c
}
