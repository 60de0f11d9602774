package problems

import (
	"github.com/jangwj7/dae-cpp/internal/csr"
	"github.com/jangwj7/dae-cpp/internal/dae"
)

// Perovskite is a 1-D drift-diffusion/Poisson DAE in the style of the
// ion-migration perovskite solar cell model in the original
// implementation's examples directory: N mobile-ion concentration
// unknowns c_0..c_{N-1} coupled to N electrostatic potential unknowns
// phi_0..phi_{N-1} over a uniform grid of spacing H. The concentration
// equations are differential (mass = 1); the potential equations are
// algebraic (mass = 0): a discretized, screened Poisson equation with
// Dirichlet boundary conditions pinning phi at both ends.
//
// State layout: x[0:N] = c, x[N:2N] = phi.
type Perovskite struct {
	N        int
	H        float64 // grid spacing
	D        float64 // diffusion coefficient
	Mu       float64 // drift mobility
	Lambda   float64 // Debye screening length
	PhiLeft  float64
	PhiRight float64
}

// NewPerovskite returns a standard-sized instance (N=20) with
// parameters chosen so the concentration profile relaxes on a similar
// timescale to the potential's screening length, exercising both the
// differential and algebraic halves of the system together.
func NewPerovskite() *Perovskite {
	return &Perovskite{
		N:        20,
		H:        1.0 / 19,
		D:        1.0,
		Mu:       5.0,
		Lambda:   0.2,
		PhiLeft:  1.0,
		PhiRight: 0.0,
	}
}

func (p *Perovskite) Dim() int { return 2 * p.N }

// InitialCondition returns a uniform concentration profile and the
// potential that solves the discrete Poisson rows for it: a linear ramp
// between the two Dirichlet boundary values plus the quadratic whose
// second difference is c/Lambda^2, so the state is consistent with the
// algebraic constraint at t=0.
func (p *Perovskite) InitialCondition() dae.State {
	const c0 = 0.5
	x := make(dae.State, 2*p.N)
	for i := 0; i < p.N; i++ {
		x[i] = c0
	}
	span := float64(p.N-1) * p.H
	for i := 0; i < p.N; i++ {
		frac := float64(i) / float64(p.N-1)
		s := float64(i) * p.H
		x[p.N+i] = p.PhiLeft + frac*(p.PhiRight-p.PhiLeft) +
			0.5*c0/(p.Lambda*p.Lambda)*(s*s-s*span)
	}
	return x
}

func (p *Perovskite) Mass(b *csr.Builder) {
	for i := 0; i < p.N; i++ {
		b.Append(i, i, 1)
	}
}

func (p *Perovskite) Eval(x dae.State, t float64) dae.State {
	n := p.N
	invh2 := 1.0 / (p.H * p.H)
	invh := 1.0 / p.H
	invlam2 := 1.0 / (p.Lambda * p.Lambda)
	c := x[:n]
	phi := x[n:]

	f := make(dae.State, 2*n)

	for i := 0; i < n; i++ {
		var lap, grad float64
		switch {
		case i == 0:
			lap = (c[1] - c[0]) * invh2
			grad = (phi[1] - phi[0]) * invh
		case i == n-1:
			lap = (c[n-2] - c[n-1]) * invh2
			grad = (phi[n-1] - phi[n-2]) * invh
		default:
			lap = (c[i+1] - 2*c[i] + c[i-1]) * invh2
			grad = 0.5 * (phi[i+1] - phi[i-1]) * invh
		}
		f[i] = p.D*lap - p.Mu*grad*c[i]
	}

	for i := 0; i < n; i++ {
		switch {
		case i == 0:
			f[n+i] = phi[0] - p.PhiLeft
		case i == n-1:
			f[n+i] = phi[n-1] - p.PhiRight
		default:
			f[n+i] = (phi[i+1]-2*phi[i]+phi[i-1])*invh2 - c[i]*invlam2
		}
	}
	return f
}

func (p *Perovskite) Jacobian(b *csr.Builder, x dae.State, t float64) {
	n := p.N
	invh2 := 1.0 / (p.H * p.H)
	invh := 1.0 / p.H
	invlam2 := 1.0 / (p.Lambda * p.Lambda)
	c := x[:n]
	phi := x[n:]

	for i := 0; i < n; i++ {
		switch {
		case i == 0:
			b.Append(0, 0, -invh2-p.Mu*(phi[1]-phi[0])*invh)
			b.Append(0, 1, invh2)
			b.Append(0, n+0, p.Mu*c[0]*invh)
			b.Append(0, n+1, -p.Mu*c[0]*invh)
		case i == n-1:
			b.Append(n-1, n-2, invh2)
			b.Append(n-1, n-1, -invh2-p.Mu*(phi[n-1]-phi[n-2])*invh)
			b.Append(n-1, n+n-2, p.Mu*c[n-1]*invh)
			b.Append(n-1, n+n-1, -p.Mu*c[n-1]*invh)
		default:
			grad := 0.5 * (phi[i+1] - phi[i-1]) * invh
			b.Append(i, i-1, invh2)
			b.Append(i, i, -2*invh2-p.Mu*grad)
			b.Append(i, i+1, invh2)
			b.Append(i, n+i-1, 0.5*p.Mu*c[i]*invh)
			b.Append(i, n+i+1, -0.5*p.Mu*c[i]*invh)
		}
	}

	for i := 0; i < n; i++ {
		row := n + i
		switch {
		case i == 0:
			b.Append(row, n+0, 1)
		case i == n-1:
			b.Append(row, n+n-1, 1)
		default:
			b.Append(row, i, -invlam2)
			b.Append(row, n+i-1, invh2)
			b.Append(row, n+i, -2*invh2)
			b.Append(row, n+i+1, invh2)
		}
	}
}
