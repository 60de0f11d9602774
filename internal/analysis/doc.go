// Package analysis provides post-hoc diagnostics over solved or
// recorded trajectories: frequency content via FFT, 2D phase-space and
// Poincare projections rendered as ASCII art, and a perturbation-growth
// sensitivity exponent for stiff DAE problems, in the same ASCII-first
// diagnostic style the teacher repository's own analysis package uses.
//
//   - [Spectrum]: power spectrum of one recorded state component
//   - [PhasePortrait2D] / [GeneratePhasePortrait2D]: 2D state-space projection
//   - [PoincareSection] / [GeneratePoincareSection]: crossing-plane projection
//   - [SensitivityExponent]: perturbation growth rate between two solves
package analysis
