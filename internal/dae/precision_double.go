//go:build !dae_single

package dae

// Double-precision tolerance defaults (§6, §9 open question (c)).
const (
	atolDefault  = 1e-14
	rtolDefault  = 1e-10
	fdTolDefault = 1e-10
)
