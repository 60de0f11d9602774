package bdf

import "github.com/jangwj7/dae-cpp/internal/dae"

// Coefficients computes the order-k BDF derivative weights at tNext
// through the k+1 nodes {tNext, histTimes[0], ..., histTimes[k-1]} via
// the derivative of the Lagrange interpolating polynomial, per
// SPEC_FULL.md §4.6 and §9 ("variable-step BDF coefficient
// derivation"). alphas[0] multiplies the unknown x(tNext); alphas[i]
// for i>=1 multiplies histTimes[i-1]'s state. This reduces to the
// classical fixed-step BDF coefficients when the history is evenly
// spaced, and generalizes correctly otherwise.
//
// Invariant 4 (consistency): applied to any polynomial of degree <= k
// in t, these weights reproduce its exact derivative at tNext, because
// they are literally the derivative of the unique degree-k interpolant
// through those k+1 points -- which equals the polynomial itself when
// its degree is <= k.
func Coefficients(tNext float64, histTimes []float64, k int) []float64 {
	p := make([]float64, k+1)
	p[0] = tNext
	copy(p[1:], histTimes[:k])

	alphas := make([]float64, k+1)

	// alpha[0] = sum_{j=1..k} 1/(p0 - pj)
	sum := 0.0
	for j := 1; j <= k; j++ {
		sum += 1.0 / (p[0] - p[j])
	}
	alphas[0] = sum

	for i := 1; i <= k; i++ {
		num := 1.0
		for j := 0; j <= k; j++ {
			if j == i || j == 0 {
				continue
			}
			num *= p[0] - p[j]
		}
		den := 1.0
		for j := 0; j <= k; j++ {
			if j == i {
				continue
			}
			den *= p[i] - p[j]
		}
		alphas[i] = num / den
	}
	return alphas
}

// Predictor extrapolates the degree-(k-1) polynomial through the last k
// history points to tNext, component by component, via Lagrange value
// interpolation (not its derivative). It is the predictor x0_{n+1} the
// Newton iterator starts from.
func Predictor(tNext float64, histTimes []float64, histStates []dae.State, k int) dae.State {
	n := len(histStates[0])
	out := make(dae.State, n)
	for i := 0; i < k; i++ {
		w := lagrangeWeight(tNext, histTimes[:k], i)
		for c := 0; c < n; c++ {
			out[c] += w * histStates[i][c]
		}
	}
	return out
}

func lagrangeWeight(x float64, nodes []float64, i int) float64 {
	w := 1.0
	for j, pj := range nodes {
		if j == i {
			continue
		}
		w *= (x - pj) / (nodes[i] - pj)
	}
	return w
}
