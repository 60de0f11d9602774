package analysis

import (
	"math"
	"math/cmplx"
)

// fft computes the discrete Fourier transform of data, whose length
// must be a power of two; callers go through Spectrum, which pads.
func fft(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := fft(even)
	fodd := fft(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}
	return result
}

// Spectrum returns the magnitude spectrum of a recorded state
// component's time series. data is zero-padded up to the next power
// of two, since a BDF solve's accepted steps are not evenly spaced and
// will rarely land on a power-of-two count.
func Spectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	padded := make([]float64, nextPowerOfTwo(len(data)))
	copy(padded, data)

	coeffs := fft(padded)
	spectrum := make([]float64, len(coeffs)/2)
	for i := range spectrum {
		spectrum[i] = cmplx.Abs(coeffs[i])
	}
	return spectrum
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}
