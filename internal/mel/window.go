package mel

import "math"

// Hann returns a periodic Hann window of length n.
func Hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n)))
	}

	return w
}

// PaddedHann centers a periodic Hann window of winLength inside a zero
// buffer of size.
func PaddedHann(winLength, size int) []float64 {
	out := make([]float64, size)
	left := (size - winLength) / 2
	copy(out[left:], Hann(winLength))

	return out
}
