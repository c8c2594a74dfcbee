package mel

import "math"

// Slaney mel scale: linear below 1 kHz, logarithmic above.
const (
	fSp       = 200.0 / 3
	minLogHz  = 1000.0
	minLogMel = minLogHz / fSp
	logStep   = 0.06875177742094912 // ln(6.4) / 27
)

func HzToMel(f float64) float64 {
	if f >= minLogHz {
		return minLogMel + math.Log(f/minLogHz)/logStep
	}

	return f / fSp
}

func MelToHz(m float64) float64 {
	if m >= minLogMel {
		return minLogHz * math.Exp(logStep*(m-minLogMel))
	}

	return m * fSp
}

// Filterbank returns nMels triangular filters over the nFFT/2+1 FFT bins,
// area-normalized the Slaney way.
func Filterbank(sampleRate, nFFT, nMels int, fmin, fmax float64) [][]float64 {
	bins := nFFT/2 + 1

	fftFreqs := make([]float64, bins)
	for i := range fftFreqs {
		fftFreqs[i] = float64(i) * float64(sampleRate) / float64(nFFT)
	}

	// Filter i rises from edge i to its center at edge i+1 and falls to i+2.
	melF := make([]float64, 0, nMels+2)
	melF = append(melF, MelToHz(HzToMel(fmin)))
	melF = append(melF, CenterFrequencies(nMels, fmin, fmax)...)
	melF = append(melF, MelToHz(HzToMel(fmax)))

	weights := make([][]float64, nMels)
	for i := range nMels {
		row := make([]float64, bins)
		lowerW := melF[i+1] - melF[i]
		upperW := melF[i+2] - melF[i+1]
		enorm := 2 / (melF[i+2] - melF[i])

		for b, f := range fftFreqs {
			lower := (f - melF[i]) / lowerW
			upper := (melF[i+2] - f) / upperW
			if v := math.Min(lower, upper); v > 0 {
				row[b] = v * enorm
			}
		}
		weights[i] = row
	}

	return weights
}

// CenterFrequencies returns the peak frequency of each mel filter.
func CenterFrequencies(nMels int, fmin, fmax float64) []float64 {
	lo, hi := HzToMel(fmin), HzToMel(fmax)
	out := make([]float64, nMels)
	for i := range out {
		out[i] = MelToHz(lo + (hi-lo)*float64(i+1)/float64(nMels+1))
	}

	return out
}
