package mel

import (
	"math"
	"testing"
)

func TestHzToMel(t *testing.T) {
	tests := []struct{ hz, mel float64 }{
		{0, 0},
		{500, 7.5},
		{1000, 15},
		{6400, 42},
	}

	for _, tt := range tests {
		if got := HzToMel(tt.hz); math.Abs(got-tt.mel) > 1e-9 {
			t.Errorf("HzToMel(%g) = %g, want %g", tt.hz, got, tt.mel)
		}
		if got := MelToHz(tt.mel); math.Abs(got-tt.hz) > 1e-6 {
			t.Errorf("MelToHz(%g) = %g, want %g", tt.mel, got, tt.hz)
		}
	}
}

func TestFilterbank(t *testing.T) {
	const (
		rate  = 22050
		nFFT  = 1024
		nMels = 80
	)

	fb := Filterbank(rate, nFFT, nMels, 0, 8000)
	if len(fb) != nMels || len(fb[0]) != nFFT/2+1 {
		t.Fatalf("shape = %dx%d", len(fb), len(fb[0]))
	}

	centers := CenterFrequencies(nMels, 0, 8000)
	binHz := float64(rate) / nFFT

	for m, row := range fb {
		peak, sum := 0, 0.0
		for b, v := range row {
			if v < 0 {
				t.Fatalf("filter %d bin %d negative: %g", m, b, v)
			}
			if v > row[peak] {
				peak = b
			}
			sum += v
		}

		if sum == 0 {
			t.Errorf("filter %d is empty", m)
			continue
		}
		if math.Abs(float64(peak)*binHz-centers[m]) > binHz {
			t.Errorf("filter %d peaks at %.1f Hz, center %.1f Hz", m, float64(peak)*binHz, centers[m])
		}
	}

	// Nothing above fmax.
	for b := int(8000/binHz) + 2; b <= nFFT/2; b++ {
		if fb[nMels-1][b] != 0 {
			t.Fatalf("bin %d above fmax has weight %g", b, fb[nMels-1][b])
		}
	}
}

func TestPaddedHann(t *testing.T) {
	w := PaddedHann(4, 8)
	want := []float64{0, 0, 0, 0.5, 1, 0.5, 0, 0}

	for i := range want {
		if math.Abs(w[i]-want[i]) > 1e-12 {
			t.Fatalf("window = %v, want %v", w, want)
		}
	}
}
