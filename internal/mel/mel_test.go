package mel

import (
	"math"
	"sync"
	"testing"
)

func tacotron(t *testing.T) *STFT {
	t.Helper()

	s, err := New(TacotronConfig(22050, 1024, 256, 1024, 80, 0, 8000))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return s
}

func sine(freq float64, rate, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}

	return out
}

func TestMelSpectrogramShape(t *testing.T) {
	s := tacotron(t)

	for _, n := range []int{1, 255, 256, 22050} {
		out, err := s.MelSpectrogram(make([]float32, n))
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}

		wantT := int64(1 + n/256)
		if got := out.Shape(); got[0] != 80 || got[1] != wantT {
			t.Errorf("n=%d: shape = %v, want [80 %d]", n, got, wantT)
		}
	}
}

func TestMelSpectrogramSilenceHitsFloor(t *testing.T) {
	s := tacotron(t)

	out, err := s.MelSpectrogram(make([]float32, 2048))
	if err != nil {
		t.Fatalf("mel: %v", err)
	}

	floor := float32(math.Log(ClipValue))
	for i, v := range out.RawData() {
		if v != floor {
			t.Fatalf("value[%d] = %v, want %v", i, v, floor)
		}
	}
}

func TestMelSpectrogramSinePeak(t *testing.T) {
	s := tacotron(t)

	out, err := s.MelSpectrogram(sine(1000, 22050, 22050))
	if err != nil {
		t.Fatalf("mel: %v", err)
	}

	frames := out.Dim(1)
	mid := frames / 2

	best, bestV := -1, float32(math.Inf(-1))
	for m := range int64(80) {
		v, _ := out.At(m, mid)
		if v > bestV {
			best, bestV = int(m), v
		}
	}

	centers := CenterFrequencies(80, 0, 8000)
	want := 0
	for i, c := range centers {
		if math.Abs(c-1000) < math.Abs(centers[want]-1000) {
			want = i
		}
	}

	if best < want-1 || best > want+1 {
		t.Fatalf("peak channel = %d, want about %d (%.0f Hz)", best, want, centers[want])
	}
}

func TestPowerWithoutLogIsNonNegative(t *testing.T) {
	s, err := New(Config{
		SampleRate:   16000,
		FilterLength: 400,
		HopLength:    160,
		WinLength:    400,
		NumMels:      40,
		Power:        true,
		NoLog:        true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	out, err := s.MelSpectrogram(sine(440, 16000, 16000))
	if err != nil {
		t.Fatalf("mel: %v", err)
	}

	if got := out.Shape(); got[0] != 40 || got[1] != 101 {
		t.Fatalf("shape = %v, want [40 101]", got)
	}

	var sum float64
	for _, v := range out.RawData() {
		if v < 0 {
			t.Fatalf("negative power %v", v)
		}
		sum += float64(v)
	}
	if sum == 0 {
		t.Fatal("power spectrogram of a sine is all zero")
	}
}

func TestMelSpectrogramConcurrent(t *testing.T) {
	s := tacotron(t)
	in := sine(440, 22050, 8000)

	want, err := s.MelSpectrogram(in)
	if err != nil {
		t.Fatalf("mel: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan string, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := s.MelSpectrogram(in)
			if err != nil {
				errs <- err.Error()
				return
			}
			for i, v := range got.RawData() {
				if v != want.RawData()[i] {
					errs <- "concurrent result differs"
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for e := range errs {
		t.Fatal(e)
	}
}

func TestMelSpectrogramEmpty(t *testing.T) {
	if _, err := tacotron(t).MelSpectrogram(nil); err != ErrEmptySignal {
		t.Fatalf("err = %v, want ErrEmptySignal", err)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	base := TacotronConfig(22050, 1024, 256, 1024, 80, 0, 8000)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"window longer than fft", func(c *Config) { c.WinLength = 2048 }},
		{"zero hop", func(c *Config) { c.HopLength = 0 }},
		{"no mels", func(c *Config) { c.NumMels = 0 }},
		{"fmax above nyquist", func(c *Config) { c.Fmax = 12000 }},
		{"fmin above fmax", func(c *Config) { c.Fmin = 9000 }},
		{"zero rate", func(c *Config) { c.SampleRate = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			if _, err := New(cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestReflectIndex(t *testing.T) {
	tests := []struct{ i, n, want int }{
		{0, 4, 0},
		{3, 4, 3},
		{-1, 4, 1},
		{-3, 4, 3},
		{4, 4, 2},
		{5, 4, 1},
		{-7, 1, 0},
	}

	for _, tt := range tests {
		if got := reflectIndex(tt.i, tt.n); got != tt.want {
			t.Errorf("reflectIndex(%d, %d) = %d, want %d", tt.i, tt.n, got, tt.want)
		}
	}
}
