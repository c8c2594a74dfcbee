// Package mel computes mel spectrograms with a Tacotron-compatible STFT.
package mel

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/mat"

	"github.com/example/go-ppg-tts/internal/runtime/tensor"
)

// ClipValue is the floor applied before log compression.
const ClipValue = 1e-5

var ErrEmptySignal = errors.New("mel: empty signal")

// Transform turns a normalized mono waveform into a (channels, frames) mel
// spectrogram.
type Transform interface {
	MelSpectrogram(samples []float32) (*tensor.Tensor, error)
	NumMels() int
}

type Config struct {
	SampleRate   int
	FilterLength int
	HopLength    int
	WinLength    int
	NumMels      int
	Fmin         float64
	// Fmax of 0 selects the Nyquist frequency.
	Fmax float64
	// Power uses the squared magnitude instead of the magnitude.
	Power bool
	// NoLog disables natural-log dynamic range compression.
	NoLog bool
}

// TacotronConfig returns the magnitude/log-compressed layout used for
// training targets.
func TacotronConfig(sampleRate, filterLength, hopLength, winLength, numMels int, fmin, fmax float64) Config {
	return Config{
		SampleRate:   sampleRate,
		FilterLength: filterLength,
		HopLength:    hopLength,
		WinLength:    winLength,
		NumMels:      numMels,
		Fmin:         fmin,
		Fmax:         fmax,
	}
}

func (c Config) validate() error {
	var errs []error
	if c.SampleRate < 1 {
		errs = append(errs, fmt.Errorf("sample rate must be >= 1, got %d", c.SampleRate))
	}
	if c.FilterLength < 2 || c.HopLength < 1 || c.WinLength < 1 {
		errs = append(errs, fmt.Errorf("invalid filter/hop/win lengths %d/%d/%d", c.FilterLength, c.HopLength, c.WinLength))
	}
	if c.WinLength > c.FilterLength {
		errs = append(errs, fmt.Errorf("win length %d exceeds filter length %d", c.WinLength, c.FilterLength))
	}
	if c.NumMels < 1 {
		errs = append(errs, fmt.Errorf("mel channels must be >= 1, got %d", c.NumMels))
	}
	nyquist := float64(c.SampleRate) / 2
	if c.Fmin < 0 || c.Fmax < 0 || c.Fmax > nyquist {
		errs = append(errs, fmt.Errorf("mel range [%g, %g] outside [0, %g]", c.Fmin, c.Fmax, nyquist))
	} else if c.upper() <= c.Fmin {
		errs = append(errs, fmt.Errorf("mel fmin %g must be below fmax %g", c.Fmin, c.upper()))
	}

	return errors.Join(errs...)
}

func (c Config) upper() float64 {
	if c.Fmax == 0 {
		return float64(c.SampleRate) / 2
	}

	return c.Fmax
}

// STFT is a Transform built on a short-time Fourier transform and a Slaney
// mel filterbank. It is safe for concurrent use.
type STFT struct {
	cfg    Config
	window []float64
	basis  *mat.Dense
	bins   int
	work   sync.Pool
}

type fftWork struct {
	fft   *fourier.FFT
	frame []float64
	coef  []complex128
}

func New(cfg Config) (*STFT, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("mel: %w", err)
	}

	bins := cfg.FilterLength/2 + 1
	fb := Filterbank(cfg.SampleRate, cfg.FilterLength, cfg.NumMels, cfg.Fmin, cfg.upper())

	s := &STFT{
		cfg:    cfg,
		window: PaddedHann(cfg.WinLength, cfg.FilterLength),
		basis:  mat.NewDense(cfg.NumMels, bins, flatten(fb)),
		bins:   bins,
	}
	s.work.New = func() any {
		return &fftWork{
			fft:   fourier.NewFFT(cfg.FilterLength),
			frame: make([]float64, cfg.FilterLength),
			coef:  make([]complex128, bins),
		}
	}

	return s, nil
}

func (s *STFT) NumMels() int { return s.cfg.NumMels }

func (s *STFT) Config() Config { return s.cfg }

// NumFrames reports how many frames a signal of n samples produces.
func (s *STFT) NumFrames(n int) int {
	if n < 1 {
		return 0
	}

	return 1 + n/s.cfg.HopLength
}

// MelSpectrogram returns a (NumMels, frames) tensor.
func (s *STFT) MelSpectrogram(samples []float32) (*tensor.Tensor, error) {
	if len(samples) == 0 {
		return nil, ErrEmptySignal
	}

	spec := s.spectrogram(samples)
	frames := spec.RawMatrix().Cols

	var out mat.Dense
	out.Mul(s.basis, spec)

	data := make([]float32, s.cfg.NumMels*frames)
	raw := out.RawMatrix()
	for m := range s.cfg.NumMels {
		row := raw.Data[m*raw.Stride : m*raw.Stride+frames]
		for t, v := range row {
			if !s.cfg.NoLog {
				v = math.Log(math.Max(v, ClipValue))
			}
			data[m*frames+t] = float32(v)
		}
	}

	return tensor.FromOwned(data, []int64{int64(s.cfg.NumMels), int64(frames)})
}

// spectrogram returns the (bins, frames) magnitude or power spectrogram of the
// reflect-padded signal.
func (s *STFT) spectrogram(samples []float32) *mat.Dense {
	n := s.cfg.FilterLength
	pad := n / 2
	frames := s.NumFrames(len(samples))

	spec := mat.NewDense(s.bins, frames, nil)

	w := s.work.Get().(*fftWork)
	defer s.work.Put(w)

	for t := range frames {
		start := t*s.cfg.HopLength - pad
		for k := range n {
			w.frame[k] = float64(samples[reflectIndex(start+k, len(samples))]) * s.window[k]
		}

		w.coef = w.fft.Coefficients(w.coef, w.frame)
		for b, c := range w.coef {
			re, im := real(c), imag(c)
			p := re*re + im*im
			if !s.cfg.Power {
				p = math.Sqrt(p)
			}
			spec.Set(b, t, p)
		}
	}

	return spec
}

// reflectIndex mirrors i into [0, n) without repeating the edge sample.
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}

	period := 2 * (n - 1)
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i
	}

	return i
}

func flatten(rows [][]float64) []float64 {
	if len(rows) == 0 {
		return nil
	}

	out := make([]float64, 0, len(rows)*len(rows[0]))
	for _, r := range rows {
		out = append(out, r...)
	}

	return out
}
