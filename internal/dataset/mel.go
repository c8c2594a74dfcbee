package dataset

import (
	"errors"
	"fmt"

	"github.com/example/go-ppg-tts/internal/arrayio"
	"github.com/example/go-ppg-tts/internal/audio"
	"github.com/example/go-ppg-tts/internal/manifest"
	"github.com/example/go-ppg-tts/internal/mel"
	"github.com/example/go-ppg-tts/internal/runtime/tensor"
)

// MelSource produces the target spectrogram for an entry, either from the
// waveform or from a precomputed array.
type MelSource struct {
	transform mel.Transform
	opts      Options
}

// NewMelSource checks that transform agrees with opts on the channel count.
// transform may be nil only when mels are loaded from disk.
func NewMelSource(transform mel.Transform, opts Options) (*MelSource, error) {
	if opts.NumMels < 1 {
		return nil, fmt.Errorf("mel channels must be >= 1, got %d", opts.NumMels)
	}

	if transform == nil {
		if !opts.LoadMelFromDisk {
			return nil, errors.New("mel transform is required unless mels are loaded from disk")
		}
	} else if transform.NumMels() != opts.NumMels {
		return nil, fmt.Errorf("%w: transform has %d channels, expected %d",
			ErrMelChannelMismatch, transform.NumMels(), opts.NumMels)
	}

	if !opts.LoadMelFromDisk && opts.MaxWavValue <= 0 {
		return nil, fmt.Errorf("max wav value must be > 0, got %g", opts.MaxWavValue)
	}

	return &MelSource{transform: transform, opts: opts}, nil
}

// Acquire returns the (channels, frames) mel for e. A waveform already decoded
// from e.AudioPath can be passed to avoid reading it twice. A mel without
// frames fails with ErrEmptyTarget.
func (s *MelSource) Acquire(e manifest.Entry, decoded *audio.Waveform) (*tensor.Tensor, error) {
	m, src, err := s.acquire(e, decoded)
	if err != nil {
		return nil, err
	}

	if m.Dim(1) == 0 {
		return nil, fmt.Errorf("%s: %w", src, ErrEmptyTarget)
	}

	return m, nil
}

func (s *MelSource) acquire(e manifest.Entry, decoded *audio.Waveform) (*tensor.Tensor, string, error) {
	if s.opts.LoadMelFromDisk {
		path := e.MelPath
		if path == "" {
			path = e.AudioPath
		}

		m, err := s.FromFile(path)
		return m, path, err
	}

	var w audio.Waveform
	if decoded != nil {
		w = *decoded
	} else {
		var err error
		if w, err = audio.LoadWAV(e.AudioPath); err != nil {
			return nil, "", err
		}
	}

	m, err := s.FromWaveform(w)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", e.AudioPath, err)
	}

	return m, e.AudioPath, nil
}

// FromWaveform checks the sample rate, scales raw samples by the max wav
// value and runs the transform.
func (s *MelSource) FromWaveform(w audio.Waveform) (*tensor.Tensor, error) {
	if w.SampleRate != s.opts.SampleRate {
		return nil, fmt.Errorf("%w: %d SR doesn't match target %d SR",
			ErrSampleRateMismatch, w.SampleRate, s.opts.SampleRate)
	}

	if s.transform == nil {
		return nil, errors.New("no mel transform configured")
	}

	return s.transform.MelSpectrogram(w.Normalize(s.opts.MaxWavValue))
}

// FromFile loads a precomputed 2-D mel and checks its channel count.
func (s *MelSource) FromFile(path string) (*tensor.Tensor, error) {
	m, err := arrayio.LoadMatrix(path)
	if err != nil {
		if errors.Is(err, arrayio.ErrNotMatrix) {
			return nil, fmt.Errorf("%w: %w", ErrShape, err)
		}
		return nil, err
	}

	if got := m.Dim(0); got != int64(s.opts.NumMels) {
		return nil, fmt.Errorf("%s: %w: given %d, expected %d", path, ErrMelChannelMismatch, got, s.opts.NumMels)
	}

	return m, nil
}
