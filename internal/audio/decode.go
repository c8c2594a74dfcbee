package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/cwbudde/wav"
)

var (
	// ErrFormatMismatch is returned when a decoded WAV does not match the expected format.
	ErrFormatMismatch = errors.New("WAV format mismatch")
	ErrInvalidWAV     = errors.New("invalid WAV file")
)

// Waveform is a decoded mono PCM signal. Samples are normalized to [-1, 1);
// BitDepth records the source integer width so callers can recover the raw
// integer scale.
type Waveform struct {
	Samples    []float32
	SampleRate int
	BitDepth   int
}

// DecodeWAV decodes mono PCM WAV bytes at any sample rate.
func DecodeWAV(data []byte) (Waveform, error) {
	if len(data) == 0 {
		return Waveform{}, errors.New("empty WAV input")
	}

	return decode(bytes.NewReader(data))
}

// LoadWAV reads and decodes the WAV file at path.
func LoadWAV(path string) (Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return Waveform{}, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	w, err := decode(f)
	if err != nil {
		return Waveform{}, fmt.Errorf("%s: %w", path, err)
	}

	return w, nil
}

func decode(r io.ReadSeeker) (Waveform, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return Waveform{}, ErrInvalidWAV
	}

	if dec.NumChans != 1 {
		return Waveform{}, fmt.Errorf("%w: channels %d, want 1", ErrFormatMismatch, dec.NumChans)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Waveform{}, fmt.Errorf("reading PCM data: %w", err)
	}

	return Waveform{
		Samples:    buf.Data,
		SampleRate: int(dec.SampleRate),
		BitDepth:   int(dec.BitDepth),
	}, nil
}

// RawScale is the factor between normalized samples and the source integer
// amplitude (32768 for 16-bit PCM).
func (w Waveform) RawScale() float64 {
	if w.BitDepth < 1 {
		return 1
	}

	return math.Ldexp(1, w.BitDepth-1)
}

// Normalize returns the raw integer-scale samples divided by maxWavValue.
func (w Waveform) Normalize(maxWavValue float64) []float32 {
	scale := float32(w.RawScale() / maxWavValue)

	out := make([]float32, len(w.Samples))
	for i, s := range w.Samples {
		out[i] = s * scale
	}

	return out
}

func (w Waveform) Duration() time.Duration {
	if w.SampleRate < 1 {
		return 0
	}

	return time.Duration(len(w.Samples)) * time.Second / time.Duration(w.SampleRate)
}
