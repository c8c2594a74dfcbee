// Package dataset loads training examples: a linguistic input (PPG frames or
// symbol ids) paired with a target mel spectrogram.
//
// Loaders shuffle their manifest once at construction with an
// instance-local generator and are immutable afterwards, so Get is safe to
// call from many goroutines.
package dataset

import (
	"errors"
	"log/slog"

	"github.com/example/go-ppg-tts/internal/config"
	"github.com/example/go-ppg-tts/internal/runtime/tensor"
)

var (
	ErrSampleRateMismatch = errors.New("sample rate mismatch")
	ErrMelChannelMismatch = errors.New("mel dimension mismatch")
	ErrInvalidEmbedding   = errors.New("invalid speaker embedding")
	ErrIndexOutOfRange    = errors.New("index out of range")
	ErrShape              = errors.New("unexpected array shape")
	ErrEmptyTarget        = errors.New("mel has no frames")
)

// Options carries the audio and speaker settings shared by the loaders.
type Options struct {
	SampleRate      int
	MaxWavValue     float64
	NumMels         int
	LoadMelFromDisk bool
	// AppendEmbedding concatenates the speaker embedding onto every PPG frame.
	AppendEmbedding bool
	EmbeddingDim    int
	Seed            int64
	Logger          *slog.Logger
}

func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		SampleRate:      cfg.Audio.SamplingRate,
		MaxWavValue:     cfg.Audio.MaxWavValue,
		NumMels:         cfg.Audio.NMelChannels,
		LoadMelFromDisk: cfg.Audio.LoadMelFromDisk,
		AppendEmbedding: cfg.Speaker.AppendEmbedding,
		EmbeddingDim:    cfg.Speaker.Dimension,
		Seed:            cfg.Data.Seed,
	}
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}

	return o.Logger
}

// PPGMel is one PPG example. PPG is (frames, P) or (frames, P+D) when the
// embedding was appended; Mel is (channels, frames).
type PPGMel struct {
	PPG       *tensor.Tensor
	Mel       *tensor.Tensor
	Embedding []float32
}

// TextMel is one text example.
type TextMel struct {
	Text []int64
	Mel  *tensor.Tensor
}
