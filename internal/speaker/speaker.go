// Package speaker derives fixed-length speaker embeddings from utterances.
//
// The pipeline resamples to 16 kHz, normalizes the volume, trims long
// silences, slices the utterance into overlapping partials of 160 mel frames,
// embeds each partial with a neural encoder and averages the results into a
// unit-length vector.
package speaker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/floats"

	"github.com/example/go-ppg-tts/internal/audio"
	"github.com/example/go-ppg-tts/internal/mel"
	"github.com/example/go-ppg-tts/internal/runtime/tensor"
)

const (
	SampleRate       = 16000
	MelChannels      = 40
	MelWindowMs      = 25
	MelStepMs        = 10
	PartialFrames    = 160
	DefaultDimension = 256

	samplesPerFrame = SampleRate * MelStepMs / 1000
)

var (
	ErrEmptyUtterance = errors.New("speaker: empty utterance")
	ErrModelOutput    = errors.New("speaker: unexpected model output")
)

// Embedder maps a waveform to a speaker vector of Dimension() values.
type Embedder interface {
	EmbedUtterance(ctx context.Context, w audio.Waveform) ([]float32, error)
	Dimension() int
}

// Model runs the partial-utterance network. *onnx.Runner satisfies it.
type Model interface {
	Run(ctx context.Context, inputs map[string]*tensor.Tensor) (map[string]*tensor.Tensor, error)
}

type Options struct {
	Dimension  int
	InputName  string
	OutputName string
	// Detector classifies 30 ms windows during silence trimming. Nil uses
	// DetectorForMode(DefaultVADMode).
	Detector VoiceDetector
	Logger   *slog.Logger
}

// Encoder is an Embedder backed by a Model. It is safe for concurrent use
// when the Model is.
type Encoder struct {
	model    Model
	mel      *mel.STFT
	detector VoiceDetector
	dim      int
	input    string
	output   string
	logger   *slog.Logger
	closer   func()
}

func NewEncoder(model Model, opts Options) (*Encoder, error) {
	if model == nil {
		return nil, errors.New("speaker: nil model")
	}

	if opts.Dimension == 0 {
		opts.Dimension = DefaultDimension
	}
	if opts.Dimension < 0 {
		return nil, fmt.Errorf("speaker: invalid dimension %d", opts.Dimension)
	}
	if opts.InputName == "" {
		opts.InputName = "mels"
	}
	if opts.OutputName == "" {
		opts.OutputName = "embeds"
	}
	if opts.Detector == nil {
		d, err := DetectorForMode(DefaultVADMode)
		if err != nil {
			return nil, err
		}
		opts.Detector = d
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	stft, err := mel.New(mel.Config{
		SampleRate:   SampleRate,
		FilterLength: SampleRate * MelWindowMs / 1000,
		HopLength:    samplesPerFrame,
		WinLength:    SampleRate * MelWindowMs / 1000,
		NumMels:      MelChannels,
		Power:        true,
		NoLog:        true,
	})
	if err != nil {
		return nil, err
	}

	return &Encoder{
		model:    model,
		mel:      stft,
		detector: opts.Detector,
		dim:      opts.Dimension,
		input:    opts.InputName,
		output:   opts.OutputName,
		logger:   opts.Logger,
	}, nil
}

func (e *Encoder) Dimension() int { return e.dim }

// Close releases the model when the Encoder owns it.
func (e *Encoder) Close() {
	if e.closer != nil {
		e.closer()
		e.closer = nil
	}
}

// EmbedUtterance preprocesses w and embeds the result.
func (e *Encoder) EmbedUtterance(ctx context.Context, w audio.Waveform) ([]float32, error) {
	wav, err := Preprocess(w, e.detector)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("speaker preprocess",
		"in_samples", len(w.Samples),
		"in_rate", w.SampleRate,
		"out_samples", len(wav))

	return e.EmbedPreprocessed(ctx, wav)
}

// EmbedPreprocessed embeds a 16 kHz waveform that has already been through
// Preprocess.
func (e *Encoder) EmbedPreprocessed(ctx context.Context, wav []float32) ([]float32, error) {
	if len(wav) == 0 {
		return nil, ErrEmptyUtterance
	}

	slices := PartialSlices(len(wav), DefaultPartialRate, DefaultMinCoverage)

	if need := slices[len(slices)-1].End * samplesPerFrame; need > len(wav) {
		padded := make([]float32, need)
		copy(padded, wav)
		wav = padded
	}

	spec, err := e.mel.MelSpectrogram(wav)
	if err != nil {
		return nil, fmt.Errorf("speaker mel: %w", err)
	}

	// (channels, frames) -> (frames, channels)
	frames, err := spec.Transpose(0, 1)
	if err != nil {
		return nil, err
	}

	batch := make([]*tensor.Tensor, len(slices))
	for i, s := range slices {
		part, err := frames.Narrow(0, int64(s.Start), PartialFrames)
		if err != nil {
			return nil, fmt.Errorf("speaker partial %d: %w", i, err)
		}

		batch[i], err = part.Reshape([]int64{1, PartialFrames, MelChannels})
		if err != nil {
			return nil, err
		}
	}

	input, err := tensor.Concat(batch, 0)
	if err != nil {
		return nil, err
	}

	outputs, err := e.model.Run(ctx, map[string]*tensor.Tensor{e.input: input})
	if err != nil {
		return nil, fmt.Errorf("speaker model: %w", err)
	}

	out, ok := outputs[e.output]
	if !ok {
		return nil, fmt.Errorf("%w: missing output %q", ErrModelOutput, e.output)
	}

	if shape := out.Shape(); len(shape) != 2 || shape[0] != int64(len(slices)) || shape[1] != int64(e.dim) {
		return nil, fmt.Errorf("%w: shape %v, want [%d %d]", ErrModelOutput, shape, len(slices), e.dim)
	}

	return averageEmbeddings(out.RawData(), len(slices), e.dim)
}

// averageEmbeddings returns the L2-normalized mean of n row vectors.
func averageEmbeddings(rows []float32, n, dim int) ([]float32, error) {
	mean := make([]float64, dim)
	row := make([]float64, dim)

	for i := range n {
		for j := range dim {
			row[j] = float64(rows[i*dim+j])
		}
		floats.Add(mean, row)
	}

	floats.Scale(1/float64(n), mean)

	norm := floats.Norm(mean, 2)
	if norm == 0 {
		return nil, fmt.Errorf("%w: zero-norm embedding", ErrModelOutput)
	}

	floats.Scale(1/norm, mean)

	out := make([]float32, dim)
	for i, v := range mean {
		out[i] = float32(v)
	}

	return out, nil
}
