package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/example/go-ppg-tts/internal/arrayio"
	"github.com/example/go-ppg-tts/internal/audio"
	"github.com/example/go-ppg-tts/internal/manifest"
	"github.com/example/go-ppg-tts/internal/mel"
	"github.com/example/go-ppg-tts/internal/runtime/tensor"
	"github.com/example/go-ppg-tts/internal/speaker"
)

// PPGMelLoader pairs PPG arrays with mel targets, optionally appending a
// speaker embedding to every PPG frame.
type PPGMelLoader struct {
	entries  []manifest.Entry
	mels     *MelSource
	embedder speaker.Embedder
	opts     Options
	logger   *slog.Logger
}

// NewPPGMelLoader shuffles entries with opts.Seed. embedder may be nil when
// opts.AppendEmbedding is false.
func NewPPGMelLoader(entries []manifest.Entry, opts Options, transform mel.Transform, embedder speaker.Embedder) (*PPGMelLoader, error) {
	mels, err := NewMelSource(transform, opts)
	if err != nil {
		return nil, err
	}

	if opts.AppendEmbedding {
		if embedder == nil {
			return nil, errors.New("speaker embedder is required when appending embeddings")
		}
		if opts.EmbeddingDim < 1 {
			return nil, fmt.Errorf("embedding dimension must be >= 1, got %d", opts.EmbeddingDim)
		}
	}

	return &PPGMelLoader{
		entries:  manifest.Shuffle(entries, opts.Seed),
		mels:     mels,
		embedder: embedder,
		opts:     opts,
		logger:   opts.logger(),
	}, nil
}

func (l *PPGMelLoader) Len() int { return len(l.entries) }

// Entry returns the manifest entry at shuffled position i.
func (l *PPGMelLoader) Entry(i int) (manifest.Entry, error) {
	if i < 0 || i >= len(l.entries) {
		return manifest.Entry{}, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, len(l.entries))
	}

	return l.entries[i], nil
}

func (l *PPGMelLoader) Get(ctx context.Context, i int) (PPGMel, error) {
	e, err := l.Entry(i)
	if err != nil {
		return PPGMel{}, err
	}

	if err := ctx.Err(); err != nil {
		return PPGMel{}, err
	}

	var (
		decoded   *audio.Waveform
		embedding []float32
	)

	if l.opts.AppendEmbedding {
		w, err := audio.LoadWAV(e.AudioPath)
		if err != nil {
			return PPGMel{}, err
		}
		decoded = &w

		embedding, err = l.embedder.EmbedUtterance(ctx, w)
		if err != nil {
			return PPGMel{}, fmt.Errorf("embed %s: %w", e.AudioPath, err)
		}

		if err := ValidateEmbedding(embedding, l.opts.EmbeddingDim); err != nil {
			return PPGMel{}, fmt.Errorf("%s: %w", e.AudioPath, err)
		}
	}

	ppg, err := l.loadPPG(e.Aux, embedding)
	if err != nil {
		return PPGMel{}, err
	}

	m, err := l.mels.Acquire(e, decoded)
	if err != nil {
		return PPGMel{}, err
	}

	l.logger.Debug("loaded ppg example",
		"index", i,
		"audio", e.AudioPath,
		"ppg_shape", ppg.Shape(),
		"mel_shape", m.Shape())

	return PPGMel{PPG: ppg, Mel: m, Embedding: embedding}, nil
}

// loadPPG reads the (frames, P) array and, when embedding is set, returns a
// new (frames, P+D) array with embedding appended to every frame.
func (l *PPGMelLoader) loadPPG(path string, embedding []float32) (*tensor.Tensor, error) {
	ppg, err := arrayio.LoadMatrix(path)
	if err != nil {
		if errors.Is(err, arrayio.ErrNotMatrix) {
			return nil, fmt.Errorf("%w: %w", ErrShape, err)
		}
		return nil, err
	}

	if embedding == nil {
		return ppg, nil
	}

	tiled, err := tensor.TileRows(embedding, ppg.Dim(0))
	if err != nil {
		return nil, err
	}

	out, err := tensor.Concat([]*tensor.Tensor{ppg, tiled}, -1)
	if err != nil {
		return nil, fmt.Errorf("append embedding to %s: %w", path, err)
	}

	return out, nil
}

// ValidateEmbedding requires a finite vector of exactly dim values.
func ValidateEmbedding(v []float32, dim int) error {
	if len(v) != dim {
		return fmt.Errorf("%w: length %d, want %d", ErrInvalidEmbedding, len(v), dim)
	}

	for i, x := range v {
		if f := float64(x); math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: non-finite value %v at %d", ErrInvalidEmbedding, x, i)
		}
	}

	return nil
}
