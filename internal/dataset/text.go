package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/example/go-ppg-tts/internal/config"
	"github.com/example/go-ppg-tts/internal/manifest"
	"github.com/example/go-ppg-tts/internal/mel"
	"github.com/example/go-ppg-tts/internal/text"
	"github.com/example/go-ppg-tts/internal/tokenizer"
)

// TextMelLoader pairs transcripts with mel targets.
type TextMelLoader struct {
	entries []manifest.Entry
	mels    *MelSource
	encoder text.Encoder
	logger  *slog.Logger
}

// NewTextMelLoader shuffles entries with opts.Seed.
func NewTextMelLoader(entries []manifest.Entry, opts Options, transform mel.Transform, encoder text.Encoder) (*TextMelLoader, error) {
	if encoder == nil {
		return nil, errors.New("text encoder is required")
	}

	mels, err := NewMelSource(transform, opts)
	if err != nil {
		return nil, err
	}

	return &TextMelLoader{
		entries: manifest.Shuffle(entries, opts.Seed),
		mels:    mels,
		encoder: encoder,
		logger:  opts.logger(),
	}, nil
}

func (l *TextMelLoader) Len() int { return len(l.entries) }

// Entry returns the manifest entry at shuffled position i.
func (l *TextMelLoader) Entry(i int) (manifest.Entry, error) {
	if i < 0 || i >= len(l.entries) {
		return manifest.Entry{}, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, len(l.entries))
	}

	return l.entries[i], nil
}

func (l *TextMelLoader) Get(ctx context.Context, i int) (TextMel, error) {
	e, err := l.Entry(i)
	if err != nil {
		return TextMel{}, err
	}

	if err := ctx.Err(); err != nil {
		return TextMel{}, err
	}

	ids, err := l.encoder.Encode(e.Aux)
	if err != nil {
		return TextMel{}, fmt.Errorf("encode text for %s: %w", e.AudioPath, err)
	}

	m, err := l.mels.Acquire(e, nil)
	if err != nil {
		return TextMel{}, err
	}

	l.logger.Debug("loaded text example",
		"index", i,
		"audio", e.AudioPath,
		"text_len", len(ids),
		"mel_shape", m.Shape())

	return TextMel{Text: ids, Mel: m}, nil
}

// NewTextEncoder builds the encoder selected by cfg.Encoder. Unknown cleaner
// names fail with text.ErrUnknownCleaner.
func NewTextEncoder(cfg config.TextConfig) (text.Encoder, error) {
	kind, err := config.NormalizeEncoder(cfg.Encoder)
	if err != nil {
		return nil, err
	}

	if kind == config.EncoderSentencePiece {
		cleaners, err := text.NewPipeline(cfg.Cleaners)
		if err != nil {
			return nil, err
		}

		tok, err := tokenizer.Load(cfg.SentencePieceModel, cleaners)
		if err != nil {
			return nil, err
		}

		return tok, nil
	}

	enc, err := text.NewSymbolEncoder(cfg.Cleaners)
	if err != nil {
		return nil, err
	}

	return enc, nil
}
