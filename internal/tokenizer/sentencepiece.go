// Package tokenizer maps transcripts to SentencePiece ids as an alternative
// to the symbol table in package text.
package tokenizer

import (
	"errors"
	"fmt"

	gosp "github.com/vikesh-raj/go-sentencepiece-encoder/sentencepiece"

	"github.com/example/go-ppg-tts/internal/text"
)

// ErrEmptyPath is returned by Load when no model path is configured.
var ErrEmptyPath = errors.New("tokenizer: sentencepiece model path is empty")

// SentencePiece encodes cleaned text with a UNIGRAM SentencePiece model.
// It satisfies text.Encoder and is safe for concurrent use.
type SentencePiece struct {
	model    gosp.Sentencepiece
	cleaners text.Pipeline
}

// Load reads the .model protobuf at path. cleaners run before tokenization
// and may be nil.
func Load(path string, cleaners text.Pipeline) (*SentencePiece, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	model, err := gosp.NewSentencepieceFromFile(path, false)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: load %s: %w", path, err)
	}

	return &SentencePiece{model: model, cleaners: cleaners}, nil
}

// Encode returns the piece ids of the cleaned text. Text that cleans down to
// nothing yields an empty, non-nil slice.
func (sp *SentencePiece) Encode(s string) ([]int64, error) {
	cleaned := sp.cleaners.Clean(s)
	if cleaned == "" {
		return []int64{}, nil
	}

	pieces := sp.model.TokenizeToIDs(cleaned)
	ids := make([]int64, 0, len(pieces))
	for _, id := range pieces {
		ids = append(ids, int64(id))
	}

	return ids, nil
}
