package config

import (
	"fmt"
	"strings"
)

const (
	EncoderSymbols       = "symbols"
	EncoderSentencePiece = "sentencepiece"
)

func NormalizeEncoder(raw string) (string, error) {
	enc := strings.ToLower(strings.TrimSpace(raw))
	if enc == "" {
		enc = EncoderSymbols
	}
	switch enc {
	case EncoderSymbols, EncoderSentencePiece:
		return enc, nil
	case "spm":
		return EncoderSentencePiece, nil
	default:
		return "", fmt.Errorf(
			"invalid text encoder %q (expected %s|%s|spm)",
			raw,
			EncoderSymbols,
			EncoderSentencePiece,
		)
	}
}
