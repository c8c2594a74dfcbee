// Package text turns transcripts into symbol id sequences.
//
// Text is cleaned by a named pipeline of cleaners and then mapped through a
// fixed symbol table. Segments in curly braces are read as space separated
// ARPAbet phonemes and bypass cleaning: "Turn left on {HH AW1 S S T AH0 N}".
package text

import (
	"strings"
)

// Encoder maps text to input ids. SymbolEncoder and the SentencePiece
// tokenizer both satisfy it.
type Encoder interface {
	Encode(text string) ([]int64, error)
}

// SymbolEncoder is an Encoder over the symbol table.
type SymbolEncoder struct {
	pipeline Pipeline
}

func NewSymbolEncoder(cleanerNames []string) (*SymbolEncoder, error) {
	p, err := NewPipeline(cleanerNames)
	if err != nil {
		return nil, err
	}

	return &SymbolEncoder{pipeline: p}, nil
}

func (e *SymbolEncoder) Encode(s string) ([]int64, error) {
	return e.pipeline.sequence(s), nil
}

// ToSequence cleans s with the named cleaners and returns its symbol ids.
// Characters missing from the symbol table are dropped.
func ToSequence(s string, cleanerNames []string) ([]int64, error) {
	p, err := NewPipeline(cleanerNames)
	if err != nil {
		return nil, err
	}

	return p.sequence(s), nil
}

func (p Pipeline) sequence(s string) []int64 {
	out := []int64{}
	for s != "" {
		open := strings.IndexByte(s, '{')
		if open < 0 {
			return symbolsToSequence(p.Clean(s), out)
		}

		end := strings.IndexByte(s[open+1:], '}')
		if end <= 0 {
			return symbolsToSequence(p.Clean(s), out)
		}
		end += open + 1

		out = symbolsToSequence(p.Clean(s[:open]), out)
		out = arpabetToSequence(s[open+1:end], out)
		s = s[end+1:]
	}

	return out
}

// SequenceToText maps ids back to symbols. Consecutive ARPAbet symbols are
// re-wrapped in curly braces.
func SequenceToText(ids []int64) string {
	var b strings.Builder
	inArpabet := false

	for _, id := range ids {
		if id < 0 || int(id) >= len(Symbols) {
			continue
		}

		sym := Symbols[id]
		if strings.HasPrefix(sym, "@") {
			if inArpabet {
				b.WriteByte(' ')
			} else {
				b.WriteByte('{')
				inArpabet = true
			}
			b.WriteString(sym[1:])
			continue
		}

		if inArpabet {
			b.WriteByte('}')
			inArpabet = false
		}
		b.WriteString(sym)
	}

	if inArpabet {
		b.WriteByte('}')
	}

	return b.String()
}
