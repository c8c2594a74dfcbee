package text

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrUnknownCleaner is returned for a cleaner name that is not registered.
var ErrUnknownCleaner = errors.New("unknown text cleaner")

// Cleaner rewrites raw text before it is mapped to symbols.
type Cleaner func(string) string

var cleaners = map[string]Cleaner{
	"basic_cleaners":           BasicCleaners,
	"transliteration_cleaners": TransliterationCleaners,
	"english_cleaners":         EnglishCleaners,
}

// BasicCleaners lowercases and collapses whitespace without transliteration.
func BasicCleaners(s string) string {
	return CollapseWhitespace(Lowercase(s))
}

// TransliterationCleaners is for non-English text written in Latin-like
// scripts.
func TransliterationCleaners(s string) string {
	return CollapseWhitespace(Lowercase(ToASCII(s)))
}

// EnglishCleaners also expands numbers and abbreviations.
func EnglishCleaners(s string) string {
	s = Lowercase(ToASCII(s))
	s = ExpandNumbers(s)
	s = ExpandAbbreviations(s)

	return CollapseWhitespace(s)
}

// CleanerNames lists the registered cleaners in sorted order.
func CleanerNames() []string {
	names := make([]string, 0, len(cleaners))
	for name := range cleaners {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

// Pipeline applies cleaners in order.
type Pipeline []Cleaner

// NewPipeline resolves names to cleaners. Any unknown name fails with
// ErrUnknownCleaner.
func NewPipeline(names []string) (Pipeline, error) {
	p := make(Pipeline, 0, len(names))
	for _, name := range names {
		c, ok := cleaners[strings.TrimSpace(name)]
		if !ok {
			return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownCleaner, name, strings.Join(CleanerNames(), ", "))
		}
		p = append(p, c)
	}

	return p, nil
}

func (p Pipeline) Clean(s string) string {
	for _, c := range p {
		s = c(s)
	}

	return s
}
