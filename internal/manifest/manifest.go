// Package manifest reads delimiter-separated training manifests.
package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"
)

const DefaultDelimiter = "|"

// ErrMalformedLine is returned for a non-blank line with fewer than two fields.
var ErrMalformedLine = errors.New("malformed manifest line")

// Entry is one manifest line: the audio path, an auxiliary field (PPG array
// path or raw transcript) and an optional precomputed mel path.
type Entry struct {
	AudioPath string
	Aux       string
	MelPath   string
}

// Load reads the manifest at path.
func Load(path, delimiter string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	entries, err := Parse(f, delimiter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return entries, nil
}

// Parse reads manifest lines from r. Blank lines are skipped.
func Parse(r io.Reader, delimiter string) ([]Entry, error) {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}

	var entries []Entry

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	lineNo := 0
	for sc.Scan() {
		lineNo++

		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		fields := strings.Split(line, delimiter)
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: line %d has %d field(s), want at least 2", ErrMalformedLine, lineNo, len(fields))
		}

		e := Entry{AudioPath: fields[0], Aux: fields[1]}
		if len(fields) > 2 {
			e.MelPath = fields[2]
		}

		entries = append(entries, e)
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	return entries, nil
}

// Shuffle returns a permutation of entries determined only by seed.
// The input slice is left untouched.
func Shuffle(entries []Entry, seed int64) []Entry {
	out := append([]Entry(nil), entries...)
	rng := NewRand(seed)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })

	return out
}

// NewRand returns an instance-local generator for seed.
func NewRand(seed int64) *rand.Rand {
	s := uint64(seed)
	return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
}

// Write serializes entries in manifest form. The mel field is written only
// when set.
func Write(w io.Writer, entries []Entry, delimiter string) error {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}

	bw := bufio.NewWriter(w)
	for _, e := range entries {
		fields := []string{e.AudioPath, e.Aux}
		if e.MelPath != "" {
			fields = append(fields, e.MelPath)
		}

		if _, err := bw.WriteString(strings.Join(fields, delimiter) + "\n"); err != nil {
			return err
		}
	}

	return bw.Flush()
}
