package tokenizer

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/example/go-ppg-tts/internal/text"
)

var _ text.Encoder = (*SentencePiece)(nil)

// loadModel opens the model named by PPGTTS_SPM_MODEL, skipping when unset.
func loadModel(t *testing.T, cleaners text.Pipeline) *SentencePiece {
	t.Helper()

	path := os.Getenv("PPGTTS_SPM_MODEL")
	if path == "" {
		t.Skip("set PPGTTS_SPM_MODEL to a sentencepiece .model file")
	}

	sp, err := Load(path, cleaners)
	if err != nil {
		t.Fatalf("Load(%s): %v", path, err)
	}

	return sp
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load("", nil); !errors.Is(err, ErrEmptyPath) {
		t.Fatalf("Load(\"\") = %v, want ErrEmptyPath", err)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "absent.model"), nil); err == nil {
		t.Fatal("Load of a missing file succeeded")
	}

	junk := filepath.Join(t.TempDir(), "junk.model")
	if err := os.WriteFile(junk, []byte("not a protobuf"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(junk, nil); err == nil {
		t.Fatal("Load of a corrupt model succeeded")
	}
}

func TestEncodeBlank(t *testing.T) {
	sp := loadModel(t, nil)

	for _, s := range []string{"", "   "} {
		ids, err := sp.Encode(s)
		if err != nil {
			t.Fatalf("Encode(%q): %v", s, err)
		}
		if ids == nil {
			t.Fatalf("Encode(%q) returned nil", s)
		}
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	sp := loadModel(t, nil)

	const s = "printing in the only sense with which we are at present concerned"

	a, _ := sp.Encode(s)
	b, _ := sp.Encode(s)
	if len(a) == 0 || !slices.Equal(a, b) {
		t.Fatalf("Encode not stable: %v vs %v", a, b)
	}
}

func TestEncodeRunsCleaners(t *testing.T) {
	cleaners, err := text.NewPipeline([]string{"english_cleaners"})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	raw := loadModel(t, nil)
	clean := loadModel(t, cleaners)

	want, _ := raw.Encode("doctor smith has two cats")
	got, _ := clean.Encode("Dr. Smith has 2 cats")
	if !slices.Equal(got, want) {
		t.Fatalf("cleaned ids = %v, want %v", got, want)
	}
}
