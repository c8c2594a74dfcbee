package dataset

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/example/go-ppg-tts/internal/config"
	"github.com/example/go-ppg-tts/internal/manifest"
	"github.com/example/go-ppg-tts/internal/testutil"
	"github.com/example/go-ppg-tts/internal/text"
	"github.com/example/go-ppg-tts/internal/tokenizer"
)

func TestTextMelLoader_Get(t *testing.T) {
	dir := t.TempDir()
	entries := []manifest.Entry{
		{AudioPath: testutil.WriteWAV(t, dir, "a.wav", testutil.Tone(2*testHop, testRate, 220, 0.25), testRate), Aux: "Dr. Who has 2 cats."},
		{AudioPath: testutil.WriteWAV(t, dir, "b.wav", testutil.Tone(5*testHop, testRate, 220, 0.25), testRate), Aux: ""},
	}

	enc, err := NewTextEncoder(config.TextConfig{Cleaners: []string{"english_cleaners"}})
	if err != nil {
		t.Fatalf("NewTextEncoder: %v", err)
	}

	l, err := NewTextMelLoader(entries, testOptions(), fakeTransform{testMels}, enc)
	if err != nil {
		t.Fatalf("NewTextMelLoader: %v", err)
	}

	if l.Len() != 2 {
		t.Fatalf("Len = %d, want 2", l.Len())
	}

	for i := range l.Len() {
		e := mustEntry(t, l, i)

		ex, err := l.Get(context.Background(), i)
		if err != nil {
			t.Fatalf("Get(%d): %v", i, err)
		}

		want, err := text.ToSequence(e.Aux, []string{"english_cleaners"})
		if err != nil {
			t.Fatalf("ToSequence: %v", err)
		}
		if !slices.Equal(ex.Text, want) {
			t.Fatalf("text ids = %v, want %v", ex.Text, want)
		}
		if ex.Mel.Dim(0) != testMels {
			t.Fatalf("mel shape = %v", ex.Mel.Shape())
		}
	}
}

func TestNewTextEncoder(t *testing.T) {
	if _, err := NewTextEncoder(config.TextConfig{Cleaners: []string{"nope"}}); !errors.Is(err, text.ErrUnknownCleaner) {
		t.Fatalf("err = %v, want ErrUnknownCleaner", err)
	}

	_, err := NewTextEncoder(config.TextConfig{Encoder: "spm", Cleaners: []string{"basic_cleaners"}})
	if !errors.Is(err, tokenizer.ErrEmptyPath) {
		t.Fatalf("err = %v, want tokenizer.ErrEmptyPath", err)
	}

	if _, err := NewTextEncoder(config.TextConfig{Encoder: "bpe"}); err == nil {
		t.Fatal("expected error for unknown encoder")
	}
}

func TestNewTextMelLoader_RequiresEncoder(t *testing.T) {
	if _, err := NewTextMelLoader(nil, testOptions(), fakeTransform{testMels}, nil); err == nil {
		t.Fatal("expected error for nil encoder")
	}
}
