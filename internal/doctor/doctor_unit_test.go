package doctor

import (
	"errors"
	"testing"

	"github.com/example/go-ppg-tts/internal/dataset"
	"github.com/example/go-ppg-tts/internal/manifest"
	"github.com/example/go-ppg-tts/internal/testutil"
	"github.com/example/go-ppg-tts/internal/text"
)

func TestORTMinor(t *testing.T) {
	good := map[string]int{
		"1.23.0":   23,
		"1.9":      9,
		"v1.20.1":  20,
		"1.24.2-x": 24,
	}
	for ver, want := range good {
		got, err := ortMinor(ver)
		if err != nil || got != want {
			t.Errorf("ortMinor(%q) = %d, %v; want %d", ver, got, err, want)
		}
	}

	for _, ver := range []string{"", "1", "2.0.0", "one.two", "1.x", "1.-3"} {
		if _, err := ortMinor(ver); err == nil {
			t.Errorf("ortMinor(%q): expected error", ver)
		}
	}
}

func TestCheckORTVersion(t *testing.T) {
	cases := []struct {
		ver string
		api uint32
		ok  bool
	}{
		{"1.23.0", 23, true},
		{"1.24.2", 23, true},
		{"1.17.3", 17, true},
		{"1.22.9", 23, false},
		{"2.0.0", 23, false},
	}

	for _, tc := range cases {
		err := checkORTVersion(tc.ver, tc.api)
		if (err == nil) != tc.ok {
			t.Errorf("checkORTVersion(%q, %d) = %v, want ok=%v", tc.ver, tc.api, err, tc.ok)
		}
	}
}

func TestCheckEntry_TextWaveformRate(t *testing.T) {
	dir := t.TempDir()
	e := manifest.Entry{
		AudioPath: testutil.WriteWAV(t, dir, "a.wav", testutil.Tone(800, 16000, 330, 0.4), 16000),
		Aux:       "some words",
	}

	cfg := Config{Kind: KindText, SampleRate: 16000}
	if err := checkEntry(cfg, nil, e); err != nil {
		t.Fatalf("checkEntry at matching rate: %v", err)
	}

	cfg.SampleRate = 22050
	if err := checkEntry(cfg, nil, e); !errors.Is(err, dataset.ErrSampleRateMismatch) {
		t.Fatalf("checkEntry at 22050 = %v, want ErrSampleRateMismatch", err)
	}
}

func TestCheckEntry_BlankTranscript(t *testing.T) {
	e := manifest.Entry{
		AudioPath: testutil.WriteWAV(t, t.TempDir(), "a.wav", testutil.Tone(800, 16000, 330, 0.4), 16000),
		Aux:       " \t ",
	}

	if err := checkEntry(Config{Kind: KindText, SampleRate: 16000}, nil, e); !errors.Is(err, text.ErrEmptyText) {
		t.Fatalf("checkEntry = %v, want text.ErrEmptyText", err)
	}
}

func TestCheckEntry_PPGNeedsReadableFrames(t *testing.T) {
	dir := t.TempDir()
	e := manifest.Entry{
		AudioPath: testutil.WriteWAV(t, dir, "a.wav", testutil.Tone(800, 16000, 330, 0.4), 16000),
		Aux:       dir + "/missing.npy",
	}

	if err := checkEntry(Config{Kind: KindPPG, SampleRate: 16000}, nil, e); err == nil {
		t.Fatal("expected error for missing PPG file")
	}
}
