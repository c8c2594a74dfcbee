package dataset

import (
	"errors"
	"strings"
	"testing"

	"github.com/example/go-ppg-tts/internal/audio"
	"github.com/example/go-ppg-tts/internal/manifest"
	"github.com/example/go-ppg-tts/internal/testutil"
)

func TestNewMelSource(t *testing.T) {
	tests := []struct {
		name      string
		transform fakeTransform
		nilXform  bool
		fromDisk  bool
		wantErr   error
		anyErr    bool
	}{
		{name: "matching channels", transform: fakeTransform{testMels}},
		{name: "channel mismatch", transform: fakeTransform{testMels + 1}, wantErr: ErrMelChannelMismatch},
		{name: "nil transform from disk", nilXform: true, fromDisk: true},
		{name: "nil transform from audio", nilXform: true, anyErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			opts.LoadMelFromDisk = tt.fromDisk

			var err error
			if tt.nilXform {
				_, err = NewMelSource(nil, opts)
			} else {
				_, err = NewMelSource(tt.transform, opts)
			}

			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
			case tt.anyErr:
				if err == nil {
					t.Fatal("expected error")
				}
			case err != nil:
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestMelSource_FromWaveformScalesByMaxWavValue(t *testing.T) {
	src, err := NewMelSource(fakeTransform{1}, Options{SampleRate: testRate, MaxWavValue: 16384, NumMels: 1})
	if err != nil {
		t.Fatalf("NewMelSource: %v", err)
	}

	w := audio.Waveform{Samples: []float32{0.25, -0.5}, SampleRate: testRate, BitDepth: 16}

	m, err := src.FromWaveform(w)
	if err != nil {
		t.Fatalf("FromWaveform: %v", err)
	}

	// 0.25 * 32768 / 16384
	if v, _ := m.At(0, 0); !approxEqual(float64(v), 0.5, 1e-6) {
		t.Fatalf("scaled sample = %v, want 0.5", v)
	}
}

func TestMelSource_SampleRateMismatchMessage(t *testing.T) {
	src, err := NewMelSource(fakeTransform{testMels}, testOptions())
	if err != nil {
		t.Fatalf("NewMelSource: %v", err)
	}

	_, err = src.FromWaveform(audio.Waveform{Samples: []float32{0}, SampleRate: 16000, BitDepth: 16})
	if !errors.Is(err, ErrSampleRateMismatch) {
		t.Fatalf("err = %v, want ErrSampleRateMismatch", err)
	}
	if !strings.Contains(err.Error(), "16000 SR doesn't match target 22050 SR") {
		t.Fatalf("message = %q", err)
	}
}

func TestMelSource_FromDisk(t *testing.T) {
	dir := t.TempDir()
	good := testutil.WriteArray(t, dir, "good.npy", testMels, 5, func(r, c int) float32 { return float32(r + c) })
	empty := testutil.WriteArray(t, dir, "empty.safetensors", testMels, 0, func(int, int) float32 { return 0 })
	bad := testutil.WriteArray(t, dir, "bad.safetensors", testMels-2, 5, func(int, int) float32 { return 0 })

	opts := testOptions()
	opts.LoadMelFromDisk = true

	src, err := NewMelSource(nil, opts)
	if err != nil {
		t.Fatalf("NewMelSource: %v", err)
	}

	t.Run("mel path", func(t *testing.T) {
		m, err := src.Acquire(manifest.Entry{AudioPath: "missing.wav", Aux: "x", MelPath: good}, nil)
		if err != nil {
			t.Fatalf("Acquire: %v", err)
		}
		if m.Dim(0) != testMels || m.Dim(1) != 5 {
			t.Fatalf("shape = %v", m.Shape())
		}
	})

	t.Run("audio path fallback", func(t *testing.T) {
		if _, err := src.Acquire(manifest.Entry{AudioPath: good, Aux: "x"}, nil); err != nil {
			t.Fatalf("Acquire: %v", err)
		}
	})

	t.Run("channel mismatch", func(t *testing.T) {
		m, err := src.Acquire(manifest.Entry{AudioPath: "a.wav", MelPath: bad}, nil)
		if !errors.Is(err, ErrMelChannelMismatch) {
			t.Fatalf("err = %v, want ErrMelChannelMismatch", err)
		}
		if m != nil {
			t.Fatal("expected nil mel on error")
		}
		if !strings.Contains(err.Error(), "mel dimension mismatch: given 6, expected 8") {
			t.Fatalf("message = %q", err)
		}
	})

	t.Run("no frames", func(t *testing.T) {
		m, err := src.Acquire(manifest.Entry{AudioPath: "a.wav", MelPath: empty}, nil)
		if !errors.Is(err, ErrEmptyTarget) {
			t.Fatalf("err = %v, want ErrEmptyTarget", err)
		}
		if m != nil || !strings.Contains(err.Error(), "empty.safetensors") {
			t.Fatalf("mel = %v, err = %q", m, err)
		}
	})
}
