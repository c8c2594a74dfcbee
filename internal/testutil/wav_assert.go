package testutil

import (
	"os"
	"testing"
	"time"

	"github.com/example/go-ppg-tts/internal/audio"
)

// ReadWAV decodes the mono WAV at path and checks its rate and bit depth.
func ReadWAV(tb testing.TB, path string, sampleRate, bitDepth int) audio.Waveform {
	tb.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		tb.Fatalf("read %s: %v", path, err)
	}

	return AssertWAV(tb, data, sampleRate, bitDepth)
}

// AssertWAV decodes data and fails unless it is a non-empty mono WAV at
// sampleRate and bitDepth.
func AssertWAV(tb testing.TB, data []byte, sampleRate, bitDepth int) audio.Waveform {
	tb.Helper()

	w, err := audio.DecodeWAV(data)
	if err != nil {
		tb.Fatalf("decode WAV: %v", err)
	}

	if w.SampleRate != sampleRate {
		tb.Fatalf("WAV sample rate = %d, want %d", w.SampleRate, sampleRate)
	}

	if w.BitDepth != bitDepth {
		tb.Fatalf("WAV bit depth = %d, want %d", w.BitDepth, bitDepth)
	}

	if len(w.Samples) == 0 {
		tb.Fatal("WAV holds no samples")
	}

	return w
}

// AssertDuration fails unless w lasts within tolerance of want.
func AssertDuration(tb testing.TB, w audio.Waveform, want, tolerance time.Duration) {
	tb.Helper()

	if got := w.Duration(); got < want-tolerance || got > want+tolerance {
		tb.Fatalf("WAV duration = %v, want %v ± %v", got, want, tolerance)
	}
}
