package testutil

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/go-ppg-tts/internal/arrayio"
	"github.com/example/go-ppg-tts/internal/audio"
	"github.com/example/go-ppg-tts/internal/manifest"
	"github.com/example/go-ppg-tts/internal/runtime/tensor"
)

// Tone returns n samples of a sine at freq Hz with peak amp.
func Tone(n, sampleRate int, freq, amp float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}

	return out
}

// WriteWAV writes samples as 16-bit mono PCM to dir/name and returns the path.
func WriteWAV(tb testing.TB, dir, name string, samples []float32, sampleRate int) string {
	tb.Helper()

	path := filepath.Join(dir, name)
	if err := audio.WriteWAV(path, samples, sampleRate, audio.DefaultBitDepth); err != nil {
		tb.Fatalf("write wav fixture: %v", err)
	}

	return path
}

// WriteArray writes a rows x cols array filled by fill(r, c). The extension of
// name picks the format.
func WriteArray(tb testing.TB, dir, name string, rows, cols int, fill func(r, c int) float32) string {
	tb.Helper()

	data := make([]float32, rows*cols)
	for r := range rows {
		for c := range cols {
			data[r*cols+c] = fill(r, c)
		}
	}

	t, err := tensor.New(data, []int64{int64(rows), int64(cols)})
	if err != nil {
		tb.Fatalf("array fixture: %v", err)
	}

	path := filepath.Join(dir, name)
	if err := arrayio.Save(path, t); err != nil {
		tb.Fatalf("write array fixture: %v", err)
	}

	return path
}

// WriteManifest writes entries with the default delimiter to dir/name.
func WriteManifest(tb testing.TB, dir, name string, entries []manifest.Entry) string {
	tb.Helper()

	var buf bytes.Buffer
	if err := manifest.Write(&buf, entries, manifest.DefaultDelimiter); err != nil {
		tb.Fatalf("encode manifest fixture: %v", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		tb.Fatalf("write manifest fixture: %v", err)
	}

	return path
}
