package dataset

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"testing"

	"github.com/example/go-ppg-tts/internal/audio"
	"github.com/example/go-ppg-tts/internal/manifest"
	"github.com/example/go-ppg-tts/internal/runtime/tensor"
	"github.com/example/go-ppg-tts/internal/testutil"
)

const (
	testRate  = 22050
	testMels  = 8
	testHop   = 256
	testDim   = 3
	testPhone = 4
)

// fakeTransform emits (channels, 1+n/hop) with frame t holding the sample at
// t*hop in every channel.
type fakeTransform struct {
	channels int
}

func (f fakeTransform) NumMels() int { return f.channels }

func (f fakeTransform) MelSpectrogram(samples []float32) (*tensor.Tensor, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("empty")
	}

	frames := 1 + len(samples)/testHop
	out := make([]float32, f.channels*frames)
	for c := range f.channels {
		for t := range frames {
			out[c*frames+t] = samples[min(t*testHop, len(samples)-1)]
		}
	}

	return tensor.New(out, []int64{int64(f.channels), int64(frames)})
}

type fakeEmbedder struct {
	vec   []float32
	calls atomic.Int64
}

func (f *fakeEmbedder) Dimension() int { return len(f.vec) }

func (f *fakeEmbedder) EmbedUtterance(_ context.Context, w audio.Waveform) ([]float32, error) {
	f.calls.Add(1)
	if len(w.Samples) == 0 {
		return nil, fmt.Errorf("empty waveform")
	}

	return append([]float32(nil), f.vec...), nil
}

func testOptions() Options {
	return Options{
		SampleRate:      testRate,
		MaxWavValue:     32768,
		NumMels:         testMels,
		AppendEmbedding: true,
		EmbeddingDim:    testDim,
		Seed:            1234,
	}
}

// ppgFixture writes n utterances whose PPG frame count is 3+i and whose
// waveform is long enough for a matching mel.
func ppgFixture(t *testing.T, n int) []manifest.Entry {
	t.Helper()

	dir := t.TempDir()
	entries := make([]manifest.Entry, n)
	for i := range n {
		frames := 3 + i
		wav := testutil.WriteWAV(t, dir, fmt.Sprintf("u%d.wav", i),
			testutil.Tone((frames-1)*testHop, testRate, 220, 0.25), testRate)
		ppg := testutil.WriteArray(t, dir, fmt.Sprintf("u%d.npy", i), frames, testPhone, func(r, c int) float32 {
			return float32(i*100 + r*10 + c)
		})
		entries[i] = manifest.Entry{AudioPath: wav, Aux: ppg}
	}

	return entries
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
