package speaker

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/example/go-ppg-tts/internal/audio"
)

// loudness marks windows above -45 dBFS as speech.
type loudness struct{}

func (loudness) IsSpeech(frame []float64) bool {
	return len(frame) > 0 && floats.Dot(frame, frame)/float64(len(frame)) > 3e-5
}

func tone(n int, amp float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amp * math.Sin(2*math.Pi*220*float64(i)/SampleRate))
	}

	return out
}

func dbfs(x []float32) float64 {
	v := toFloat64(x)
	return 10 * math.Log10(floats.Dot(v, v)/float64(len(v)))
}

func TestNormalizeVolumeRaisesQuietSignal(t *testing.T) {
	got := NormalizeVolume(tone(SampleRate, 0.001), TargetDBFS, true)
	if d := dbfs(got); math.Abs(d-TargetDBFS) > 0.01 {
		t.Fatalf("level = %.3f dBFS, want %.1f", d, TargetDBFS)
	}
}

func TestNormalizeVolumeIncreaseOnly(t *testing.T) {
	in := tone(SampleRate, 0.5)

	got := NormalizeVolume(in, TargetDBFS, true)
	if &got[0] != &in[0] {
		t.Fatal("loud signal should be returned unchanged")
	}

	lowered := NormalizeVolume(in, TargetDBFS, false)
	if d := dbfs(lowered); math.Abs(d-TargetDBFS) > 0.01 {
		t.Fatalf("level = %.3f dBFS, want %.1f", d, TargetDBFS)
	}
}

func TestNormalizeVolumeSilence(t *testing.T) {
	in := make([]float32, 100)
	for _, v := range NormalizeVolume(in, TargetDBFS, true) {
		if v != 0 {
			t.Fatalf("silence changed: %v", v)
		}
	}
}

func TestTrimLongSilences(t *testing.T) {
	wav := make([]float32, 3*SampleRate)
	copy(wav[SampleRate:], tone(SampleRate, 0.3))

	got := TrimLongSilences(wav, loudness{})
	if len(got) < SampleRate-960 || len(got) > SampleRate+16*480 {
		t.Fatalf("trimmed length = %d, want about %d", len(got), SampleRate)
	}
	if len(got)%480 != 0 {
		t.Fatalf("trimmed length %d is not a whole number of windows", len(got))
	}
}

func TestTrimLongSilencesKeepsShortPauses(t *testing.T) {
	wav := tone(2*SampleRate, 0.3)
	// 60 ms gap is shorter than the dilation window.
	for i := SampleRate; i < SampleRate+960; i++ {
		wav[i] = 0
	}

	got := TrimLongSilences(wav, loudness{})
	if want := len(wav) / 480 * 480; len(got) != want {
		t.Fatalf("len = %d, want %d", len(got), want)
	}
}

func TestMovingAverage(t *testing.T) {
	got := movingAverage([]float64{0, 0, 0, 1, 1, 1, 1, 0, 0, 0}, 4)
	want := []float64{0, 0.25, 0.5, 0.75, 1, 0.75, 0.5, 0.25, 0, 0}
	if !floats.EqualApprox(got, want, 1e-12) {
		t.Fatalf("movingAverage = %v, want %v", got, want)
	}
}

func TestDilate(t *testing.T) {
	got := dilate([]bool{false, false, false, true, false, false, false, false}, 3)
	want := []bool{false, false, true, true, true, false, false, false}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("dilate = %v, want %v", got, want)
		}
	}
}

func TestPreprocessResamples(t *testing.T) {
	w := audio.Waveform{Samples: tone(22050, 0.3), SampleRate: 22050, BitDepth: 16}

	got, err := Preprocess(w, alwaysSpeech{})
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	// One second resamples to 16000 samples, trimmed to whole 30 ms windows.
	if want := SampleRate / 480 * 480; len(got) != want {
		t.Fatalf("len = %d, want %d", len(got), want)
	}

	if _, err := Preprocess(audio.Waveform{SampleRate: 16000}, alwaysSpeech{}); err == nil {
		t.Fatal("expected error for empty waveform")
	}
}
