package speaker

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/example/go-ppg-tts/internal/audio"
)

const (
	TargetDBFS = -30.0

	vadWindowMs        = 30
	vadAverageWidth    = 8
	vadMaxSilenceWidth = 6
)

// Preprocess resamples w to 16 kHz, raises its volume to TargetDBFS and trims
// long silences. If trimming would remove everything the untrimmed signal is
// returned.
func Preprocess(w audio.Waveform, detector VoiceDetector) ([]float32, error) {
	if len(w.Samples) == 0 {
		return nil, ErrEmptyUtterance
	}

	wav, err := audio.Resample(w.Samples, w.SampleRate, SampleRate)
	if err != nil {
		return nil, fmt.Errorf("speaker resample: %w", err)
	}

	wav = NormalizeVolume(wav, TargetDBFS, true)

	if trimmed := TrimLongSilences(wav, detector); len(trimmed) > 0 {
		wav = trimmed
	}

	return wav, nil
}

// NormalizeVolume scales wav to targetDBFS of mean power. With increaseOnly
// louder signals are returned unchanged. Silent input is returned as is.
func NormalizeVolume(wav []float32, targetDBFS float64, increaseOnly bool) []float32 {
	x := toFloat64(wav)
	if len(x) == 0 {
		return wav
	}

	meanPower := floats.Dot(x, x) / float64(len(x))
	if meanPower == 0 {
		return wav
	}

	change := targetDBFS - 10*math.Log10(meanPower)
	if change < 0 && increaseOnly {
		return wav
	}

	floats.Scale(math.Pow(10, change/20), x)

	return toFloat32(x)
}

// TrimLongSilences drops runs of non-speech longer than the dilation window.
// The tail that does not fill a whole 30 ms window is discarded.
func TrimLongSilences(wav []float32, detector VoiceDetector) []float32 {
	window := vadWindowMs * SampleRate / 1000
	nWindows := len(wav) / window
	if nWindows == 0 {
		return nil
	}

	if u, ok := detector.(utteranceDetector); ok {
		if fresh, err := u.ForUtterance(); err == nil {
			detector = fresh
		}
	}

	flags := make([]float64, nWindows)
	frame := make([]float64, window)
	for i := range nWindows {
		for j := range window {
			frame[j] = float64(wav[i*window+j])
		}
		if detector.IsSpeech(frame) {
			flags[i] = 1
		}
	}

	smoothed := movingAverage(flags, vadAverageWidth)

	mask := make([]bool, nWindows)
	for i, v := range smoothed {
		mask[i] = math.RoundToEven(v) != 0
	}
	mask = dilate(mask, vadMaxSilenceWidth+1)

	out := make([]float32, 0, len(wav))
	for i, keep := range mask {
		if keep {
			out = append(out, wav[i*window:(i+1)*window]...)
		}
	}

	return out
}

// movingAverage returns a same-length centered running mean, zero padded.
func movingAverage(x []float64, width int) []float64 {
	left := (width - 1) / 2
	padded := make([]float64, left+len(x)+width/2)
	copy(padded[left:], x)

	cum := make([]float64, len(padded))
	floats.CumSum(cum, padded)

	out := make([]float64, len(x))
	for i := range out {
		end := i + width - 1
		sum := cum[end]
		if i > 0 {
			sum -= cum[i-1]
		}
		out[i] = sum / float64(width)
	}

	return out
}

// dilate applies a centered binary dilation with a structuring element of
// size ones.
func dilate(mask []bool, size int) []bool {
	lo := size / 2
	hi := size - 1 - lo

	out := make([]bool, len(mask))
	for i := range mask {
		for j := max(0, i-lo); j <= min(len(mask)-1, i+hi); j++ {
			if mask[j] {
				out[i] = true
				break
			}
		}
	}

	return out
}

func toFloat64(x []float32) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = float64(v)
	}

	return out
}

func toFloat32(x []float64) []float32 {
	out := make([]float32, len(x))
	for i, v := range x {
		out[i] = float32(v)
	}

	return out
}
