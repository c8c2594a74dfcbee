package speaker

import "math"

// VoiceDetector reports whether a 30 ms window of 16 kHz samples in [-1, 1]
// holds speech.
type VoiceDetector interface {
	IsSpeech(frame []float64) bool
}

// utteranceDetector is implemented by stateful detectors that want a fresh
// instance per utterance.
type utteranceDetector interface {
	ForUtterance() (VoiceDetector, error)
}

const (
	// DefaultVADMode is the most aggressive mode, as used for speaker
	// encoder preprocessing.
	DefaultVADMode = 3

	maxVADMode = 3
)

// pcm16 packs samples as little-endian int16, rounding after scaling by
// 32767 and clipping to range.
func pcm16(frame []float64, dst []byte) []byte {
	dst = dst[:0]
	for _, v := range frame {
		s := math.Round(v * math.MaxInt16)
		s = min(max(s, math.MinInt16), math.MaxInt16)
		u := uint16(int16(s))
		dst = append(dst, byte(u), byte(u>>8))
	}

	return dst
}
