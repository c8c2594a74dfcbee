package speaker

import "math"

const (
	// DefaultPartialRate is how many partials start per second of audio.
	DefaultPartialRate = 1.3
	// DefaultMinCoverage is the fraction of the last partial that must be
	// covered by real audio for it to be kept.
	DefaultMinCoverage = 0.75
)

// Slice is a half-open range of mel frames.
type Slice struct {
	Start, End int
}

// PartialSlices splits an utterance of nSamples at 16 kHz into overlapping
// windows of PartialFrames mel frames. At least one slice is returned.
func PartialSlices(nSamples int, rate, minCoverage float64) []Slice {
	nFrames := int(math.Ceil(float64(nSamples+1) / samplesPerFrame))
	frameStep := max(1, int(math.Round(SampleRate/rate/samplesPerFrame)))

	steps := max(1, nFrames-PartialFrames+frameStep+1)

	var out []Slice
	for i := 0; i < steps; i += frameStep {
		out = append(out, Slice{Start: i, End: i + PartialFrames})
	}

	last := out[len(out)-1]
	coverage := float64(nSamples-last.Start*samplesPerFrame) / float64((last.End-last.Start)*samplesPerFrame)
	if coverage < minCoverage && len(out) > 1 {
		out = out[:len(out)-1]
	}

	return out
}
