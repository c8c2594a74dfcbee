//go:build !cgo

package speaker

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// EnergyDetector marks a window as speech when its mean power exceeds
// ThresholdDBFS. It stands in for the WebRTC detector in builds without cgo.
type EnergyDetector struct {
	ThresholdDBFS float64
}

// DetectorForMode maps an aggressiveness mode in [0, 3] to an
// EnergyDetector; higher modes reject more low-level audio.
func DetectorForMode(mode int) (VoiceDetector, error) {
	if mode < 0 || mode > maxVADMode {
		return nil, fmt.Errorf("speaker: vad mode %d outside [0, %d]", mode, maxVADMode)
	}

	return EnergyDetector{ThresholdDBFS: -60 + 5*float64(mode)}, nil
}

func (d EnergyDetector) IsSpeech(frame []float64) bool {
	if len(frame) == 0 {
		return false
	}

	power := floats.Dot(frame, frame) / float64(len(frame))
	if power == 0 {
		return false
	}

	return 10*math.Log10(power) > d.ThresholdDBFS
}
