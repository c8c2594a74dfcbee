//go:build cgo

package speaker

import (
	"fmt"
	"sync"

	"github.com/maxhawkins/go-webrtcvad"
)

// WebRTCDetector classifies frames with the WebRTC voice activity detector.
// IsSpeech on the detector itself serializes on one shared instance;
// TrimLongSilences asks for a fresh instance per utterance instead.
type WebRTCDetector struct {
	mode int

	mu  sync.Mutex
	vad *webrtcvad.VAD
	buf []byte
}

// NewWebRTCDetector creates a detector at aggressiveness mode in [0, 3].
func NewWebRTCDetector(mode int) (*WebRTCDetector, error) {
	if mode < 0 || mode > maxVADMode {
		return nil, fmt.Errorf("speaker: vad mode %d outside [0, %d]", mode, maxVADMode)
	}

	vad, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("speaker: create webrtc vad: %w", err)
	}
	if err := vad.SetMode(mode); err != nil {
		return nil, fmt.Errorf("speaker: set vad mode %d: %w", mode, err)
	}

	return &WebRTCDetector{mode: mode, vad: vad}, nil
}

// DetectorForMode returns the WebRTC detector at mode.
func DetectorForMode(mode int) (VoiceDetector, error) {
	d, err := NewWebRTCDetector(mode)
	if err != nil {
		return nil, err
	}

	return d, nil
}

func (d *WebRTCDetector) ForUtterance() (VoiceDetector, error) {
	return DetectorForMode(d.mode)
}

// IsSpeech reports false for frames the detector rejects, such as lengths
// other than 10, 20 or 30 ms.
func (d *WebRTCDetector) IsSpeech(frame []float64) bool {
	switch len(frame) {
	case SampleRate / 100, SampleRate / 50, 3 * SampleRate / 100:
	default:
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.buf = pcm16(frame, d.buf)

	active, err := d.vad.Process(SampleRate, d.buf)
	return err == nil && active
}
