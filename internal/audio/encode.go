package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/cwbudde/wav"
	goaudio "github.com/go-audio/audio"
)

const DefaultBitDepth = 16

const formatPCM = 1

var pcmDepths = []int{8, 16, 24, 32}

// EncodeWAV encodes normalized samples as mono integer PCM in memory.
func EncodeWAV(samples []float32, sampleRate, bitDepth int) ([]byte, error) {
	var mem memFile
	if err := encode(&mem, samples, sampleRate, bitDepth); err != nil {
		return nil, err
	}

	return mem.data, nil
}

// WriteWAV encodes samples into a new file at path.
func WriteWAV(path string, samples []float32, sampleRate, bitDepth int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}

	if err := encode(f, samples, sampleRate, bitDepth); err != nil {
		_ = f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}

	return f.Close()
}

func encode(w io.WriteSeeker, samples []float32, sampleRate, bitDepth int) error {
	switch {
	case sampleRate < 1:
		return fmt.Errorf("%w: sample rate %d", ErrFormatMismatch, sampleRate)
	case !slices.Contains(pcmDepths, bitDepth):
		return fmt.Errorf("%w: bit depth %d", ErrFormatMismatch, bitDepth)
	}

	enc := wav.NewEncoder(w, sampleRate, bitDepth, 1, formatPCM)

	err := enc.Write(&goaudio.Float32Buffer{
		Data:           samples,
		Format:         &goaudio.Format{SampleRate: sampleRate, NumChannels: 1},
		SourceBitDepth: bitDepth,
	})
	if err != nil {
		return fmt.Errorf("write PCM: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("finish WAV header: %w", err)
	}

	return nil
}

// memFile is an in-memory io.WriteSeeker; the WAV encoder seeks back to patch
// chunk sizes once the data is written.
type memFile struct {
	data []byte
	pos  int64
}

func (m *memFile) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.data)) {
		m.data = slices.Grow(m.data, int(end)-len(m.data))[:end]
	}

	copy(m.data[m.pos:], p)
	m.pos = end

	return len(p), nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	var base int64

	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = m.pos
	case io.SeekEnd:
		base = int64(len(m.data))
	default:
		return 0, fmt.Errorf("seek: invalid whence %d", whence)
	}

	if base+offset < 0 {
		return 0, errors.New("seek: negative position")
	}

	m.pos = base + offset

	return m.pos, nil
}
