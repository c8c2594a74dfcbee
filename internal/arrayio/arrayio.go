// Package arrayio loads and stores the 2-D float arrays used for PPGs and
// precomputed mel spectrograms.
package arrayio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/example/go-ppg-tts/internal/runtime/tensor"
	"github.com/example/go-ppg-tts/internal/safetensors"
)

const (
	ExtNPY         = ".npy"
	ExtSafetensors = ".safetensors"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported array format")
	ErrNotMatrix         = errors.New("array is not 2-D")
)

// Load reads an array, choosing the decoder by file extension.
func Load(path string) (*tensor.Tensor, error) {
	var (
		t   *tensor.Tensor
		err error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ExtNPY:
		t, err = loadNPY(path)
	case ExtSafetensors:
		t, err = loadSafetensors(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	return t, nil
}

// LoadMatrix reads an array and requires it to be 2-D.
func LoadMatrix(path string) (*tensor.Tensor, error) {
	t, err := Load(path)
	if err != nil {
		return nil, err
	}

	if t.Rank() != 2 {
		return nil, fmt.Errorf("%w: %s has shape %v", ErrNotMatrix, path, t.Shape())
	}

	return t, nil
}

// Save writes t, choosing the encoder by file extension.
func Save(path string, t *tensor.Tensor) error {
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ExtNPY:
		err = saveNPY(path, t)
	case ExtSafetensors:
		err = safetensors.WriteFile(path, []safetensors.Tensor{{
			Name:  strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			Shape: t.Shape(),
			Data:  t.RawData(),
		}}, nil)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}

	return nil
}

func loadSafetensors(path string) (*tensor.Tensor, error) {
	st, err := safetensors.LoadFirstTensor(path)
	if err != nil {
		return nil, err
	}

	return tensor.FromOwned(st.Data, st.Shape)
}
