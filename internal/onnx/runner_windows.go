//go:build windows

package onnx

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/go-ppg-tts/internal/runtime/tensor"
)

const DefaultAPIVersion = 23

var (
	ErrClosed = errors.New("onnx: runner is closed")

	errUnsupported = errors.New("onnx: purego runtime is not built for windows")
)

type RunnerConfig struct {
	LibraryPath string
	APIVersion  uint32
}

// Runner is a stub; NewRunner never returns one on windows.
type Runner struct {
	name string
}

func NewRunner(name, _ string, _ RunnerConfig) (*Runner, error) {
	return nil, fmt.Errorf("onnx %s: %w", name, errUnsupported)
}

func (r *Runner) Run(context.Context, map[string]*tensor.Tensor) (map[string]*tensor.Tensor, error) {
	return nil, fmt.Errorf("onnx %s: %w", r.name, errUnsupported)
}

func (r *Runner) Close() {}

func (r *Runner) Name() string { return r.name }
