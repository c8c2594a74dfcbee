//go:build !windows

package onnx

import (
	"context"
	"errors"
	"fmt"
	"sync"

	ort "github.com/shota3506/onnxruntime-purego/onnxruntime"

	"github.com/example/go-ppg-tts/internal/runtime/tensor"
)

// DefaultAPIVersion is the ORT C API version requested when none is set.
const DefaultAPIVersion = 23

// ErrClosed is returned by Run after Close.
var ErrClosed = errors.New("onnx: runner is closed")

// RunnerConfig holds ORT library settings for creating runners.
type RunnerConfig struct {
	LibraryPath string
	APIVersion  uint32
}

// Runner owns one ORT session. Run may be called concurrently and Close waits
// for in-flight runs to finish.
type Runner struct {
	name string

	mu      sync.RWMutex
	rt      *ort.Runtime
	env     *ort.Env
	session *ort.Session
}

// NewRunner loads the float32 graph at modelPath.
func NewRunner(name, modelPath string, cfg RunnerConfig) (*Runner, error) {
	api := cfg.APIVersion
	if api == 0 {
		api = DefaultAPIVersion
	}

	r := &Runner{name: name}

	var err error
	if r.rt, err = ort.NewRuntime(cfg.LibraryPath, api); err != nil {
		return nil, fmt.Errorf("onnx %s: load runtime %q: %w", name, cfg.LibraryPath, err)
	}

	if r.env, err = r.rt.NewEnv("ppgtts-"+name, ort.LoggingLevelWarning); err != nil {
		r.release()
		return nil, fmt.Errorf("onnx %s: create env: %w", name, err)
	}

	if r.session, err = r.rt.NewSession(r.env, modelPath, nil); err != nil {
		r.release()
		return nil, fmt.Errorf("onnx %s: open %s: %w", name, modelPath, err)
	}

	return r, nil
}

// Run feeds inputs by graph input name and returns every graph output.
func (r *Runner) Run(ctx context.Context, inputs map[string]*tensor.Tensor) (map[string]*tensor.Tensor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.session == nil {
		return nil, fmt.Errorf("onnx %s: %w", r.name, ErrClosed)
	}

	feeds := make(map[string]*ort.Value, len(inputs))
	defer release(feeds)

	for name, t := range inputs {
		v, err := ort.NewTensorValue(r.rt, t.RawData(), t.Shape())
		if err != nil {
			return nil, fmt.Errorf("onnx %s: input %q: %w", r.name, name, err)
		}
		feeds[name] = v
	}

	fetched, err := r.session.Run(ctx, feeds)
	if err != nil {
		return nil, fmt.Errorf("onnx %s: run: %w", r.name, err)
	}
	defer release(fetched)

	out := make(map[string]*tensor.Tensor, len(fetched))
	for name, v := range fetched {
		t, err := float32Tensor(v)
		if err != nil {
			return nil, fmt.Errorf("onnx %s: output %q: %w", r.name, name, err)
		}
		out[name] = t
	}

	return out, nil
}

// Close releases the session. Calling it more than once is harmless.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.release()
}

func (r *Runner) Name() string {
	return r.name
}

func (r *Runner) release() {
	if r.session != nil {
		r.session.Close()
		r.session = nil
	}
	if r.env != nil {
		r.env.Close()
		r.env = nil
	}
	if r.rt != nil {
		_ = r.rt.Close()
		r.rt = nil
	}
}

// float32Tensor copies an ORT float tensor out of ORT-owned memory.
func float32Tensor(v *ort.Value) (*tensor.Tensor, error) {
	typ, err := v.GetTensorElementType()
	if err != nil {
		return nil, fmt.Errorf("element type: %w", err)
	}
	if typ != ort.ONNXTensorElementDataTypeFloat {
		return nil, fmt.Errorf("element type %d is not float32", typ)
	}

	data, shape, err := ort.GetTensorData[float32](v)
	if err != nil {
		return nil, err
	}

	return tensor.New(data, shape)
}

func release(vals map[string]*ort.Value) {
	for _, v := range vals {
		if v != nil {
			v.Close()
		}
	}
}
