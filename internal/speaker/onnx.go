package speaker

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/example/go-ppg-tts/internal/config"
	"github.com/example/go-ppg-tts/internal/onnx"
)

// Open builds an Encoder over the ONNX speaker model named in cfg. The
// returned Encoder owns the session; call Close when done.
func Open(cfg config.SpeakerConfig, rt config.RuntimeConfig, logger *slog.Logger) (*Encoder, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("speaker: model path is empty")
	}

	info, err := onnx.DetectRuntime(rt)
	if err != nil {
		return nil, err
	}

	detector, err := DetectorForMode(cfg.VADMode)
	if err != nil {
		return nil, err
	}

	runner, err := onnx.NewRunner("speaker", cfg.ModelPath, onnx.RunnerConfig{
		LibraryPath: info.LibraryPath,
		APIVersion:  rt.ORTAPIVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("speaker: %w", err)
	}

	enc, err := NewEncoder(runner, Options{
		Dimension:  cfg.Dimension,
		InputName:  cfg.InputName,
		OutputName: cfg.OutputName,
		Detector:   detector,
		Logger:     logger,
	})
	if err != nil {
		runner.Close()
		return nil, err
	}

	enc.closer = runner.Close

	return enc, nil
}
