package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/go-ppg-tts/internal/batch"
	"github.com/example/go-ppg-tts/internal/config"
	"github.com/example/go-ppg-tts/internal/dataset"
	"github.com/example/go-ppg-tts/internal/doctor"
	"github.com/example/go-ppg-tts/internal/manifest"
	"github.com/example/go-ppg-tts/internal/mel"
	"github.com/example/go-ppg-tts/internal/speaker"
	"github.com/example/go-ppg-tts/internal/text"
)

// epochRunner is satisfied by batch.Loader for either example type.
type epochRunner interface {
	NumBatches() int
	Epoch(ctx context.Context, epoch int, fn func(step int, b *batch.Batch) error) error
}

// trainingData is an opened manifest with its example loader and batch
// loader. Close releases the speaker encoder when one was opened.
type trainingData struct {
	path     string
	size     int
	loader   epochRunner
	describe func(ctx context.Context, i int) (string, error)
	closers  []func()
}

func (d *trainingData) Close() {
	for _, c := range d.closers {
		c()
	}
	d.closers = nil
}

func validateKind(kind string) error {
	switch kind {
	case doctor.KindPPG, doctor.KindText:
		return nil
	default:
		return fmt.Errorf("--kind must be %q or %q, got %q", doctor.KindPPG, doctor.KindText, kind)
	}
}

func manifestPath(cfg config.Config, validation bool) string {
	if validation {
		return cfg.Paths.ValidationFiles
	}
	return cfg.Paths.TrainingFiles
}

func newTransform(cfg config.Config) (*mel.STFT, error) {
	return mel.New(mel.TacotronConfig(
		cfg.Audio.SamplingRate,
		cfg.Audio.FilterLength,
		cfg.Audio.HopLength,
		cfg.Audio.WinLength,
		cfg.Audio.NMelChannels,
		cfg.Audio.MelFmin,
		cfg.Audio.MelFmax,
	))
}

// openTrainingData builds the loader selected by kind over the training or
// validation manifest.
func openTrainingData(cfg config.Config, kind string, validation bool) (*trainingData, error) {
	if err := validateKind(kind); err != nil {
		return nil, err
	}

	path := manifestPath(cfg, validation)
	entries, err := manifest.Load(path, cfg.Data.Delimiter)
	if err != nil {
		return nil, err
	}

	logger := slog.Default()
	opts := dataset.OptionsFromConfig(cfg)
	opts.Logger = logger

	var transform mel.Transform
	if !cfg.Audio.LoadMelFromDisk {
		stft, err := newTransform(cfg)
		if err != nil {
			return nil, err
		}
		transform = stft
	}

	loaderOpts := batch.LoaderOptions{
		BatchSize: cfg.Data.BatchSize,
		Workers:   cfg.Data.Workers,
		DropLast:  cfg.Data.DropLast,
		Shuffle:   true,
		Seed:      cfg.Data.Seed,
		Logger:    logger,
	}
	collator := batch.Collator{FramesPerStep: cfg.Data.NFramesPerStep}

	data := &trainingData{path: path, size: len(entries)}

	switch kind {
	case doctor.KindPPG:
		var embedder speaker.Embedder
		if cfg.Speaker.AppendEmbedding {
			enc, err := speaker.Open(cfg.Speaker, cfg.Runtime, logger)
			if err != nil {
				return nil, err
			}
			embedder = enc
			data.closers = append(data.closers, enc.Close)
		}

		src, err := dataset.NewPPGMelLoader(entries, opts, transform, embedder)
		if err != nil {
			data.Close()
			return nil, err
		}

		data.loader, err = batch.NewLoader[dataset.PPGMel](src, collator.CollatePPG, loaderOpts)
		if err != nil {
			data.Close()
			return nil, err
		}

		data.describe = func(ctx context.Context, i int) (string, error) {
			ex, err := src.Get(ctx, i)
			if err != nil {
				return "", err
			}
			e, _ := src.Entry(i)
			return fmt.Sprintf("%s ppg=%v mel=%v", e.AudioPath, ex.PPG.Shape(), ex.Mel.Shape()), nil
		}
	case doctor.KindText:
		encoder, err := dataset.NewTextEncoder(cfg.Text)
		if err != nil {
			return nil, err
		}

		src, err := dataset.NewTextMelLoader(entries, opts, transform, encoder)
		if err != nil {
			return nil, err
		}

		data.loader, err = batch.NewLoader[dataset.TextMel](src, collator.CollateText, loaderOpts)
		if err != nil {
			return nil, err
		}

		data.describe = func(ctx context.Context, i int) (string, error) {
			ex, err := src.Get(ctx, i)
			if err != nil {
				return "", err
			}
			e, _ := src.Entry(i)
			return fmt.Sprintf("%s text=%q (%d ids) mel=%v", e.AudioPath, text.SequenceToText(ex.Text), len(ex.Text), ex.Mel.Shape()), nil
		}
	}

	return data, nil
}

// inputShape returns the padded input shape of b, whichever kind it holds.
func inputShape(b *batch.Batch) []int64 {
	if b.Text != nil {
		return b.Text.Shape()
	}
	if b.PPG != nil {
		return b.PPG.Shape()
	}
	return nil
}
