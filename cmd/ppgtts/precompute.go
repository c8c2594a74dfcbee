package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/example/go-ppg-tts/internal/arrayio"
	"github.com/example/go-ppg-tts/internal/audio"
	"github.com/example/go-ppg-tts/internal/config"
	"github.com/example/go-ppg-tts/internal/dataset"
	"github.com/example/go-ppg-tts/internal/manifest"
)

func newPrecomputeCmd() *cobra.Command {
	var (
		manifestOut string
		validation  bool
	)

	cmd := &cobra.Command{
		Use:   "precompute-mels",
		Short: "Compute mel spectrograms for a manifest and write them as .npy files",
		Long: "Computes the mel spectrogram of every manifest entry, writes it under\n" +
			"paths.output_dir and writes a manifest whose third field points at it,\n" +
			"for use with audio.load_mel_from_disk.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			in := manifestPath(cfg, validation)
			if manifestOut == "" {
				manifestOut = filepath.Join(cfg.Paths.OutputDir, filepath.Base(in))
			}
			if samePath(in, manifestOut) {
				return fmt.Errorf("manifest output %s would overwrite the input manifest; set --manifest-out or --output-dir", manifestOut)
			}

			entries, err := manifest.Load(in, cfg.Data.Delimiter)
			if err != nil {
				return err
			}

			out, err := precomputeMels(cmd.Context(), cfg, entries)
			if err != nil {
				return err
			}

			if err := writeManifest(manifestOut, out, cfg.Data.Delimiter); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d mels to %s\nmanifest: %s\n",
				len(out), cfg.Paths.OutputDir, manifestOut)
			return nil
		},
	}

	cmd.Flags().StringVar(&manifestOut, "manifest-out", "", "Output manifest path (default: <output-dir>/<input manifest name>)")
	cmd.Flags().BoolVar(&validation, "validation", false, "Use the validation manifest instead of the training manifest")

	return cmd
}

// precomputeMels writes one mel file per entry under cfg.Paths.OutputDir and
// returns the entries with MelPath set.
func precomputeMels(ctx context.Context, cfg config.Config, entries []manifest.Entry) ([]manifest.Entry, error) {
	paths, err := melPaths(cfg.Paths.OutputDir, entries)
	if err != nil {
		return nil, err
	}

	stft, err := newTransform(cfg)
	if err != nil {
		return nil, err
	}

	opts := dataset.OptionsFromConfig(cfg)
	opts.LoadMelFromDisk = false
	mels, err := dataset.NewMelSource(stft, opts)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.Paths.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	started := time.Now()
	out := make([]manifest.Entry, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Data.Workers, 1))

	for i, e := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			wav, err := audio.LoadWAV(e.AudioPath)
			if err != nil {
				return err
			}

			m, err := mels.FromWaveform(wav)
			if err != nil {
				return fmt.Errorf("%s: %w", e.AudioPath, err)
			}

			if err := arrayio.Save(paths[i], m); err != nil {
				return err
			}

			slog.Debug("wrote mel", "audio", e.AudioPath, "mel", paths[i], "shape", m.Shape())

			e.MelPath = paths[i]
			out[i] = e
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Info("precomputed mels",
		"count", len(out),
		"dir", cfg.Paths.OutputDir,
		"elapsed", time.Since(started).Round(time.Millisecond))

	return out, nil
}

// melPaths names each mel after its audio file. Two entries whose audio
// files share a base name would overwrite each other and are rejected.
func melPaths(dir string, entries []manifest.Entry) ([]string, error) {
	paths := make([]string, len(entries))
	seen := make(map[string]string, len(entries))

	for i, e := range entries {
		base := filepath.Base(e.AudioPath)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		p := filepath.Join(dir, stem+arrayio.ExtNPY)

		if prev, ok := seen[p]; ok {
			return nil, fmt.Errorf("mel name collision: %s and %s both map to %s", prev, e.AudioPath, p)
		}
		seen[p] = e.AudioPath
		paths[i] = p
	}

	return paths, nil
}

// samePath reports whether a and b name the same file, following symlinks
// when both exist.
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA == nil && errB == nil && absA == absB {
		return true
	}

	infoA, errA := os.Stat(a)
	infoB, errB := os.Stat(b)

	return errA == nil && errB == nil && os.SameFile(infoA, infoB)
}

func writeManifest(path string, entries []manifest.Entry, delimiter string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create manifest dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}

	if err := manifest.Write(f, entries, delimiter); err != nil {
		_ = f.Close()
		return fmt.Errorf("write manifest %s: %w", path, err)
	}

	return f.Close()
}
