package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/go-ppg-tts/internal/arrayio"
	"github.com/example/go-ppg-tts/internal/audio"
	"github.com/example/go-ppg-tts/internal/runtime/tensor"
	"github.com/example/go-ppg-tts/internal/speaker"
)

func newEmbedCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "embed <wav>",
		Short: "Compute the speaker embedding of one WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			wav, err := audio.LoadWAV(args[0])
			if err != nil {
				return err
			}

			enc, err := speaker.Open(cfg.Speaker, cfg.Runtime, slog.Default())
			if err != nil {
				return err
			}
			defer enc.Close()

			vec, err := enc.EmbedUtterance(cmd.Context(), wav)
			if err != nil {
				return fmt.Errorf("embed %s: %w", args[0], err)
			}

			if outPath != "" {
				t, err := tensor.New(vec, []int64{int64(len(vec))})
				if err != nil {
					return err
				}
				if err := arrayio.Save(outPath, t); err != nil {
					return err
				}
				slog.Info("wrote speaker embedding", "path", outPath, "dim", len(vec))
				return nil
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), formatVector(vec))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the embedding to a .npy or .safetensors file instead of stdout")

	return cmd
}

func formatVector(vec []float32) string {
	parts := make([]string, len(vec))
	for i, v := range vec {
		parts[i] = strconv.FormatFloat(float64(v), 'g', 8, 32)
	}
	return strings.Join(parts, " ")
}
