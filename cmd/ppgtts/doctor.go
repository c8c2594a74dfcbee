package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/go-ppg-tts/internal/config"
	"github.com/example/go-ppg-tts/internal/doctor"
	"github.com/example/go-ppg-tts/internal/manifest"
	"github.com/example/go-ppg-tts/internal/onnx"
	"github.com/example/go-ppg-tts/internal/speaker"
)

func newDoctorCmd() *cobra.Command {
	var (
		kind       string
		validation bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run runtime, model and manifest checks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if err := validateKind(kind); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			path := manifestPath(cfg, validation)

			entries, loadErr := manifest.Load(path, cfg.Data.Delimiter)
			if loadErr != nil {
				_, _ = fmt.Fprintf(out, "%s manifest %s: %v\n", doctor.FailMark, path, loadErr)
			} else {
				_, _ = fmt.Fprintf(out, "%s manifest: %s (%d entries)\n", doctor.PassMark, path, len(entries))
			}

			dcfg := doctorConfig(cfg, kind, entries)
			result := doctor.Run(dcfg, out)
			if loadErr != nil {
				result.AddFailure(fmt.Sprintf("manifest %s: %v", path, loadErr))
			}

			// Running the speaker model needs the runtime and model file checks
			// above to have passed.
			if !dcfg.SkipORT {
				if result.Failed() {
					_, _ = fmt.Fprintf(out, "%s speaker model verify: skipped (earlier checks failed)\n", doctor.FailMark)
				} else if err := speaker.Verify(cmd.Context(), cfg.Speaker, cfg.Runtime); err != nil {
					result.AddFailure(fmt.Sprintf("speaker model verify: %v", err))
					_, _ = fmt.Fprintf(out, "%s speaker model verify: %v\n", doctor.FailMark, err)
				} else {
					_, _ = fmt.Fprintf(out, "%s speaker model verify: ok\n", doctor.PassMark)
				}
			}

			if result.Failed() {
				for _, f := range result.Failures() {
					// #nosec G705 -- Writes plain diagnostic text to stderr for CLI output, not HTML rendering.
					fmt.Fprintf(os.Stderr, "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(out, "doctor checks passed")

			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", doctor.KindPPG, "Loader kind: ppg|text")
	cmd.Flags().BoolVar(&validation, "validation", false, "Check the validation manifest instead of the training manifest")

	return cmd
}

// doctorConfig selects the checks kind needs: ONNX Runtime and the speaker
// model only when PPG frames are augmented, the SentencePiece model only when
// that encoder is configured.
func doctorConfig(cfg config.Config, kind string, entries []manifest.Entry) doctor.Config {
	needsSpeaker := kind == doctor.KindPPG && cfg.Speaker.AppendEmbedding

	dcfg := doctor.Config{
		ORTVersion:      probeORTVersion(cfg.Runtime),
		SkipORT:         !needsSpeaker,
		ORTAPIVersion:   cfg.Runtime.ORTAPIVersion,
		Entries:         entries,
		Kind:            kind,
		SampleRate:      cfg.Audio.SamplingRate,
		NumMels:         cfg.Audio.NMelChannels,
		LoadMelFromDisk: cfg.Audio.LoadMelFromDisk,
	}

	if needsSpeaker {
		dcfg.ModelFiles = append(dcfg.ModelFiles, cfg.Speaker.ModelPath)
	}

	if kind == doctor.KindText {
		if enc, err := config.NormalizeEncoder(cfg.Text.Encoder); err == nil && enc == config.EncoderSentencePiece {
			dcfg.ModelFiles = append(dcfg.ModelFiles, cfg.Text.SentencePieceModel)
		}
	}

	return dcfg
}

func probeORTVersion(rt config.RuntimeConfig) doctor.VersionFunc {
	return func() (string, error) {
		info, err := onnx.DetectRuntime(rt)
		if err != nil {
			return "", err
		}
		return info.Version, nil
	}
}
