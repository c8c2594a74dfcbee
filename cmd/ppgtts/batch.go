package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/go-ppg-tts/internal/batch"
	"github.com/example/go-ppg-tts/internal/doctor"
)

var errStopEpoch = errors.New("stop epoch")

func newBatchCmd() *cobra.Command {
	var (
		kind       string
		epoch      int
		maxBatches int
		validation bool
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run one epoch of the batch loader and print padded batch shapes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			data, err := openTrainingData(cfg, kind, validation)
			if err != nil {
				return err
			}
			defer data.Close()

			out := cmd.OutOrStdout()
			err = data.loader.Epoch(cmd.Context(), epoch, func(step int, b *batch.Batch) error {
				if maxBatches > 0 && step >= maxBatches {
					return errStopEpoch
				}
				_, _ = fmt.Fprintf(out, "batch %d: size=%d input=%v mels=%v gates=%v max_input=%d max_output=%d\n",
					step,
					b.Size(),
					inputShape(b),
					b.Mels.Shape(),
					b.Gates.Shape(),
					b.InputLengths[0],
					maxOf(b.OutputLengths),
				)
				return nil
			})
			if errors.Is(err, errStopEpoch) {
				return nil
			}

			return err
		},
	}

	cmd.Flags().StringVar(&kind, "kind", doctor.KindPPG, "Loader kind: ppg|text")
	cmd.Flags().IntVar(&epoch, "epoch", 0, "Epoch number; selects the shuffle order")
	cmd.Flags().IntVar(&maxBatches, "max-batches", 0, "Stop after this many batches (0 = whole epoch)")
	cmd.Flags().BoolVar(&validation, "validation", false, "Use the validation manifest instead of the training manifest")

	return cmd
}

func maxOf(vals []int64) int64 {
	var m int64
	for _, v := range vals {
		m = max(m, v)
	}
	return m
}
