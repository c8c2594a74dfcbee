package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/go-ppg-tts/internal/doctor"
)

func newInspectCmd() *cobra.Command {
	var (
		kind       string
		count      int
		validation bool
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Load a manifest and print the shapes of its first examples",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if count < 0 {
				return fmt.Errorf("-n must be >= 0")
			}

			data, err := openTrainingData(cfg, kind, validation)
			if err != nil {
				return err
			}
			defer data.Close()

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "manifest: %s\n", data.path)
			_, _ = fmt.Fprintf(out, "entries: %d\n", data.size)
			_, _ = fmt.Fprintf(out, "batches per epoch: %d\n", data.loader.NumBatches())

			for i := range min(count, data.size) {
				desc, err := data.describe(cmd.Context(), i)
				if err != nil {
					return fmt.Errorf("example %d: %w", i, err)
				}
				_, _ = fmt.Fprintf(out, "[%d] %s\n", i, desc)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", doctor.KindPPG, "Loader kind: ppg|text")
	cmd.Flags().IntVarP(&count, "num", "n", 3, "Number of examples to load and describe")
	cmd.Flags().BoolVar(&validation, "validation", false, "Use the validation manifest instead of the training manifest")

	return cmd
}
