package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/go-ppg-tts/internal/batch"
	"github.com/example/go-ppg-tts/internal/bench"
	"github.com/example/go-ppg-tts/internal/doctor"
)

func newBenchCmd() *cobra.Command {
	var (
		kind          string
		epochs        int
		format        string
		minThroughput float64
		validation    bool
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark batch loader throughput over full epochs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if epochs < 1 {
				return fmt.Errorf("--epochs must be at least 1")
			}
			if format != "table" && format != "json" {
				return fmt.Errorf("--format must be 'table' or 'json'")
			}

			data, err := openTrainingData(cfg, kind, validation)
			if err != nil {
				return err
			}
			defer data.Close()

			results, err := runBench(cmd.Context(), data.loader, epochs)
			if err != nil {
				return err
			}

			durations := make([]time.Duration, len(results))
			for i, r := range results {
				durations[i] = r.Duration
			}
			stats := bench.ComputeStats(durations)

			switch format {
			case "json":
				bench.FormatJSON(results, stats, cmd.OutOrStdout())
			default:
				bench.FormatTable(results, stats, cmd.OutOrStdout())
			}

			return bench.CheckMinThroughput(bench.MeanThroughput(results), minThroughput)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", doctor.KindPPG, "Loader kind: ppg|text")
	cmd.Flags().IntVar(&epochs, "epochs", 3, "Number of epochs to time")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json")
	cmd.Flags().Float64Var(&minThroughput, "min-throughput", 0, "Exit non-zero if mean examples/s falls below this value (0 = disabled)")
	cmd.Flags().BoolVar(&validation, "validation", false, "Use the validation manifest instead of the training manifest")

	return cmd
}

func runBench(ctx context.Context, loader epochRunner, epochs int) ([]bench.RunResult, error) {
	results := make([]bench.RunResult, 0, epochs)

	for i := range epochs {
		var batches, examples int

		start := time.Now()
		err := loader.Epoch(ctx, i, func(_ int, b *batch.Batch) error {
			batches++
			examples += b.Size()
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("epoch %d failed: %w", i+1, err)
		}
		dur := time.Since(start)

		results = append(results, bench.RunResult{
			Index:      i,
			Cold:       i == 0,
			Duration:   dur,
			Batches:    batches,
			Examples:   examples,
			Throughput: bench.CalcThroughput(examples, dur),
		})
	}

	return results, nil
}
