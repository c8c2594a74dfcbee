package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/go-ppg-tts/internal/manifest"
)

// Source is a random-access example loader such as dataset.PPGMelLoader.
type Source[E any] interface {
	Len() int
	Get(ctx context.Context, i int) (E, error)
}

// CollateFunc turns fetched examples into a Batch; Collator.CollateText and
// Collator.CollatePPG fit.
type CollateFunc[E any] func([]E) (*Batch, error)

type LoaderOptions struct {
	BatchSize int
	// Workers bounds concurrent Get calls within a batch.
	Workers  int
	DropLast bool
	// Shuffle reorders indices every epoch with a generator seeded by
	// Seed+epoch.
	Shuffle bool
	Seed    int64
	Logger  *slog.Logger
}

// Loader walks a Source in batches, fetching each batch's examples with a
// bounded worker pool.
type Loader[E any] struct {
	src     Source[E]
	collate CollateFunc[E]
	opts    LoaderOptions
	logger  *slog.Logger
}

func NewLoader[E any](src Source[E], collate CollateFunc[E], opts LoaderOptions) (*Loader[E], error) {
	if src == nil || collate == nil {
		return nil, errors.New("batch loader needs a source and a collate func")
	}
	if opts.BatchSize < 1 {
		return nil, fmt.Errorf("batch size must be >= 1, got %d", opts.BatchSize)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Loader[E]{src: src, collate: collate, opts: opts, logger: logger}, nil
}

// NumBatches is the number of batches per epoch.
func (l *Loader[E]) NumBatches() int {
	n := l.src.Len()
	if l.opts.DropLast {
		return n / l.opts.BatchSize
	}

	return (n + l.opts.BatchSize - 1) / l.opts.BatchSize
}

// Plan returns the source indices of every batch in epoch.
func (l *Loader[E]) Plan(epoch int) [][]int {
	n := l.src.Len()

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	if l.opts.Shuffle {
		rng := manifest.NewRand(l.opts.Seed + int64(epoch))
		rng.Shuffle(n, func(i, j int) { indices[i], indices[j] = indices[j], indices[i] })
	}

	plan := make([][]int, 0, l.NumBatches())
	for start := 0; start < n; start += l.opts.BatchSize {
		end := min(start+l.opts.BatchSize, n)
		if end-start < l.opts.BatchSize && l.opts.DropLast {
			break
		}
		plan = append(plan, indices[start:end])
	}

	return plan
}

// Epoch fetches, collates and hands each batch to fn in plan order. The
// first error stops the epoch.
func (l *Loader[E]) Epoch(ctx context.Context, epoch int, fn func(step int, b *Batch) error) error {
	started := time.Now()
	plan := l.Plan(epoch)

	examples := 0
	for step, indices := range plan {
		items, err := l.fetch(ctx, indices)
		if err != nil {
			return fmt.Errorf("epoch %d batch %d: %w", epoch, step, err)
		}

		b, err := l.collate(items)
		if err != nil {
			return fmt.Errorf("epoch %d batch %d: collate: %w", epoch, step, err)
		}

		l.logger.Debug("batch ready", "epoch", epoch, "step", step, "size", len(items))

		if err := fn(step, b); err != nil {
			return err
		}

		examples += len(items)
	}

	l.logger.Info("epoch complete",
		"epoch", epoch,
		"batches", len(plan),
		"examples", examples,
		"elapsed", time.Since(started).Round(time.Millisecond))

	return nil
}

func (l *Loader[E]) fetch(ctx context.Context, indices []int) ([]E, error) {
	items := make([]E, len(indices))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Workers)

	for j, idx := range indices {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			item, err := l.src.Get(gctx, idx)
			if err != nil {
				return fmt.Errorf("example %d: %w", idx, err)
			}

			items[j] = item

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return items, nil
}
