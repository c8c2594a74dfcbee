package speaker

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/example/go-ppg-tts/internal/config"
)

// smokeSeconds of synthetic audio yield more than one partial.
const smokeSeconds = 2

// Smoke embeds a synthetic voiced signal and checks that the result is a
// unit-length vector of the encoder's dimension.
func Smoke(ctx context.Context, enc *Encoder) error {
	wav := make([]float32, smokeSeconds*SampleRate)
	for i := range wav {
		t := float64(i) / SampleRate
		wav[i] = float32(0.2*math.Sin(2*math.Pi*140*t) + 0.1*math.Sin(2*math.Pi*280*t))
	}

	emb, err := enc.EmbedPreprocessed(ctx, wav)
	if err != nil {
		return err
	}

	if len(emb) != enc.Dimension() {
		return fmt.Errorf("%w: embedding has %d values, want %d", ErrModelOutput, len(emb), enc.Dimension())
	}

	var sum float64
	for _, v := range emb {
		sum += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(sum)-1) > 1e-3 {
		return fmt.Errorf("%w: embedding norm %.4f, want 1", ErrModelOutput, math.Sqrt(sum))
	}

	return nil
}

// Verify loads the configured speaker model and runs Smoke against it.
func Verify(ctx context.Context, cfg config.SpeakerConfig, rt config.RuntimeConfig) error {
	enc, err := Open(cfg, rt, slog.New(slog.DiscardHandler))
	if err != nil {
		return err
	}
	defer enc.Close()

	if err := Smoke(ctx, enc); err != nil {
		return fmt.Errorf("speaker model %s: %w", cfg.ModelPath, err)
	}

	return nil
}
