package audio

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Resample converts mono samples from one rate to another. Equal rates return
// a copy of the input.
func Resample(samples []float32, from, to int) ([]float32, error) {
	if from < 1 || to < 1 {
		return nil, fmt.Errorf("invalid resample rates %d -> %d", from, to)
	}

	if from == to || len(samples) == 0 {
		return append([]float32(nil), samples...), nil
	}

	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(from),
		OutputRate: float64(to),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	in := make([]float64, len(samples))
	for i, s := range samples {
		in[i] = float64(s)
	}

	out, err := rs.Process(in)
	if err != nil {
		return nil, fmt.Errorf("resample error: %w", err)
	}

	tail, err := rs.Flush()
	if err != nil {
		return nil, fmt.Errorf("resample flush: %w", err)
	}
	out = append(out, tail...)

	// Filter delay padding can leave a few samples past the scaled length.
	if want := (len(samples)*to + from - 1) / from; len(out) > want {
		out = out[:want]
	}

	res := make([]float32, len(out))
	for i, s := range out {
		res[i] = float32(s)
	}

	return res, nil
}
