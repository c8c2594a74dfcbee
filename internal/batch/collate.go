// Package batch assembles loaded examples into zero-padded training batches.
package batch

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/example/go-ppg-tts/internal/dataset"
	"github.com/example/go-ppg-tts/internal/runtime/tensor"
)

var (
	ErrEmptyBatch  = errors.New("empty batch")
	ErrEmptyTarget = errors.New("mel has no frames")
	ErrShape       = errors.New("inconsistent example shapes")
)

// Batch holds padded inputs and targets. Every per-row field is in
// descending input-length order; Order[i] is the position in the source
// slice of row i.
type Batch struct {
	// Text is (N, maxLen) for text batches; nil otherwise.
	Text *tensor.IntTensor
	// PPG is (N, maxLen, F) for PPG batches; nil otherwise.
	PPG          *tensor.Tensor
	InputLengths []int64
	// Mels is (N, C, T) with T rounded up to a multiple of FramesPerStep.
	Mels *tensor.Tensor
	// Gates is (N, T) and is 1 from the last real frame onward.
	Gates         *tensor.Tensor
	OutputLengths []int64
	Order         []int
}

func (b *Batch) Size() int { return len(b.Order) }

// Collator pads examples into a Batch.
type Collator struct {
	FramesPerStep int
}

// CollateText pads symbol sequences and their mels.
func (c Collator) CollateText(examples []dataset.TextMel) (*Batch, error) {
	if len(examples) == 0 {
		return nil, ErrEmptyBatch
	}

	lengths := make([]int64, len(examples))
	mels := make([]*tensor.Tensor, len(examples))
	for i, ex := range examples {
		lengths[i] = int64(len(ex.Text))
		mels[i] = ex.Mel
	}

	order, maxLen, err := sortByLength(lengths)
	if err != nil {
		return nil, err
	}

	text, err := tensor.ZerosInt([]int64{int64(len(examples)), maxLen})
	if err != nil {
		return nil, err
	}

	for row, src := range order {
		if err := text.SetRowPrefix(int64(row), examples[src].Text); err != nil {
			return nil, err
		}
	}

	b, err := c.padTargets(mels, order)
	if err != nil {
		return nil, err
	}

	b.Text = text
	b.InputLengths = sortedLengths(lengths, order)

	return b, nil
}

// CollatePPG pads (frames, F) PPG arrays and their mels. All examples must
// share F.
func (c Collator) CollatePPG(examples []dataset.PPGMel) (*Batch, error) {
	if len(examples) == 0 {
		return nil, ErrEmptyBatch
	}

	lengths := make([]int64, len(examples))
	mels := make([]*tensor.Tensor, len(examples))
	var features int64
	for i, ex := range examples {
		if ex.PPG == nil || ex.PPG.Rank() != 2 {
			return nil, fmt.Errorf("%w: ppg %d is not 2-D", ErrShape, i)
		}
		if i == 0 {
			features = ex.PPG.Dim(1)
		} else if f := ex.PPG.Dim(1); f != features {
			return nil, fmt.Errorf("%w: ppg %d has %d features, want %d", ErrShape, i, f, features)
		}

		lengths[i] = ex.PPG.Dim(0)
		mels[i] = ex.Mel
	}

	order, maxLen, err := sortByLength(lengths)
	if err != nil {
		return nil, err
	}

	rowSize := int(maxLen * features)
	dst := make([]float32, len(examples)*rowSize)
	for row, src := range order {
		copy(dst[row*rowSize:], examples[src].PPG.RawData())
	}

	ppg, err := tensor.FromOwned(dst, []int64{int64(len(examples)), maxLen, features})
	if err != nil {
		return nil, err
	}

	b, err := c.padTargets(mels, order)
	if err != nil {
		return nil, err
	}

	b.PPG = ppg
	b.InputLengths = sortedLengths(lengths, order)

	return b, nil
}

// sortByLength returns source indices ordered by descending length, ties
// kept in source order, and the longest length.
func sortByLength(lengths []int64) ([]int, int64, error) {
	order := make([]int, len(lengths))
	for i := range order {
		order[i] = i
	}

	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(lengths[b], lengths[a])
	})

	maxLen := lengths[order[0]]
	if maxLen == 0 {
		return nil, 0, fmt.Errorf("%w: all %d inputs have length 0", ErrEmptyBatch, len(lengths))
	}

	return order, maxLen, nil
}

func sortedLengths(lengths []int64, order []int) []int64 {
	out := make([]int64, len(order))
	for row, src := range order {
		out[row] = lengths[src]
	}

	return out
}

// padTargets builds the padded mels, gates and output lengths in order.
func (c Collator) padTargets(mels []*tensor.Tensor, order []int) (*Batch, error) {
	if c.FramesPerStep < 1 {
		return nil, fmt.Errorf("frames per step must be >= 1, got %d", c.FramesPerStep)
	}

	var channels, maxFrames int64
	for i, m := range mels {
		if m == nil || m.Rank() != 2 {
			return nil, fmt.Errorf("%w: mel %d is not 2-D", ErrShape, i)
		}
		if i == 0 {
			channels = m.Dim(0)
		} else if m.Dim(0) != channels {
			return nil, fmt.Errorf("%w: mel %d has %d channels, want %d", ErrShape, i, m.Dim(0), channels)
		}
		if m.Dim(1) == 0 {
			return nil, fmt.Errorf("%w: example %d", ErrEmptyTarget, i)
		}
		maxFrames = max(maxFrames, m.Dim(1))
	}

	step := int64(c.FramesPerStep)
	if rem := maxFrames % step; rem != 0 {
		maxFrames += step - rem
	}

	n := int64(len(order))
	out := make([]float32, n*channels*maxFrames)
	gate := make([]float32, n*maxFrames)
	outLens := make([]int64, n)

	for row, src := range order {
		m := mels[src]
		frames := m.Dim(1)
		data := m.RawData()

		for ch := range channels {
			base := (int64(row)*channels + ch) * maxFrames
			copy(out[base:base+frames], data[ch*frames:(ch+1)*frames])
		}

		for t := frames - 1; t < maxFrames; t++ {
			gate[int64(row)*maxFrames+t] = 1
		}

		outLens[row] = frames
	}

	padded, err := tensor.FromOwned(out, []int64{n, channels, maxFrames})
	if err != nil {
		return nil, err
	}

	gates, err := tensor.FromOwned(gate, []int64{n, maxFrames})
	if err != nil {
		return nil, err
	}

	return &Batch{
		Mels:          padded,
		Gates:         gates,
		OutputLengths: outLens,
		Order:         order,
	}, nil
}
