package tensor

import (
	"errors"
	"fmt"
)

// IntTensor is a dense, row-major int64 tensor holding symbol ids.
type IntTensor struct {
	shape []int64
	data  []int64
}

// ZerosInt creates a zero-initialized int64 tensor.
func ZerosInt(shape []int64) (*IntTensor, error) {
	total, err := elems(shape)
	if err != nil {
		return nil, err
	}

	return &IntTensor{
		shape: append([]int64(nil), shape...),
		data:  make([]int64, total),
	}, nil
}

func (t *IntTensor) Shape() []int64 {
	if t == nil {
		return nil
	}

	return append([]int64(nil), t.shape...)
}

// RawData returns the underlying data slice.
// Callers must treat it as read-only.
func (t *IntTensor) RawData() []int64 {
	if t == nil {
		return nil
	}

	return t.data
}

// Row returns a copy of row r of a 2-D tensor.
func (t *IntTensor) Row(r int64) ([]int64, error) {
	if t == nil {
		return nil, errors.New("tensor: row on nil tensor")
	}

	if len(t.shape) != 2 {
		return nil, fmt.Errorf("tensor: row requires rank 2, got %d", len(t.shape))
	}

	if r < 0 || r >= t.shape[0] {
		return nil, fmt.Errorf("tensor: row %d out of range for %d rows", r, t.shape[0])
	}

	cols := t.shape[1]

	return append([]int64(nil), t.data[r*cols:(r+1)*cols]...), nil
}

// SetRowPrefix copies vals into the start of row r, leaving the rest as is.
func (t *IntTensor) SetRowPrefix(r int64, vals []int64) error {
	if t == nil {
		return errors.New("tensor: set row on nil tensor")
	}

	if len(t.shape) != 2 {
		return fmt.Errorf("tensor: set row requires rank 2, got %d", len(t.shape))
	}

	if r < 0 || r >= t.shape[0] {
		return fmt.Errorf("tensor: row %d out of range for %d rows", r, t.shape[0])
	}

	cols := t.shape[1]
	if int64(len(vals)) > cols {
		return fmt.Errorf("tensor: %d values exceed row width %d", len(vals), cols)
	}

	copy(t.data[r*cols:], vals)

	return nil
}
