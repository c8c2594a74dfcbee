// Package tensor holds the dense row-major arrays that flow between the
// loaders, the collator and ONNX inference.
package tensor

import (
	"errors"
	"fmt"
)

// Tensor is a dense, row-major float32 tensor. Examples carry PPG frames and
// mel spectrograms as Tensors; batches are assembled from them.
type Tensor struct {
	shape []int64
	data  []float32
}

// New creates a tensor from data and shape. Both slices are copied.
func New(data []float32, shape []int64) (*Tensor, error) {
	t, err := FromOwned(data, shape)
	if err != nil {
		return nil, err
	}

	t.data = append([]float32(nil), data...)

	return t, nil
}

// FromOwned creates a Tensor that takes ownership of data without copying.
// The caller must not modify data afterwards.
func FromOwned(data []float32, shape []int64) (*Tensor, error) {
	n, err := elems(shape)
	if err != nil {
		return nil, err
	}

	if len(data) != n {
		return nil, fmt.Errorf("tensor: data length %d does not match shape %v (%d elements)", len(data), shape, n)
	}

	return &Tensor{shape: append([]int64(nil), shape...), data: data}, nil
}

func Zeros(shape []int64) (*Tensor, error) {
	n, err := elems(shape)
	if err != nil {
		return nil, err
	}

	return &Tensor{shape: append([]int64(nil), shape...), data: make([]float32, n)}, nil
}

func (t *Tensor) Shape() []int64 {
	if t == nil {
		return nil
	}

	return append([]int64(nil), t.shape...)
}

// Dim returns the size of dimension d, or 0 when d is out of range.
// Negative d counts from the end.
func (t *Tensor) Dim(d int) int64 {
	if t == nil {
		return 0
	}

	d, err := axis(d, len(t.shape))
	if err != nil {
		return 0
	}

	return t.shape[d]
}

// Data returns a copy of the underlying tensor data.
func (t *Tensor) Data() []float32 {
	if t == nil {
		return nil
	}

	return append([]float32(nil), t.data...)
}

// RawData returns the underlying data slice.
// Callers must treat it as read-only.
func (t *Tensor) RawData() []float32 {
	if t == nil {
		return nil
	}

	return t.data
}

func (t *Tensor) ElemCount() int {
	if t == nil {
		return 0
	}

	return len(t.data)
}

func (t *Tensor) Rank() int {
	if t == nil {
		return 0
	}

	return len(t.shape)
}

func (t *Tensor) At(coord ...int64) (float32, error) {
	if t == nil {
		return 0, errors.New("tensor: access on nil tensor")
	}

	off, err := offset(t.shape, coord)
	if err != nil {
		return 0, err
	}

	return t.data[off], nil
}

func (t *Tensor) Set(v float32, coord ...int64) error {
	if t == nil {
		return errors.New("tensor: access on nil tensor")
	}

	off, err := offset(t.shape, coord)
	if err != nil {
		return err
	}

	t.data[off] = v

	return nil
}

func (t *Tensor) Clone() *Tensor {
	if t == nil {
		return nil
	}

	return &Tensor{shape: append([]int64(nil), t.shape...), data: append([]float32(nil), t.data...)}
}

// Reshape returns a copy of t with a new shape of the same element count.
func (t *Tensor) Reshape(shape []int64) (*Tensor, error) {
	if t == nil {
		return nil, errors.New("tensor: reshape on nil tensor")
	}

	n, err := elems(shape)
	if err != nil {
		return nil, err
	}

	if n != len(t.data) {
		return nil, fmt.Errorf("tensor: cannot reshape %v (%d elements) to %v (%d elements)", t.shape, len(t.data), shape, n)
	}

	return &Tensor{shape: append([]int64(nil), shape...), data: append([]float32(nil), t.data...)}, nil
}

// Narrow returns the slice [start, start+length) of dimension dim.
func (t *Tensor) Narrow(dim int, start, length int64) (*Tensor, error) {
	if t == nil {
		return nil, errors.New("tensor: narrow on nil tensor")
	}

	dim, err := axis(dim, len(t.shape))
	if err != nil {
		return nil, fmt.Errorf("tensor: narrow: %w", err)
	}

	size := t.shape[dim]
	if start < 0 || length < 0 || start+length > size {
		return nil, fmt.Errorf("tensor: narrow: range [%d:%d] out of bounds for dim %d size %d", start, start+length, dim, size)
	}

	shape := append([]int64(nil), t.shape...)
	shape[dim] = length

	outer, inner := split(t.shape, dim)
	block := length * inner
	data := make([]float32, outer*block)

	for o := range outer {
		src := (o*size + start) * inner
		copy(data[o*block:(o+1)*block], t.data[src:src+block])
	}

	return &Tensor{shape: shape, data: data}, nil
}

// Transpose swaps dim1 and dim2 into a newly allocated tensor.
func (t *Tensor) Transpose(dim1, dim2 int) (*Tensor, error) {
	if t == nil {
		return nil, errors.New("tensor: transpose on nil tensor")
	}

	rank := len(t.shape)

	d1, err := axis(dim1, rank)
	if err != nil {
		return nil, fmt.Errorf("tensor: transpose dim1: %w", err)
	}

	d2, err := axis(dim2, rank)
	if err != nil {
		return nil, fmt.Errorf("tensor: transpose dim2: %w", err)
	}

	if d1 == d2 {
		return t.Clone(), nil
	}

	shape := append([]int64(nil), t.shape...)
	shape[d1], shape[d2] = shape[d2], shape[d1]

	// step[d] is how far the source offset moves when output coordinate d
	// advances by one.
	step := strides(t.shape)
	step[d1], step[d2] = step[d2], step[d1]

	data := make([]float32, len(t.data))
	coord := make([]int64, rank)

	var src int64
	for i := range data {
		data[i] = t.data[src]

		for d := rank - 1; d >= 0; d-- {
			coord[d]++
			src += step[d]

			if coord[d] < shape[d] {
				break
			}

			src -= step[d] * shape[d]
			coord[d] = 0
		}
	}

	return &Tensor{shape: shape, data: data}, nil
}

// TileRows returns a (rows, len(vec)) tensor whose every row is vec.
func TileRows(vec []float32, rows int64) (*Tensor, error) {
	if rows < 0 {
		return nil, fmt.Errorf("tensor: tile rows: negative row count %d", rows)
	}

	cols := int64(len(vec))
	data := make([]float32, rows*cols)

	for r := range rows {
		copy(data[r*cols:], vec)
	}

	return &Tensor{shape: []int64{rows, cols}, data: data}, nil
}

// Concat joins tensors along dim into a newly allocated tensor. All other
// dimensions must agree.
func Concat(tensors []*Tensor, dim int) (*Tensor, error) {
	if len(tensors) == 0 {
		return nil, errors.New("tensor: concat requires at least one tensor")
	}

	first := tensors[0]
	if first == nil {
		return nil, errors.New("tensor: concat tensor 0 is nil")
	}

	rank := len(first.shape)

	dim, err := axis(dim, rank)
	if err != nil {
		return nil, fmt.Errorf("tensor: concat: %w", err)
	}

	shape := append([]int64(nil), first.shape...)
	shape[dim] = 0

	for i, t := range tensors {
		if t == nil {
			return nil, fmt.Errorf("tensor: concat tensor %d is nil", i)
		}

		if len(t.shape) != rank {
			return nil, fmt.Errorf("tensor: concat tensor %d rank %d does not match rank %d", i, len(t.shape), rank)
		}

		for d := range rank {
			if d != dim && t.shape[d] != first.shape[d] {
				return nil, fmt.Errorf("tensor: concat tensor %d shape %v does not match base shape %v on dim %d", i, t.shape, first.shape, d)
			}
		}

		shape[dim] += t.shape[dim]
	}

	n, err := elems(shape)
	if err != nil {
		return nil, err
	}

	outer, inner := split(shape, dim)
	data := make([]float32, 0, n)

	for o := range outer {
		for _, t := range tensors {
			block := t.shape[dim] * inner
			data = append(data, t.data[o*block:(o+1)*block]...)
		}
	}

	return &Tensor{shape: shape, data: data}, nil
}
