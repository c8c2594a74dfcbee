package tensor

import (
	"fmt"
	"math"
)

// elems validates shape and returns its element count.
func elems(shape []int64) (int, error) {
	n := int64(1)

	for i, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("tensor: shape %v has negative dimension at %d", shape, i)
		}

		if d != 0 && n > math.MaxInt/d {
			return 0, fmt.Errorf("tensor: shape %v too large", shape)
		}

		n *= d
	}

	return int(n), nil
}

// axis resolves dim against rank; negative values count from the end.
func axis(dim, rank int) (int, error) {
	if dim < 0 {
		dim += rank
	}

	if dim < 0 || dim >= rank {
		return 0, fmt.Errorf("dim %d out of range for rank %d", dim, rank)
	}

	return dim, nil
}

// split returns the products of the dimensions before and after dim: the
// outer block count and inner block size for copies along dim.
func split(shape []int64, dim int) (outer, inner int64) {
	outer, inner = 1, 1
	for _, d := range shape[:dim] {
		outer *= d
	}

	for _, d := range shape[dim+1:] {
		inner *= d
	}

	return outer, inner
}

func strides(shape []int64) []int64 {
	s := make([]int64, len(shape))

	step := int64(1)
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = step
		step *= shape[i]
	}

	return s
}

// offset bounds-checks coord and returns its row-major position.
func offset(shape, coord []int64) (int64, error) {
	if len(coord) != len(shape) {
		return 0, fmt.Errorf("tensor: got %d coordinates for rank %d", len(coord), len(shape))
	}

	var off int64
	for i, c := range coord {
		if c < 0 || c >= shape[i] {
			return 0, fmt.Errorf("tensor: coordinate %d (%d) out of range for size %d", i, c, shape[i])
		}

		off = off*shape[i] + c
	}

	return off, nil
}
