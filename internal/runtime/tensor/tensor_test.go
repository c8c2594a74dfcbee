package tensor

import (
	"slices"
	"testing"
)

func TestReshapePreservesValues(t *testing.T) {
	x, err := New([]float32{1, 2, 3, 4, 5, 6}, []int64{2, 3})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	y, err := x.Reshape([]int64{3, 2})
	if err != nil {
		t.Fatalf("reshape: %v", err)
	}
	if got := y.Shape(); !slices.Equal(got, []int64{3, 2}) {
		t.Fatalf("shape = %v, want [3 2]", got)
	}
	if got := y.Data(); !slices.Equal(got, []float32{1, 2, 3, 4, 5, 6}) {
		t.Fatalf("data = %v", got)
	}
}

func TestNewRejectsLengthMismatch(t *testing.T) {
	if _, err := New([]float32{1, 2, 3}, []int64{2, 2}); err == nil {
		t.Fatal("expected error for mismatched data length")
	}
	if _, err := Zeros([]int64{2, -1}); err == nil {
		t.Fatal("expected error for negative dimension")
	}
}

func TestTranspose2D(t *testing.T) {
	x, _ := New([]float32{1, 2, 3, 4, 5, 6}, []int64{2, 3})
	y, err := x.Transpose(0, 1)
	if err != nil {
		t.Fatalf("transpose: %v", err)
	}
	if got := y.Shape(); !slices.Equal(got, []int64{3, 2}) {
		t.Fatalf("shape = %v, want [3 2]", got)
	}
	want := []float32{1, 4, 2, 5, 3, 6}
	if got := y.Data(); !slices.Equal(got, want) {
		t.Fatalf("data = %v, want %v", got, want)
	}
}

func TestConcatDim1(t *testing.T) {
	a, _ := New([]float32{1, 2, 3, 4}, []int64{1, 2, 2})
	b, _ := New([]float32{5, 6, 7, 8}, []int64{1, 2, 2})
	out, err := Concat([]*Tensor{a, b}, 1)
	if err != nil {
		t.Fatalf("concat: %v", err)
	}
	if got := out.Shape(); !slices.Equal(got, []int64{1, 4, 2}) {
		t.Fatalf("shape = %v, want [1 4 2]", got)
	}
	want := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	if got := out.Data(); !slices.Equal(got, want) {
		t.Fatalf("data = %v, want %v", got, want)
	}
}

func TestConcatLastDimAppendsPerRow(t *testing.T) {
	frames, _ := New([]float32{1, 2, 3, 4, 5, 6}, []int64{3, 2})
	emb, err := TileRows([]float32{9, 8}, 3)
	if err != nil {
		t.Fatalf("tile: %v", err)
	}

	out, err := Concat([]*Tensor{frames, emb}, -1)
	if err != nil {
		t.Fatalf("concat: %v", err)
	}
	if got := out.Shape(); !slices.Equal(got, []int64{3, 4}) {
		t.Fatalf("shape = %v, want [3 4]", got)
	}
	want := []float32{1, 2, 9, 8, 3, 4, 9, 8, 5, 6, 9, 8}
	if got := out.Data(); !slices.Equal(got, want) {
		t.Fatalf("data = %v, want %v", got, want)
	}
	// Inputs are untouched.
	if got := frames.Shape(); !slices.Equal(got, []int64{3, 2}) {
		t.Fatalf("input shape changed to %v", got)
	}
}

func TestConcatRejectsShapeMismatch(t *testing.T) {
	a, _ := Zeros([]int64{2, 3})
	b, _ := Zeros([]int64{3, 3})
	if _, err := Concat([]*Tensor{a, b}, 1); err == nil {
		t.Fatal("expected error for mismatched rows")
	}
	if _, err := Concat(nil, 0); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestNarrow(t *testing.T) {
	x, _ := New([]float32{1, 2, 3, 4, 5, 6}, []int64{2, 3})
	out, err := x.Narrow(1, 1, 2)
	if err != nil {
		t.Fatalf("narrow: %v", err)
	}
	want := []float32{2, 3, 5, 6}
	if got := out.Data(); !slices.Equal(got, want) {
		t.Fatalf("data = %v, want %v", got, want)
	}
	if _, err := x.Narrow(1, 2, 2); err == nil {
		t.Fatal("expected out-of-bounds error")
	}
}

func TestAtSet(t *testing.T) {
	x, _ := Zeros([]int64{2, 3, 4})
	if err := x.Set(7, 1, 2, 3); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, err := x.At(1, 2, 3)
	if err != nil {
		t.Fatalf("at: %v", err)
	}
	if v != 7 {
		t.Fatalf("At = %v, want 7", v)
	}
	if x.RawData()[len(x.RawData())-1] != 7 {
		t.Fatal("last element should be 7 in row-major order")
	}
	if _, err := x.At(2, 0, 0); err == nil {
		t.Fatal("expected out-of-range error")
	}
	if err := x.Set(1, 0, 0); err == nil {
		t.Fatal("expected rank mismatch error")
	}
}

func TestDimNegativeAxis(t *testing.T) {
	x, err := New([]float32{1, 2, 3, 4, 5, 6}, []int64{3, 2})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := x.Shape(); !slices.Equal(got, []int64{3, 2}) {
		t.Fatalf("shape = %v", got)
	}
	if x.Dim(-1) != 2 || x.Dim(0) != 3 {
		t.Fatalf("Dim = (%d, %d)", x.Dim(0), x.Dim(-1))
	}
}

func TestIntTensorRows(t *testing.T) {
	x, err := ZerosInt([]int64{2, 4})
	if err != nil {
		t.Fatalf("zeros: %v", err)
	}
	if err := x.SetRowPrefix(1, []int64{5, 6}); err != nil {
		t.Fatalf("set row: %v", err)
	}
	row, err := x.Row(1)
	if err != nil {
		t.Fatalf("row: %v", err)
	}
	if !slices.Equal(row, []int64{5, 6, 0, 0}) {
		t.Fatalf("row = %v", row)
	}
	if err := x.SetRowPrefix(0, []int64{1, 2, 3, 4, 5}); err == nil {
		t.Fatal("expected overflow error")
	}
}

func TestTranspose3DMatchesAt(t *testing.T) {
	x, _ := Zeros([]int64{2, 3, 4})
	for i := range x.data {
		x.data[i] = float32(i)
	}

	y, err := x.Transpose(0, 2)
	if err != nil {
		t.Fatalf("transpose: %v", err)
	}
	if got := y.Shape(); !slices.Equal(got, []int64{4, 3, 2}) {
		t.Fatalf("shape = %v, want [4 3 2]", got)
	}

	for a := range int64(2) {
		for b := range int64(3) {
			for c := range int64(4) {
				want, _ := x.At(a, b, c)
				got, _ := y.At(c, b, a)
				if got != want {
					t.Fatalf("y[%d,%d,%d] = %v, want %v", c, b, a, got, want)
				}
			}
		}
	}
}

func TestNarrowLeadingDimAndReshape(t *testing.T) {
	// (frames, channels) window of two frames reshaped to a batch of one
	x, _ := New([]float32{1, 2, 3, 4, 5, 6, 7, 8}, []int64{4, 2})
	part, err := x.Narrow(0, 1, 2)
	if err != nil {
		t.Fatalf("narrow: %v", err)
	}
	batch, err := part.Reshape([]int64{1, 2, 2})
	if err != nil {
		t.Fatalf("reshape: %v", err)
	}
	if got := batch.Data(); !slices.Equal(got, []float32{3, 4, 5, 6}) {
		t.Fatalf("data = %v", got)
	}
	if _, err := part.Reshape([]int64{3}); err == nil {
		t.Fatal("expected element count error")
	}
}

func TestDimOutOfRange(t *testing.T) {
	x, _ := Zeros([]int64{2, 3})
	if x.Dim(2) != 0 || x.Dim(-3) != 0 {
		t.Fatal("out-of-range Dim should be 0")
	}
	var nilT *Tensor
	if nilT.Dim(0) != 0 || nilT.Rank() != 0 || nilT.Shape() != nil {
		t.Fatal("nil tensor accessors should return zero values")
	}
}
