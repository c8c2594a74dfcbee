package arrayio

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"github.com/example/go-ppg-tts/internal/runtime/tensor"
)

// ReadNPY decodes a little-endian float32 or float64 .npy stream in C or
// Fortran order.
func ReadNPY(r io.Reader) (*tensor.Tensor, error) {
	nr, err := npyio.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("npy header: %w", err)
	}

	hdr := nr.Header.Descr

	shape := make([]int64, len(hdr.Shape))
	for i, d := range hdr.Shape {
		shape[i] = int64(d)
	}

	var data []float32

	switch hdr.Type {
	case "<f4", "f4":
		if err := nr.Read(&data); err != nil {
			return nil, fmt.Errorf("npy data: %w", err)
		}
	case "<f8", "f8":
		var f64 []float64
		if err := nr.Read(&f64); err != nil {
			return nil, fmt.Errorf("npy data: %w", err)
		}

		data = make([]float32, len(f64))
		for i, v := range f64 {
			data[i] = float32(v)
		}
	default:
		return nil, fmt.Errorf("%w: npy dtype %q", ErrUnsupportedFormat, hdr.Type)
	}

	if hdr.Fortran && len(shape) > 1 {
		data = fortranToC(data, shape)
	}

	return tensor.FromOwned(data, shape)
}

// WriteNPY encodes a 1-D or 2-D tensor. Matrices are written as float64
// through gonum, vectors as float32.
func WriteNPY(w io.Writer, t *tensor.Tensor) error {
	switch t.Rank() {
	case 1:
		return npyio.Write(w, t.Data())
	case 2:
		rows, cols := int(t.Dim(0)), int(t.Dim(1))
		if rows == 0 || cols == 0 {
			return fmt.Errorf("%w: cannot write empty matrix %v", ErrNotMatrix, t.Shape())
		}

		f64 := make([]float64, len(t.RawData()))
		for i, v := range t.RawData() {
			f64[i] = float64(v)
		}

		return npyio.Write(w, mat.NewDense(rows, cols, f64))
	default:
		return fmt.Errorf("%w: npy writer supports rank 1 or 2, got shape %v", ErrNotMatrix, t.Shape())
	}
}

func loadNPY(path string) (*tensor.Tensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadNPY(bufio.NewReader(f))
}

func saveNPY(path string, t *tensor.Tensor) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(f)
	if err := WriteNPY(bw, t); err != nil {
		_ = f.Close()
		return err
	}

	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

// fortranToC reorders column-major data into row-major order.
func fortranToC(data []float32, shape []int64) []float32 {
	rank := len(shape)
	out := make([]float32, len(data))

	cStrides := make([]int64, rank)
	fStrides := make([]int64, rank)
	cs, fs := int64(1), int64(1)
	for i := rank - 1; i >= 0; i-- {
		cStrides[i] = cs
		cs *= shape[i]
	}
	for i := range rank {
		fStrides[i] = fs
		fs *= shape[i]
	}

	for lin := range int64(len(data)) {
		rem := lin
		var src int64
		for d := range rank {
			c := rem / cStrides[d]
			rem %= cStrides[d]
			src += c * fStrides[d]
		}
		out[lin] = data[src]
	}

	return out
}
