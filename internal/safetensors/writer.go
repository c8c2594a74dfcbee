package safetensors

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
)

// headerAlign pads the JSON header with spaces so tensor data starts on an
// 8-byte boundary.
const headerAlign = 8

// Encode writes float32 tensors to w in the given order, so the first tensor
// is the one LoadFirstTensor returns. metadata may be nil.
func Encode(w io.Writer, tensors []Tensor, metadata map[string]string) error {
	header, err := buildHeader(tensors, metadata)
	if err != nil {
		return err
	}

	if pad := (headerAlign - (8+len(header))%headerAlign) % headerAlign; pad > 0 {
		header = append(header, bytes.Repeat([]byte{' '}, pad)...)
	}

	var size [8]byte
	binary.LittleEndian.PutUint64(size[:], uint64(len(header)))

	if _, err := w.Write(size[:]); err != nil {
		return fmt.Errorf("safetensors: write header size: %w", err)
	}
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("safetensors: write header: %w", err)
	}

	var word [4]byte
	for _, t := range tensors {
		for _, v := range t.Data {
			binary.LittleEndian.PutUint32(word[:], math.Float32bits(v))
			if _, err := w.Write(word[:]); err != nil {
				return fmt.Errorf("safetensors: write %q: %w", t.Name, err)
			}
		}
	}

	return nil
}

// EncodeTensors is Encode into memory.
func EncodeTensors(tensors []Tensor, metadata map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, tensors, metadata); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// WriteFile writes float32 tensors into a .safetensors file.
func WriteFile(path string, tensors []Tensor, metadata map[string]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("safetensors: create %s: %w", path, err)
	}

	bw := bufio.NewWriter(f)
	if err := Encode(bw, tensors, metadata); err != nil {
		_ = f.Close()
		return err
	}

	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("safetensors: write %s: %w", path, err)
	}

	return f.Close()
}

func buildHeader(tensors []Tensor, metadata map[string]string) ([]byte, error) {
	if len(tensors) == 0 {
		return nil, ErrNoTensors
	}

	header := make(map[string]any, len(tensors)+1)
	if len(metadata) > 0 {
		header[metadataKey] = metadata
	}

	offset := 0
	for _, t := range tensors {
		if strings.TrimSpace(t.Name) != t.Name || t.Name == "" || t.Name == metadataKey {
			return nil, fmt.Errorf("safetensors: invalid tensor name %q", t.Name)
		}
		if _, dup := header[t.Name]; dup {
			return nil, fmt.Errorf("safetensors: duplicate tensor name %q", t.Name)
		}

		n, err := shapeElementCount(t.Shape)
		if err != nil {
			return nil, fmt.Errorf("safetensors: tensor %q: %w", t.Name, err)
		}
		if int64(len(t.Data)) != n {
			return nil, fmt.Errorf("safetensors: tensor %q shape %v holds %d elements, got %d", t.Name, t.Shape, n, len(t.Data))
		}

		end := offset + 4*len(t.Data)
		header[t.Name] = storeHeaderEntry{
			DType:   dtypeF32,
			Shape:   append([]int64{}, t.Shape...),
			Offsets: [2]int{offset, end},
		}
		offset = end
	}

	out, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("safetensors: encode header: %w", err)
	}

	return out, nil
}
