// Package safetensors reads and writes the safetensors container format:
// an 8-byte little-endian header length, a JSON header, then raw tensor data.
package safetensors

import (
	"cmp"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"slices"
	"strings"
)

const (
	dtypeF32    = "F32"
	metadataKey = "__metadata__"
)

// dtype describes how one stored element widens to float32.
type dtype struct {
	size   int
	decode func(b []byte) float32
}

var dtypes = map[string]dtype{
	"F64": {8, func(b []byte) float32 { return float32(math.Float64frombits(binary.LittleEndian.Uint64(b))) }},
	"F32": {4, func(b []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b)) }},
	"F16": {2, func(b []byte) float32 { return float16ToFloat32(binary.LittleEndian.Uint16(b)) }},
	"BF16": {2, func(b []byte) float32 {
		return math.Float32frombits(uint32(binary.LittleEndian.Uint16(b)) << 16)
	}},
}

var ErrNoTensors = errors.New("safetensors: no tensors found")

// Tensor holds a single tensor decoded to float32.
type Tensor struct {
	Name  string
	Shape []int64
	Data  []float32
}

type Store struct {
	raw      []byte
	entries  map[string]storeEntry
	names    []string
	metadata map[string]string
}

type storeEntry struct {
	DType string
	Shape []int64
	Start int
	End   int
}

type storeHeaderEntry struct {
	DType   string  `json:"dtype"`
	Shape   []int64 `json:"shape"`
	Offsets [2]int  `json:"data_offsets"`
}

func OpenStore(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("safetensors: read %s: %w", path, err)
	}

	return OpenStoreFromBytes(data)
}

// OpenStoreFromBytes indexes a safetensors payload. Names are ordered by data
// offset, so the first name is the first tensor in the file.
func OpenStoreFromBytes(data []byte) (*Store, error) {
	headerEnd, header, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}

	s := &Store{
		raw:     data,
		entries: make(map[string]storeEntry, len(header)),
	}

	for name, rawEntry := range header {
		if name == metadataKey {
			if err := json.Unmarshal(rawEntry, &s.metadata); err != nil {
				return nil, fmt.Errorf("safetensors: decode metadata: %w", err)
			}

			continue
		}

		entry, err := parseEntry(name, rawEntry, headerEnd, len(data))
		if err != nil {
			return nil, err
		}

		s.entries[name] = entry
		s.names = append(s.names, name)
	}

	if len(s.names) == 0 {
		return nil, ErrNoTensors
	}

	slices.SortFunc(s.names, func(a, b string) int {
		return cmp.Or(cmp.Compare(s.entries[a].Start, s.entries[b].Start), strings.Compare(a, b))
	})

	return s, nil
}

func parseEntry(name string, raw json.RawMessage, headerEnd, fileSize int) (storeEntry, error) {
	var e storeHeaderEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return storeEntry{}, fmt.Errorf("safetensors: decode header entry %q: %w", name, err)
	}

	dtype := strings.ToUpper(e.DType)

	dt, ok := dtypes[dtype]
	if !ok {
		return storeEntry{}, fmt.Errorf("safetensors: tensor %q: unsupported dtype %q", name, e.DType)
	}

	if e.Offsets[0] < 0 || e.Offsets[1] < e.Offsets[0] {
		return storeEntry{}, fmt.Errorf("safetensors: tensor %q has invalid data offsets %v", name, e.Offsets)
	}

	start := headerEnd + e.Offsets[0]
	end := headerEnd + e.Offsets[1]
	if end > fileSize {
		return storeEntry{}, fmt.Errorf("safetensors: tensor %q data [%d:%d] exceeds file size %d", name, start, end, fileSize)
	}

	elemCount, err := shapeElementCount(e.Shape)
	if err != nil {
		return storeEntry{}, fmt.Errorf("safetensors: tensor %q: %w", name, err)
	}

	if need := int(elemCount) * dt.size; end-start < need {
		return storeEntry{}, fmt.Errorf("safetensors: tensor %q needs %d bytes but data has %d", name, need, end-start)
	}

	return storeEntry{
		DType: dtype,
		Shape: append([]int64(nil), e.Shape...),
		Start: start,
		End:   end,
	}, nil
}

func (s *Store) Names() []string {
	return append([]string(nil), s.names...)
}

// Metadata returns the free-form string map stored in the header, if any.
func (s *Store) Metadata() map[string]string {
	out := make(map[string]string, len(s.metadata))
	for k, v := range s.metadata {
		out[k] = v
	}

	return out
}

func (s *Store) Tensor(name string) (*Tensor, error) {
	entry, ok := s.entries[name]
	if !ok {
		return nil, fmt.Errorf("safetensors: tensor %q not found (available: %s)", name, summarizeNames(s.names))
	}

	data, err := decodeTensorData(s.raw[entry.Start:entry.End], entry.DType, entry.Shape)
	if err != nil {
		return nil, fmt.Errorf("safetensors: tensor %q decode: %w", name, err)
	}

	return &Tensor{
		Name:  name,
		Shape: append([]int64(nil), entry.Shape...),
		Data:  data,
	}, nil
}

// First decodes the tensor stored first in the file.
func (s *Store) First() (*Tensor, error) {
	return s.Tensor(s.names[0])
}

// LoadFirstTensor reads the file at path and returns its first tensor.
func LoadFirstTensor(path string) (*Tensor, error) {
	s, err := OpenStore(path)
	if err != nil {
		return nil, err
	}

	return s.First()
}

func decodeHeader(data []byte) (int, map[string]json.RawMessage, error) {
	if len(data) < 8 {
		return 0, nil, fmt.Errorf("safetensors: file too short (%d bytes)", len(data))
	}

	headerLen := binary.LittleEndian.Uint64(data[:8])
	if headerLen > uint64(len(data)-8) {
		return 0, nil, fmt.Errorf("safetensors: header length %d exceeds file size %d", headerLen, len(data))
	}

	headerEnd := 8 + int(headerLen)

	var header map[string]json.RawMessage
	if err := json.Unmarshal(data[8:headerEnd], &header); err != nil {
		return 0, nil, fmt.Errorf("safetensors: parse header: %w", err)
	}

	return headerEnd, header, nil
}

func shapeElementCount(shape []int64) (int64, error) {
	total := int64(1)

	for _, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("negative dimension %d", d)
		}

		if d == 0 {
			return 0, nil
		}

		if total > math.MaxInt64/d {
			return 0, fmt.Errorf("shape %v overflows element count", shape)
		}

		total *= d
	}

	return total, nil
}

func decodeTensorData(raw []byte, name string, shape []int64) ([]float32, error) {
	dt, ok := dtypes[name]
	if !ok {
		return nil, fmt.Errorf("unsupported dtype %q", name)
	}

	n, err := shapeElementCount(shape)
	if err != nil {
		return nil, err
	}

	if need := int(n) * dt.size; len(raw) < need {
		return nil, fmt.Errorf("need %d bytes for %s, got %d", need, name, len(raw))
	}

	out := make([]float32, n)
	for i := range out {
		out[i] = dt.decode(raw[i*dt.size:])
	}

	return out, nil
}

func float16ToFloat32(h uint16) float32 {
	sign := uint32(h>>15) & 0x1
	exp := uint32(h>>10) & 0x1f
	frac := uint32(h & 0x03ff)

	var bits uint32

	switch exp {
	case 0:
		if frac == 0 {
			bits = sign << 31
		} else {
			// Subnormal: normalize.
			e := int32(-14)

			for (frac & 0x0400) == 0 {
				frac <<= 1
				e--
			}

			frac &= 0x03ff
			exp32 := uint32(e + 127)
			bits = (sign << 31) | (exp32 << 23) | (frac << 13)
		}
	case 0x1f:
		// Inf / NaN.
		bits = (sign << 31) | 0x7f800000 | (frac << 13)
	default:
		exp32 := exp + (127 - 15)
		bits = (sign << 31) | (exp32 << 23) | (frac << 13)
	}

	return math.Float32frombits(bits)
}

func summarizeNames(names []string) string {
	const maxNames = 8
	if len(names) <= maxNames {
		return strings.Join(names, ", ")
	}

	return strings.Join(names[:maxNames], ", ") + ", ..."
}
