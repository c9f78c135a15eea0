// Package vectorindex implements exact inner-product search over small, flat
// vector sets and their on-disk format.
package vectorindex

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/futig/report-grounder/internal/entity"
	"github.com/futig/report-grounder/internal/pipeline/workspace"
)

const headerSize = 24

// File header:
//
//	0..7   magic "RGFLAT01"
//	8..15  dim (uint64)
//	16..23 count (uint64)
//
// followed by count*dim little-endian float32 values.
var fileMagic = [8]byte{'R', 'G', 'F', 'L', 'A', 'T', '0', '1'}

// Flat stores vectors row-major and scores queries by dot product against every
// row.
type Flat struct {
	dim  int
	data []float32
}

// Result is one scored row.
type Result struct {
	Row   int
	Score float32
}

func NewFlat(dim int) (*Flat, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", entity.ErrDimensionMismatch, dim)
	}
	return &Flat{dim: dim}, nil
}

func (f *Flat) Dim() int { return f.dim }
func (f *Flat) Len() int { return len(f.data) / f.dim }

// Add appends vectors as new rows.
func (f *Flat) Add(vecs ...[]float32) error {
	for i, v := range vecs {
		if len(v) != f.dim {
			return fmt.Errorf("%w: row %d has %d dims, index has %d", entity.ErrDimensionMismatch, i, len(v), f.dim)
		}
	}
	for _, v := range vecs {
		f.data = append(f.data, v...)
	}
	return nil
}

// Replace overwrites row in place.
func (f *Flat) Replace(row int, v []float32) error {
	if row < 0 || row >= f.Len() {
		return fmt.Errorf("%w: row %d out of range [0, %d)", entity.ErrInvalidParameter, row, f.Len())
	}
	if len(v) != f.dim {
		return fmt.Errorf("%w: vector has %d dims, index has %d", entity.ErrDimensionMismatch, len(v), f.dim)
	}
	copy(f.data[row*f.dim:(row+1)*f.dim], v)
	return nil
}

// Row returns a copy of the vector stored at row.
func (f *Flat) Row(row int) []float32 {
	out := make([]float32, f.dim)
	copy(out, f.data[row*f.dim:(row+1)*f.dim])
	return out
}

// Search returns the k rows with the highest inner product with query, best
// first. Equal scores are ordered by row.
func (f *Flat) Search(query []float32, k int) ([]Result, error) {
	if len(query) != f.dim {
		return nil, fmt.Errorf("%w: query has %d dims, index has %d", entity.ErrDimensionMismatch, len(query), f.dim)
	}
	n := f.Len()
	if k <= 0 || n == 0 {
		return nil, nil
	}

	results := make([]Result, n)
	for r := 0; r < n; r++ {
		row := f.data[r*f.dim : (r+1)*f.dim]
		var s float32
		for i, x := range row {
			s += x * query[i]
		}
		results[r] = Result{Row: r, Score: s}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	return results[:min(k, n)], nil
}

// WriteTo encodes the index in the RGFLAT01 format.
func (f *Flat) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)

	var header [headerSize]byte
	copy(header[:8], fileMagic[:])
	binary.LittleEndian.PutUint64(header[8:16], uint64(f.dim))
	binary.LittleEndian.PutUint64(header[16:24], uint64(f.Len()))
	if _, err := bw.Write(header[:]); err != nil {
		return 0, err
	}

	var buf [4]byte
	for _, x := range f.data {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(x))
		if _, err := bw.Write(buf[:]); err != nil {
			return 0, err
		}
	}

	if err := bw.Flush(); err != nil {
		return 0, err
	}
	return int64(headerSize + 4*len(f.data)), nil
}

// ReadFlat decodes an index written by WriteTo. Any structural problem is
// reported as ErrCorruptIndex.
func ReadFlat(r io.Reader) (*Flat, error) {
	br := bufio.NewReader(r)

	var header [headerSize]byte
	if _, err := io.ReadFull(br, header[:]); err != nil {
		return nil, fmt.Errorf("%w: read header: %v", entity.ErrCorruptIndex, err)
	}

	var mg [8]byte
	copy(mg[:], header[:8])
	if mg != fileMagic {
		return nil, fmt.Errorf("%w: magic mismatch", entity.ErrCorruptIndex)
	}

	dim := binary.LittleEndian.Uint64(header[8:16])
	count := binary.LittleEndian.Uint64(header[16:24])
	if dim == 0 || dim > 1<<16 || count > 1<<24 {
		return nil, fmt.Errorf("%w: implausible shape dim=%d count=%d", entity.ErrCorruptIndex, dim, count)
	}

	data := make([]float32, dim*count)
	var buf [4]byte
	for i := range data {
		if _, err := io.ReadFull(br, buf[:]); err != nil {
			return nil, fmt.Errorf("%w: truncated at value %d: %v", entity.ErrCorruptIndex, i, err)
		}
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[:]))
	}

	if _, err := br.ReadByte(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing bytes after %d rows", entity.ErrCorruptIndex, count)
	}

	return &Flat{dim: int(dim), data: data}, nil
}

// Save writes f to path atomically.
func Save(path string, f *Flat) error {
	var buf bytes.Buffer
	buf.Grow(headerSize + 4*len(f.data))
	if _, err := f.WriteTo(&buf); err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	return workspace.WriteFileAtomic(path, buf.Bytes())
}

// Load reads the index stored at path.
func Load(path string) (*Flat, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	f, err := ReadFlat(file)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return f, nil
}
