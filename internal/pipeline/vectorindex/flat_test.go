package vectorindex

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/futig/report-grounder/internal/entity"
	"github.com/futig/report-grounder/internal/pipeline/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlat(t *testing.T, rows ...[]float32) *Flat {
	t.Helper()
	f, err := NewFlat(len(rows[0]))
	require.NoError(t, err)
	require.NoError(t, f.Add(rows...))
	return f
}

func TestFlat_SearchOrdersByInnerProduct(t *testing.T) {
	f := newFlat(t,
		[]float32{1, 0, 0},
		[]float32{0, 1, 0},
		[]float32{0.6, 0.8, 0},
		[]float32{0, 0, 1},
	)

	res, err := f.Search([]float32{0, 1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, 1, res[0].Row)
	assert.InDelta(t, 1.0, res[0].Score, 1e-6)
	assert.Equal(t, 2, res[1].Row)
	assert.InDelta(t, 0.8, res[1].Score, 1e-6)
}

func TestFlat_SearchCapsAtRowCount(t *testing.T) {
	f := newFlat(t, []float32{1, 0}, []float32{1, 0})

	res, err := f.Search([]float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, 0, res[0].Row, "ties keep row order")
	assert.Equal(t, 1, res[1].Row)
}

func TestFlat_DimensionChecks(t *testing.T) {
	f := newFlat(t, []float32{1, 0})

	assert.ErrorIs(t, f.Add([]float32{1, 2, 3}), entity.ErrDimensionMismatch)

	_, err := f.Search([]float32{1}, 1)
	assert.ErrorIs(t, err, entity.ErrDimensionMismatch)

	_, err = NewFlat(0)
	assert.ErrorIs(t, err, entity.ErrDimensionMismatch)
}

func TestFlat_Replace(t *testing.T) {
	f := newFlat(t, []float32{1, 0}, []float32{0, 1})

	require.NoError(t, f.Replace(1, []float32{0.5, 0.5}))
	assert.Equal(t, []float32{0.5, 0.5}, f.Row(1))
	assert.Equal(t, []float32{1, 0}, f.Row(0))
	assert.Equal(t, 2, f.Len())

	assert.ErrorIs(t, f.Replace(2, []float32{1, 0}), entity.ErrInvalidParameter)
}

func TestFlat_RoundTrip(t *testing.T) {
	f := newFlat(t, []float32{0.25, -1.5, 3}, []float32{7, 8, 9})

	var buf bytes.Buffer
	n, err := f.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(headerSize+4*6), n)
	assert.Equal(t, "RGFLAT01", buf.String()[:8])

	got, err := ReadFlat(&buf)
	require.NoError(t, err)
	assert.Equal(t, f, got)
}

func TestReadFlat_Corrupt(t *testing.T) {
	f := newFlat(t, []float32{1, 2})
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	valid := buf.Bytes()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", append([]byte("XXXXXXXX"), valid[8:]...)},
		{"truncated", valid[:len(valid)-2]},
		{"trailing", append(append([]byte{}, valid...), 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadFlat(bytes.NewReader(tt.data))
			assert.ErrorIs(t, err, entity.ErrCorruptIndex)
		})
	}
}

func TestCategoryStore(t *testing.T) {
	layout, err := workspace.New(t.TempDir(), "r1")
	require.NoError(t, err)

	missing := LoadCategory(layout, entity.CategoryGenel)
	assert.Equal(t, entity.LookupNotFound, missing.Status)

	idx := &CategoryIndex{
		Category: entity.CategoryGenel,
		Vectors:  newFlat(t, []float32{1, 0}, []float32{0, 1}),
		Chunks: []entity.Chunk{
			{SourceFile: "r1.txt", Category: entity.CategoryGenel, ChunkIndex: 1, ChunkText: "a"},
			{SourceFile: "r1.txt", Category: entity.CategoryGenel, ChunkIndex: 2, ChunkText: "b"},
		},
	}
	require.NoError(t, SaveCategory(layout, idx))

	got := LoadCategory(layout, entity.CategoryGenel)
	require.Equal(t, entity.LookupFound, got.Status, got.Err)
	assert.Equal(t, idx, got.Value)

	require.NoError(t, os.WriteFile(layout.CategoryMetadataFile(entity.CategoryGenel), []byte(`[]`), 0o644))
	broken := LoadCategory(layout, entity.CategoryGenel)
	assert.Equal(t, entity.LookupBackendError, broken.Status)
	assert.ErrorIs(t, broken.Err, entity.ErrCorruptIndex)
}

func TestSaveCategory_RejectsMismatch(t *testing.T) {
	layout, err := workspace.New(t.TempDir(), "r1")
	require.NoError(t, err)

	err = SaveCategory(layout, &CategoryIndex{
		Category: entity.CategoryOzel,
		Vectors:  newFlat(t, []float32{1}),
	})
	assert.ErrorIs(t, err, entity.ErrCorruptIndex)

	_, statErr := os.Stat(filepath.Join(layout.IndexDir(), "faiss_ozel.index"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestQuestionStore(t *testing.T) {
	layout, err := workspace.New(t.TempDir(), "r1")
	require.NoError(t, err)

	assert.Equal(t, entity.LookupNotFound, LoadQuestions(layout).Status)

	idx := &QuestionIndex{
		Vectors: newFlat(t, []float32{1, 0}, []float32{0, 1}),
		Questions: []entity.Question{
			entity.NewQuestion(1, "Birinci soru", ""),
			entity.NewQuestion(2, "İkinci soru", "Kriter"),
		},
	}
	require.NoError(t, SaveQuestions(layout, idx))

	got := LoadQuestions(layout)
	require.Equal(t, entity.LookupFound, got.Status, got.Err)
	assert.Equal(t, idx, got.Value)

	row, ok := got.Value.Find(2)
	assert.True(t, ok)
	assert.Equal(t, 1, row)

	_, ok = got.Value.Find(0)
	assert.False(t, ok)
}
