package vectorindex

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/futig/report-grounder/internal/entity"
	"github.com/futig/report-grounder/internal/pipeline/workspace"
)

// CategoryIndex pairs the vectors of one category with the chunk metadata of
// each row.
type CategoryIndex struct {
	Category entity.Category
	Vectors  *Flat
	Chunks   []entity.Chunk
}

// QuestionIndex pairs the question vectors with their metadata rows.
type QuestionIndex struct {
	Vectors   *Flat
	Questions []entity.Question
}

// Find returns the row holding question id.
func (q *QuestionIndex) Find(id int) (int, bool) {
	for i, qq := range q.Questions {
		if qq.ID == id {
			return i, true
		}
	}
	return -1, false
}

func SaveCategory(layout *workspace.Layout, idx *CategoryIndex) error {
	if idx.Vectors.Len() != len(idx.Chunks) {
		return fmt.Errorf("%w: %s has %d vectors and %d metadata rows",
			entity.ErrCorruptIndex, idx.Category, idx.Vectors.Len(), len(idx.Chunks))
	}
	if err := Save(layout.CategoryIndexFile(idx.Category), idx.Vectors); err != nil {
		return fmt.Errorf("save %s index: %w", idx.Category, err)
	}
	if err := workspace.WriteJSON(layout.CategoryMetadataFile(idx.Category), idx.Chunks); err != nil {
		return fmt.Errorf("save %s metadata: %w", idx.Category, err)
	}
	return nil
}

// RemoveCategory deletes the index and metadata of category c. A category
// that was never built is not an error.
func RemoveCategory(layout *workspace.Layout, c entity.Category) error {
	for _, path := range []string{layout.CategoryIndexFile(c), layout.CategoryMetadataFile(c)} {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s index: %w", c, err)
		}
	}
	return nil
}

// LoadCategory loads the index of category c. A category that was never built
// is NotFound; an unreadable or inconsistent pair is a BackendError.
func LoadCategory(layout *workspace.Layout, c entity.Category) entity.Lookup[*CategoryIndex] {
	vecs, err := Load(layout.CategoryIndexFile(c))
	if errors.Is(err, fs.ErrNotExist) {
		return entity.NotFound[*CategoryIndex]()
	}
	if err != nil {
		return entity.BackendError[*CategoryIndex](err)
	}

	var chunks []entity.Chunk
	if err := workspace.ReadJSON(layout.CategoryMetadataFile(c), &chunks); err != nil {
		return entity.BackendError[*CategoryIndex](fmt.Errorf("%w: %s metadata: %v", entity.ErrCorruptIndex, c, err))
	}
	if len(chunks) != vecs.Len() {
		return entity.BackendError[*CategoryIndex](fmt.Errorf("%w: %s has %d vectors and %d metadata rows",
			entity.ErrCorruptIndex, c, vecs.Len(), len(chunks)))
	}

	return entity.Found(&CategoryIndex{Category: c, Vectors: vecs, Chunks: chunks})
}

func SaveQuestions(layout *workspace.Layout, idx *QuestionIndex) error {
	if idx.Vectors.Len() != len(idx.Questions) {
		return fmt.Errorf("%w: question index has %d vectors and %d metadata rows",
			entity.ErrCorruptIndex, idx.Vectors.Len(), len(idx.Questions))
	}
	if err := Save(layout.QuestionIndexFile(), idx.Vectors); err != nil {
		return fmt.Errorf("save question index: %w", err)
	}
	if err := workspace.WriteJSON(layout.QuestionMetadataFile(), idx.Questions); err != nil {
		return fmt.Errorf("save question metadata: %w", err)
	}
	return nil
}

func LoadQuestions(layout *workspace.Layout) entity.Lookup[*QuestionIndex] {
	vecs, err := Load(layout.QuestionIndexFile())
	if errors.Is(err, fs.ErrNotExist) {
		return entity.NotFound[*QuestionIndex]()
	}
	if err != nil {
		return entity.BackendError[*QuestionIndex](err)
	}

	var questions []entity.Question
	if err := workspace.ReadJSON(layout.QuestionMetadataFile(), &questions); err != nil {
		return entity.BackendError[*QuestionIndex](fmt.Errorf("%w: question metadata: %v", entity.ErrCorruptIndex, err))
	}
	if len(questions) != vecs.Len() {
		return entity.BackendError[*QuestionIndex](fmt.Errorf("%w: question index has %d vectors and %d metadata rows",
			entity.ErrCorruptIndex, vecs.Len(), len(questions)))
	}

	return entity.Found(&QuestionIndex{Vectors: vecs, Questions: questions})
}
