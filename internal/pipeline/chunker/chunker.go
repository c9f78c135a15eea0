// Package chunker groups sentences into overlapping windows per category.
package chunker

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/futig/report-grounder/internal/entity"
	"github.com/futig/report-grounder/internal/pipeline/workspace"
)

// Window slides a window of profile.Size sentences over sentences with stride
// Size-Overlap. Every start position yields a window, so the tail may be
// shorter than Size.
func Window(sentences []string, profile entity.ChunkProfile) ([][]string, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	stride := profile.Stride()
	windows := make([][]string, 0, (len(sentences)+stride-1)/stride)
	for start := 0; start < len(sentences); start += stride {
		end := min(start+profile.Size, len(sentences))
		windows = append(windows, sentences[start:end])
	}
	return windows, nil
}

// Build chunks the sentences of one source file for every category. Chunk
// numbering starts at 1 in each category.
func Build(sourceFile string, sentences []string) (map[entity.Category][]entity.Chunk, error) {
	out := make(map[entity.Category][]entity.Chunk, len(entity.Categories()))

	for _, c := range entity.Categories() {
		windows, err := Window(sentences, c.Profile())
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", c, err)
		}

		chunks := make([]entity.Chunk, 0, len(windows))
		for i, w := range windows {
			text := strings.Join(w, " ")
			chunks = append(chunks, entity.Chunk{
				SourceFile:    sourceFile,
				Category:      c,
				ChunkIndex:    i + 1,
				ChunkText:     text,
				CharLen:       utf8.RuneCountInString(text),
				SentenceCount: len(w),
			})
		}
		out[c] = chunks
	}

	return out, nil
}

// Persist writes one JSON file per chunk under chunks/<category>/. Chunks of
// an earlier run are removed first.
func Persist(layout *workspace.Layout, chunks map[entity.Category][]entity.Chunk) error {
	for _, c := range entity.Categories() {
		if err := os.RemoveAll(layout.ChunkDir(c)); err != nil {
			return fmt.Errorf("clear chunk dir: %w", err)
		}
		if err := os.MkdirAll(layout.ChunkDir(c), 0o755); err != nil {
			return fmt.Errorf("create chunk dir: %w", err)
		}
		for _, ch := range chunks[c] {
			if err := workspace.WriteJSON(layout.ChunkFile(c, ch.ChunkIndex), ch); err != nil {
				return fmt.Errorf("write %s chunk %d: %w", c, ch.ChunkIndex, err)
			}
		}
	}
	return nil
}

// Load reads every persisted chunk of category c ordered by chunk index.
// A missing directory yields no chunks.
func Load(layout *workspace.Layout, c entity.Category) ([]entity.Chunk, error) {
	paths, err := filepath.Glob(filepath.Join(layout.ChunkDir(c), fmt.Sprintf("%s_chunk_*.json", c)))
	if err != nil {
		return nil, fmt.Errorf("list %s chunks: %w", c, err)
	}

	chunks := make([]entity.Chunk, 0, len(paths))
	for _, p := range paths {
		var ch entity.Chunk
		if err := workspace.ReadJSON(p, &ch); err != nil {
			return nil, fmt.Errorf("read chunk: %w", err)
		}
		chunks = append(chunks, ch)
	}

	sort.Slice(chunks, func(i, j int) bool { return chunks[i].ChunkIndex < chunks[j].ChunkIndex })
	return chunks, nil
}

// ChunkFile splits the cleaned text at cleanPath into sentences, chunks it for
// every category and persists the result. It returns the chunk count per
// category.
func ChunkFile(layout *workspace.Layout, cleanPath string, split func(string) []string) (map[entity.Category]int, error) {
	raw, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("read clean text: %w", err)
	}

	chunks, err := Build(filepath.Base(cleanPath), split(string(raw)))
	if err != nil {
		return nil, err
	}

	if err := Persist(layout, chunks); err != nil {
		return nil, err
	}

	counts := make(map[entity.Category]int, len(chunks))
	for c, list := range chunks {
		counts[c] = len(list)
	}
	return counts, nil
}
