// Package workspace owns the on-disk layout of a report namespace.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/futig/report-grounder/internal/entity"
	"github.com/google/uuid"
)

const (
	rawTextDir   = "raw_txt"
	cleanTextDir = "clean_txt"
	chunkDir     = "chunks"
	indexDir     = "faiss"
	topKDir      = "top10"
	expandedDir  = "expanded"
	promptDir    = "PROMPTS"
	answerDir    = "ANSWERS"

	questionSet = "soru_yordam"
)

// Layout resolves every path of one report namespace (<root>/<report_id>).
type Layout struct {
	reportID string
	dir      string
}

// New validates reportID and returns the layout rooted at root/reportID.
func New(root, reportID string) (*Layout, error) {
	if err := ValidateReportID(reportID); err != nil {
		return nil, err
	}
	return &Layout{
		reportID: reportID,
		dir:      filepath.Join(root, reportID),
	}, nil
}

// ValidateReportID rejects ids that would escape the workspace root.
func ValidateReportID(reportID string) error {
	if strings.TrimSpace(reportID) == "" {
		return fmt.Errorf("%w: report_id", entity.ErrMissingField)
	}
	if reportID == "." || reportID == ".." || strings.ContainsAny(reportID, `/\`) || strings.ContainsRune(reportID, 0) {
		return fmt.Errorf("%w: report_id %q", entity.ErrInvalidParameter, reportID)
	}
	return nil
}

// UploadPath creates a fresh directory under uploadDir and returns the path
// <uploadDir>/<uuid>/<reportID>.pdf inside it. Concurrent uploads of one
// report never share a file, and the extracted text stays named after the
// report.
func UploadPath(uploadDir, reportID string) (string, error) {
	if err := ValidateReportID(reportID); err != nil {
		return "", err
	}
	dir := filepath.Join(uploadDir, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	return filepath.Join(dir, reportID+".pdf"), nil
}

// Init creates the namespace directory tree. It is safe to call repeatedly.
func (l *Layout) Init() error {
	dirs := []string{
		l.RawTextDir(),
		l.CleanTextDir(),
		l.IndexDir(),
		l.PromptDir(),
		l.AnswerDir(),
	}
	for _, c := range entity.Categories() {
		dirs = append(dirs, l.ChunkDir(c), l.TopKDir(c), l.ExpandedDir(c))
	}

	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("create workspace dir %s: %w", d, err)
		}
	}
	return nil
}

func (l *Layout) ReportID() string { return l.reportID }
func (l *Layout) Dir() string      { return l.dir }

func (l *Layout) RawTextDir() string   { return filepath.Join(l.dir, rawTextDir) }
func (l *Layout) CleanTextDir() string { return filepath.Join(l.dir, cleanTextDir) }
func (l *Layout) IndexDir() string     { return filepath.Join(l.dir, indexDir) }
func (l *Layout) PromptDir() string    { return filepath.Join(l.dir, promptDir) }
func (l *Layout) AnswerDir() string    { return filepath.Join(l.dir, answerDir) }

func (l *Layout) ChunkDir(c entity.Category) string {
	return filepath.Join(l.dir, chunkDir, c.String())
}

func (l *Layout) TopKDir(c entity.Category) string {
	return filepath.Join(l.dir, topKDir, c.String())
}

func (l *Layout) ExpandedDir(c entity.Category) string {
	return filepath.Join(l.dir, expandedDir, c.String())
}

// RawTextFile is raw_txt/<name>.txt where name is the upload's base name.
func (l *Layout) RawTextFile(name string) string {
	return filepath.Join(l.RawTextDir(), name+".txt")
}

// CleanTextFile resolves a chunk's source_file inside clean_txt.
func (l *Layout) CleanTextFile(sourceFile string) string {
	return filepath.Join(l.CleanTextDir(), filepath.Base(sourceFile))
}

func (l *Layout) ChunkFile(c entity.Category, n int) string {
	return filepath.Join(l.ChunkDir(c), fmt.Sprintf("%s_chunk_%d.json", c, n))
}

func (l *Layout) CategoryIndexFile(c entity.Category) string {
	return filepath.Join(l.IndexDir(), fmt.Sprintf("faiss_%s.index", c))
}

func (l *Layout) CategoryMetadataFile(c entity.Category) string {
	return filepath.Join(l.IndexDir(), fmt.Sprintf("metadata_%s.json", c))
}

func (l *Layout) QuestionIndexFile() string {
	return filepath.Join(l.IndexDir(), fmt.Sprintf("faiss_%s.index", questionSet))
}

func (l *Layout) QuestionMetadataFile() string {
	return filepath.Join(l.IndexDir(), fmt.Sprintf("metadata_%s.json", questionSet))
}

func (l *Layout) TopKFile(c entity.Category, questionID, k int) string {
	return filepath.Join(l.TopKDir(c), hitFileName(questionID, k))
}

func (l *Layout) ExpandedFile(c entity.Category, questionID, k int) string {
	return filepath.Join(l.ExpandedDir(c), hitFileName(questionID, k))
}

func (l *Layout) PromptFile(questionID int) string {
	return filepath.Join(l.PromptDir(), fmt.Sprintf("prompt_%d.json", questionID))
}

func (l *Layout) AnswerFile(questionID int) string {
	return filepath.Join(l.AnswerDir(), fmt.Sprintf("answer_%d.json", questionID))
}

// IsIndexed reports whether the question index of this report has been built,
// which is the last step of preprocessing.
func (l *Layout) IsIndexed() bool {
	_, err := os.Stat(l.QuestionMetadataFile())
	return err == nil
}

func hitFileName(questionID, k int) string {
	return fmt.Sprintf("soru%d_top%d.json", questionID, k)
}
