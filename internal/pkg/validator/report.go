package validator

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/futig/report-grounder/internal/config"
	"github.com/futig/report-grounder/internal/entity"
	"github.com/futig/report-grounder/internal/pipeline/workspace"
)

const maxTopK = 100

var pdfMagic = []byte("%PDF-")

// Validator validates report requests and PDF uploads
type Validator struct {
	cfg config.FileUploadConfig
}

func NewFileValidator(cfg config.FileUploadConfig) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateProcess checks a parsed POST /v1/process request.
func (v *Validator) ValidateProcess(req *entity.ProcessRequest) error {
	if err := ValidateReportID(req.ReportID); err != nil {
		return err
	}

	if !req.HasCustomQuestion() && req.QuestionID < 1 {
		return fmt.Errorf("%w: question_id must be at least 1 when custom_question is empty", entity.ErrInvalidParameter)
	}

	if req.PDF == nil {
		return fmt.Errorf("%w: pdf", entity.ErrMissingField)
	}
	return v.ValidatePDF(req.PDF)
}

// ValidateQuery checks a POST /v1/query request and fills the default top_k.
func (v *Validator) ValidateQuery(req *entity.QueryRequest, defaultTopK int) error {
	if err := ValidateReportID(req.ReportID); err != nil {
		return err
	}
	if strings.TrimSpace(req.Question) == "" {
		return fmt.Errorf("%w: question", entity.ErrMissingField)
	}
	if req.TopK == 0 {
		req.TopK = defaultTopK
	}
	if req.TopK < 1 || req.TopK > maxTopK {
		return fmt.Errorf("%w: top_k must be between 1 and %d", entity.ErrInvalidParameter, maxTopK)
	}
	return nil
}

// ValidatePDF checks extension, size and the %PDF- header of an upload.
func (v *Validator) ValidatePDF(fh *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if ext != ".pdf" {
		return fmt.Errorf("%w: %q (allowed: pdf)", entity.ErrInvalidExtension, ext)
	}

	if fh.Size > v.cfg.MaxFileSize {
		return fmt.Errorf("%w: file '%s' is %d bytes (max %d)", entity.ErrFileTooLarge, fh.Filename, fh.Size, v.cfg.MaxFileSize)
	}

	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("%w: open upload: %v", entity.ErrInvalidFile, err)
	}
	defer f.Close()

	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(f, head); err != nil || !bytes.Equal(head, pdfMagic) {
		return fmt.Errorf("%w: '%s' is not a PDF document", entity.ErrInvalidFile, fh.Filename)
	}

	return nil
}

// ValidateReportID rejects empty ids and ids that could escape the workspace.
func ValidateReportID(reportID string) error {
	return workspace.ValidateReportID(reportID)
}

// SanitizeFilename sanitizes a filename for safe storage
func SanitizeFilename(filename string) string {
	filename = filepath.Base(filename)
	replacer := strings.NewReplacer(
		" ", "_",
		"(", "",
		")", "",
		"[", "",
		"]", "",
		"{", "",
		"}", "",
	)
	return replacer.Replace(filename)
}
