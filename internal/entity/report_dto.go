package entity

import (
	"mime/multipart"
)

type ResultFormat string

const (
	FormatMarkdown ResultFormat = "markdown"
	FormatDOCX     ResultFormat = "docx"
	FormatPDF      ResultFormat = "pdf"
)

func (f ResultFormat) IsValid() bool {
	switch f {
	case FormatMarkdown, FormatDOCX, FormatPDF:
		return true
	default:
		return false
	}
}

// ParseResultFormat accepts the short names used in query strings.
func ParseResultFormat(s string) (ResultFormat, bool) {
	switch s {
	case "", "md", "markdown":
		return FormatMarkdown, true
	case "docx":
		return FormatDOCX, true
	case "pdf":
		return FormatPDF, true
	default:
		return "", false
	}
}

// ProcessRequest is the parsed form of POST /v1/process.
type ProcessRequest struct {
	ReportID       string
	QuestionID     int
	CustomQuestion string
	CustomYordam   string
	PDF            *multipart.FileHeader
	RequestID      string
}

// HasCustomQuestion reports whether the job answers an ad-hoc question.
func (r *ProcessRequest) HasCustomQuestion() bool {
	return r.CustomQuestion != ""
}

// TargetQuestionID is the id the job retrieves and answers for.
func (r *ProcessRequest) TargetQuestionID() int {
	if r.HasCustomQuestion() {
		return CustomQuestionID
	}
	return r.QuestionID
}

// ProcessInput is what the orchestrator needs once the upload is on disk.
type ProcessInput struct {
	ReportID       string
	QuestionID     int
	CustomQuestion string
	CustomYordam   string
	PDFPath        string
}

type ProcessResponse struct {
	JobID      string    `json:"job_id"`
	ReportID   string    `json:"report_id"`
	QuestionID int       `json:"question_id"`
	Status     JobStatus `json:"status"`
}

type QueryRequest struct {
	ReportID string `json:"report_id"`
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

type QueryResponse struct {
	ReportID string         `json:"report_id"`
	Hits     []RetrievalHit `json:"hits"`
}

// AnswerFile is a rendered answer ready for download.
type AnswerFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

type PingResponse struct {
	Msg string `json:"msg"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
