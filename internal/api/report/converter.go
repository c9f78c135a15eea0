package report

import (
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/futig/report-grounder/internal/entity"
)

// toProcessRequest reads the multipart fields of POST /v1/process.
func toProcessRequest(form *multipart.Form, requestID string) (*entity.ProcessRequest, error) {
	req := &entity.ProcessRequest{
		ReportID:       strings.TrimSpace(formValue(form, "report_id")),
		CustomQuestion: strings.TrimSpace(formValue(form, "custom_question")),
		CustomYordam:   strings.TrimSpace(formValue(form, "custom_yordam")),
		RequestID:      requestID,
	}

	if raw := strings.TrimSpace(formValue(form, "question_id")); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: question_id %q is not a number", entity.ErrInvalidParameter, raw)
		}
		req.QuestionID = id
	}

	if files := form.File["pdf"]; len(files) > 0 {
		req.PDF = files[0]
	}
	return req, nil
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// toProcessInput points the job at the stored upload.
func toProcessInput(req *entity.ProcessRequest, pdfPath string) entity.ProcessInput {
	return entity.ProcessInput{
		ReportID:       req.ReportID,
		QuestionID:     req.QuestionID,
		CustomQuestion: req.CustomQuestion,
		CustomYordam:   req.CustomYordam,
		PDFPath:        pdfPath,
	}
}

func toProcessResponse(job *entity.Job, req *entity.ProcessRequest) *entity.ProcessResponse {
	return &entity.ProcessResponse{
		JobID:      job.ID,
		ReportID:   req.ReportID,
		QuestionID: req.TargetQuestionID(),
		Status:     job.Status,
	}
}
