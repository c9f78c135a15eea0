package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"

	"github.com/futig/report-grounder/internal/config"
	"github.com/futig/report-grounder/internal/entity"
	"github.com/futig/report-grounder/internal/pipeline/workspace"
	"github.com/futig/report-grounder/internal/pkg/logger"
	"github.com/futig/report-grounder/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Handler struct {
	usecase   ReportUsecase
	uploadCfg config.FileUploadConfig
	uploadDir string
	topK      int
	validator RequestValidator
}

func NewHandler(
	usecase ReportUsecase,
	uploadCfg config.FileUploadConfig,
	pipelineCfg config.PipelineConfig,
	validator RequestValidator,
) *Handler {
	return &Handler{
		usecase:   usecase,
		uploadCfg: uploadCfg,
		uploadDir: pipelineCfg.UploadDir,
		topK:      pipelineCfg.TopK,
		validator: validator,
	}
}

// Process handles POST /v1/process
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Process")

	r.Body = http.MaxBytesReader(w, r.Body, h.uploadCfg.MaxUploadSize)
	if err := r.ParseMultipartForm(h.uploadCfg.MaxUploadSize); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid form data or size too large", err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	req, err := toProcessRequest(r.MultipartForm, r.Header.Get("X-Request-ID"))
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	if err := h.validator.ValidateProcess(req); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctx = logger.AddFields(logger.WithReport(ctx, req.ReportID),
		zap.Int("question_id", req.TargetQuestionID()),
	)

	pdfPath, err := h.saveUpload(req.ReportID, req.PDF)
	if err != nil {
		h.respondError(ctx, w, http.StatusInternalServerError, "failed to store upload", err)
		return
	}

	ctxzap.Info(ctx, "report upload stored",
		zap.String("path", pdfPath),
		zap.Int64("size", req.PDF.Size),
	)

	job, err := h.usecase.Submit(ctx, toProcessInput(req, pdfPath))
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Accepted(w, toProcessResponse(job, req))
}

// GetStatus handles GET /v1/status/{job_id}
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("job_id", jobID),
		zap.String("action", "GetStatus"),
	)

	job, err := h.usecase.GetJob(ctx, jobID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Debug(ctx, "job fetched", zap.String("status", string(job.Status)))
	h.respondJSON(w, http.StatusOK, job)
}

// Query handles POST /v1/query
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Query")

	var req entity.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.validator.ValidateQuery(&req, h.topK); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctx = logger.AddFields(logger.WithReport(ctx, req.ReportID), zap.Int("top_k", req.TopK))

	resp, err := h.usecase.Query(ctx, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// ExportAnswer handles GET /v1/reports/{report_id}/answers/{question_id}
func (h *Handler) ExportAnswer(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "report_id")
	ctx := logger.WithReport(logger.WithAction(r.Context(), "ExportAnswer"), reportID)

	questionID, err := strconv.Atoi(chi.URLParam(r, "question_id"))
	if err != nil || questionID < 0 {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid question_id", err)
		return
	}

	format, ok := entity.ParseResultFormat(r.URL.Query().Get("format"))
	if !ok {
		h.respondError(ctx, w, http.StatusBadRequest, "format must be one of md, docx, pdf", nil)
		return
	}

	file, err := h.usecase.ExportAnswer(ctx, reportID, questionID, format)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Content); err != nil {
		ctxzap.Warn(ctx, "failed to write export", zap.Error(err))
	}
}

// saveUpload stores the PDF in a directory of its own as <report id>.pdf so
// that the extracted text is named after the report.
func (h *Handler) saveUpload(reportID string, fh *multipart.FileHeader) (string, error) {
	path, err := workspace.UploadPath(h.uploadDir, reportID)
	if err != nil {
		return "", err
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

// Helper methods
func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	response.JSON(w, status, data)
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		ctxzap.Error(ctx, message, zap.Error(err))
		message = fmt.Sprintf("%s: %v", message, err)
	} else {
		ctxzap.Error(ctx, message)
	}
	h.respondJSON(w, status, entity.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrJobNotFound):
		h.respondError(ctx, w, http.StatusNotFound, "job not found", err)
	case errors.Is(err, entity.ErrReportNotIndexed), errors.Is(err, entity.ErrQuestionNotFound), errors.Is(err, entity.ErrAnswerNotFound):
		h.respondError(ctx, w, http.StatusNotFound, "resource not found", err)
	case errors.Is(err, entity.ErrInvalidParameter), errors.Is(err, entity.ErrMissingField), errors.Is(err, entity.ErrInvalidFormat):
		h.respondError(ctx, w, http.StatusBadRequest, "invalid parameter", err)
	case errors.Is(err, entity.ErrInvalidFile), errors.Is(err, entity.ErrFileTooLarge), errors.Is(err, entity.ErrInvalidExtension):
		h.respondError(ctx, w, http.StatusBadRequest, "invalid file", err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
