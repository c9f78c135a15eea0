package report

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/futig/report-grounder/internal/config"
	"github.com/futig/report-grounder/internal/entity"
	"github.com/futig/report-grounder/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsecase struct {
	submitted []entity.ProcessInput
	jobs      map[string]*entity.Job
	queryErr  error
	exported  *entity.AnswerFile
	exportArg struct {
		reportID   string
		questionID int
		format     entity.ResultFormat
	}
}

func (f *fakeUsecase) Submit(_ context.Context, in entity.ProcessInput) (*entity.Job, error) {
	f.submitted = append(f.submitted, in)
	return &entity.Job{ID: "abc123", Status: entity.JobStatusProcessing, ReportID: in.ReportID}, nil
}

func (f *fakeUsecase) GetJob(_ context.Context, jobID string) (*entity.Job, error) {
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, entity.ErrJobNotFound
	}
	return job, nil
}

func (f *fakeUsecase) Query(_ context.Context, req *entity.QueryRequest) (*entity.QueryResponse, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return &entity.QueryResponse{
		ReportID: req.ReportID,
		Hits:     []entity.RetrievalHit{{Rank: 1, Category: entity.CategoryOzel, ChunkText: "parça"}},
	}, nil
}

func (f *fakeUsecase) ExportAnswer(_ context.Context, reportID string, questionID int, format entity.ResultFormat) (*entity.AnswerFile, error) {
	f.exportArg.reportID = reportID
	f.exportArg.questionID = questionID
	f.exportArg.format = format
	if f.exported == nil {
		return nil, entity.ErrAnswerNotFound
	}
	return f.exported, nil
}

func newTestServer(t *testing.T, uc *fakeUsecase) (http.Handler, string) {
	t.Helper()
	uploadDir := filepath.Join(t.TempDir(), "uploads")
	uploadCfg := config.FileUploadConfig{MaxFileSize: 1 << 20, MaxUploadSize: 2 << 20}

	h := NewHandler(uc, uploadCfg, config.PipelineConfig{UploadDir: uploadDir, TopK: 10}, validator.NewFileValidator(uploadCfg))
	r := chi.NewRouter()
	RegisterRoutes(r, h)
	return r, uploadDir
}

func multipartBody(t *testing.T, fields map[string]string, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("pdf", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) entity.ErrorResponse {
	t.Helper()
	var resp entity.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestProcess_Accepted(t *testing.T) {
	uc := &fakeUsecase{}
	srv, uploadDir := newTestServer(t, uc)

	body, ct := multipartBody(t, map[string]string{"report_id": "rapor2023", "question_id": "3"}, "Rapor 2023.pdf", []byte("%PDF-1.7 içerik"))
	req := httptest.NewRequest(http.MethodPost, "/v1/process", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var resp entity.ProcessResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, entity.ProcessResponse{JobID: "abc123", ReportID: "rapor2023", QuestionID: 3, Status: entity.JobStatusProcessing}, resp)

	require.Len(t, uc.submitted, 1)
	stored := uc.submitted[0].PDFPath
	assert.Equal(t, "rapor2023.pdf", filepath.Base(stored))
	assert.Equal(t, uploadDir, filepath.Dir(filepath.Dir(stored)))
	content, err := os.ReadFile(stored)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 içerik", string(content))
}

func TestProcess_RepeatedUploadKeepsEarlierFile(t *testing.T) {
	uc := &fakeUsecase{}
	srv, _ := newTestServer(t, uc)

	for _, content := range []string{"%PDF-1.7 ilk", "%PDF-1.7 ikinci"} {
		body, ct := multipartBody(t, map[string]string{"report_id": "rapor2023", "question_id": "1"}, "r.pdf", []byte(content))
		req := httptest.NewRequest(http.MethodPost, "/v1/process", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	}

	require.Len(t, uc.submitted, 2)
	assert.NotEqual(t, uc.submitted[0].PDFPath, uc.submitted[1].PDFPath)
	first, err := os.ReadFile(uc.submitted[0].PDFPath)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 ilk", string(first))
}

func TestProcess_CustomQuestionTargetsZero(t *testing.T) {
	uc := &fakeUsecase{}
	srv, _ := newTestServer(t, uc)

	body, ct := multipartBody(t, map[string]string{
		"report_id":       "rapor2023",
		"custom_question": "Bütçe nasıl değişti?",
		"custom_yordam":   "Yüzde verin.",
	}, "r.pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/v1/process", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"question_id":0`)
	require.Len(t, uc.submitted, 1)
	assert.Equal(t, "Bütçe nasıl değişti?", uc.submitted[0].CustomQuestion)
	assert.Equal(t, "Yüzde verin.", uc.submitted[0].CustomYordam)
}

func TestProcess_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		fields   map[string]string
		filename string
		content  []byte
	}{
		{"missing question", map[string]string{"report_id": "r"}, "r.pdf", []byte("%PDF-1.4")},
		{"non numeric question", map[string]string{"report_id": "r", "question_id": "bir"}, "r.pdf", []byte("%PDF-1.4")},
		{"missing report", map[string]string{"question_id": "1"}, "r.pdf", []byte("%PDF-1.4")},
		{"unsafe report", map[string]string{"report_id": "../x", "question_id": "1"}, "r.pdf", []byte("%PDF-1.4")},
		{"missing pdf", map[string]string{"report_id": "r", "question_id": "1"}, "", nil},
		{"wrong extension", map[string]string{"report_id": "r", "question_id": "1"}, "r.docx", []byte("%PDF-1.4")},
		{"not a pdf", map[string]string{"report_id": "r", "question_id": "1"}, "r.pdf", []byte("merhaba")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &fakeUsecase{}
			srv, _ := newTestServer(t, uc)

			body, ct := multipartBody(t, tt.fields, tt.filename, tt.content)
			req := httptest.NewRequest(http.MethodPost, "/v1/process", body)
			req.Header.Set("Content-Type", ct)
			rec := httptest.NewRecorder()

			srv.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Bad Request", decodeError(t, rec).Error)
			assert.Empty(t, uc.submitted)
		})
	}
}

func TestGetStatus(t *testing.T) {
	qid := 2
	uc := &fakeUsecase{jobs: map[string]*entity.Job{
		"j1": {ID: "j1", Status: entity.JobStatusDone, Stage: entity.JobStageCompleted, QuestionID: &qid, Answer: "42 [1]"},
	}}
	srv, _ := newTestServer(t, uc)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/status/j1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var job entity.Job
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&job))
	assert.Equal(t, entity.JobStatusDone, job.Status)
	assert.Equal(t, "42 [1]", job.Answer)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/status/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQuery(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		srv, _ := newTestServer(t, &fakeUsecase{})
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/query",
			strings.NewReader(`{"report_id":"r","question":"patent var mı?"}`)))

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp entity.QueryResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Len(t, resp.Hits, 1)
		assert.Equal(t, entity.CategoryOzel, resp.Hits[0].Category)
	})

	t.Run("invalid top_k", func(t *testing.T) {
		srv, _ := newTestServer(t, &fakeUsecase{})
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/query",
			strings.NewReader(`{"report_id":"r","question":"q","top_k":500}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		srv, _ := newTestServer(t, &fakeUsecase{})
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(`{`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not indexed", func(t *testing.T) {
		srv, _ := newTestServer(t, &fakeUsecase{queryErr: entity.ErrReportNotIndexed})
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/query",
			strings.NewReader(`{"report_id":"r","question":"q"}`)))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, decodeError(t, rec).Message, "report is not indexed")
	})
}

func TestExportAnswer(t *testing.T) {
	uc := &fakeUsecase{exported: &entity.AnswerFile{
		Filename:    "r_soru4.docx",
		ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Content:     []byte("docx-bytes"),
	}}
	srv, _ := newTestServer(t, uc)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/reports/r/answers/4?format=docx", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "docx-bytes", rec.Body.String())
	assert.Equal(t, `attachment; filename="r_soru4.docx"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, entity.FormatDOCX, uc.exportArg.format)
	assert.Equal(t, 4, uc.exportArg.questionID)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/reports/r/answers/4?format=odt", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/reports/r/answers/x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	uc.exported = nil
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/reports/r/answers/9", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, entity.FormatMarkdown, uc.exportArg.format)
}
