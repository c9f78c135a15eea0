package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/futig/report-grounder/internal/config"
	"github.com/futig/report-grounder/internal/entity"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAPI struct {
	mu      sync.Mutex
	texts   []string
	docs    []tgbotapi.FileBytes
	fileURL string
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch m := c.(type) {
	case tgbotapi.MessageConfig:
		f.texts = append(f.texts, m.Text)
	case tgbotapi.DocumentConfig:
		f.docs = append(f.docs, m.File.(tgbotapi.FileBytes))
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) GetFileDirectURL(string) (string, error) {
	return f.fileURL, nil
}

func (f *fakeAPI) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}

type fakeUpdates struct {
	ch      chan tgbotapi.Update
	stopped bool
}

func (f *fakeUpdates) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel { return f.ch }
func (f *fakeUpdates) StopReceivingUpdates() { f.stopped = true }

type fakeUsecase struct {
	mu        sync.Mutex
	submitted []entity.ProcessInput
	jobs      map[string]*entity.Job
	export    *entity.AnswerFile
	query     *entity.QueryRequest
}

func (f *fakeUsecase) Submit(_ context.Context, in entity.ProcessInput) (*entity.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, in)
	return &entity.Job{ID: "job42", ReportID: in.ReportID, Status: entity.JobStatusProcessing}, nil
}

func (f *fakeUsecase) GetJob(_ context.Context, id string) (*entity.Job, error) {
	if job, ok := f.jobs[id]; ok {
		return job, nil
	}
	return nil, entity.ErrJobNotFound
}

func (f *fakeUsecase) Query(_ context.Context, req *entity.QueryRequest) (*entity.QueryResponse, error) {
	f.query = req
	return &entity.QueryResponse{ReportID: req.ReportID, Hits: []entity.RetrievalHit{
		{Rank: 1, Category: entity.CategoryMevzuat, Score: 0.5, ChunkText: "5746 sayılı kanun kapsamında destek alınmıştır."},
	}}, nil
}

func (f *fakeUsecase) ExportAnswer(_ context.Context, reportID string, qid int, format entity.ResultFormat) (*entity.AnswerFile, error) {
	if f.export == nil {
		return nil, entity.ErrAnswerNotFound
	}
	return f.export, nil
}

func newTestBot(t *testing.T, uc *fakeUsecase) (*Bot, *fakeAPI, *fakeUpdates) {
	t.Helper()
	api := &fakeAPI{}
	updates := &fakeUpdates{ch: make(chan tgbotapi.Update)}
	b := newBot(api, updates,
		config.TelegramConfig{RateLimitPerMinute: 600, RateLimitBurst: 50, ShutdownTimeout: time.Second},
		config.FileUploadConfig{MaxFileSize: 1024},
		config.PipelineConfig{UploadDir: filepath.Join(t.TempDir(), "uploads")},
		uc, zap.NewNop())
	return b, api, updates
}

func commandUpdate(text string) tgbotapi.Update {
	n := strings.IndexByte(text, ' ')
	if n < 0 {
		n = len(text)
	}
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From:     &tgbotapi.User{ID: 7},
		Chat:     &tgbotapi.Chat{ID: 70},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: n}},
	}}
}

func testCtx() context.Context {
	return ctxzap.ToContext(context.Background(), zap.NewNop())
}

func TestHelpAndUnknown(t *testing.T) {
	b, api, _ := newTestBot(t, &fakeUsecase{})

	b.handleUpdate(testCtx(), commandUpdate("/help"))
	assert.Equal(t, msgHelp, api.last())

	b.handleUpdate(testCtx(), commandUpdate("/foo"))
	assert.Equal(t, msgUnknownCommand, api.last())

	b.handleUpdate(testCtx(), tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 70}, Text: "selam"}})
	assert.Equal(t, msgUseHelp, api.last())
}

func TestStatus(t *testing.T) {
	qid := 3
	uc := &fakeUsecase{jobs: map[string]*entity.Job{
		"j1": {ID: "j1", ReportID: "r", QuestionID: &qid, Status: entity.JobStatusDone, Answer: "12 kişi [1]"},
	}}
	b, api, _ := newTestBot(t, uc)

	b.handleUpdate(testCtx(), commandUpdate("/status j1"))
	assert.Contains(t, api.last(), "Rapor r, soru 3")
	assert.Contains(t, api.last(), "Cevap: 12 kişi [1]")

	b.handleUpdate(testCtx(), commandUpdate("/status yok"))
	assert.Equal(t, "❌ İş bulunamadı.", api.last())

	b.handleUpdate(testCtx(), commandUpdate("/status"))
	assert.Equal(t, msgStatusUsage, api.last())
}

func TestQueryCommand(t *testing.T) {
	uc := &fakeUsecase{}
	b, api, _ := newTestBot(t, uc)

	b.handleUpdate(testCtx(), commandUpdate("/query rapor2023 teşvik mevzuatı"))
	require.NotNil(t, uc.query)
	assert.Equal(t, &entity.QueryRequest{ReportID: "rapor2023", Question: "teşvik mevzuatı", TopK: queryTopK}, uc.query)
	assert.Contains(t, api.last(), "1. [mevzuat] 0.500\n5746 sayılı kanun")

	b.handleUpdate(testCtx(), commandUpdate("/query rapor2023"))
	assert.Equal(t, msgQueryUsage, api.last())
}

func TestAnswerCommand(t *testing.T) {
	uc := &fakeUsecase{}
	b, api, _ := newTestBot(t, uc)

	b.handleUpdate(testCtx(), commandUpdate("/answer r 2"))
	assert.Equal(t, "❌ Bu soru için kayıtlı cevap yok.", api.last())

	uc.export = &entity.AnswerFile{Filename: "r_soru2.pdf", Content: []byte("%PDF")}
	b.handleUpdate(testCtx(), commandUpdate("/answer r 2 pdf"))
	require.Len(t, api.docs, 1)
	assert.Equal(t, "r_soru2.pdf", api.docs[0].Name)

	b.handleUpdate(testCtx(), commandUpdate("/answer r 2 odt"))
	assert.Equal(t, msgAnswerUsage, api.last())
}

func TestProcessCommand(t *testing.T) {
	uc := &fakeUsecase{}
	b, api, _ := newTestBot(t, uc)

	b.handleUpdate(testCtx(), commandUpdate("/process rapor2023 4"))
	require.Len(t, uc.submitted, 1)
	assert.Equal(t, entity.ProcessInput{ReportID: "rapor2023", QuestionID: 4}, uc.submitted[0])
	assert.Contains(t, api.last(), "İş alındı: job42")

	b.handleUpdate(testCtx(), commandUpdate("/process rapor2023 Kaç patent var?"))
	require.Len(t, uc.submitted, 2)
	assert.Equal(t, "Kaç patent var?", uc.submitted[1].CustomQuestion)
	assert.Contains(t, api.last(), "soru 0")

	b.handleUpdate(testCtx(), commandUpdate("/process ../etc 1"))
	assert.Equal(t, msgProcessUsage, api.last())
	assert.Len(t, uc.submitted, 2)
}

func TestParseTarget(t *testing.T) {
	in, err := parseTarget([]string{"r", "7"})
	require.NoError(t, err)
	assert.Equal(t, 7, in.QuestionID)

	in, err = parseTarget([]string{"r", "7", "numaralı", "proje"})
	require.NoError(t, err)
	assert.Equal(t, "7 numaralı proje", in.CustomQuestion)

	_, err = parseTarget([]string{"r", "0"})
	assert.ErrorIs(t, err, entity.ErrInvalidParameter)

	_, err = parseTarget([]string{"r"})
	assert.ErrorIs(t, err, entity.ErrMissingField)
}

func documentUpdate(caption, name string, size int) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From:     &tgbotapi.User{ID: 7},
		Chat:     &tgbotapi.Chat{ID: 70},
		Caption:  caption,
		Document: &tgbotapi.Document{FileID: "f1", FileName: name, FileSize: size},
	}}
}

func TestDocumentUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.4 rapor"))
	}))
	defer srv.Close()

	uc := &fakeUsecase{}
	b, api, _ := newTestBot(t, uc)
	api.fileURL = srv.URL

	b.handleUpdate(testCtx(), documentUpdate("rapor2023 2", "Rapor.PDF", 14))

	require.Len(t, uc.submitted, 1)
	in := uc.submitted[0]
	assert.Equal(t, "rapor2023", in.ReportID)
	assert.Equal(t, 2, in.QuestionID)
	content, err := os.ReadFile(in.PDFPath)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 rapor", string(content))
	assert.Contains(t, api.last(), "İş alındı")
}

func TestDocumentUpload_Rejected(t *testing.T) {
	uc := &fakeUsecase{}
	b, api, _ := newTestBot(t, uc)

	b.handleUpdate(testCtx(), documentUpdate("", "r.pdf", 10))
	assert.Equal(t, msgCaptionUsage, api.last())

	b.handleUpdate(testCtx(), documentUpdate("r 1", "r.docx", 10))
	assert.Contains(t, api.last(), "Geçersiz dosya")

	b.handleUpdate(testCtx(), documentUpdate("r 1", "r.pdf", 4096))
	assert.Contains(t, api.last(), "Geçersiz dosya")

	assert.Empty(t, uc.submitted)
}

func TestStartStop(t *testing.T) {
	uc := &fakeUsecase{}
	b, api, updates := newTestBot(t, uc)

	require.NoError(t, b.Start(context.Background()))
	updates.ch <- commandUpdate("/start")

	require.Eventually(t, func() bool { return api.last() == msgHelp }, time.Second, 5*time.Millisecond)
	require.NoError(t, b.Stop())
	assert.True(t, updates.stopped)
}
