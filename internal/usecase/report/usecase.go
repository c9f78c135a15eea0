package report

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/futig/report-grounder/internal/entity"
	"github.com/futig/report-grounder/internal/pipeline/answer"
	"github.com/futig/report-grounder/internal/pipeline/embedding"
	"github.com/futig/report-grounder/internal/pipeline/expander"
	"github.com/futig/report-grounder/internal/pipeline/indexer"
	"github.com/futig/report-grounder/internal/pipeline/prompt"
	"github.com/futig/report-grounder/internal/pipeline/retriever"
	"github.com/futig/report-grounder/internal/pipeline/vectorindex"
	"github.com/futig/report-grounder/internal/pipeline/workspace"
	"github.com/futig/report-grounder/internal/pkg/formatter"
	"github.com/futig/report-grounder/internal/pkg/logger"
	"github.com/futig/report-grounder/internal/repository"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Options locates the workspace and tunes the pipeline.
type Options struct {
	WorkspaceRoot string
	QuestionsFile string
	TopK          int
	AnswerDelay   time.Duration
	ExportFont    string
}

// ReportUsecase runs the report pipeline and tracks jobs.
type ReportUsecase struct {
	jobs      repository.JobStore
	extractor TextExtractor
	builder   *indexer.Builder
	retriever *retriever.Retriever
	sender    *answer.Sender
	outer     AnswerDeliverer
	notifier  JobNotifier
	formats   *formatter.Factory
	opts      Options
	locks     *keyedLock
	running   sync.WaitGroup
	logger    *zap.Logger
	now       func() time.Time
}

// NewUsecase creates a new report use case
func NewUsecase(
	jobs repository.JobStore,
	extractor TextExtractor,
	embedder embedding.Embedder,
	chat answer.ChatCompleter,
	outer AnswerDeliverer,
	notifier JobNotifier,
	opts Options,
	logger *zap.Logger,
) *ReportUsecase {
	if opts.TopK < 1 {
		opts.TopK = retriever.DefaultTopK
	}
	return &ReportUsecase{
		jobs:      jobs,
		extractor: extractor,
		builder:   indexer.NewBuilder(embedder),
		retriever: retriever.New(embedder),
		sender:    answer.NewSender(chat, opts.AnswerDelay),
		outer:     outer,
		notifier:  notifier,
		formats:   formatter.NewFactory(opts.ExportFont),
		opts:      opts,
		locks:     newKeyedLock(),
		logger:    logger,
		now:       time.Now,
	}
}

// Submit records a new job and runs it in the background. The returned job is
// still processing.
func (uc *ReportUsecase) Submit(ctx context.Context, in entity.ProcessInput) (*entity.Job, error) {
	job, err := uc.jobs.Create(ctx, in.ReportID)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	ctxzap.Info(ctx, "job accepted",
		zap.String("job_id", job.ID),
		zap.String("report_id", in.ReportID),
		zap.Int("question_id", targetQuestion(in)),
	)

	uc.running.Add(1)
	go func() {
		defer uc.running.Done()
		uc.Process(context.WithoutCancel(ctx), job.ID, in)
	}()

	return job, nil
}

// Drain waits until every submitted job has finished or ctx is done.
func (uc *ReportUsecase) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		uc.running.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("jobs still running: %w", ctx.Err())
	}
}

// Process runs one job to completion and records the outcome on the job. It
// never panics.
func (uc *ReportUsecase) Process(ctx context.Context, jobID string, in entity.ProcessInput) {
	start := uc.now()
	ctx = logger.WithJob(logger.WithAction(ctx, "process_report"), jobID, in.ReportID)

	defer func() {
		if r := recover(); r != nil {
			uc.fail(ctx, jobID, in, start, fmt.Errorf("panic: %v", r))
		}
	}()

	res, err := uc.run(ctx, jobID, in)
	if err != nil {
		uc.fail(ctx, jobID, in, start, err)
		return
	}
	uc.finish(ctx, jobID, in, start, res)
}

type processResult struct {
	questionID int
	prompt     entity.PromptRecord
	promptPath string
	answer     answer.Result
}

func (uc *ReportUsecase) run(ctx context.Context, jobID string, in entity.ProcessInput) (*processResult, error) {
	unlock := uc.locks.Lock(in.ReportID)
	defer unlock()

	layout, err := uc.layout(in.ReportID)
	if err != nil {
		return nil, err
	}

	if !layout.IsIndexed() {
		if in.PDFPath == "" {
			return nil, fmt.Errorf("%w: %s", entity.ErrReportNotIndexed, in.ReportID)
		}
		if _, err := uc.prepare(ctx, jobID, layout, in.PDFPath); err != nil {
			return nil, err
		}
	} else {
		ctxzap.Info(ctx, "report already indexed, skipping preprocessing")
	}

	target := in.QuestionID
	if in.CustomQuestion != "" {
		uc.setStage(ctx, jobID, entity.JobStageInject)
		q, err := uc.builder.Inject(ctx, layout, in.CustomQuestion, in.CustomYordam)
		if err != nil {
			return nil, fmt.Errorf("inject custom question: %w", err)
		}
		target = q.ID
	} else if err := uc.requireQuestion(layout, target); err != nil {
		return nil, err
	}
	uc.update(ctx, jobID, entity.JobUpdate{QuestionID: entity.Ptr(target)})

	uc.setStage(ctx, jobID, entity.JobStageRetrieve)
	if err := uc.retriever.RetrieveQuestions(ctx, layout, []int{target}, uc.opts.TopK); err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	uc.setStage(ctx, jobID, entity.JobStageExpand)
	if _, err := expander.New(layout).ExpandQuestion(ctx, target, uc.opts.TopK); err != nil {
		return nil, fmt.Errorf("expand: %w", err)
	}

	uc.setStage(ctx, jobID, entity.JobStagePrompt)
	rec, err := prompt.Generate(ctx, layout, target, uc.opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	uc.setStage(ctx, jobID, entity.JobStageAnswer)
	res, err := uc.sender.SendOne(ctx, layout, target)
	if err != nil {
		return nil, err
	}

	return &processResult{
		questionID: target,
		prompt:     rec,
		promptPath: layout.PromptFile(target),
		answer:     res,
	}, nil
}

func (uc *ReportUsecase) finish(ctx context.Context, jobID string, in entity.ProcessInput, start time.Time, res *processResult) {
	uc.setStage(ctx, jobID, entity.JobStageDeliver)
	uc.outer.SendAnswer(ctx, jobID, &entity.CallbackAnswerData{
		JobID:        jobID,
		ReportID:     in.ReportID,
		QuestionID:   res.questionID,
		Soru:         res.prompt.Soru,
		Yordam:       res.prompt.Yordam,
		Prompt:       res.prompt.Prompt,
		Answer:       res.answer.Answer,
		AnswerStatus: res.answer.Status,
	})

	elapsed := uc.now().Sub(start).Seconds()
	uc.update(ctx, jobID, entity.JobUpdate{
		Status:         entity.Ptr(entity.JobStatusDone),
		Stage:          entity.Ptr(entity.JobStageCompleted),
		Answer:         entity.Ptr(res.answer.Answer),
		AnswerStatus:   entity.Ptr(res.answer.Status),
		PromptPath:     entity.Ptr(res.promptPath),
		ElapsedSeconds: entity.Ptr(elapsed),
	})

	ctxzap.Info(ctx, "job finished",
		zap.Int("question_id", res.questionID),
		zap.String("answer_status", string(res.answer.Status)),
		zap.Float64("elapsed_seconds", elapsed),
	)
	uc.notify(ctx, jobID)
}

func (uc *ReportUsecase) fail(ctx context.Context, jobID string, in entity.ProcessInput, start time.Time, err error) {
	elapsed := uc.now().Sub(start).Seconds()
	ctxzap.Error(ctx, "job failed", zap.Error(err), zap.Float64("elapsed_seconds", elapsed))

	uc.update(ctx, jobID, entity.JobUpdate{
		Status:         entity.Ptr(entity.JobStatusFailed),
		Error:          entity.Ptr(err.Error()),
		ElapsedSeconds: entity.Ptr(elapsed),
	})

	uc.outer.SendError(ctx, jobID, err.Error(), map[string]any{
		"report_id":   in.ReportID,
		"question_id": targetQuestion(in),
	})
	uc.notify(ctx, jobID)
}

func (uc *ReportUsecase) notify(ctx context.Context, jobID string) {
	job, err := uc.jobs.Get(ctx, jobID)
	if err != nil {
		ctxzap.Warn(ctx, "load job for notification", zap.Error(err))
		return
	}
	uc.notifier.JobFinished(ctx, job)
}

// GetJob returns the current state of a job.
func (uc *ReportUsecase) GetJob(ctx context.Context, jobID string) (*entity.Job, error) {
	return uc.jobs.Get(ctx, jobID)
}

// Query searches every category index of an indexed report for an ad-hoc
// question.
func (uc *ReportUsecase) Query(ctx context.Context, req *entity.QueryRequest) (*entity.QueryResponse, error) {
	unlock := uc.locks.Lock(req.ReportID)
	defer unlock()

	layout, err := workspace.New(uc.opts.WorkspaceRoot, req.ReportID)
	if err != nil {
		return nil, err
	}
	if !layout.IsIndexed() {
		return nil, fmt.Errorf("%w: %s", entity.ErrReportNotIndexed, req.ReportID)
	}

	k := req.TopK
	if k < 1 {
		k = uc.opts.TopK
	}

	hits, err := uc.retriever.Query(ctx, layout, req.Question, k)
	if err != nil {
		return nil, err
	}

	ctxzap.Info(ctx, "query answered", zap.String("report_id", req.ReportID), zap.Int("hits", len(hits)))

	return &entity.QueryResponse{ReportID: req.ReportID, Hits: hits}, nil
}

// ExportAnswer renders a stored answer in the requested format.
func (uc *ReportUsecase) ExportAnswer(ctx context.Context, reportID string, questionID int, format entity.ResultFormat) (*entity.AnswerFile, error) {
	layout, err := workspace.New(uc.opts.WorkspaceRoot, reportID)
	if err != nil {
		return nil, err
	}

	rec, err := answer.LoadAnswer(layout, questionID)
	if err != nil {
		return nil, err
	}

	f, err := uc.formats.Create(format)
	if err != nil {
		return nil, err
	}

	sources := citedSources(ctx, layout, questionID, rec.Cevap)
	content, err := f.Format(formatter.AnswerDocument(reportID, questionID, rec, sources))
	if err != nil {
		return nil, fmt.Errorf("render answer: %w", err)
	}

	ctxzap.Debug(ctx, "answer exported",
		zap.String("report_id", reportID),
		zap.Int("question_id", questionID),
		zap.String("format", string(format)),
		zap.Int("sources", len(sources)),
	)

	return &entity.AnswerFile{
		Filename:    fmt.Sprintf("%s_soru%d%s", reportID, questionID, f.FileExtension()),
		ContentType: f.ContentType(),
		Content:     content,
	}, nil
}

// citedSources resolves the [n] citations of an answer against the fragments
// of its stored prompt. A missing prompt yields no sources.
func citedSources(ctx context.Context, layout *workspace.Layout, questionID int, answerText string) []formatter.Source {
	cited := entity.CitedNumbers(answerText)
	if len(cited) == 0 {
		return nil
	}

	rec, err := prompt.Load(layout, questionID)
	if err != nil {
		ctxzap.Debug(ctx, "no prompt for cited sources", zap.Error(err))
		return nil
	}

	byNumber := make(map[int]prompt.Fragment)
	for _, f := range prompt.ParseFragments(rec.Prompt) {
		byNumber[f.Number] = f
	}

	sources := make([]formatter.Source, 0, len(cited))
	for _, n := range cited {
		f, ok := byNumber[n]
		if !ok {
			ctxzap.Warn(ctx, "answer cites unknown fragment", zap.Int("fragment", n))
			continue
		}
		sources = append(sources, formatter.Source{Number: n, Category: f.Category, Text: f.Text})
	}
	return sources
}

func (uc *ReportUsecase) layout(reportID string) (*workspace.Layout, error) {
	layout, err := workspace.New(uc.opts.WorkspaceRoot, reportID)
	if err != nil {
		return nil, err
	}
	if err := layout.Init(); err != nil {
		return nil, fmt.Errorf("init workspace: %w", err)
	}
	return layout, nil
}

func (uc *ReportUsecase) requireQuestion(layout *workspace.Layout, id int) error {
	lookup := vectorindex.LoadQuestions(layout)
	switch lookup.Status {
	case entity.LookupNotFound:
		return fmt.Errorf("%w: %s", entity.ErrReportNotIndexed, layout.ReportID())
	case entity.LookupBackendError:
		return lookup.Err
	}
	if _, ok := lookup.Value.Find(id); !ok {
		return fmt.Errorf("%w: %d", entity.ErrQuestionNotFound, id)
	}
	return nil
}

func (uc *ReportUsecase) setStage(ctx context.Context, jobID string, stage entity.JobStage) {
	uc.update(ctx, jobID, entity.JobUpdate{Stage: entity.Ptr(stage)})
}

// update records job progress. Batch runs have no job and skip it.
func (uc *ReportUsecase) update(ctx context.Context, jobID string, upd entity.JobUpdate) {
	if jobID == "" {
		return
	}
	if err := uc.jobs.Update(ctx, jobID, upd); err != nil && !errors.Is(err, context.Canceled) {
		ctxzap.Warn(ctx, "update job state", zap.Error(err))
	}
}

func targetQuestion(in entity.ProcessInput) int {
	if in.CustomQuestion != "" {
		return entity.CustomQuestionID
	}
	return in.QuestionID
}
