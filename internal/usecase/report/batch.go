package report

import (
	"context"
	"fmt"

	"github.com/futig/report-grounder/internal/entity"
	"github.com/futig/report-grounder/internal/pipeline/answer"
	"github.com/futig/report-grounder/internal/pipeline/chunker"
	"github.com/futig/report-grounder/internal/pipeline/expander"
	"github.com/futig/report-grounder/internal/pipeline/prompt"
	"github.com/futig/report-grounder/internal/pipeline/questions"
	"github.com/futig/report-grounder/internal/pipeline/segmenter"
	"github.com/futig/report-grounder/internal/pipeline/textclean"
	"github.com/futig/report-grounder/internal/pipeline/vectorindex"
	"github.com/futig/report-grounder/internal/pipeline/workspace"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// PrepareResult summarizes preprocessing of one report.
type PrepareResult struct {
	CleanTextPath string
	Chunks        map[entity.Category]int
	IndexRows     map[entity.Category]int
	Questions     int
}

// Prepare extracts, cleans, chunks and indexes pdfPath under reportID,
// replacing any earlier index of the report.
func (uc *ReportUsecase) Prepare(ctx context.Context, reportID, pdfPath string) (*PrepareResult, error) {
	unlock := uc.locks.Lock(reportID)
	defer unlock()

	layout, err := uc.layout(reportID)
	if err != nil {
		return nil, err
	}
	return uc.prepare(ctx, "", layout, pdfPath)
}

func (uc *ReportUsecase) prepare(ctx context.Context, jobID string, layout *workspace.Layout, pdfPath string) (*PrepareResult, error) {
	uc.setStage(ctx, jobID, entity.JobStageExtract)
	rawPath, err := uc.extractor.ExtractToFile(ctx, pdfPath, layout.RawTextDir())
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}

	uc.setStage(ctx, jobID, entity.JobStageClean)
	cleanPath, err := textclean.CleanFile(rawPath, layout.CleanTextDir())
	if err != nil {
		return nil, err
	}

	uc.setStage(ctx, jobID, entity.JobStageChunk)
	chunks, err := chunker.ChunkFile(layout, cleanPath, segmenter.Split)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, n := range chunks {
		total += n
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: %s", entity.ErrEmptyDocument, pdfPath)
	}

	uc.setStage(ctx, jobID, entity.JobStageIndex)
	rows, err := uc.builder.BuildCategories(ctx, layout)
	if err != nil {
		return nil, err
	}

	qs, err := questions.LoadFile(uc.opts.QuestionsFile)
	if err != nil {
		return nil, err
	}
	if err := uc.builder.BuildQuestions(ctx, layout, qs); err != nil {
		return nil, err
	}

	ctxzap.Info(ctx, "report prepared",
		zap.String("report_id", layout.ReportID()),
		zap.Int("chunks", total),
		zap.Int("questions", len(qs)),
	)

	return &PrepareResult{
		CleanTextPath: cleanPath,
		Chunks:        chunks,
		IndexRows:     rows,
		Questions:     len(qs),
	}, nil
}

// RetrieveAll writes the top-k and expanded hits of every indexed question. It
// returns the number of expanded files.
func (uc *ReportUsecase) RetrieveAll(ctx context.Context, reportID string) (int, error) {
	unlock := uc.locks.Lock(reportID)
	defer unlock()

	layout, err := uc.indexedLayout(reportID)
	if err != nil {
		return 0, err
	}

	if err := uc.retriever.RetrieveQuestions(ctx, layout, nil, uc.opts.TopK); err != nil {
		return 0, err
	}
	return expander.New(layout).ExpandAll(ctx)
}

// GeneratePrompts builds the prompts of ids, or of every indexed question
// when ids is empty. It returns the ids it wrote.
func (uc *ReportUsecase) GeneratePrompts(ctx context.Context, reportID string, ids []int) ([]int, error) {
	unlock := uc.locks.Lock(reportID)
	defer unlock()

	layout, err := uc.indexedLayout(reportID)
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		lookup := vectorindex.LoadQuestions(layout)
		if lookup.Status != entity.LookupFound {
			return nil, fmt.Errorf("load question index: %w", lookup.Err)
		}
		for _, q := range lookup.Value.Questions {
			ids = append(ids, q.ID)
		}
	}

	for _, id := range ids {
		if _, err := prompt.Generate(ctx, layout, id, uc.opts.TopK); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// SendAll answers every generated prompt of the report.
func (uc *ReportUsecase) SendAll(ctx context.Context, reportID string) ([]answer.Result, error) {
	layout, err := workspace.New(uc.opts.WorkspaceRoot, reportID)
	if err != nil {
		return nil, err
	}
	return uc.sender.SendAll(ctx, layout)
}

func (uc *ReportUsecase) indexedLayout(reportID string) (*workspace.Layout, error) {
	layout, err := workspace.New(uc.opts.WorkspaceRoot, reportID)
	if err != nil {
		return nil, err
	}
	if !layout.IsIndexed() {
		return nil, fmt.Errorf("%w: %s", entity.ErrReportNotIndexed, reportID)
	}
	return layout, nil
}
