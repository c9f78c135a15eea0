package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/futig/report-grounder/internal/api"
	reportapi "github.com/futig/report-grounder/internal/api/report"
	"github.com/futig/report-grounder/internal/config"
	"github.com/futig/report-grounder/internal/integration/callback"
	embeddingconn "github.com/futig/report-grounder/internal/integration/embedding"
	"github.com/futig/report-grounder/internal/integration/llm"
	"github.com/futig/report-grounder/internal/integration/notify"
	"github.com/futig/report-grounder/internal/pipeline/answer"
	"github.com/futig/report-grounder/internal/pipeline/embedding"
	"github.com/futig/report-grounder/internal/pipeline/pdftext"
	"github.com/futig/report-grounder/internal/pkg/validator"
	"github.com/futig/report-grounder/internal/usecase/report"
	"go.uber.org/zap"
)

// Pipeline is the report use case with the resources it holds open.
type Pipeline struct {
	Usecase *report.ReportUsecase
	Config  *config.Config
	Logger  *zap.Logger
	closers []func()
}

// Close releases the job store and syncs the logger.
func (p *Pipeline) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
	_ = p.Logger.Sync()
}

// Build wires the HTTP server.
func Build() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	pipeline, err := BuildPipeline(context.Background(), cfg, logger)
	if err != nil {
		return nil, err
	}

	fileValidator := validator.NewFileValidator(cfg.FileUploadCfg)
	reportHandler := reportapi.NewHandler(pipeline.Usecase, cfg.FileUploadCfg, cfg.PipelineCfg, fileValidator)
	router := api.SetupRouter(reportHandler, logger)
	logger.Info("HTTP router configured")

	server := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("Application built successfully", zap.String("environment", cfg.Environment))

	return &App{
		server:          server,
		pipeline:        pipeline,
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logger,
	}, nil
}

// BuildCLI loads the configuration of environment and wires the pipeline for
// command line use.
func BuildCLI(environment string) (*Pipeline, error) {
	cfg, err := config.Load(environment)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	return BuildPipeline(context.Background(), cfg, logger)
}

// BuildPipeline opens the job store and wires connectors into the report use
// case.
func BuildPipeline(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Pipeline, error) {
	p := &Pipeline{Config: cfg, Logger: logger}

	jobs, closeJobs, err := setupJobStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	p.closers = append(p.closers, closeJobs)

	var embedder embedding.Embedder
	switch cfg.PipelineCfg.EmbedBackend {
	case config.EmbedBackendOpenAI:
		embedder = embeddingconn.NewConnector(cfg.EmbeddingConnectorCfg, cfg.PipelineCfg.EmbedDimensions, logger)
	default:
		embedder = embedding.NewHashing(cfg.PipelineCfg.EmbedDimensions)
	}

	var chat answer.ChatCompleter
	if cfg.EnableMocks {
		logger.Info("Using mock chat completion")
		chat = llm.NewMockConnector(logger)
	} else {
		chat = llm.NewConnector(cfg.LLMConnectorCfg, logger)
	}

	outer := callback.NewConnector(cfg.OuterAPIConnectorCfg, logger)

	telegram, err := notify.NewTelegram(cfg.TelegramCfg, logger)
	if err != nil {
		logger.Warn("telegram notifications disabled", zap.Error(err))
		telegram = nil
	}

	p.Usecase = report.NewUsecase(
		jobs,
		pdftext.New(cfg.PipelineCfg.PDFTool),
		embedder,
		chat,
		outer,
		telegram,
		report.Options{
			WorkspaceRoot: cfg.PipelineCfg.WorkspaceRoot,
			QuestionsFile: cfg.PipelineCfg.QuestionsFile,
			TopK:          cfg.PipelineCfg.TopK,
			AnswerDelay:   cfg.LLMConnectorCfg.Delay,
			ExportFont:    cfg.PipelineCfg.ExportFont,
		},
		logger,
	)

	logger.Info("Pipeline initialized",
		zap.String("embedder", embedder.Name()),
		zap.String("job_store", cfg.JobStoreCfg.Backend),
		zap.Bool("outer_api", outer.Enabled()),
		zap.Bool("telegram", telegram != nil),
	)

	return p, nil
}
