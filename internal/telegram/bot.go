// Package telegram runs a command bot over the report pipeline: users submit
// PDFs, follow jobs, search reports and download answers from a chat.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/futig/report-grounder/internal/config"
	"github.com/futig/report-grounder/internal/entity"
	"github.com/futig/report-grounder/internal/telegram/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// ReportUsecase is the part of the report pipeline the bot drives.
type ReportUsecase interface {
	Submit(ctx context.Context, in entity.ProcessInput) (*entity.Job, error)
	GetJob(ctx context.Context, jobID string) (*entity.Job, error)
	Query(ctx context.Context, req *entity.QueryRequest) (*entity.QueryResponse, error)
	ExportAnswer(ctx context.Context, reportID string, questionID int, format entity.ResultFormat) (*entity.AnswerFile, error)
}

type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

type updateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot routes chat updates to report commands.
type Bot struct {
	api       botAPI
	updates   updateSource
	usecase   ReportUsecase
	cfg       config.TelegramConfig
	uploadDir string
	maxFile   int64
	topK      int
	client    *http.Client
	logger    *zap.Logger

	loggingMW   *middleware.Logging
	recoveryMW  *middleware.Recovery
	rateLimitMW *middleware.RateLimit

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New authorizes the bot token.
func New(
	cfg config.TelegramConfig,
	uploadCfg config.FileUploadConfig,
	pipelineCfg config.PipelineConfig,
	usecase ReportUsecase,
	logger *zap.Logger,
) (*Bot, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("%w: TELEGRAM_BOT_TOKEN", entity.ErrMissingField)
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}
	api.Debug = false

	logger.Info("telegram bot authorized",
		zap.String("username", api.Self.UserName),
		zap.Int64("id", api.Self.ID),
	)

	return newBot(api, api, cfg, uploadCfg, pipelineCfg, usecase, logger), nil
}

func newBot(
	api botAPI,
	updates updateSource,
	cfg config.TelegramConfig,
	uploadCfg config.FileUploadConfig,
	pipelineCfg config.PipelineConfig,
	usecase ReportUsecase,
	logger *zap.Logger,
) *Bot {
	return &Bot{
		api:         api,
		updates:     updates,
		usecase:     usecase,
		cfg:         cfg,
		uploadDir:   pipelineCfg.UploadDir,
		maxFile:     uploadCfg.MaxFileSize,
		topK:        queryTopK,
		client:      &http.Client{Timeout: 2 * time.Minute},
		logger:      logger,
		loggingMW:   middleware.NewLogging(logger),
		recoveryMW:  middleware.NewRecovery(logger, api),
		rateLimitMW: middleware.NewRateLimit(cfg.RateLimitPerMinute, cfg.RateLimitBurst, logger, api),
		stopChan:    make(chan struct{}),
	}
}

// Start begins long polling and returns immediately.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.UpdateTimeout

	updates := b.updates.GetUpdatesChan(u)
	ctx = ctxzap.ToContext(ctx, b.logger)

	go b.processUpdates(ctx, updates)

	b.logger.Info("telegram bot started")
	return nil
}

// Stop stops polling and waits for running handlers up to ShutdownTimeout.
func (b *Bot) Stop() error {
	b.logger.Info("stopping telegram bot")

	close(b.stopChan)
	b.updates.StopReceivingUpdates()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("telegram bot stopped")
		return nil
	case <-time.After(b.cfg.ShutdownTimeout):
		return errors.New("shutdown timeout exceeded")
	}
}

func (b *Bot) processUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.stopChan:
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.handleUpdateWithMiddleware(ctx, update)
			}()
		}
	}
}

func (b *Bot) handleUpdateWithMiddleware(ctx context.Context, update tgbotapi.Update) {
	b.rateLimitMW.Handle(update, func(u tgbotapi.Update) {
		b.loggingMW.Handle(u, func(u tgbotapi.Update) {
			b.recoveryMW.Handle(u, func(u tgbotapi.Update) {
				b.handleUpdate(ctx, u)
			})
		})
	})
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}

	ctx = ctxzap.ToContext(ctx, ctxzap.Extract(ctx).With(
		zap.Int64("chat_id", msg.Chat.ID),
		zap.Int("update_id", update.UpdateID),
	))

	switch {
	case msg.IsCommand():
		b.handleCommand(ctx, msg)
	case msg.Document != nil:
		b.handleDocument(ctx, msg)
	default:
		b.reply(ctx, msg.Chat.ID, msgUseHelp)
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	m := tgbotapi.NewMessage(chatID, text)
	m.DisableWebPagePreview = true
	if _, err := b.api.Send(m); err != nil {
		ctxzap.Error(ctx, "failed to send message", zap.Error(err))
	}
}

func (b *Bot) sendDocument(chatID int64, file *entity.AnswerFile) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  file.Filename,
		Bytes: file.Content,
	})
	if _, err := b.api.Send(doc); err != nil {
		return fmt.Errorf("send document: %w", err)
	}
	return nil
}
