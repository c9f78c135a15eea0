package builder

import (
	"context"
	"fmt"

	"github.com/futig/report-grounder/internal/config"
	"github.com/futig/report-grounder/internal/telegram"
	"go.uber.org/zap"
)

// BuildTelegramBot wires the command bot over the report pipeline. The caller
// closes the returned pipeline after stopping the bot.
func BuildTelegramBot() (*telegram.Bot, *Pipeline, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("setup logger: %w", err)
	}

	pipeline, err := BuildPipeline(context.Background(), cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	bot, err := telegram.New(cfg.TelegramCfg, cfg.FileUploadCfg, cfg.PipelineCfg, pipeline.Usecase, logger)
	if err != nil {
		pipeline.Close()
		return nil, nil, fmt.Errorf("create telegram bot: %w", err)
	}

	logger.Info("Telegram bot built", zap.String("environment", cfg.Environment))
	return bot, pipeline, nil
}
