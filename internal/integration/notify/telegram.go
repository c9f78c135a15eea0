// Package notify reports finished jobs to a Telegram chat.
package notify

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/futig/report-grounder/internal/config"
	"github.com/futig/report-grounder/internal/entity"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const maxAnswerPreview = 500

type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends job summaries to one chat. A nil *Telegram is a valid no-op
// notifier.
type Telegram struct {
	api    messageSender
	chatID int64
	logger *zap.Logger
}

// NewTelegram authorizes the bot token. It returns nil when notifications are
// not configured.
func NewTelegram(cfg config.TelegramConfig, logger *zap.Logger) (*Telegram, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}
	api.Debug = false

	logger.Info("telegram notifier authorized",
		zap.String("username", api.Self.UserName),
		zap.Int64("chat_id", cfg.ChatID),
	)

	return &Telegram{api: api, chatID: cfg.ChatID, logger: logger}, nil
}

// JobFinished reports a done or failed job. Send errors are logged only.
func (t *Telegram) JobFinished(ctx context.Context, job *entity.Job) {
	if t == nil || job == nil {
		return
	}

	msg := tgbotapi.NewMessage(t.chatID, FormatJob(job))
	msg.DisableWebPagePreview = true

	if _, err := t.api.Send(msg); err != nil {
		ctxzap.Warn(ctx, "telegram notification failed", zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	ctxzap.Debug(ctx, "telegram notification sent", zap.String("job_id", job.ID))
}

// FormatJob renders the plain-text notification of job.
func FormatJob(job *entity.Job) string {
	var b strings.Builder

	icon := "✅"
	switch job.Status {
	case entity.JobStatusFailed:
		icon = "❌"
	case entity.JobStatusProcessing:
		icon = "⏳"
	}
	fmt.Fprintf(&b, "%s Rapor %s", icon, job.ReportID)
	if job.QuestionID != nil {
		fmt.Fprintf(&b, ", soru %d", *job.QuestionID)
	}
	fmt.Fprintf(&b, "\nDurum: %s (%.1fs)\n", job.Status, job.ElapsedSeconds)

	switch job.Status {
	case entity.JobStatusFailed:
		fmt.Fprintf(&b, "Aşama: %s\nHata: %s", job.Stage, job.Error)
		return b.String()
	case entity.JobStatusProcessing:
		fmt.Fprintf(&b, "Aşama: %s", job.Stage)
		return b.String()
	}

	answer := job.Answer
	if utf8.RuneCountInString(answer) > maxAnswerPreview {
		answer = string([]rune(answer)[:maxAnswerPreview]) + "…"
	}
	fmt.Fprintf(&b, "Cevap: %s", answer)
	return b.String()
}
