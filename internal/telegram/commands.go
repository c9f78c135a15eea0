package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/futig/report-grounder/internal/entity"
	"github.com/futig/report-grounder/internal/integration/notify"
	"github.com/futig/report-grounder/internal/pkg/logger"
	"github.com/futig/report-grounder/internal/pkg/validator"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	command := msg.Command()
	args := strings.Fields(msg.CommandArguments())
	chatID := msg.Chat.ID

	ctxzap.Info(ctx, "command received", zap.String("command", command), zap.Int("args", len(args)))

	switch command {
	case "start", "help":
		b.reply(ctx, chatID, msgHelp)
	case "status":
		b.handleStatus(ctx, chatID, args)
	case "query":
		b.handleQuery(ctx, chatID, args)
	case "answer":
		b.handleAnswer(ctx, chatID, args)
	case "process":
		b.handleProcess(ctx, chatID, args)
	default:
		b.reply(ctx, chatID, msgUnknownCommand)
	}
}

func (b *Bot) handleStatus(ctx context.Context, chatID int64, args []string) {
	if len(args) != 1 {
		b.reply(ctx, chatID, msgStatusUsage)
		return
	}

	job, err := b.usecase.GetJob(ctx, args[0])
	if err != nil {
		b.fail(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, notify.FormatJob(job))
}

func (b *Bot) handleQuery(ctx context.Context, chatID int64, args []string) {
	if len(args) < 2 {
		b.reply(ctx, chatID, msgQueryUsage)
		return
	}

	resp, err := b.usecase.Query(ctx, &entity.QueryRequest{
		ReportID: args[0],
		Question: strings.Join(args[1:], " "),
		TopK:     b.topK,
	})
	if err != nil {
		b.fail(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, formatHits(resp))
}

func (b *Bot) handleAnswer(ctx context.Context, chatID int64, args []string) {
	if len(args) < 2 || len(args) > 3 {
		b.reply(ctx, chatID, msgAnswerUsage)
		return
	}

	questionID, err := strconv.Atoi(args[1])
	if err != nil || questionID < 0 {
		b.reply(ctx, chatID, msgAnswerUsage)
		return
	}

	var raw string
	if len(args) == 3 {
		raw = args[2]
	}
	format, ok := entity.ParseResultFormat(raw)
	if !ok {
		b.reply(ctx, chatID, msgAnswerUsage)
		return
	}

	file, err := b.usecase.ExportAnswer(ctx, args[0], questionID, format)
	if err != nil {
		b.fail(ctx, chatID, err)
		return
	}
	if err := b.sendDocument(chatID, file); err != nil {
		b.fail(ctx, chatID, err)
	}
}

// handleProcess answers a question of a report that is already indexed.
func (b *Bot) handleProcess(ctx context.Context, chatID int64, args []string) {
	in, err := parseTarget(args)
	if err != nil {
		b.reply(ctx, chatID, msgProcessUsage)
		return
	}
	b.submit(ctx, chatID, in)
}

func (b *Bot) submit(ctx context.Context, chatID int64, in entity.ProcessInput) {
	ctx = logger.WithReport(ctx, in.ReportID)
	job, err := b.usecase.Submit(ctx, in)
	if err != nil {
		b.fail(ctx, chatID, err)
		return
	}

	target := in.QuestionID
	if in.CustomQuestion != "" {
		target = entity.CustomQuestionID
	}
	b.reply(ctx, chatID, jobAccepted(job, target))
}

func (b *Bot) fail(ctx context.Context, chatID int64, err error) {
	ctxzap.Warn(ctx, "command failed", zap.Error(err))
	b.reply(ctx, chatID, errorText(err))
}

// parseTarget reads "<report> <question id>" or "<report> <question text...>".
func parseTarget(args []string) (entity.ProcessInput, error) {
	if len(args) < 2 {
		return entity.ProcessInput{}, fmt.Errorf("%w: report and question", entity.ErrMissingField)
	}

	in := entity.ProcessInput{ReportID: args[0]}
	if err := validator.ValidateReportID(in.ReportID); err != nil {
		return entity.ProcessInput{}, err
	}

	if id, err := strconv.Atoi(args[1]); err == nil && len(args) == 2 {
		if id < 1 {
			return entity.ProcessInput{}, fmt.Errorf("%w: question_id must be at least 1", entity.ErrInvalidParameter)
		}
		in.QuestionID = id
		return in, nil
	}

	in.CustomQuestion = strings.Join(args[1:], " ")
	return in, nil
}
