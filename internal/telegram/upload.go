package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/futig/report-grounder/internal/entity"
	"github.com/futig/report-grounder/internal/pipeline/workspace"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// handleDocument stores an uploaded PDF as the report source and submits the
// question named in the caption.
func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	doc := msg.Document

	in, err := parseTarget(strings.Fields(msg.Caption))
	if err != nil {
		b.reply(ctx, chatID, msgCaptionUsage)
		return
	}

	if !strings.EqualFold(filepath.Ext(doc.FileName), ".pdf") {
		b.fail(ctx, chatID, fmt.Errorf("%w: %q (allowed: pdf)", entity.ErrInvalidExtension, doc.FileName))
		return
	}
	if int64(doc.FileSize) > b.maxFile {
		b.fail(ctx, chatID, fmt.Errorf("%w: %d bytes (max %d)", entity.ErrFileTooLarge, doc.FileSize, b.maxFile))
		return
	}

	path, err := b.download(ctx, doc.FileID, in.ReportID)
	if err != nil {
		b.fail(ctx, chatID, err)
		return
	}
	ctxzap.Info(ctx, "report upload stored", zap.String("report_id", in.ReportID), zap.String("path", path))

	in.PDFPath = path
	b.submit(ctx, chatID, in)
}

func (b *Bot) download(ctx context.Context, fileID, reportID string) (string, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("resolve file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create download request: %w", err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download file: HTTP %d", resp.StatusCode)
	}

	path, err := workspace.UploadPath(b.uploadDir, reportID)
	if err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	n, err := io.Copy(f, io.LimitReader(resp.Body, b.maxFile+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if n > b.maxFile {
		os.Remove(path)
		return "", fmt.Errorf("%w: more than %d bytes", entity.ErrFileTooLarge, b.maxFile)
	}
	return path, nil
}
