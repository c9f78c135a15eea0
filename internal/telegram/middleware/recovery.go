package middleware

import (
	"runtime/debug"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const msgInternalError = "❌ Bir hata oluştu. Lütfen tekrar deneyin."

// Sender is the part of the bot API the middleware replies through.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Recovery turns a panicking handler into an error reply.
type Recovery struct {
	logger *zap.Logger
	api    Sender
}

func NewRecovery(logger *zap.Logger, api Sender) *Recovery {
	return &Recovery{logger: logger, api: api}
}

func (m *Recovery) Handle(update tgbotapi.Update, next func(tgbotapi.Update)) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		m.logger.Error("panic recovered in telegram handler",
			zap.Any("panic", r),
			zap.String("stack", string(debug.Stack())),
			zap.Int("update_id", update.UpdateID),
		)

		if _, chatID := ids(update); chatID != 0 {
			if _, err := m.api.Send(tgbotapi.NewMessage(chatID, msgInternalError)); err != nil {
				m.logger.Error("failed to send error message", zap.Error(err), zap.Int64("chat_id", chatID))
			}
		}
	}()

	next(update)
}
