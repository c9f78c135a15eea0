package middleware

import (
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	msgRateLimited  = "⚠️ Çok fazla istek gönderdiniz. Lütfen biraz bekleyin."
	warningInterval = 30 * time.Second
	idleAfter       = time.Hour
	pruneEvery      = 10 * time.Minute
)

type visitor struct {
	limiter     *rate.Limiter
	lastSeen    time.Time
	lastWarning time.Time
}

// RateLimit applies a token bucket per user. Dropped updates get at most one
// warning per warningInterval.
type RateLimit struct {
	mu        sync.Mutex
	visitors  map[int64]*visitor
	limit     rate.Limit
	burst     int
	lastPrune time.Time
	now       func() time.Time
	logger    *zap.Logger
	api       Sender
}

func NewRateLimit(perMinute, burst int, logger *zap.Logger, api Sender) *RateLimit {
	if burst < 1 {
		burst = 1
	}
	return &RateLimit{
		visitors: make(map[int64]*visitor),
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		now:      time.Now,
		logger:   logger,
		api:      api,
	}
}

func (m *RateLimit) Handle(update tgbotapi.Update, next func(tgbotapi.Update)) {
	userID, chatID := ids(update)
	if userID == 0 {
		next(update)
		return
	}

	allowed, warn := m.allow(userID)
	if allowed {
		next(update)
		return
	}

	m.logger.Warn("rate limit exceeded", zap.Int64("user_id", userID), zap.Int64("chat_id", chatID))
	if warn && chatID != 0 {
		if _, err := m.api.Send(tgbotapi.NewMessage(chatID, msgRateLimited)); err != nil {
			m.logger.Error("failed to send rate limit warning", zap.Error(err), zap.Int64("chat_id", chatID))
		}
	}
}

func (m *RateLimit) allow(userID int64) (allowed, warn bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.prune(now)

	v, ok := m.visitors[userID]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.visitors[userID] = v
	}
	v.lastSeen = now

	if v.limiter.AllowN(now, 1) {
		return true, false
	}
	if now.Sub(v.lastWarning) < warningInterval {
		return false, false
	}
	v.lastWarning = now
	return false, true
}

func (m *RateLimit) prune(now time.Time) {
	if now.Sub(m.lastPrune) < pruneEvery {
		return
	}
	m.lastPrune = now
	for id, v := range m.visitors {
		if now.Sub(v.lastSeen) > idleAfter {
			delete(m.visitors, id)
		}
	}
}
