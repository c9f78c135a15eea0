package retry

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	defaultAttempts = 3
	defaultMaxDelay = 2 * time.Second
	defaultDelay    = 100 * time.Millisecond
)

type RetryConfig struct {
	Attempts uint          `env:"ATTEMPTS" envDefault:"3"`
	Delay    time.Duration `env:"DELAY" envDefault:"500ms"`
	MaxDelay time.Duration `env:"MAX_DELAY" envDefault:"5s"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"2m"`
}

// ToRetryOptions builds backoff options bound to ctx. Only errors accepted by
// retryIf are retried.
func (rc *RetryConfig) ToRetryOptions(ctx context.Context, retryIf func(error) bool) []retry.Option {
	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(rc.Attempts),
		retry.MaxDelay(rc.MaxDelay),
		retry.Delay(rc.Delay),
		retry.DelayType(serverHintedDelay),
		retry.LastErrorOnly(true),
	}
	if retryIf != nil {
		opts = append(opts, retry.RetryIf(retryIf))
	}
	return opts
}

// RetryAfterHinter is implemented by errors that carry a server requested
// wait, such as a 429 response with a Retry-After header.
type RetryAfterHinter interface {
	RetryAfter() time.Duration
}

// serverHintedDelay waits as long as the server asked, otherwise backs off
// exponentially. retry-go caps the result at MaxDelay.
func serverHintedDelay(n uint, err error, config *retry.Config) time.Duration {
	var hinter RetryAfterHinter
	if errors.As(err, &hinter) && hinter.RetryAfter() > 0 {
		return hinter.RetryAfter()
	}
	return retry.BackOffDelay(n, err, config)
}

// WithTimeout bounds the whole retry loop, not a single attempt.
func (rc *RetryConfig) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if rc.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, rc.Timeout)
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		Attempts: defaultAttempts,
		Delay:    defaultDelay,
		MaxDelay: defaultMaxDelay,
	}
}

// Do runs fn with the retry policy of rc.
func Do[T any](ctx context.Context, rc *RetryConfig, retryIf func(error) bool, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := rc.WithTimeout(ctx)
	defer cancel()

	return retry.DoWithData(func() (T, error) {
		return fn(ctx)
	}, rc.ToRetryOptions(ctx, retryIf)...)
}
