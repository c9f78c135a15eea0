package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func fastConfig() *RetryConfig {
	return &RetryConfig{Attempts: 3, Delay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	assert.Equal(t, uint(3), cfg.Attempts)
	assert.Less(t, cfg.Delay, cfg.MaxDelay)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastConfig(), func(err error) bool { return errors.Is(err, errTransient) },
		func(context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", errTransient
			}
			return "tamam", nil
		})
	require.NoError(t, err)
	assert.Equal(t, "tamam", got)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	permanent := errors.New("bad request")
	calls := 0
	_, err := Do(context.Background(), fastConfig(), func(err error) bool { return errors.Is(err, errTransient) },
		func(context.Context) (int, error) {
			calls++
			return 0, permanent
		})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDo_GivesUpAfterAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastConfig(), nil, func(context.Context) (int, error) {
		calls++
		return 0, errTransient
	})
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, calls)
}

type throttled struct{ wait time.Duration }

func (e throttled) Error() string { return "throttled" }
func (e throttled) RetryAfter() time.Duration { return e.wait }

func TestDo_HonoursRetryAfter(t *testing.T) {
	cfg := &RetryConfig{Attempts: 2, Delay: time.Millisecond, MaxDelay: time.Second}

	var stamps []time.Time
	_, err := Do(context.Background(), cfg, nil, func(context.Context) (int, error) {
		stamps = append(stamps, time.Now())
		if len(stamps) == 1 {
			return 0, throttled{wait: 40 * time.Millisecond}
		}
		return 1, nil
	})
	require.NoError(t, err)
	require.Len(t, stamps, 2)
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), 35*time.Millisecond)
}
