package probe

import (
	"context"
	"time"

	"github.com/gaborage/go-bricks-probe/logger"
)

// Sleeper suspends the caller between attempts. It returns a non-nil error
// only when ctx ends before d elapses. Callers that need a wait which never
// fails and cannot be interrupted pass a context that is never cancelled,
// such as context.Background().
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to the Sleeper interface.
type SleeperFunc func(ctx context.Context, d time.Duration) error

// Sleep calls f(ctx, d).
func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

// TimerSleeper waits on a runtime timer.
type TimerSleeper struct {
	logger logger.Logger
}

// NewTimerSleeper creates a TimerSleeper. A nil logger disables logging.
func NewTimerSleeper(log logger.Logger) *TimerSleeper {
	if log == nil {
		log = logger.Nop()
	}
	return &TimerSleeper{logger: log}
}

// Sleep blocks for d. With a context that is never cancelled it always
// completes after d.
func (s *TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.logger.Debug().Dur("delay", d).Msg("backing off")

	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
