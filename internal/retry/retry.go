// Package retry wraps remote calls with exponential backoff and request pacing.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"golang.org/x/time/rate"
)

type Config struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	JitterFactor      float64

	// Retryable decides whether err is worth another attempt. Nil retries
	// every error.
	Retryable func(err error) bool
}

var DefaultConfig = Config{
	MaxAttempts:       3,
	InitialBackoff:    100 * time.Millisecond,
	MaxBackoff:        10 * time.Second,
	BackoffMultiplier: 2.0,
	JitterFactor:      0.1,
}

// Do calls fn until it succeeds, returns a non-retryable error, or the
// attempts run out. It never sleeps after the last attempt.
func Do[T any](ctx context.Context, cfg Config, fn func(context.Context) (T, error)) (T, error) {
	var (
		result T
		err    error
	)
	attempts := max(cfg.MaxAttempts, 1)
	for attempt := 0; attempt < attempts; attempt++ {
		result, err = fn(ctx)
		if err == nil {
			return result, nil
		}
		if cfg.Retryable != nil && !cfg.Retryable(err) {
			return result, err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return result, err
		}
		if attempt == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(Backoff(attempt, cfg)):
		}
	}
	return result, err
}

// Backoff returns the jittered delay before retry number attempt+1.
func Backoff(attempt int, cfg Config) time.Duration {
	backoff := float64(cfg.InitialBackoff) * math.Pow(cfg.BackoffMultiplier, float64(attempt))
	if backoff > float64(cfg.MaxBackoff) {
		backoff = float64(cfg.MaxBackoff)
	}
	jitter := (rand.Float64()*2 - 1) * cfg.JitterFactor * backoff
	return time.Duration(backoff + jitter)
}

// Pacer spaces out calls to a remote service. A nil *Pacer never waits.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer allows perSecond calls per second with a burst of one. It returns
// nil when perSecond is not positive.
func NewPacer(perSecond float64) *Pacer {
	if perSecond <= 0 {
		return nil
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

// Wait blocks until the next call may proceed or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return ctx.Err()
	}
	return p.limiter.Wait(ctx)
}
