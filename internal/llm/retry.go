package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"resume-feedback/internal/shared/metrics"
	"resume-feedback/internal/shared/telemetry"
)

// ErrRateLimitExceeded is returned once every attempt hit a rate limit or an empty response.
var ErrRateLimitExceeded = errors.New("llm rate limit exceeded")

const (
	defaultMaxAttempts = 3
	defaultMinWait     = 4 * time.Second
	defaultMaxWait     = 10 * time.Second
)

// Invoker calls a Generator with bounded retries on rate limits and empty responses.
// Every other failure is returned after the first attempt.
type Invoker struct {
	gen         Generator
	maxAttempts int
	minWait     time.Duration
	maxWait     time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	logger      *zap.Logger
}

// InvokerOption customizes an Invoker.
type InvokerOption func(*Invoker)

// WithMaxAttempts overrides the attempt budget.
func WithMaxAttempts(n int) InvokerOption {
	return func(i *Invoker) {
		if n > 0 {
			i.maxAttempts = n
		}
	}
}

// WithBackoff overrides the wait bounds.
func WithBackoff(min, max time.Duration) InvokerOption {
	return func(i *Invoker) {
		i.minWait = min
		i.maxWait = max
	}
}

// WithSleep replaces the wait function, mainly for tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) InvokerOption {
	return func(i *Invoker) {
		if fn != nil {
			i.sleep = fn
		}
	}
}

// WithLogger sets the logger used for retry events.
func WithLogger(l *zap.Logger) InvokerOption {
	return func(i *Invoker) {
		if l != nil {
			i.logger = l
		}
	}
}

// NewInvoker wraps gen with the retry policy.
func NewInvoker(gen Generator, opts ...InvokerOption) *Invoker {
	inv := &Invoker{
		gen:         gen,
		maxAttempts: defaultMaxAttempts,
		minWait:     defaultMinWait,
		maxWait:     defaultMaxWait,
		sleep:       sleepContext,
		logger:      telemetry.L(),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Invoke sends prompt and returns the raw model text.
func (i *Invoker) Invoke(ctx context.Context, prompt string) (string, error) {
	if i == nil || i.gen == nil {
		return "", ErrNotImplemented
	}
	var lastErr error
	for attempt := 1; attempt <= i.maxAttempts; attempt++ {
		out, err := i.gen.Generate(ctx, prompt)
		if err == nil && strings.TrimSpace(out) != "" {
			return out, nil
		}
		if err == nil {
			err = ErrEmptyResponse
		}
		if !shouldRetry(err) {
			return "", err
		}
		lastErr = err
		if attempt == i.maxAttempts {
			break
		}

		wait := i.backoff(attempt)
		metrics.IncLLMRetry()
		i.logger.Warn("llm retry",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.String("error", telemetry.Truncate(err.Error(), 200)),
		)
		if err := i.sleep(ctx, wait); err != nil {
			return "", err
		}
	}

	metrics.IncLLMRateLimited()
	i.logger.Error("llm retries exhausted",
		zap.Int("attempts", i.maxAttempts),
		zap.Error(lastErr),
	)
	return "", fmt.Errorf("%w after %d attempts: %w", ErrRateLimitExceeded, i.maxAttempts, lastErr)
}

// backoff follows an exponential schedule with multiplier 1 clamped to [minWait, maxWait].
func (i *Invoker) backoff(attempt int) time.Duration {
	wait := time.Second << (attempt - 1)
	if wait < i.minWait {
		wait = i.minWait
	}
	if wait > i.maxWait {
		wait = i.maxWait
	}
	return wait
}

func shouldRetry(err error) bool {
	return errors.Is(err, ErrEmptyResponse) || IsRateLimit(err)
}

// IsRateLimit reports whether err signals provider throttling or quota exhaustion.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, strconv.Itoa(http.StatusTooManyRequests)) ||
		strings.Contains(msg, "exhausted")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
