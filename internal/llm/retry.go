package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/crehub/news-digest/internal/apperr"
)

type RetryConfig struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterFactor  float64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   2,
		BaseDelay:     time.Second,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2,
		JitterFactor:  0.2,
	}
}

// RetryingClient retries transient failures of the wrapped client a bounded number of times.
type RetryingClient struct {
	next   Client
	config RetryConfig
	logger *slog.Logger
}

func NewRetryingClient(next Client, config RetryConfig, logger *slog.Logger) *RetryingClient {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryingClient{next: next, config: config, logger: logger}
}

func (r *RetryingClient) Classify(ctx context.Context, req Request) (json.RawMessage, error) {
	var lastErr error
	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		out, err := r.next.Classify(ctx, req)
		if err == nil {
			if attempt > 1 {
				r.logger.Info("classification succeeded after retry", "attempt", attempt)
			}
			return out, nil
		}
		lastErr = err

		retryable := IsRetryable(err)
		r.logger.Warn("classification attempt failed",
			"attempt", attempt,
			"max_attempts", r.config.MaxAttempts,
			"retryable", retryable,
			"error", err)

		if attempt == r.config.MaxAttempts || !retryable {
			break
		}

		delay := r.delay(attempt)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("classification failed after %d attempts: %w", r.config.MaxAttempts, lastErr)
}

func (r *RetryingClient) delay(attempt int) time.Duration {
	d := float64(r.config.BaseDelay) * math.Pow(r.config.BackoffFactor, float64(attempt-1))
	if d > float64(r.config.MaxDelay) {
		d = float64(r.config.MaxDelay)
	}
	d *= 1.0 + (rand.Float64()-0.5)*r.config.JitterFactor
	return time.Duration(d)
}

// IsRetryable classifies errors worth another attempt: network failures, timeouts,
// throttling, server errors and unparsable model output.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotConfigured) || errors.Is(err, context.Canceled) {
		return false
	}
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= http.StatusInternalServerError
	}
	return true
}
