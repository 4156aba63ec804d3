package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedClient struct {
	errs  []error
	calls int
}

func (s *scriptedClient) Classify(context.Context, Request) (json.RawMessage, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	return json.RawMessage(`[true]`), nil
}

func fastRetryConfig(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1}
}

func TestRetryingClient_RetriesTransientFailure(t *testing.T) {
	next := &scriptedClient{errs: []error{&StatusError{Code: http.StatusBadGateway}}}
	rc := NewRetryingClient(next, fastRetryConfig(2), nil)

	out, err := rc.Classify(context.Background(), Request{Prompt: "p"})
	require.NoError(t, err)
	assert.JSONEq(t, `[true]`, string(out))
	assert.Equal(t, 2, next.calls)
}

func TestRetryingClient_GivesUpAfterMaxAttempts(t *testing.T) {
	transient := &StatusError{Code: http.StatusInternalServerError}
	next := &scriptedClient{errs: []error{transient, transient, transient}}
	rc := NewRetryingClient(next, fastRetryConfig(2), nil)

	_, err := rc.Classify(context.Background(), Request{Prompt: "p"})
	require.Error(t, err)
	assert.Equal(t, 2, next.calls)

	var se *StatusError
	assert.True(t, errors.As(err, &se))
}

func TestRetryingClient_DoesNotRetryPermanentFailure(t *testing.T) {
	next := &scriptedClient{errs: []error{&StatusError{Code: http.StatusUnauthorized}}}
	rc := NewRetryingClient(next, fastRetryConfig(3), nil)

	_, err := rc.Classify(context.Background(), Request{Prompt: "p"})
	require.Error(t, err)
	assert.Equal(t, 1, next.calls)
}

func TestRetryingClient_NotConfigured(t *testing.T) {
	rc := NewRetryingClient(Disabled{}, fastRetryConfig(3), nil)

	_, err := rc.Classify(context.Background(), Request{Prompt: "p"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(context.Canceled))
	assert.True(t, IsRetryable(&StatusError{Code: http.StatusTooManyRequests}))
	assert.False(t, IsRetryable(&StatusError{Code: http.StatusBadRequest}))
	assert.True(t, IsRetryable(ErrMalformedOutput))
}
