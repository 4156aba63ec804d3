package llm

import (
	"context"
	"encoding/json"
	"errors"
)

const defaultModel = "qwen3:8b"

var (
	// ErrNotConfigured is returned by stages whose service credentials are missing.
	ErrNotConfigured = errors.New("classification service not configured")
	// ErrMalformedOutput means the service replied with something that is not JSON.
	ErrMalformedOutput = errors.New("malformed classification output")
)

type Request struct {
	Model string `json:"model"`

	// Prompt is the full instruction and payload sent to the model.
	Prompt string `json:"prompt"`

	// Schema is an optional JSON schema the response must follow.
	Schema Schema `json:"schema,omitempty"`
}

// Client is the single request/response primitive every classification stage uses.
type Client interface {
	Classify(ctx context.Context, req Request) (json.RawMessage, error)
}

// Disabled stands in for a service without credentials.
type Disabled struct{}

func (Disabled) Classify(context.Context, Request) (json.RawMessage, error) {
	return nil, ErrNotConfigured
}
