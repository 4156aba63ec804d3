package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/crehub/news-digest/internal/apperr"
)

type OllamaConfig func(client *OllamaClient)

// OllamaClient talks to an Ollama compatible /api/generate endpoint using structured outputs.
type OllamaClient struct {
	base   url.URL
	apiKey string
	http   *http.Client
}

const defaultTimeout = 90 * time.Second

func NewOllamaClient(baseUrl string, opts ...OllamaConfig) (*OllamaClient, error) {
	base, err := url.Parse(baseUrl)
	if err != nil {
		return nil, err
	}

	client := &OllamaClient{
		base: *base,
		http: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	for _, cfg := range opts {
		cfg(client)
	}

	return client, nil
}

func WithHttpClient(httpClient *http.Client) OllamaConfig {
	return func(client *OllamaClient) {
		client.http = httpClient
	}
}

func WithAPIKey(key string) OllamaConfig {
	return func(client *OllamaClient) {
		client.apiKey = key
	}
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Format  Schema         `json:"format,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

// StatusError carries a non-200 reply from the service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d, body: %s", e.Code, e.Body)
}

func (oc *OllamaClient) Classify(ctx context.Context, req Request) (json.RawMessage, error) {
	if req.Prompt == "" {
		return nil, apperr.NewValidation("missing prompt")
	}
	if req.Model == "" {
		req.Model = defaultModel
	}

	oReq := ollamaGenerateRequest{
		Model:   req.Model,
		Prompt:  req.Prompt,
		Format:  req.Schema,
		Stream:  false,
		Options: map[string]any{"temperature": 0},
	}

	var resp ollamaGenerateResponse
	if err := oc.do(ctx, http.MethodPost, "/api/generate", oReq, &resp); err != nil {
		return nil, err
	}

	body := stripCodeFence(resp.Response)
	if body == "" || !json.Valid([]byte(body)) {
		return nil, fmt.Errorf("%w: %q", ErrMalformedOutput, truncate(resp.Response, 200))
	}
	return json.RawMessage(body), nil
}

func (oc *OllamaClient) do(ctx context.Context, method, path string, reqData, respData any) error {
	reqDataBytes, err := json.Marshal(reqData)
	if err != nil {
		return err
	}

	reqURL := oc.base.JoinPath(path)
	request, err := http.NewRequestWithContext(ctx, method, reqURL.String(), bytes.NewReader(reqDataBytes))
	if err != nil {
		return err
	}

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")
	if oc.apiKey != "" {
		request.Header.Set("Authorization", "Bearer "+oc.apiKey)
	}

	resp, err := oc.http.Do(request)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, Body: truncate(string(respBody), 500)}
	}

	if err := json.Unmarshal(respBody, respData); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
