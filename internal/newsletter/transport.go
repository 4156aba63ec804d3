package newsletter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/crehub/news-digest/internal/domain"
)

// Transport hands a rendered message to an email provider. accepted is false when
// the provider rejected the recipient without a transport error.
type Transport interface {
	Send(ctx context.Context, to string, msg Message) (accepted bool, err error)
}

const defaultEmailTimeout = 15 * time.Second

// HTTPTransport talks to a Resend-compatible JSON email API.
type HTTPTransport struct {
	baseURL    string
	apiKey     string
	from       string
	httpClient *http.Client
}

type HTTPOption func(t *HTTPTransport)

func WithHTTPClient(c *http.Client) HTTPOption {
	return func(t *HTTPTransport) {
		t.httpClient = c
	}
}

func NewHTTPTransport(baseURL, apiKey, from string, opts ...HTTPOption) *HTTPTransport {
	t := &HTTPTransport{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		from:       from,
		httpClient: &http.Client{Timeout: defaultEmailTimeout},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// APIError is a non-2xx reply from the email API other than a recipient rejection.
type APIError struct {
	Code int
	Body string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("email api returned status %d: %s", e.Code, e.Body)
}

type sendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text,omitempty"`
}

type sendEmailResponse struct {
	ID string `json:"id"`
}

func (t *HTTPTransport) Send(ctx context.Context, to string, msg Message) (bool, error) {
	body, err := json.Marshal(sendEmailRequest{
		From:    t.from,
		To:      []string{to},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return false, fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var out sendEmailResponse
		_ = json.Unmarshal(respBody, &out)
		slog.Debug("email accepted", "message_id", out.ID)
		return true, nil
	case resp.StatusCode == http.StatusUnprocessableEntity:
		slog.Warn("email rejected by provider", "status", resp.StatusCode, "body", strings.TrimSpace(string(respBody)))
		return false, nil
	default:
		return false, &APIError{Code: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
}

// LogTransport only logs messages. It is used when no email API is configured.
type LogTransport struct{}

func (LogTransport) Send(_ context.Context, to string, msg Message) (bool, error) {
	slog.Info("dry-run email", "to", to, "subject", msg.Subject, "html_bytes", len(msg.HTML))
	return true, nil
}

// Mailer renders a digest and sends it through a Transport.
type Mailer struct {
	renderer  *Renderer
	transport Transport
}

func NewMailer(renderer *Renderer, transport Transport) *Mailer {
	return &Mailer{renderer: renderer, transport: transport}
}

func (m *Mailer) Deliver(ctx context.Context, d domain.Digest) error {
	msg, err := m.renderer.Render(d)
	if err != nil {
		return err
	}
	accepted, err := m.transport.Send(ctx, d.Subscriber.Email, msg)
	if err != nil {
		return err
	}
	if !accepted {
		return fmt.Errorf("email to subscriber %s was not accepted", d.Subscriber.ID)
	}
	return nil
}
