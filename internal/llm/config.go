package llm

import (
	"log/slog"
	"os"
	"strconv"
)

type Config struct {
	BaseURL     string
	Model       string
	APIKey      string
	MaxAttempts int
}

// Enabled reports whether the service has enough configuration to be called.
func (c *Config) Enabled() bool {
	return c != nil && c.BaseURL != ""
}

func LoadConfigFromEnv() *Config {
	maxAttempts, err := strconv.Atoi(os.Getenv("LLM_MAX_ATTEMPTS"))
	if err != nil || maxAttempts < 1 {
		maxAttempts = DefaultRetryConfig().MaxAttempts
	}

	cfg := &Config{
		BaseURL:     os.Getenv("LLM_BASE_URL"),
		Model:       os.Getenv("LLM_MODEL"),
		APIKey:      os.Getenv("LLM_API_KEY"),
		MaxAttempts: maxAttempts,
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if !cfg.Enabled() {
		slog.Warn("LLM_BASE_URL not set, classification stages will use safe defaults")
	}
	return cfg
}

// NewFromConfig builds the retrying service client, or Disabled when unconfigured.
func NewFromConfig(cfg *Config) (Client, error) {
	if !cfg.Enabled() {
		return Disabled{}, nil
	}
	oc, err := NewOllamaClient(cfg.BaseURL, WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, err
	}
	rc := DefaultRetryConfig()
	rc.MaxAttempts = cfg.MaxAttempts
	return NewRetryingClient(oc, rc, slog.Default()), nil
}
