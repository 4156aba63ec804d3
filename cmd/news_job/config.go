package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/crehub/news-digest/internal/api/server"
	"github.com/crehub/news-digest/internal/llm"
	"github.com/crehub/news-digest/internal/schedule"
	"github.com/crehub/news-digest/internal/storage/factory"
	"github.com/crehub/news-digest/pkg/config/env"
)

const defaultFeedsConfigPath = "cmd/news_job/feeds.yaml"

type AppConfig struct {
	ENV string
}

func NewAppConfig() *AppConfig {
	return &AppConfig{
		ENV: os.Getenv("ENV"),
	}
}

type EmailConfig struct {
	APIURL string
	APIKey string
	From   string
}

// Enabled reports whether digests go to the email API instead of the log.
func (c EmailConfig) Enabled() bool {
	return c.APIURL != "" && c.APIKey != ""
}

type NewsJobConfig struct {
	Server          *server.Config
	StorageConfig   factory.StorageConfig
	LLM             *llm.Config
	Email           EmailConfig
	CronSecret      string
	UnsubscribeURL  string
	RedisURL        string
	DigestLimit     int
	FeedsConfigPath string
	CountiesPath    string
}

func (as *AppConfig) Load() (*NewsJobConfig, error) {
	err := env.LoadDotEnv(as.ENV, "cmd/news_job/.env")
	if err != nil {
		slog.Info("Failed to .env load environment variables, continuing with existing environment variables", "error", err)
	}

	serverCfg, err := server.LoadConfig()
	if err != nil {
		return nil, err
	}

	digestLimit := schedule.DefaultDigestLimit
	if raw := os.Getenv("DIGEST_LIMIT"); raw != "" {
		digestLimit, err = strconv.Atoi(raw)
		if err != nil || digestLimit < 1 {
			return nil, fmt.Errorf("DIGEST_LIMIT must be a positive integer, got %q", raw)
		}
	}

	feedsPath := env.StringOr("FEEDS_CONFIG_PATH", defaultFeedsConfigPath)

	cronSecret := strings.TrimSpace(os.Getenv("CRON_SECRET"))
	if cronSecret == "" {
		slog.Warn("CRON_SECRET is not set, the cron trigger will answer 503")
	}

	return &NewsJobConfig{
		Server:        serverCfg,
		StorageConfig: *factory.LoadEnv(),
		LLM:           llm.LoadConfigFromEnv(),
		Email: EmailConfig{
			APIURL: os.Getenv("EMAIL_API_URL"),
			APIKey: os.Getenv("EMAIL_API_KEY"),
			From:   os.Getenv("EMAIL_FROM"),
		},
		CronSecret:      cronSecret,
		UnsubscribeURL:  os.Getenv("UNSUBSCRIBE_BASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		DigestLimit:     digestLimit,
		FeedsConfigPath: feedsPath,
		CountiesPath:    os.Getenv("COUNTIES_CONFIG_PATH"),
	}, nil
}

// newLogger applies LOG_LEVEL and LOG_FORMAT to the default slog logger.
func newLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(os.Getenv("LOG_LEVEL"))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
