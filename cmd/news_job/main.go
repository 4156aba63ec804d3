// Package main News Digest Job API
// @title News Digest Job API
// @version 1.0
// @description Scheduled commercial real estate news collection, classification and digest delivery
// @contact.name API Support
// @contact.email support@crehub.dev
// @license.name Apache 2.0
// @license.url https://opensource.org/licenses/Apache-2.0
// @BasePath /
// @securityDefinitions.apikey CronSecret
// @in header
// @name X-Cron-Secret
package main

//go:generate swag init --dir ../../ --generalInfo cmd/news_job/main.go --output ../../internal/api/docs --outputTypes go

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/crehub/news-digest/internal/api/docs"
	"github.com/crehub/news-digest/internal/api/router"
	"github.com/crehub/news-digest/internal/api/server"
	"github.com/crehub/news-digest/internal/classify"
	"github.com/crehub/news-digest/internal/compose"
	"github.com/crehub/news-digest/internal/feed"
	"github.com/crehub/news-digest/internal/ingest"
	"github.com/crehub/news-digest/internal/llm"
	"github.com/crehub/news-digest/internal/newsletter"
	"github.com/crehub/news-digest/internal/runlock"
	"github.com/crehub/news-digest/internal/schedule"
	"github.com/crehub/news-digest/internal/storage"
	"github.com/crehub/news-digest/internal/storage/es"
	"github.com/crehub/news-digest/internal/storage/factory"
	pkgserver "github.com/crehub/news-digest/pkg/server"
	"github.com/labstack/echo/v4"
)

const (
	feedHTTPTimeout = 20 * time.Second
	pageHostSpacing = 500 * time.Millisecond
)

func main() {
	slog.SetDefault(newLogger())

	cfg, err := NewAppConfig().Load()
	if err != nil {
		slog.Error("Failed to load app configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	store, err := factory.NewStorage(ctx, &cfg.StorageConfig)
	if err != nil {
		slog.Error("Failed to create storage", "type", cfg.StorageConfig.Type, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	locker, lockHealth, closeLocker, err := newLocker(cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to create run lock", "error", err)
		os.Exit(1)
	}
	defer closeLocker()

	pipeline, err := newPipeline(ctx, cfg, store.Store)
	if err != nil {
		slog.Error("Failed to create news pipeline", "error", err)
		os.Exit(1)
	}

	scheduler, err := newScheduler(cfg, store.Store)
	if err != nil {
		slog.Error("Failed to create digest scheduler", "error", err)
		os.Exit(1)
	}

	health := pkgserver.CompositeHealthChecker{store.Health, lockHealth}
	s := server.New(cfg.Server, health).
		SetupMiddlewares().
		SetupErrorHandler().
		SetupHealthChecks("/health").
		SetupMetrics("/metrics").
		SetupOpenApi("/swagger/*")

	s.Echo.GET("/", func(c echo.Context) error {
		return c.String(200, "News digest job is running")
	})

	router.NewCronRouter(s.Echo, pipeline, scheduler, locker, cfg.CronSecret).Bind()

	go func() {
		<-s.ShutdownSignal()
		slog.Info("Shutdown started, stopping pipeline...")
		pipeline.Stop()
	}()

	if err := s.Start(); err != nil {
		slog.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
}

func newPipeline(ctx context.Context, cfg *NewsJobConfig, store storage.Store) (*ingest.NewsPipeline, error) {
	sources, err := feed.LoadFeedsFile(cfg.FeedsConfigPath)
	if err != nil {
		return nil, err
	}
	slog.Info("Loaded feed sources", "count", len(sources), "path", cfg.FeedsConfigPath)

	client, err := llm.NewFromConfig(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("create classification client: %w", err)
	}

	vocab := classify.DefaultVocabulary()
	if cfg.CountiesPath != "" {
		f, err := os.Open(cfg.CountiesPath)
		if err != nil {
			return nil, fmt.Errorf("open county vocabulary: %w", err)
		}
		defer f.Close()
		if vocab, err = classify.LoadVocabulary(f); err != nil {
			return nil, err
		}
	}

	httpClient := feed.NewHTTPClient(feedHTTPTimeout)
	scraper := feed.NewPageImageScraper(httpClient, feed.WithHostRateLimiter(feed.NewHostRateLimiter(pageHostSpacing)))
	collector := feed.NewCollector(feed.NewGofeedFetcher(httpClient), feed.WithImageScraper(scraper))

	var opts []ingest.NewsPipelineOption
	if cfg.StorageConfig.Es != nil {
		indexer, err := es.NewIndexer(ctx, *cfg.StorageConfig.Es)
		if err != nil {
			return nil, fmt.Errorf("create search indexer: %w", err)
		}
		opts = append(opts, ingest.WithSearchIndexer(indexer))
		slog.Info("Search indexing enabled", "index", cfg.StorageConfig.Es.IndexName)
	}

	return ingest.NewNewsPipeline(sources, collector, storage.NewSaver(store), store, ingest.Classifiers{
		Relevance: classify.NewRelevanceFilter(client, cfg.LLM.Model),
		Geo:       classify.NewGeoClassifier(client, cfg.LLM.Model, vocab),
		Tags:      classify.NewTagClassifier(client, cfg.LLM.Model, classify.DefaultTaxonomy()),
	}, opts...), nil
}

func newScheduler(cfg *NewsJobConfig, store storage.Store) (*schedule.Scheduler, error) {
	client, err := llm.NewFromConfig(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("create composition client: %w", err)
	}

	renderer, err := newsletter.NewRenderer(cfg.UnsubscribeURL)
	if err != nil {
		return nil, err
	}

	var transport newsletter.Transport = newsletter.LogTransport{}
	if cfg.Email.Enabled() {
		transport = newsletter.NewHTTPTransport(cfg.Email.APIURL, cfg.Email.APIKey, cfg.Email.From)
	} else {
		slog.Warn("EMAIL_API_URL or EMAIL_API_KEY not set, digests will only be logged")
	}

	return schedule.NewScheduler(
		store,
		store,
		compose.NewComposer(client, cfg.LLM.Model),
		newsletter.NewMailer(renderer, transport),
		schedule.WithDigestLimit(cfg.DigestLimit),
	), nil
}

func newLocker(redisURL string) (runlock.Locker, pkgserver.HealthChecker, func(), error) {
	if redisURL == "" {
		slog.Info("REDIS_URL not set, using in-process run lock")
		return runlock.NewLocalLocker(), pkgserver.NewOkHealthChecker(), func() {}, nil
	}
	l, err := runlock.NewRedisLockerWithURL(redisURL)
	if err != nil {
		return nil, nil, nil, err
	}
	closeFn := func() {
		if err := l.Close(); err != nil {
			slog.Error("Failed to close redis client", "error", err)
		}
	}
	return l, pkgserver.NewPingHealthChecker("redis", l.Ping), closeFn, nil
}
