package router

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/crehub/news-digest/internal/apperr"
	"github.com/crehub/news-digest/internal/ingest"
	"github.com/crehub/news-digest/internal/runlock"
	"github.com/crehub/news-digest/internal/schedule"
	mw "github.com/crehub/news-digest/pkg/middleware"
	"github.com/labstack/echo/v4"
)

const (
	lockName       = "cron:news"
	defaultLockTTL = 15 * time.Minute
)

type Ingester interface {
	Ingest(ctx context.Context) (ingest.RunReport, error)
}

type DigestScheduler interface {
	Run(ctx context.Context, at time.Time) (schedule.Report, error)
}

type CronResponse struct {
	At       time.Time        `json:"at"`
	Ingest   ingest.RunReport `json:"ingest"`
	Digest   schedule.Report  `json:"digest"`
	Errors   []string         `json:"errors,omitempty"`
	Duration time.Duration    `json:"duration"`
}

type CronRouter struct {
	e         *echo.Echo
	ingester  Ingester
	scheduler DigestScheduler
	locker    runlock.Locker
	secret    string
	lockTTL   time.Duration
	now       func() time.Time
}

type CronRouterOption func(*CronRouter)

func WithLockTTL(ttl time.Duration) CronRouterOption {
	return func(r *CronRouter) {
		if ttl > 0 {
			r.lockTTL = ttl
		}
	}
}

func WithClock(now func() time.Time) CronRouterOption {
	return func(r *CronRouter) {
		r.now = now
	}
}

func NewCronRouter(e *echo.Echo, ingester Ingester, scheduler DigestScheduler, locker runlock.Locker, secret string, opts ...CronRouterOption) *CronRouter {
	r := &CronRouter{
		e:         e,
		ingester:  ingester,
		scheduler: scheduler,
		locker:    locker,
		secret:    secret,
		lockTTL:   defaultLockTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *CronRouter) Bind() {
	g := r.e.Group("/cron", mw.SharedSecret(r.secret))
	g.POST("/news", r.newsHandler)
}

// newsHandler runs ingestion and then the digest scheduler for one tick.
// An ingestion failure is reported but does not stop digests built from already stored articles.
//
// @Summary Run one news tick
// @Description Collects feeds, classifies pending articles, then sends every digest due at the run instant.
// @Tags cron
// @Produce json
// @Security CronSecret
// @Param at query string false "Run instant override (RFC3339)"
// @Success 200 {object} CronResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 500 {object} CronResponse
// @Router /cron/news [post]
func (r *CronRouter) newsHandler(c echo.Context) error {
	at := r.now()
	if raw := c.QueryParam("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return apperr.NewValidationWrap("at must be an RFC3339 timestamp", err)
		}
		at = parsed
	}

	ctx := c.Request().Context()
	release, err := r.locker.Acquire(ctx, lockName, r.lockTTL)
	if err != nil {
		if errors.Is(err, runlock.ErrLocked) {
			return apperr.NewConflictWrap("a news run is already in progress", err)
		}
		return err
	}
	defer func() {
		// The request context may already be cancelled; the lock still has to go.
		if err := release(context.WithoutCancel(ctx)); err != nil {
			slog.Error("failed to release run lock", "lock", lockName, "error", err)
		}
	}()

	start := time.Now()
	resp := CronResponse{At: at}

	resp.Ingest, err = r.ingester.Ingest(ctx)
	if err != nil {
		slog.Error("ingestion finished with error", "error", err)
		resp.Errors = append(resp.Errors, "ingest: "+err.Error())
	}

	resp.Digest, err = r.scheduler.Run(ctx, at)
	if err != nil {
		slog.Error("digest scheduling failed", "error", err)
		resp.Errors = append(resp.Errors, "digest: "+err.Error())
	}
	resp.Duration = time.Since(start)

	status := http.StatusOK
	if len(resp.Errors) > 0 {
		status = http.StatusInternalServerError
	}
	return c.JSON(status, resp)
}
