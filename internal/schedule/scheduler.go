package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/crehub/news-digest/internal/compose"
	"github.com/crehub/news-digest/internal/domain"
	"github.com/crehub/news-digest/internal/metrics"
	"github.com/crehub/news-digest/internal/storage"
	"github.com/google/uuid"
)

const (
	DefaultLookback = 7 * 24 * time.Hour
	// candidateLimit bounds the recent articles loaded once per run and shared by all subscribers.
	candidateLimit = 500
)

// ArticleSource loads recently categorized articles.
type ArticleSource interface {
	ListCategorizedSince(ctx context.Context, since time.Time, limit int) ([]domain.Article, error)
}

type Composer interface {
	BatchTitle(ctx context.Context, articles []domain.Article) string
	Rewrite(ctx context.Context, items []compose.RawContent) ([]string, []string)
}

// Mailer renders and delivers one digest.
type Mailer interface {
	Deliver(ctx context.Context, digest domain.Digest) error
}

type Report struct {
	Evaluated int `json:"evaluated"`
	Due       int `json:"due"`
	Sent      int `json:"sent"`
	// Skipped counts due subscribers whose digest was empty.
	Skipped int `json:"skipped"`
	// AlreadySent counts subscribers already served in this slot.
	AlreadySent int `json:"alreadySent"`
	Failed      int `json:"failed"`
}

type Scheduler struct {
	subscribers storage.SubscriberStore
	articles    ArticleSource
	composer    Composer
	mailer      Mailer
	limit       int
	lookback    time.Duration
}

type Option func(s *Scheduler)

func WithDigestLimit(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.limit = n
		}
	}
}

func WithLookback(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.lookback = d
		}
	}
}

func NewScheduler(subscribers storage.SubscriberStore, articles ArticleSource, composer Composer, mailer Mailer, opts ...Option) *Scheduler {
	s := &Scheduler{
		subscribers: subscribers,
		articles:    articles,
		composer:    composer,
		mailer:      mailer,
		limit:       DefaultDigestLimit,
		lookback:    DefaultLookback,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sends every digest due at the given instant. A failed send is counted and
// logged; only failing to list subscribers or articles aborts the run.
func (s *Scheduler) Run(ctx context.Context, at time.Time) (Report, error) {
	var report Report

	subs, err := s.subscribers.ListActiveSubscribers(ctx)
	if err != nil {
		return report, fmt.Errorf("list subscribers: %w", err)
	}
	report.Evaluated = len(subs)

	var due []dueSubscriber
	for _, sub := range subs {
		state, slot := Evaluate(sub, at)
		switch state {
		case Due:
			due = append(due, dueSubscriber{sub: sub, slot: slot})
		case Sent:
			report.AlreadySent++
		}
	}
	report.Due = len(due)
	if len(due) == 0 {
		slog.Info("no digests due", "at", at, "subscribers", len(subs))
		return report, nil
	}

	recent, err := s.articles.ListCategorizedSince(ctx, at.Add(-s.lookback), candidateLimit)
	if err != nil {
		return report, fmt.Errorf("list recent articles: %w", err)
	}

	for i := range due {
		due[i].articles = BuildDigest(due[i].sub, recent, s.limit)
	}
	shared := s.rewriteSelected(ctx, due)

	for _, d := range due {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		s.serve(ctx, d, shared, at, &report)
	}

	slog.Info("digest run finished",
		"at", at,
		"evaluated", report.Evaluated,
		"due", report.Due,
		"sent", report.Sent,
		"skipped", report.Skipped,
		"failed", report.Failed)
	return report, nil
}

type dueSubscriber struct {
	sub      domain.Subscriber
	slot     domain.SendTime
	articles []domain.Article
}

type rewritten struct {
	title       string
	description string
}

// runCopy holds the generated text of one run, shared by every digest in it.
type runCopy struct {
	items  map[uuid.UUID]rewritten
	titles map[string]string
}

// rewriteSelected rewrites every article picked for at least one digest in a single call.
func (s *Scheduler) rewriteSelected(ctx context.Context, due []dueSubscriber) *runCopy {
	rc := &runCopy{items: map[uuid.UUID]rewritten{}, titles: map[string]string{}}

	var selected []domain.Article
	seen := map[uuid.UUID]bool{}
	for _, d := range due {
		for _, a := range d.articles {
			if seen[a.ID] {
				continue
			}
			seen[a.ID] = true
			selected = append(selected, a)
		}
	}
	if len(selected) == 0 {
		return rc
	}

	raw := make([]compose.RawContent, len(selected))
	for i, a := range selected {
		raw[i] = compose.RawContent{Title: a.Title, Description: a.Description}
	}
	titles, descs := s.composer.Rewrite(ctx, raw)
	for i, a := range selected {
		rc.items[a.ID] = rewritten{title: titles[i], description: descs[i]}
	}
	return rc
}

func (s *Scheduler) serve(ctx context.Context, d dueSubscriber, shared *runCopy, at time.Time, report *Report) {
	log := slog.With("subscriber_id", d.sub.ID, "slot_day", d.slot.DayOfWeek, "slot_hour", d.slot.Hour)

	articles := d.articles
	if len(articles) == 0 {
		log.Info("digest empty, skipping")
		report.Skipped++
		metrics.RecordDigest("empty")
		return
	}

	digest := s.compose(ctx, d, shared, at)
	if err := s.mailer.Deliver(ctx, digest); err != nil {
		log.Error("failed to deliver digest", "error", err)
		report.Failed++
		metrics.RecordDigest("failed")
		return
	}

	if err := s.subscribers.UpdateSubscriberLastSent(ctx, d.sub.ID, at); err != nil {
		log.Error("failed to record last sent", "error", err)
	}
	report.Sent++
	metrics.RecordDigest("sent")
	log.Info("digest sent", "items", len(articles))
}

func (s *Scheduler) compose(ctx context.Context, d dueSubscriber, shared *runCopy, at time.Time) domain.Digest {
	items := make([]domain.DigestItem, len(d.articles))
	ids := make([]string, len(d.articles))
	for i, a := range d.articles {
		item := domain.DigestItem{Article: a, Title: a.Title, Description: a.Description}
		if rw, ok := shared.items[a.ID]; ok {
			item.Title, item.Description = rw.title, rw.description
		}
		items[i] = item
		ids[i] = a.ID.String()
	}

	// Digests with the same articles share one headline.
	key := strings.Join(ids, ",")
	title, ok := shared.titles[key]
	if !ok {
		title = s.composer.BatchTitle(ctx, d.articles)
		shared.titles[key] = title
	}

	return domain.Digest{
		Subscriber: d.sub,
		Slot:       d.slot,
		RunAt:      at,
		Title:      title,
		Items:      items,
	}
}
