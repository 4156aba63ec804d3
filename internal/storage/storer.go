package storage

import (
	"context"
	"time"

	"github.com/crehub/news-digest/internal/domain"
	"github.com/google/uuid"
)

// ArticleStore persists articles keyed by link and their classification links.
type ArticleStore interface {
	UpsertSource(ctx context.Context, id, name string) error
	// InsertArticleIgnoreDuplicate reports inserted=false, with a nil error, when the link already exists.
	InsertArticleIgnoreDuplicate(ctx context.Context, article domain.Article) (id uuid.UUID, inserted bool, err error)
	LinkCounties(ctx context.Context, articleID uuid.UUID, counties []string) error
	LinkCities(ctx context.Context, articleID uuid.UUID, cities []string) error
	LinkTags(ctx context.Context, articleID uuid.UUID, tags []string) error
	ListUncategorizedArticles(ctx context.Context, limit int) ([]domain.Article, error)
	MarkCategorized(ctx context.Context, articleID uuid.UUID, relevant bool) error
	// ListCategorizedSince returns relevant categorized articles published at or after since, newest first.
	ListCategorizedSince(ctx context.Context, since time.Time, limit int) ([]domain.Article, error)
}

type SubscriberStore interface {
	ListActiveSubscribers(ctx context.Context) ([]domain.Subscriber, error)
	UpdateSubscriberLastSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
}

type Store interface {
	ArticleStore
	SubscriberStore
}

type Type string

const (
	PG    Type = "pg"
	InMem Type = "in_mem"
)

type StorerError string

const (
	ErrUnsupportedStorer StorerError = "unsupported storer type: %s"
)

func (e StorerError) Error() string {
	return string(e)
}
