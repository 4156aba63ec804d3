package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crehub/news-digest/internal/domain"
	"github.com/crehub/news-digest/internal/metrics"
	"github.com/google/uuid"
)

type SaveOptions struct {
	// PreCategorized batches carry their own counties, cities and tags and skip classification.
	PreCategorized bool
}

// Saver writes collected batches with insert-or-ignore semantics.
type Saver struct {
	store ArticleStore
}

func NewSaver(store ArticleStore) *Saver {
	return &Saver{store: store}
}

// Save returns the number of articles inserted for the first time. Entries without a link,
// existing links and per-article failures are skipped; only the source upsert can fail the
// whole batch.
func (s *Saver) Save(ctx context.Context, articles []domain.Article, source domain.Source, opts SaveOptions) (int, error) {
	if err := s.store.UpsertSource(ctx, source.ID, source.Name); err != nil {
		return 0, fmt.Errorf("upsert source %s: %w", source.ID, err)
	}

	saved := 0
	for _, a := range articles {
		if err := ctx.Err(); err != nil {
			return saved, err
		}
		a.SourceID = source.ID
		if a.Link == "" {
			slog.Warn("skipping article without link", "source", source.ID, "title", a.Title)
			metrics.ArticlesSkipped.WithLabelValues(source.ID, "missing_link").Inc()
			continue
		}

		id, inserted, err := s.store.InsertArticleIgnoreDuplicate(ctx, a)
		if err != nil {
			slog.Error("failed to save article", "source", source.ID, "link", a.Link, "error", err)
			continue
		}
		if !inserted {
			slog.Debug("article already stored", "link", a.Link)
			continue
		}
		saved++

		if opts.PreCategorized {
			if err := s.linkClassification(ctx, id, a); err != nil {
				slog.Error("failed to link classification", "article_id", id, "error", err)
			}
		}
	}

	metrics.ArticlesSaved.WithLabelValues(source.ID).Add(float64(saved))
	slog.Info("saved articles", "source", source.ID, "received", len(articles), "new", saved)
	return saved, nil
}

func (s *Saver) linkClassification(ctx context.Context, id uuid.UUID, a domain.Article) error {
	if err := s.store.LinkCounties(ctx, id, a.Counties); err != nil {
		return err
	}
	if err := s.store.LinkCities(ctx, id, a.Cities); err != nil {
		return err
	}
	if err := s.store.LinkTags(ctx, id, a.Tags); err != nil {
		return err
	}
	return s.store.MarkCategorized(ctx, id, true)
}
