package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crehub/news-digest/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Store struct {
	db  DB
	now func() time.Time
}

func NewStore(db DB) *Store {
	return &Store{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func NewStoreFromPool(pool *ConnectionPool) *Store {
	return NewStore(pool.GetConn())
}

const upsertSourceSQL = `
	INSERT INTO sources (id, name)
	VALUES ($1, $2)
	ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`

func (s *Store) UpsertSource(ctx context.Context, id, name string) error {
	if name == "" {
		name = id
	}
	if _, err := s.db.Exec(ctx, upsertSourceSQL, id, name); err != nil {
		return fmt.Errorf("failed to upsert source: %w", err)
	}
	return nil
}

const insertArticleSQL = `
	INSERT INTO articles (id, link, title, source_id, published_at, image_url, description, created_at)
	VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8)
	ON CONFLICT (link) DO NOTHING
	RETURNING id`

func (s *Store) InsertArticleIgnoreDuplicate(ctx context.Context, a domain.Article) (uuid.UUID, bool, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	if a.PublishedAt.IsZero() {
		a.PublishedAt = a.CreatedAt
	}

	var id uuid.UUID
	err := s.db.QueryRow(ctx, insertArticleSQL,
		a.ID,
		a.Link,
		a.Title,
		a.SourceID,
		a.PublishedAt,
		a.ImageURL,
		a.Description,
		a.CreatedAt,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to insert article: %w", err)
	}
	return id, true, nil
}

func (s *Store) LinkCounties(ctx context.Context, articleID uuid.UUID, counties []string) error {
	return s.link(ctx, "article_counties", "county", articleID, counties)
}

func (s *Store) LinkCities(ctx context.Context, articleID uuid.UUID, cities []string) error {
	return s.link(ctx, "article_cities", "city", articleID, cities)
}

func (s *Store) LinkTags(ctx context.Context, articleID uuid.UUID, tags []string) error {
	return s.link(ctx, "article_tags", "tag", articleID, tags)
}

// link inserts one row per value. Table and column are never user input.
func (s *Store) link(ctx context.Context, table, column string, articleID uuid.UUID, values []string) error {
	if len(values) == 0 {
		return nil
	}
	sql := fmt.Sprintf(`
	INSERT INTO %s (article_id, %s)
	SELECT $1, v FROM unnest($2::text[]) AS v
	ON CONFLICT DO NOTHING`, pgx.Identifier{table}.Sanitize(), pgx.Identifier{column}.Sanitize())

	if _, err := s.db.Exec(ctx, sql, articleID, values); err != nil {
		return fmt.Errorf("failed to link %s: %w", table, err)
	}
	return nil
}

const listUncategorizedSQL = `
	SELECT id, link, title, source_id, published_at, COALESCE(image_url, ''), COALESCE(description, ''), created_at
	FROM articles
	WHERE NOT is_categorized
	ORDER BY created_at, id
	LIMIT $1`

func (s *Store) ListUncategorizedArticles(ctx context.Context, limit int) ([]domain.Article, error) {
	rows, err := s.db.Query(ctx, listUncategorizedSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list uncategorized articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		var a domain.Article
		if err := rows.Scan(&a.ID, &a.Link, &a.Title, &a.SourceID, &a.PublishedAt, &a.ImageURL, &a.Description, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate articles: %w", err)
	}
	return articles, nil
}

const markCategorizedSQL = `UPDATE articles SET is_categorized = TRUE, is_relevant = $2 WHERE id = $1`

func (s *Store) MarkCategorized(ctx context.Context, articleID uuid.UUID, relevant bool) error {
	tag, err := s.db.Exec(ctx, markCategorizedSQL, articleID, relevant)
	if err != nil {
		return fmt.Errorf("failed to mark article categorized: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("article %s not found", articleID)
	}
	return nil
}

const listCategorizedSinceSQL = `
	SELECT a.id, a.link, a.title, a.source_id, a.published_at, COALESCE(a.image_url, ''), COALESCE(a.description, ''), a.created_at,
		ARRAY(SELECT county FROM article_counties WHERE article_id = a.id ORDER BY county),
		ARRAY(SELECT city FROM article_cities WHERE article_id = a.id ORDER BY city),
		ARRAY(SELECT tag FROM article_tags WHERE article_id = a.id ORDER BY tag)
	FROM articles a
	WHERE a.is_categorized AND a.is_relevant AND a.published_at >= $1
	ORDER BY a.published_at DESC, a.id
	LIMIT $2`

func (s *Store) ListCategorizedSince(ctx context.Context, since time.Time, limit int) ([]domain.Article, error) {
	rows, err := s.db.Query(ctx, listCategorizedSinceSQL, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list categorized articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		a := domain.Article{IsCategorized: true, IsRelevant: true}
		if err := rows.Scan(
			&a.ID, &a.Link, &a.Title, &a.SourceID, &a.PublishedAt, &a.ImageURL, &a.Description, &a.CreatedAt,
			&a.Counties, &a.Cities, &a.Tags,
		); err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate articles: %w", err)
	}
	return articles, nil
}
