//go:build integration

package es_test

import (
	"context"
	"testing"
	"time"

	"github.com/crehub/news-digest/internal/domain"
	"github.com/crehub/news-digest/internal/storage/es"
	pkgtesting "github.com/crehub/news-digest/pkg/testing"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestIndexer_Elasticsearch(t *testing.T) {
	ctx := context.Background()
	container := pkgtesting.NewESContainer(ctx, t)

	idx, err := es.NewIndexer(ctx, container.ClientConfig("cre_articles_test"))
	require.NoError(t, err)
	require.NoError(t, idx.EnsureIndex(ctx))

	err = idx.Index(ctx, []domain.Article{{
		ID:            uuid.New(),
		Link:          "https://x/a1",
		Title:         "Sunset Gardens wins financing",
		PublishedAt:   time.Now().UTC(),
		IsCategorized: true,
		IsRelevant:    true,
		Counties:      []string{"Miami-Dade"},
	}})
	require.NoError(t, err)
}
