//go:build integration

package pg_test

import (
	"context"
	"testing"
	"time"

	"github.com/crehub/news-digest/internal/domain"
	"github.com/crehub/news-digest/internal/storage/pg"
	pkgtesting "github.com/crehub/news-digest/pkg/testing"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Postgres(t *testing.T) {
	ctx := context.Background()
	container := pkgtesting.NewPGContainerWithCleanup(ctx, t)

	pool := container.Pool

	// Migrations are idempotent.
	require.NoError(t, pg.Migrate(ctx, pool.GetConn()))
	assert.True(t, pg.NewHealthChecker(pool).Healthy(ctx))

	store := pg.NewStoreFromPool(pool)
	require.NoError(t, store.UpsertSource(ctx, "bisnow", "Bisnow"))

	published := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	article := domain.Article{
		Link:        "https://x/a1",
		Title:       "Sunset Gardens wins financing",
		SourceID:    "bisnow",
		PublishedAt: published,
	}

	id, inserted, err := store.InsertArticleIgnoreDuplicate(ctx, article)
	require.NoError(t, err)
	require.True(t, inserted)

	_, inserted, err = store.InsertArticleIgnoreDuplicate(ctx, article)
	require.NoError(t, err)
	assert.False(t, inserted, "second insert of the same link must be a no-op")

	pending, err := store.ListUncategorizedArticles(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, id, pending[0].ID)

	require.NoError(t, store.LinkCounties(ctx, id, []string{"Miami-Dade"}))
	require.NoError(t, store.LinkCities(ctx, id, []string{"Miami"}))
	require.NoError(t, store.LinkTags(ctx, id, []string{"Financing", "Multifamily"}))
	require.NoError(t, store.MarkCategorized(ctx, id, true))

	pending, err = store.ListUncategorizedArticles(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	recent, err := store.ListCategorizedSince(ctx, published.Add(-24*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, []string{"Miami-Dade"}, recent[0].Counties)
	assert.Equal(t, []string{"Financing", "Multifamily"}, recent[0].Tags)

	subID := uuid.New()
	_, err = pool.GetConn().Exec(ctx, `
		INSERT INTO subscribers (id, email, timezone, preferred_send_times, selected_counties)
		VALUES ($1, 'ana@example.com', 'America/Los_Angeles', '[{"dayOfWeek":5,"hour":9}]', '{"Los Angeles"}')`, subID)
	require.NoError(t, err)

	subs, err := store.ListActiveSubscribers(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, []domain.SendTime{{DayOfWeek: 5, Hour: 9}}, subs[0].PreferredSendTimes)
	assert.Nil(t, subs[0].LastSentAt)

	sentAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.UpdateSubscriberLastSent(ctx, subID, sentAt))
	subs, err = store.ListActiveSubscribers(ctx)
	require.NoError(t, err)
	require.NotNil(t, subs[0].LastSentAt)
	assert.True(t, sentAt.Equal(*subs[0].LastSentAt))
}
