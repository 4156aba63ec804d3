package in_mem

import (
	"context"
	"testing"
	"time"

	"github.com/crehub/news-digest/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_InsertIgnoresDuplicateLink(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.UpsertSource(ctx, "bisnow", "Bisnow"))

	id, inserted, err := s.InsertArticleIgnoreDuplicate(ctx, domain.Article{Link: "https://x/a1", SourceID: "bisnow", Title: "first"})
	require.NoError(t, err)
	assert.True(t, inserted)

	_, inserted, err = s.InsertArticleIgnoreDuplicate(ctx, domain.Article{Link: "https://x/a1", SourceID: "bisnow", Title: "second"})
	require.NoError(t, err)
	assert.False(t, inserted)

	a, ok := s.Article(id)
	require.True(t, ok)
	assert.Equal(t, "first", a.Title)
}

func TestStore_InsertRequiresSource(t *testing.T) {
	s := NewStore()

	_, _, err := s.InsertArticleIgnoreDuplicate(context.Background(), domain.Article{Link: "https://x/a1", SourceID: "nope"})

	assert.Error(t, err)
}

func TestStore_CategorizationLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.UpsertSource(ctx, "src", ""))

	now := time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC)
	relevant, _, _ := s.InsertArticleIgnoreDuplicate(ctx, domain.Article{Link: "https://x/1", SourceID: "src", PublishedAt: now.Add(-2 * time.Hour)})
	newer, _, _ := s.InsertArticleIgnoreDuplicate(ctx, domain.Article{Link: "https://x/2", SourceID: "src", PublishedAt: now.Add(-time.Hour)})
	irrelevant, _, _ := s.InsertArticleIgnoreDuplicate(ctx, domain.Article{Link: "https://x/3", SourceID: "src", PublishedAt: now})
	old, _, _ := s.InsertArticleIgnoreDuplicate(ctx, domain.Article{Link: "https://x/4", SourceID: "src", PublishedAt: now.Add(-30 * 24 * time.Hour)})

	pending, err := s.ListUncategorizedArticles(ctx, 2)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, relevant, pending[0].ID)

	require.NoError(t, s.LinkCounties(ctx, relevant, []string{"Miami-Dade", "Broward", "Miami-Dade"}))
	require.NoError(t, s.MarkCategorized(ctx, relevant, true))
	require.NoError(t, s.MarkCategorized(ctx, newer, true))
	require.NoError(t, s.MarkCategorized(ctx, irrelevant, false))
	require.NoError(t, s.MarkCategorized(ctx, old, true))

	pending, err = s.ListUncategorizedArticles(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)

	got, err := s.ListCategorizedSince(ctx, now.Add(-7*24*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer, got[0].ID)
	assert.Equal(t, relevant, got[1].ID)
	assert.Equal(t, []string{"Broward", "Miami-Dade"}, got[1].Counties)

	assert.Error(t, s.MarkCategorized(ctx, uuid.New(), true))
}

func TestStore_Subscribers(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	active := domain.Subscriber{ID: uuid.New(), Email: "a@example.com", IsActive: true}
	s.AddSubscriber(active)
	s.AddSubscriber(domain.Subscriber{ID: uuid.New(), Email: "b@example.com", IsActive: false})

	subs, err := s.ListActiveSubscribers(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, []domain.SendTime{domain.DefaultSendTime}, subs[0].PreferredSendTimes)

	at := time.Date(2025, 3, 7, 17, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpdateSubscriberLastSent(ctx, active.ID, at))

	subs, _ = s.ListActiveSubscribers(ctx)
	require.NotNil(t, subs[0].LastSentAt)
	assert.Equal(t, at, *subs[0].LastSentAt)

	assert.Error(t, s.UpdateSubscriberLastSent(ctx, uuid.New(), at))
}
