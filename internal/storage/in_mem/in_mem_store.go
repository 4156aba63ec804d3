package in_mem

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/crehub/news-digest/internal/domain"
	"github.com/google/uuid"
)

// Store keeps everything in process memory. It backs local runs without a database and tests.
type Store struct {
	storageLock sync.RWMutex
	sources     map[string]string
	articles    map[uuid.UUID]*domain.Article
	byLink      map[string]uuid.UUID
	order       []uuid.UUID
	subscribers []domain.Subscriber
	now         func() time.Time
}

func NewStore() *Store {
	return &Store{
		sources:  make(map[string]string),
		articles: make(map[uuid.UUID]*domain.Article),
		byLink:   make(map[string]uuid.UUID),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// AddSubscriber registers or replaces a subscriber by id.
func (s *Store) AddSubscriber(sub domain.Subscriber) {
	s.storageLock.Lock()
	defer s.storageLock.Unlock()
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	for i := range s.subscribers {
		if s.subscribers[i].ID == sub.ID {
			s.subscribers[i] = sub
			return
		}
	}
	s.subscribers = append(s.subscribers, sub)
}

func (s *Store) UpsertSource(_ context.Context, id, name string) error {
	s.storageLock.Lock()
	defer s.storageLock.Unlock()
	if name == "" {
		name = id
	}
	s.sources[id] = name
	return nil
}

func (s *Store) InsertArticleIgnoreDuplicate(_ context.Context, a domain.Article) (uuid.UUID, bool, error) {
	s.storageLock.Lock()
	defer s.storageLock.Unlock()

	if _, ok := s.sources[a.SourceID]; !ok {
		return uuid.Nil, false, fmt.Errorf("unknown source %q", a.SourceID)
	}
	if _, exists := s.byLink[a.Link]; exists {
		return uuid.Nil, false, nil
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	if a.PublishedAt.IsZero() {
		a.PublishedAt = a.CreatedAt
	}
	a.IsCategorized = false
	a.IsRelevant = false
	a.Counties, a.Cities, a.Tags = nil, nil, nil

	s.articles[a.ID] = &a
	s.byLink[a.Link] = a.ID
	s.order = append(s.order, a.ID)
	return a.ID, true, nil
}

func (s *Store) LinkCounties(_ context.Context, articleID uuid.UUID, counties []string) error {
	return s.link(articleID, counties, func(a *domain.Article) *[]string { return &a.Counties })
}

func (s *Store) LinkCities(_ context.Context, articleID uuid.UUID, cities []string) error {
	return s.link(articleID, cities, func(a *domain.Article) *[]string { return &a.Cities })
}

func (s *Store) LinkTags(_ context.Context, articleID uuid.UUID, tags []string) error {
	return s.link(articleID, tags, func(a *domain.Article) *[]string { return &a.Tags })
}

func (s *Store) link(articleID uuid.UUID, values []string, field func(*domain.Article) *[]string) error {
	if len(values) == 0 {
		return nil
	}
	s.storageLock.Lock()
	defer s.storageLock.Unlock()

	a, ok := s.articles[articleID]
	if !ok {
		return fmt.Errorf("article %s not found", articleID)
	}
	dst := field(a)
	for _, v := range values {
		if !slices.Contains(*dst, v) {
			*dst = append(*dst, v)
		}
	}
	sort.Strings(*dst)
	return nil
}

func (s *Store) ListUncategorizedArticles(_ context.Context, limit int) ([]domain.Article, error) {
	s.storageLock.RLock()
	defer s.storageLock.RUnlock()

	var out []domain.Article
	for _, id := range s.order {
		a := s.articles[id]
		if a.IsCategorized {
			continue
		}
		out = append(out, *a)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) MarkCategorized(_ context.Context, articleID uuid.UUID, relevant bool) error {
	s.storageLock.Lock()
	defer s.storageLock.Unlock()

	a, ok := s.articles[articleID]
	if !ok {
		return fmt.Errorf("article %s not found", articleID)
	}
	a.IsCategorized = true
	a.IsRelevant = relevant
	return nil
}

func (s *Store) ListCategorizedSince(_ context.Context, since time.Time, limit int) ([]domain.Article, error) {
	s.storageLock.RLock()
	var out []domain.Article
	for _, id := range s.order {
		a := s.articles[id]
		if !a.IsCategorized || !a.IsRelevant || a.PublishedAt.Before(since) {
			continue
		}
		c := *a
		c.Counties = slices.Clone(a.Counties)
		c.Cities = slices.Clone(a.Cities)
		c.Tags = slices.Clone(a.Tags)
		out = append(out, c)
	}
	s.storageLock.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ListActiveSubscribers(_ context.Context) ([]domain.Subscriber, error) {
	s.storageLock.RLock()
	defer s.storageLock.RUnlock()

	var out []domain.Subscriber
	for _, sub := range s.subscribers {
		if !sub.IsActive {
			continue
		}
		sub.PreferredSendTimes = domain.NormalizeSendTimes(sub.PreferredSendTimes)
		if sub.LastSentAt != nil {
			t := *sub.LastSentAt
			sub.LastSentAt = &t
		}
		out = append(out, sub)
	}
	return out, nil
}

func (s *Store) UpdateSubscriberLastSent(_ context.Context, id uuid.UUID, sentAt time.Time) error {
	s.storageLock.Lock()
	defer s.storageLock.Unlock()

	for i := range s.subscribers {
		if s.subscribers[i].ID == id {
			t := sentAt.UTC()
			s.subscribers[i].LastSentAt = &t
			return nil
		}
	}
	return fmt.Errorf("subscriber %s not found", id)
}

// Article returns a copy of the stored article.
func (s *Store) Article(id uuid.UUID) (domain.Article, bool) {
	s.storageLock.RLock()
	defer s.storageLock.RUnlock()
	a, ok := s.articles[id]
	if !ok {
		return domain.Article{}, false
	}
	return *a, true
}

// ArticleByLink returns a copy of the article stored for link.
func (s *Store) ArticleByLink(link string) (domain.Article, bool) {
	s.storageLock.RLock()
	id, ok := s.byLink[link]
	s.storageLock.RUnlock()
	if !ok {
		return domain.Article{}, false
	}
	return s.Article(id)
}
