package es

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/crehub/news-digest/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeES answers the handful of endpoints the indexer uses.
type fakeES struct {
	mu          sync.Mutex
	indexExists bool
	created     bool
	docs        map[string]ArticleDocument
	failIDs     map[string]bool
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodHead:
		if f.indexExists {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case r.Method == http.MethodPut:
		f.created = true
		f.indexExists = true
		_, _ = w.Write([]byte(`{"acknowledged":true,"shards_acknowledged":true,"index":"cre_articles"}`))
	case strings.HasSuffix(r.URL.Path, "/_bulk"):
		f.bulk(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{}`))
	}
}

func (f *fakeES) bulk(w http.ResponseWriter, r *http.Request) {
	type itemResult struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Result string `json:"result,omitempty"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error,omitempty"`
	}
	var items []map[string]itemResult
	hasErrors := false

	scanner := bufio.NewScanner(r.Body)
	scanner.Buffer(make([]byte, 1<<20), 1<<20)
	for scanner.Scan() {
		var action map[string]struct {
			ID string `json:"_id"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &action); err != nil {
			continue
		}
		meta, ok := action["index"]
		if !ok || !scanner.Scan() {
			continue
		}
		var doc ArticleDocument
		_ = json.Unmarshal(scanner.Bytes(), &doc)

		res := itemResult{ID: meta.ID, Status: http.StatusCreated, Result: "created"}
		if f.failIDs[meta.ID] {
			hasErrors = true
			res.Status = http.StatusBadRequest
			res.Result = ""
			res.Error = &struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			}{Type: "mapper_parsing_exception", Reason: "bad doc"}
		} else {
			f.docs[meta.ID] = doc
		}
		items = append(items, map[string]itemResult{"index": res})
	}

	_ = json.NewEncoder(w).Encode(map[string]any{"took": 1, "errors": hasErrors, "items": items})
}

func newTestIndexer(t *testing.T, f *fakeES) *Indexer {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	idx, err := NewIndexer(context.Background(), ClientConfig{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return idx
}

func categorized(title string) domain.Article {
	return domain.Article{
		ID:            uuid.New(),
		Link:          "https://x/" + title,
		Title:         title,
		SourceID:      "bisnow",
		PublishedAt:   time.Date(2025, 3, 6, 8, 0, 0, 0, time.UTC),
		IsCategorized: true,
		IsRelevant:    true,
		Counties:      []string{"Miami-Dade"},
		Tags:          []string{"Financing"},
	}
}

func TestNewIndexer_CreatesMissingIndex(t *testing.T) {
	f := &fakeES{docs: map[string]ArticleDocument{}}

	idx := newTestIndexer(t, f)

	assert.True(t, f.created)
	assert.Equal(t, DefaultIndexName, idx.indexName)
}

func TestNewIndexer_KeepsExistingIndex(t *testing.T) {
	f := &fakeES{indexExists: true, docs: map[string]ArticleDocument{}}

	newTestIndexer(t, f)

	assert.False(t, f.created)
}

func TestIndexer_Index(t *testing.T) {
	f := &fakeES{indexExists: true, docs: map[string]ArticleDocument{}}
	idx := newTestIndexer(t, f)
	a, b := categorized("a"), categorized("b")

	require.NoError(t, idx.Index(context.Background(), []domain.Article{a, b}))

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.docs, 2)
	doc := f.docs[a.ID.String()]
	assert.Equal(t, "a", doc.Title)
	assert.Equal(t, []string{"Miami-Dade"}, doc.Counties)
	assert.Equal(t, []string{}, doc.Cities)
}

func TestIndexer_IndexReportsFailures(t *testing.T) {
	a, b := categorized("a"), categorized("b")
	f := &fakeES{indexExists: true, docs: map[string]ArticleDocument{}, failIDs: map[string]bool{b.ID.String(): true}}
	idx := newTestIndexer(t, f)

	err := idx.Index(context.Background(), []domain.Article{a, b})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 out of 2")
}

func TestIndexer_IndexEmptyIsNoop(t *testing.T) {
	f := &fakeES{indexExists: true, docs: map[string]ArticleDocument{}}
	idx := newTestIndexer(t, f)

	assert.NoError(t, idx.Index(context.Background(), nil))
}
