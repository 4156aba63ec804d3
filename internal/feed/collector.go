package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/crehub/news-digest/internal/domain"
	"github.com/crehub/news-digest/internal/metrics"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultFeedTimeout       = 20 * time.Second
	DefaultScrapeConcurrency = 4
)

// Batch holds the articles read from one source.
type Batch struct {
	Source   domain.FeedSource
	Articles []domain.Article
}

type Result struct {
	Batches []Batch
	// Failed lists the source ids whose feed could not be fetched or parsed.
	Failed []string
}

func (r Result) Articles() []domain.Article {
	var out []domain.Article
	for _, b := range r.Batches {
		out = append(out, b.Articles...)
	}
	return out
}

type Collector struct {
	fetcher           Fetcher
	scraper           ImageScraper
	now               func() time.Time
	feedTimeout       time.Duration
	scrapeConcurrency int
}

type CollectorOption func(c *Collector)

// WithImageScraper enables the article page lookup for entries without an image.
func WithImageScraper(s ImageScraper) CollectorOption {
	return func(c *Collector) {
		c.scraper = s
	}
}

func WithClock(now func() time.Time) CollectorOption {
	return func(c *Collector) {
		c.now = now
	}
}

func WithFeedTimeout(d time.Duration) CollectorOption {
	return func(c *Collector) {
		c.feedTimeout = d
	}
}

func WithScrapeConcurrency(n int) CollectorOption {
	return func(c *Collector) {
		if n > 0 {
			c.scrapeConcurrency = n
		}
	}
}

func NewCollector(fetcher Fetcher, opts ...CollectorOption) *Collector {
	c := &Collector{
		fetcher:           fetcher,
		now:               func() time.Time { return time.Now().UTC() },
		feedTimeout:       DefaultFeedTimeout,
		scrapeConcurrency: DefaultScrapeConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect reads every source concurrently. A failing source is logged and
// reported in Result.Failed; it never aborts the others.
func (c *Collector) Collect(ctx context.Context, sources []domain.FeedSource) Result {
	batches := make([]*Batch, len(sources))
	var (
		mu     sync.Mutex
		failed []string
	)

	var g errgroup.Group
	for i, src := range sources {
		g.Go(func() error {
			articles, err := c.collectSource(ctx, src)
			if err != nil {
				slog.Warn("feed collection failed", "source", src.SourceID, "url", src.URL, "error", err)
				metrics.FeedFailures.WithLabelValues(src.SourceID).Inc()
				mu.Lock()
				failed = append(failed, src.SourceID)
				mu.Unlock()
				return nil
			}
			metrics.ArticlesFetched.WithLabelValues(src.SourceID).Add(float64(len(articles)))
			slog.Info("feed collected", "source", src.SourceID, "articles", len(articles))
			batches[i] = &Batch{Source: src, Articles: articles}
			return nil
		})
	}
	_ = g.Wait()

	res := Result{Failed: failed}
	for _, b := range batches {
		if b != nil {
			res.Batches = append(res.Batches, *b)
		}
	}
	return res
}

func (c *Collector) collectSource(ctx context.Context, src domain.FeedSource) ([]domain.Article, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.feedTimeout)
	defer cancel()

	parsed, err := c.fetcher.Fetch(fetchCtx, src.URL)
	if err != nil {
		return nil, err
	}

	now := c.now()
	// Entries without a link are returned as partial records; storage decides what to keep.
	articles := make([]domain.Article, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		articles = append(articles, NormalizeItem(item, src.SourceID, now))
	}

	c.fillMissingImages(ctx, articles)
	return articles, nil
}

// fillMissingImages runs the last image fallback: the article page itself.
func (c *Collector) fillMissingImages(ctx context.Context, articles []domain.Article) {
	if c.scraper == nil {
		return
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.scrapeConcurrency)
	for i := range articles {
		if articles[i].ImageURL != "" || articles[i].Link == "" {
			continue
		}
		g.Go(func() error {
			articles[i].ImageURL = c.scraper.ScrapeImage(gctx, articles[i].Link)
			return nil
		})
	}
	_ = g.Wait()
}
