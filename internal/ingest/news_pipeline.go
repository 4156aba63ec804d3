package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/crehub/news-digest/internal/classify"
	"github.com/crehub/news-digest/internal/domain"
	"github.com/crehub/news-digest/internal/feed"
	"github.com/crehub/news-digest/internal/metrics"
	"github.com/crehub/news-digest/internal/storage"
)

const (
	defaultBatchSize  = 50
	defaultMaxBatches = 20
)

type FeedCollector interface {
	Collect(ctx context.Context, sources []domain.FeedSource) feed.Result
}

type ArticleSaver interface {
	Save(ctx context.Context, articles []domain.Article, source domain.Source, opts storage.SaveOptions) (int, error)
}

type RelevanceChecker interface {
	Check(ctx context.Context, items []classify.Input) ([]bool, error)
}

// GeoClassifier and TagClassifier return their safe defaults alongside a non-nil error
// when the classification service could not be reached.
type GeoClassifier interface {
	ClassifyCounties(ctx context.Context, items []classify.GeoInput) ([][]string, error)
	ClassifyCities(ctx context.Context, items []classify.GeoInput) ([][]string, error)
}

type TagClassifier interface {
	Classify(ctx context.Context, items []classify.Input) ([][]string, error)
}

// SearchIndexer receives every article that finishes classification as relevant.
type SearchIndexer interface {
	Index(ctx context.Context, articles []domain.Article) error
}

type RunReport struct {
	Sources       int           `json:"sources"`
	FailedSources []string      `json:"failedSources,omitempty"`
	Fetched       int           `json:"fetched"`
	Saved         int           `json:"saved"`
	Classified    int           `json:"classified"`
	Relevant      int           `json:"relevant"`
	Irrelevant    int           `json:"irrelevant"`
	Deferred      int           `json:"deferred"`
	Indexed       int           `json:"indexed"`
	Duration      time.Duration `json:"duration"`
}

// NewsPipeline collects feeds, stores new articles and classifies everything still
// uncategorized.
type NewsPipeline struct {
	sources    []domain.FeedSource
	collector  FeedCollector
	saver      ArticleSaver
	store      storage.ArticleStore
	relevance  RelevanceChecker
	geo        GeoClassifier
	tags       TagClassifier
	indexer    SearchIndexer
	batchSize  int
	maxBatches int

	mu     sync.Mutex
	cancel context.CancelFunc
	last   RunReport
}

type NewsPipelineOption func(p *NewsPipeline)

func WithBatchSize(n int) NewsPipelineOption {
	return func(p *NewsPipeline) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

func WithMaxBatches(n int) NewsPipelineOption {
	return func(p *NewsPipeline) {
		if n > 0 {
			p.maxBatches = n
		}
	}
}

func WithSearchIndexer(idx SearchIndexer) NewsPipelineOption {
	return func(p *NewsPipeline) {
		p.indexer = idx
	}
}

type Classifiers struct {
	Relevance RelevanceChecker
	Geo       GeoClassifier
	Tags      TagClassifier
}

func NewNewsPipeline(
	sources []domain.FeedSource,
	collector FeedCollector,
	saver ArticleSaver,
	store storage.ArticleStore,
	classifiers Classifiers,
	opts ...NewsPipelineOption,
) *NewsPipeline {
	p := &NewsPipeline{
		sources:    sources,
		collector:  collector,
		saver:      saver,
		store:      store,
		relevance:  classifiers.Relevance,
		geo:        classifiers.Geo,
		tags:       classifiers.Tags,
		batchSize:  defaultBatchSize,
		maxBatches: defaultMaxBatches,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *NewsPipeline) Run(ctx context.Context) error {
	_, err := p.Ingest(ctx)
	return err
}

// LastReport returns the report of the most recent finished run.
func (p *NewsPipeline) LastReport() RunReport {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func (p *NewsPipeline) Stop() {
	slog.Info("stopping news pipeline")
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
}

// Ingest runs one collection and classification pass.
func (p *NewsPipeline) Ingest(ctx context.Context) (RunReport, error) {
	start := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()
	defer cancel()

	report := RunReport{Sources: len(p.sources)}

	p.collect(ctx, &report)
	metrics.RunDuration.WithLabelValues("collect").Observe(time.Since(start).Seconds())

	classifyStart := time.Now()
	err := p.classifyPending(ctx, &report)
	metrics.RunDuration.WithLabelValues("classify").Observe(time.Since(classifyStart).Seconds())

	report.Duration = time.Since(start)
	p.mu.Lock()
	p.last = report
	p.mu.Unlock()

	slog.Info("news pipeline run completed",
		"duration", report.Duration,
		"sources", report.Sources,
		"failed_sources", len(report.FailedSources),
		"fetched", report.Fetched,
		"saved", report.Saved,
		"classified", report.Classified,
		"relevant", report.Relevant,
		"deferred", report.Deferred,
		"indexed", report.Indexed)

	return report, err
}

func (p *NewsPipeline) collect(ctx context.Context, report *RunReport) {
	if len(p.sources) == 0 {
		return
	}
	res := p.collector.Collect(ctx, p.sources)
	report.FailedSources = res.Failed

	for _, batch := range res.Batches {
		report.Fetched += len(batch.Articles)
		source := domain.Source{ID: batch.Source.SourceID, Name: batch.Source.Name}
		n, err := p.saver.Save(ctx, batch.Articles, source, storage.SaveOptions{})
		if err != nil {
			slog.Error("failed to save feed batch", "source", source.ID, "error", err)
			report.FailedSources = append(report.FailedSources, source.ID)
			continue
		}
		report.Saved += n
	}
}

func (p *NewsPipeline) classifyPending(ctx context.Context, report *RunReport) error {
	for range p.maxBatches {
		if err := ctx.Err(); err != nil {
			return err
		}
		pending, err := p.store.ListUncategorizedArticles(ctx, p.batchSize)
		if err != nil {
			return fmt.Errorf("list uncategorized articles: %w", err)
		}
		if len(pending) == 0 {
			return nil
		}

		done, err := p.classifyBatch(ctx, pending, report)
		if err != nil {
			slog.Warn("classification deferred, pending articles wait for the next run", "error", err)
			return nil
		}
		if done == 0 || len(pending) < p.batchSize {
			// Nothing progressed or the backlog is drained.
			return nil
		}
	}
	slog.Warn("classification stopped at batch limit, remaining articles wait for the next run", "max_batches", p.maxBatches)
	return nil
}

// classifyBatch runs every stage over one batch and returns how many articles were marked categorized.
// When a stage could not reach the classification service the affected articles stay
// uncategorized and the error is returned.
func (p *NewsPipeline) classifyBatch(ctx context.Context, batch []domain.Article, report *RunReport) (int, error) {
	inputs := make([]classify.Input, len(batch))
	for i, a := range batch {
		inputs[i] = classify.Input{Title: a.Title, Description: a.Description}
	}

	flags, err := p.relevance.Check(ctx, inputs)
	if err != nil {
		p.postpone(batch, report)
		return 0, err
	}

	var relevant []domain.Article
	done := 0
	for i, a := range batch {
		if flags[i] {
			relevant = append(relevant, a)
			continue
		}
		if err := p.store.MarkCategorized(ctx, a.ID, false); err != nil {
			slog.Error("failed to mark irrelevant article", "article_id", a.ID, "error", err)
			continue
		}
		report.Irrelevant++
		done++
	}

	if len(relevant) > 0 {
		enriched, err := p.enrich(ctx, relevant)
		if err != nil {
			report.Classified += done
			p.postpone(relevant, report)
			return done, err
		}
		var categorized []domain.Article
		for _, a := range enriched {
			if err := p.persist(ctx, a); err != nil {
				slog.Error("failed to persist classification", "article_id", a.ID, "error", err)
				continue
			}
			a.IsCategorized, a.IsRelevant = true, true
			categorized = append(categorized, a)
			report.Relevant++
			done++
		}
		p.index(ctx, categorized, report)
	}

	report.Classified += done
	return done, nil
}

func (p *NewsPipeline) postpone(articles []domain.Article, report *RunReport) {
	report.Deferred += len(articles)
	metrics.ClassificationDeferred.Add(float64(len(articles)))
}

// enrich returns an error when any stage was unavailable. Partial results are discarded.
func (p *NewsPipeline) enrich(ctx context.Context, articles []domain.Article) ([]domain.Article, error) {
	geoInputs := make([]classify.GeoInput, len(articles))
	inputs := make([]classify.Input, len(articles))
	for i, a := range articles {
		inputs[i] = classify.Input{Title: a.Title, Description: a.Description}
		geoInputs[i] = classify.GeoInput{Input: inputs[i]}
	}

	counties, countyErr := p.geo.ClassifyCounties(ctx, geoInputs)
	if countyErr != nil {
		return nil, fmt.Errorf("classify counties: %w", countyErr)
	}
	cities, cityErr := p.geo.ClassifyCities(ctx, geoInputs)
	tags, tagErr := p.tags.Classify(ctx, inputs)
	if err := errors.Join(cityErr, tagErr); err != nil {
		return nil, fmt.Errorf("classify cities and tags: %w", err)
	}

	out := make([]domain.Article, len(articles))
	for i, a := range articles {
		a.Counties = counties[i]
		a.Cities = cities[i]
		a.Tags = tags[i]
		out[i] = a
	}
	return out, nil
}

func (p *NewsPipeline) persist(ctx context.Context, a domain.Article) error {
	if err := p.store.LinkCounties(ctx, a.ID, a.Counties); err != nil {
		return err
	}
	if err := p.store.LinkCities(ctx, a.ID, a.Cities); err != nil {
		return err
	}
	if err := p.store.LinkTags(ctx, a.ID, a.Tags); err != nil {
		return err
	}
	return p.store.MarkCategorized(ctx, a.ID, true)
}

func (p *NewsPipeline) index(ctx context.Context, articles []domain.Article, report *RunReport) {
	if p.indexer == nil || len(articles) == 0 {
		return
	}
	if err := p.indexer.Index(ctx, articles); err != nil {
		slog.Error("failed to index categorized articles", "count", len(articles), "error", err)
		return
	}
	report.Indexed += len(articles)
}
