package compose

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/crehub/news-digest/internal/domain"
	"github.com/crehub/news-digest/internal/llm"
	"github.com/crehub/news-digest/internal/metrics"
)

const (
	DefaultBatchTitle = "Today's Commercial Real Estate Headlines"
	defaultTopN       = 4
)

const batchTitlePrompt = `Write one newsletter headline summarizing these %d commercial real estate stories
in the style of a news aggregator: a short fragment per story (3 to 6 words each), joined
with commas, no trailing period, no quotes, under 140 characters in total.

%s
Return a JSON array containing exactly one string.`

const titlesPrompt = `The following items were collected from feeds and social posts and are often messy.
Write a clean, factual news headline for each item, under 100 characters, no hashtags, no emojis.

%s
Return a JSON array with exactly %d strings, one per item, in the same order.`

const descriptionsPrompt = `The following items were collected from feeds and social posts and are often messy.
Write a one or two sentence plain-text summary for each item, under 280 characters,
no hashtags, no emojis, no links.

%s
Return a JSON array with exactly %d strings, one per item, in the same order.`

// RawContent is unstructured input to the per-article rewrite.
type RawContent struct {
	Title       string
	Description string
}

type Option func(c *Composer)

func WithDefaultTitle(title string) Option {
	return func(c *Composer) {
		c.defaultTitle = title
	}
}

func WithTopN(n int) Option {
	return func(c *Composer) {
		if n > 0 {
			c.topN = n
		}
	}
}

// Composer generates the human-readable text of a digest.
type Composer struct {
	client       llm.Client
	model        string
	defaultTitle string
	topN         int
}

func NewComposer(client llm.Client, model string, opts ...Option) *Composer {
	c := &Composer{
		client:       client,
		model:        model,
		defaultTitle: DefaultBatchTitle,
		topN:         defaultTopN,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BatchTitle produces a single headline for the top articles of a run, or the static
// default when generation fails or returns nothing.
func (c *Composer) BatchTitle(ctx context.Context, articles []domain.Article) string {
	if len(articles) == 0 {
		return c.defaultTitle
	}
	if len(articles) > c.topN {
		articles = articles[:c.topN]
	}

	var b strings.Builder
	for i, a := range articles {
		fmt.Fprintf(&b, "%d. %s\n", i+1, oneLine(a.Title))
	}

	title := firstNonEmpty(
		func() string { return c.generateTitle(ctx, fmt.Sprintf(batchTitlePrompt, len(articles), b.String())) },
		func() string { return c.defaultTitle },
	)
	return title
}

func (c *Composer) generateTitle(ctx context.Context, prompt string) string {
	out, err := c.generate(ctx, prompt, llm.StringArray())
	if err != nil {
		slog.Warn("batch title generation failed, using default", "error", err)
		metrics.RecordFallback("batch_title")
		return ""
	}
	if len(out) == 0 {
		return ""
	}
	return strings.TrimRight(oneLine(out[0]), ".")
}

// Rewrite turns raw content into clean titles and short descriptions, as two parallel slices.
// Any failure echoes the originals; generation problems never hide content.
func (c *Composer) Rewrite(ctx context.Context, items []RawContent) ([]string, []string) {
	titles := make([]string, len(items))
	descs := make([]string, len(items))
	for i, it := range items {
		titles[i] = it.Title
		descs[i] = it.Description
	}
	if len(items) == 0 {
		return titles, descs
	}

	var b strings.Builder
	for i, it := range items {
		fmt.Fprintf(&b, "Item %d:\nTitle: %s\nText: %s\n\n", i+1, oneLine(it.Title), oneLine(it.Description))
	}
	payload := b.String()

	if gen, ok := c.parallel(ctx, fmt.Sprintf(titlesPrompt, payload, len(items)), len(items), "titles"); ok {
		titles = mergeNonEmpty(titles, gen)
	}
	if gen, ok := c.parallel(ctx, fmt.Sprintf(descriptionsPrompt, payload, len(items)), len(items), "descriptions"); ok {
		descs = mergeNonEmpty(descs, gen)
	}
	return titles, descs
}

func (c *Composer) parallel(ctx context.Context, prompt string, n int, what string) ([]string, bool) {
	out, err := c.generate(ctx, prompt, llm.StringArray())
	if err != nil {
		slog.Warn("rewrite generation failed, echoing originals", "field", what, "error", err)
		metrics.RecordFallback("rewrite_" + what)
		return nil, false
	}
	if len(out) != n {
		slog.Warn("rewrite generation length mismatch, echoing originals", "field", what, "expected", n, "got", len(out))
		metrics.RecordFallback("rewrite_" + what)
		return nil, false
	}
	return out, true
}

func (c *Composer) generate(ctx context.Context, prompt string, schema llm.Schema) ([]string, error) {
	raw, err := c.client.Classify(ctx, llm.Request{Model: c.model, Prompt: prompt, Schema: schema})
	if err != nil {
		return nil, err
	}
	return llm.Decode[[]string](raw)
}

// mergeNonEmpty takes generated values where present and keeps originals otherwise.
func mergeNonEmpty(originals, generated []string) []string {
	out := make([]string, len(originals))
	for i := range originals {
		g := generated[i]
		out[i] = firstNonEmpty(
			func() string { return oneLine(g) },
			func() string { return originals[i] },
		)
	}
	return out
}

// firstNonEmpty evaluates candidates in order and returns the first non-blank result.
func firstNonEmpty(candidates ...func() string) string {
	for _, c := range candidates {
		if v := c(); strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
