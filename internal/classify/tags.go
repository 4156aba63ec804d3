package classify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/crehub/news-digest/internal/llm"
	"github.com/crehub/news-digest/internal/metrics"
)

// Tag is one named category of the topical taxonomy.
type Tag struct {
	Name        string
	Description string
}

// DefaultTaxonomy is the fixed set of topical facets offered to readers.
func DefaultTaxonomy() []Tag {
	return []Tag{
		{"Office", "office buildings, coworking, office leasing and vacancy"},
		{"Retail", "shopping centers, storefronts, restaurants, retail leasing"},
		{"Industrial", "warehouses, logistics, distribution, manufacturing, cold storage"},
		{"Multifamily", "apartment buildings, build-to-rent, student and senior housing"},
		{"Hospitality", "hotels, resorts, short-term rental portfolios"},
		{"Land", "land sales, entitlements, zoning and land-use decisions"},
		{"Mixed-Use", "projects combining residential, retail and office uses"},
		{"Development", "new construction, groundbreakings, redevelopment, permits"},
		{"Financing", "loans, refinancing, CMBS, debt funds, interest rates affecting CRE"},
		{"Investment Sales", "property acquisitions, dispositions, portfolio trades, REIT deals"},
		{"Leasing", "new leases, renewals, tenant relocations, anchor tenants"},
		{"Policy", "legislation, tax incentives, government programs affecting CRE"},
		{"Market Trends", "market reports, rent and vacancy trends, forecasts"},
		{"Healthcare", "medical office buildings, hospitals, life science facilities"},
		{"Self Storage", "self-storage facilities and operators"},
	}
}

const tagPrompt = `You tag commercial real estate news with topical categories.
For each article choose every category that applies from the list below, using the category
names exactly as written. An article may have several categories or none.

Categories:
%s
Return a JSON array with exactly %d arrays of strings, one per article, in the same order.

%s`

// TagClassifier assigns topical tags in a single pass. Tags are informational facets,
// so values outside the taxonomy are kept rather than retried.
type TagClassifier struct {
	client   llm.Client
	model    string
	taxonomy []Tag
}

func NewTagClassifier(client llm.Client, model string, taxonomy []Tag) *TagClassifier {
	return &TagClassifier{client: client, model: model, taxonomy: taxonomy}
}

// Classify returns one tag list per input. On a service failure the lists are empty and the
// error is returned as well.
func (c *TagClassifier) Classify(ctx context.Context, items []Input) ([][]string, error) {
	if len(items) == 0 {
		return [][]string{}, nil
	}

	var cats strings.Builder
	names := make([]string, 0, len(c.taxonomy))
	for _, t := range c.taxonomy {
		fmt.Fprintf(&cats, "- %s: %s\n", t.Name, t.Description)
		names = append(names, t.Name)
	}

	var arts strings.Builder
	writeArticles(&arts, items)

	raw, err := c.client.Classify(ctx, llm.Request{
		Model:  c.model,
		Prompt: fmt.Sprintf(tagPrompt, cats.String(), len(items), arts.String()),
		Schema: llm.StringMatrix(names),
	})
	if err != nil {
		slog.Warn("tag classification failed, leaving tags empty", "count", len(items), "error", err)
		metrics.RecordFallback("tags")
		return normalizeMatrix(nil, len(items)), unavailable("tags", err)
	}

	rows, err := llm.Decode[[][]string](raw)
	if err != nil {
		slog.Warn("tag output unparsable, leaving tags empty", "count", len(items), "error", err)
		metrics.RecordFallback("tags")
		return normalizeMatrix(nil, len(items)), nil
	}

	out := normalizeMatrix(rows, len(items))
	for i, row := range out {
		out[i] = cleanNames(row)
	}
	return out, nil
}
