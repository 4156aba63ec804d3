package classify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/crehub/news-digest/internal/llm"
	"github.com/crehub/news-digest/internal/metrics"
)

const relevancePrompt = `You curate a news feed for commercial real estate (CRE) professionals.
An article is relevant when it is about commercial real estate: office, retail, industrial,
multifamily, hospitality, land, mixed-use or self-storage property; development, construction,
leasing, sales, acquisitions, financing or investment of such property; zoning and land-use
decisions; or market conditions that directly affect CRE. Single-family home sales,
residential mortgage rates for consumers, celebrity homes, sports and general politics are not relevant.

Return a JSON array with exactly %d booleans, one per article, in the same order.
true means relevant, false means not relevant. When unsure, answer true.

%s`

// RelevanceFilter asks the classification service whether each article belongs to the CRE domain.
type RelevanceFilter struct {
	client llm.Client
	model  string
}

func NewRelevanceFilter(client llm.Client, model string) *RelevanceFilter {
	return &RelevanceFilter{client: client, model: model}
}

// Check returns one flag per input, aligned by index. It fails open: any service or parse
// failure marks every article relevant, a short answer is padded with true and a long
// answer is truncated. A service failure is also returned as an error next to the
// all-true flags so callers can tell a real answer from the fallback.
func (f *RelevanceFilter) Check(ctx context.Context, items []Input) ([]bool, error) {
	if len(items) == 0 {
		return []bool{}, nil
	}

	var b strings.Builder
	writeArticles(&b, items)

	raw, err := f.client.Classify(ctx, llm.Request{
		Model:  f.model,
		Prompt: fmt.Sprintf(relevancePrompt, len(items), b.String()),
		Schema: llm.BoolArray(len(items)),
	})
	if err != nil {
		slog.Warn("relevance check failed, treating all articles as relevant", "count", len(items), "error", err)
		metrics.RecordFallback("relevance")
		return allTrue(len(items)), unavailable("relevance", err)
	}

	flags, err := llm.Decode[[]bool](raw)
	if err != nil {
		slog.Warn("relevance output unparsable, treating all articles as relevant", "count", len(items), "error", err)
		metrics.RecordFallback("relevance")
		return allTrue(len(items)), nil
	}

	if len(flags) != len(items) {
		slog.Info("relevance output length mismatch, normalizing", "expected", len(items), "got", len(flags))
	}
	return normalizeFlags(flags, len(items)), nil
}

// normalizeFlags pads with true or truncates so the result has exactly n entries.
func normalizeFlags(flags []bool, n int) []bool {
	out := allTrue(n)
	copy(out, flags)
	return out
}

func allTrue(n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = true
	}
	return out
}
