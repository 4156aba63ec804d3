package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/crehub/news-digest/internal/domain"
	"github.com/crehub/news-digest/internal/llm"
	"github.com/crehub/news-digest/internal/metrics"
)

const countyPrompt = `You tag commercial real estate news with the US counties it concerns.
For each article return the list of county names the article is about, using ONLY names from
the allowed list below, written exactly as listed (no "County" suffix, no state).
If the article mentions a city, use the county that city is in.
If no allowed county applies, return ["Other"].

Return a JSON array with exactly %d arrays of strings, one per article, in the same order.

Allowed counties: %s

%s`

const countyRetryPrompt = `Your previous answer used county names that are not in the allowed list.
For each article below, map the invalid names onto the closest names from the allowed list,
written exactly as listed. Do not repeat an invalid name. If nothing applies, return ["Other"].

Return a JSON array with exactly %d arrays of strings, one per article, in the same order.

Allowed counties: %s

%s`

const cityPrompt = `You tag commercial real estate news with the cities it concerns.
For each article return the names of the cities or towns the article is about, as plain city
names without state. Return an empty array when no specific city is mentioned.

Return a JSON array with exactly %d arrays of strings, one per article, in the same order.

%s`

// GeoInput carries the article text plus, on re-runs, its current categorization and an
// optional reason why that categorization looks wrong.
type GeoInput struct {
	Input
	CurrentCounties []string
	CurrentCities   []string
	Reason          string
}

// GeoClassifier assigns counties from a closed vocabulary and free-text cities.
type GeoClassifier struct {
	client llm.Client
	model  string
	vocab  Vocabulary
}

func NewGeoClassifier(client llm.Client, model string, vocab Vocabulary) *GeoClassifier {
	return &GeoClassifier{client: client, model: model, vocab: vocab}
}

// ClassifyCounties returns, per input, at least one vocabulary member ("Other" at minimum).
// Names outside the vocabulary get one targeted retry pass. When the first pass cannot reach
// the service every input gets "Other" and an ErrUnavailable error is returned.
func (g *GeoClassifier) ClassifyCounties(ctx context.Context, items []GeoInput) ([][]string, error) {
	if len(items) == 0 {
		return [][]string{}, nil
	}
	fallback := []string{domain.OtherCounty}

	first, err := g.requestCounties(ctx, fmt.Sprintf(countyPrompt, len(items), g.allowedList(), renderGeo(items)), len(items))
	if err != nil {
		slog.Warn("county classification failed, defaulting to Other", "count", len(items), "error", err)
		metrics.RecordFallback("county")
		out := make([][]string, len(items))
		for i := range out {
			out[i] = clone(fallback)
		}
		if errors.Is(err, ErrUnavailable) {
			return out, err
		}
		return out, nil
	}

	retry := func(flagged []Flagged[GeoInput]) ([][]string, error) {
		slog.Info("retrying county classification for invalid names", "flagged", len(flagged))
		return g.requestCounties(ctx, fmt.Sprintf(countyRetryPrompt, len(flagged), g.allowedList(), renderFlagged(flagged)), len(flagged))
	}

	out, stats := Retarget(items, first, g.vocab.Split, retry, fallback)
	if stats.Flagged > 0 {
		metrics.CountyCorrections.WithLabelValues("corrected").Add(float64(stats.Corrected))
		metrics.CountyCorrections.WithLabelValues("degraded").Add(float64(stats.Flagged - stats.Corrected))
		slog.Info("county retry finished",
			"flagged", stats.Flagged,
			"corrected", stats.Corrected,
			"retry_error", stats.RetryErr)
	}
	return out, nil
}

// ClassifyCities extracts free-text city names. There is no vocabulary and no retry;
// a failed call yields empty lists, plus an ErrUnavailable error when the service was unreachable.
func (g *GeoClassifier) ClassifyCities(ctx context.Context, items []GeoInput) ([][]string, error) {
	if len(items) == 0 {
		return [][]string{}, nil
	}

	rows, err := g.request(ctx, fmt.Sprintf(cityPrompt, len(items), renderGeo(items)), llm.StringMatrix(nil))
	if err != nil {
		slog.Warn("city classification failed, leaving cities empty", "count", len(items), "error", err)
		metrics.RecordFallback("city")
		if errors.Is(err, ErrUnavailable) {
			return normalizeMatrix(nil, len(items)), err
		}
		return normalizeMatrix(nil, len(items)), nil
	}

	out := normalizeMatrix(rows, len(items))
	for i, row := range out {
		out[i] = cleanNames(row)
	}
	return out, nil
}

func (g *GeoClassifier) requestCounties(ctx context.Context, prompt string, n int) ([][]string, error) {
	rows, err := g.request(ctx, prompt, llm.StringMatrix(g.vocab.Names()))
	if err != nil {
		return nil, err
	}
	return normalizeMatrix(rows, n), nil
}

func (g *GeoClassifier) request(ctx context.Context, prompt string, schema llm.Schema) ([][]string, error) {
	raw, err := g.client.Classify(ctx, llm.Request{Model: g.model, Prompt: prompt, Schema: schema})
	if err != nil {
		return nil, unavailable("geography", err)
	}
	return llm.Decode[[][]string](raw)
}

func (g *GeoClassifier) allowedList() string {
	return strings.Join(g.vocab.Names(), ", ")
}

func renderGeo(items []GeoInput) string {
	var b strings.Builder
	for i, it := range items {
		writeArticle(&b, i+1, it.Input)
		writeCurrent(&b, it)
		b.WriteString("\n")
	}
	return b.String()
}

func renderFlagged(flagged []Flagged[GeoInput]) string {
	var b strings.Builder
	for i, f := range flagged {
		writeArticle(&b, i+1, f.Item.Input)
		fmt.Fprintf(&b, "Invalid names from previous answer: %s\n\n", strings.Join(quoteAll(f.Invalid), ", "))
	}
	return b.String()
}

func writeCurrent(b *strings.Builder, it GeoInput) {
	if len(it.CurrentCounties) > 0 || len(it.CurrentCities) > 0 {
		fmt.Fprintf(b, "Current counties: %s\nCurrent cities: %s\n",
			strings.Join(it.CurrentCounties, ", "), strings.Join(it.CurrentCities, ", "))
	}
	if r := oneLine(it.Reason); r != "" {
		fmt.Fprintf(b, "This categorization looks wrong because: %s\n", r)
	}
}

func quoteAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprintf("%q", v)
	}
	return out
}

func cleanNames(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = oneLine(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
