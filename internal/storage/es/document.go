package es

import (
	"time"

	"github.com/crehub/news-digest/internal/domain"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
)

// ArticleDocument is the search representation of a categorized article.
type ArticleDocument struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Link        string    `json:"link"`
	ImageURL    string    `json:"image_url,omitempty"`
	SourceID    string    `json:"source_id"`
	Counties    []string  `json:"counties"`
	Cities      []string  `json:"cities"`
	Tags        []string  `json:"tags"`
	PublishedAt time.Time `json:"published_at"`
	IndexedAt   time.Time `json:"indexed_at"`
}

type IndexBuilder struct {
	now func() time.Time
}

func NewIndexBuilder() *IndexBuilder {
	return &IndexBuilder{
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (b *IndexBuilder) mapToESDocument(article domain.Article) ArticleDocument {
	return ArticleDocument{
		ID:          article.ID.String(),
		Title:       article.Title,
		Description: article.Description,
		Link:        article.Link,
		ImageURL:    article.ImageURL,
		SourceID:    article.SourceID,
		Counties:    nonNil(article.Counties),
		Cities:      nonNil(article.Cities),
		Tags:        nonNil(article.Tags),
		PublishedAt: article.PublishedAt,
		IndexedAt:   b.now(),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (b *IndexBuilder) buildSettings() types.IndexSettings {
	return types.IndexSettings{
		Analysis: &types.IndexSettingsAnalysis{
			Analyzer: map[string]types.Analyzer{
				"news_analyzer": types.StandardAnalyzer{
					Stopwords: []string{"_english_"},
				},
			},
		},
	}
}

func (b *IndexBuilder) buildMapping() types.TypeMapping {
	return types.TypeMapping{
		Properties: map[string]types.Property{
			"id":           types.NewKeywordProperty(),
			"title":        b.createTextPropertyWithKeyword("news_analyzer"),
			"description":  b.createTextProperty("news_analyzer"),
			"link":         types.NewKeywordProperty(),
			"image_url":    types.NewKeywordProperty(),
			"source_id":    types.NewKeywordProperty(),
			"counties":     types.NewKeywordProperty(),
			"cities":       types.NewKeywordProperty(),
			"tags":         types.NewKeywordProperty(),
			"published_at": types.NewDateProperty(),
			"indexed_at":   types.NewDateProperty(),
		},
	}
}

func (b *IndexBuilder) createTextProperty(analyzer string) types.Property {
	textProp := types.NewTextProperty()
	if analyzer != "" {
		textProp.Analyzer = &analyzer
	}
	return textProp
}

func (b *IndexBuilder) createTextPropertyWithKeyword(analyzer string) types.Property {
	textProp := types.NewTextProperty()
	if analyzer != "" {
		textProp.Analyzer = &analyzer
	}
	textProp.Fields = map[string]types.Property{
		"keyword": types.NewKeywordProperty(),
	}
	return textProp
}
