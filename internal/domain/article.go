package domain

import (
	"time"

	"github.com/google/uuid"
)

// OtherCounty is assigned when an article cannot be placed in any known county.
const OtherCounty = "Other"

type Article struct {
	ID            uuid.UUID `json:"id"`
	Link          string    `json:"link"`
	Title         string    `json:"title"`
	SourceID      string    `json:"sourceId"`
	PublishedAt   time.Time `json:"publishedAt"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	Description   string    `json:"description,omitempty"`
	IsCategorized bool      `json:"isCategorized"`
	// IsRelevant is only meaningful once IsCategorized is set.
	IsRelevant bool      `json:"isRelevant"`
	Counties   []string  `json:"counties,omitempty"`
	Cities     []string  `json:"cities,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Source struct {
	ID   string `json:"sourceId"`
	Name string `json:"sourceName"`
}

// FeedSource is one configured syndication feed.
type FeedSource struct {
	SourceID string `json:"sourceId" yaml:"sourceId"`
	Name     string `json:"name" yaml:"name"`
	URL      string `json:"url" yaml:"url"`
}

// Classification is the enrichment written for an article once every stage has run.
type Classification struct {
	Relevant bool
	Counties []string
	Cities   []string
	Tags     []string
}
