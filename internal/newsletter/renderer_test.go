package newsletter

import (
	"testing"
	"time"

	"github.com/crehub/news-digest/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDigest() domain.Digest {
	return domain.Digest{
		Subscriber: domain.Subscriber{
			ID:        uuid.MustParse("6f1c3b8e-2d7a-4c55-9a1e-0d3f5b7c9e11"),
			Email:     "ana@example.com",
			FirstName: "Ana",
			Timezone:  "America/Los_Angeles",
		},
		RunAt: time.Date(2025, 3, 7, 17, 0, 0, 0, time.UTC),
		Title: "Miami lender closes, Pasadena tower trades",
		Items: []domain.DigestItem{
			{
				Article: domain.Article{
					Link:     "https://x/a1",
					ImageURL: "https://img.test/a1.jpg",
					Counties: []string{"Miami-Dade"},
					Cities:   []string{"Miami"},
				},
				Title:       "Sunset Gardens wins <financing>",
				Description: "A $40M loan & more.",
			},
			{
				Article:     domain.Article{Link: "https://x/a2", Counties: []string{"Other"}},
				Title:       "Office tower sold",
				Description: "",
			},
		},
	}
}

func TestRenderer_Render(t *testing.T) {
	r, err := NewRenderer("https://news.test/unsubscribe")
	require.NoError(t, err)

	msg, err := r.Render(sampleDigest())
	require.NoError(t, err)

	assert.Equal(t, "Miami lender closes, Pasadena tower trades", msg.Subject)

	assert.Contains(t, msg.HTML, "Friday, March 7, 2025")
	assert.Contains(t, msg.HTML, "Hi Ana")
	assert.Contains(t, msg.HTML, `href="https://x/a1"`)
	assert.Contains(t, msg.HTML, `src="https://img.test/a1.jpg"`)
	assert.Contains(t, msg.HTML, "Sunset Gardens wins &lt;financing&gt;")
	assert.Contains(t, msg.HTML, "Miami · Miami-Dade County")
	assert.NotContains(t, msg.HTML, "Other County")
	assert.Contains(t, msg.HTML, "https://news.test/unsubscribe?id=6f1c3b8e-2d7a-4c55-9a1e-0d3f5b7c9e11")

	assert.Contains(t, msg.Text, "1. Sunset Gardens wins <financing>")
	assert.Contains(t, msg.Text, "A $40M loan & more.")
	assert.Contains(t, msg.Text, "2. Office tower sold")
	assert.Contains(t, msg.Text, "https://x/a2")
	assert.Contains(t, msg.Text, "Unsubscribe: https://news.test/unsubscribe?id=")
}

func TestRenderer_NoUnsubscribeLink(t *testing.T) {
	r, err := NewRenderer("")
	require.NoError(t, err)

	msg, err := r.Render(sampleDigest())
	require.NoError(t, err)

	assert.NotContains(t, msg.HTML, "Unsubscribe</a>")
	assert.NotContains(t, msg.Text, "Unsubscribe:")
}
