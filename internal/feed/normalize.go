package feed

import (
	"net/url"
	"strings"
	"time"

	"github.com/crehub/news-digest/internal/domain"
	"github.com/mmcdole/gofeed"
)

var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	time.RFC822Z,
	time.RFC822,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NormalizeItem builds the canonical article for one feed entry. It never fails:
// missing fields degrade to empty values and an unparsable date becomes now.
func NormalizeItem(item *gofeed.Item, sourceID string, now time.Time) domain.Article {
	if item == nil {
		return domain.Article{SourceID: sourceID, PublishedAt: now}
	}

	link := strings.TrimSpace(item.Link)
	var base *url.URL
	if u, err := url.Parse(link); err == nil && u.IsAbs() {
		base = u
	}

	return domain.Article{
		Link:        link,
		Title:       collapseSpace(item.Title),
		SourceID:    sourceID,
		PublishedAt: publishedAt(item, now),
		ImageURL:    firstOf(itemImageCandidates(item, base)...),
		Description: truncateRunes(firstOf(descriptionCandidates(item)...), maxDescriptionRunes),
	}
}

func publishedAt(item *gofeed.Item, now time.Time) time.Time {
	switch {
	case item.PublishedParsed != nil && !item.PublishedParsed.IsZero():
		return item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil && !item.UpdatedParsed.IsZero():
		return item.UpdatedParsed.UTC()
	}
	for _, raw := range []string{item.Published, item.Updated} {
		if t, ok := parseDate(raw); ok {
			return t
		}
	}
	return now
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func descriptionCandidates(item *gofeed.Item) []candidate {
	return []candidate{
		func() string {
			if item.ITunesExt != nil {
				return collapseSpace(firstOf(
					func() string { return item.ITunesExt.Summary },
					func() string { return item.ITunesExt.Subtitle },
				))
			}
			return ""
		},
		func() string { return StripHTML(item.Description) },
		func() string { return StripHTML(item.Content) },
	}
}
