package feed

import (
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

// candidate produces one possible value; an empty string means "no answer, try the next".
type candidate func() string

// firstOf evaluates candidates in order and returns the first non-empty result.
func firstOf(candidates ...candidate) string {
	for _, c := range candidates {
		if v := c(); v != "" {
			return v
		}
	}
	return ""
}

// itemImageCandidates is the in-feed part of the image fallback chain. The page scrape
// is appended by the collector because it needs the network.
func itemImageCandidates(item *gofeed.Item, base *url.URL) []candidate {
	sanitized := func(raw func() string) candidate {
		return func() string { return SanitizeImageURL(raw(), base) }
	}
	return []candidate{
		sanitized(func() string { return mediaContentImage(item) }),
		sanitized(func() string { return enclosureImage(item) }),
		sanitized(func() string { return mediaThumbnail(item) }),
		sanitized(func() string {
			if item.Image != nil {
				return item.Image.URL
			}
			return ""
		}),
		sanitized(func() string { return FirstImageSrc(item.Content) }),
		sanitized(func() string { return FirstImageSrc(item.Description) }),
	}
}

func mediaContentImage(item *gofeed.Item) string {
	for _, c := range mediaElements(item, "content") {
		if isImageMedia(c.Attrs["type"], c.Attrs["medium"]) && c.Attrs["url"] != "" {
			return c.Attrs["url"]
		}
	}
	return ""
}

func mediaThumbnail(item *gofeed.Item) string {
	for _, t := range mediaElements(item, "thumbnail") {
		if u := t.Attrs["url"]; u != "" {
			return u
		}
	}
	return ""
}

// mediaElements returns media:<name> elements, including those nested in media:group.
func mediaElements(item *gofeed.Item, name string) []ext.Extension {
	media, ok := item.Extensions["media"]
	if !ok {
		return nil
	}
	out := append([]ext.Extension{}, media[name]...)
	for _, g := range media["group"] {
		out = append(out, g.Children[name]...)
	}
	return out
}

func enclosureImage(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if enc != nil && isImageMedia(enc.Type, "") && enc.URL != "" {
			return enc.URL
		}
	}
	return ""
}

func isImageMedia(mimeType, medium string) bool {
	return strings.HasPrefix(strings.ToLower(mimeType), "image/") || strings.EqualFold(medium, "image")
}

// SanitizeImageURL accepts only absolute http(s) URLs with a host. Protocol-relative URLs
// are upgraded to https and relative ones are resolved against base when it is known.
func SanitizeImageURL(raw string, base *url.URL) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(strings.ToLower(raw), "data:") {
		return ""
	}
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if !u.IsAbs() {
		if base == nil {
			return ""
		}
		u = base.ResolveReference(u)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return u.String()
}
