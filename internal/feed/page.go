package feed

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	DefaultPageTimeout = 5 * time.Second
	maxPageBytes       = 2 << 20
)

// ImageScraper finds a representative image on an article's own page.
type ImageScraper interface {
	ScrapeImage(ctx context.Context, pageURL string) string
}

// PageImageScraper reads Open Graph and Twitter card image tags. Every failure is silent.
type PageImageScraper struct {
	client  *http.Client
	limiter *HostRateLimiter
	timeout time.Duration
}

type PageScraperOption func(s *PageImageScraper)

func WithPageTimeout(d time.Duration) PageScraperOption {
	return func(s *PageImageScraper) {
		s.timeout = d
	}
}

func WithHostRateLimiter(l *HostRateLimiter) PageScraperOption {
	return func(s *PageImageScraper) {
		s.limiter = l
	}
}

func NewPageImageScraper(client *http.Client, opts ...PageScraperOption) *PageImageScraper {
	s := &PageImageScraper{
		client:  client,
		timeout: DefaultPageTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = NewHTTPClient(s.timeout)
	}
	return s
}

func (s *PageImageScraper) ScrapeImage(ctx context.Context, pageURL string) string {
	base, err := url.Parse(pageURL)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if s.limiter != nil {
		if err := s.limiter.WaitForHost(ctx, pageURL); err != nil {
			slog.Debug("page image scrape skipped by rate limiter", "url", pageURL, "error", err)
			return ""
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Debug("page image scrape failed", "url", pageURL, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}
	if ct := strings.ToLower(resp.Header.Get("Content-Type")); ct != "" && !strings.Contains(ct, "html") {
		return ""
	}

	return ExtractMetaImage(io.LimitReader(resp.Body, maxPageBytes), base)
}

// ExtractMetaImage returns the first usable og:image or twitter:image URL of an HTML document.
func ExtractMetaImage(r io.Reader, base *url.URL) string {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return ""
	}
	selectors := []string{
		`meta[property="og:image:secure_url"]`,
		`meta[property="og:image"]`,
		`meta[property="og:image:url"]`,
		`meta[name="twitter:image"]`,
		`meta[name="twitter:image:src"]`,
	}
	for _, sel := range selectors {
		var found string
		doc.Find(sel).EachWithBreak(func(_ int, m *goquery.Selection) bool {
			content, _ := m.Attr("content")
			found = SanitizeImageURL(content, base)
			return found == ""
		})
		if found != "" {
			return found
		}
	}
	return ""
}
