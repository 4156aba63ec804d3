package feed

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

const userAgent = "news-digest/1.0 (+feed collector)"

// Fetcher retrieves and parses one syndication feed.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*gofeed.Feed, error)
}

type GofeedFetcher struct {
	parser *gofeed.Parser
}

func NewGofeedFetcher(client *http.Client) *GofeedFetcher {
	if client == nil {
		client = NewHTTPClient(15 * time.Second)
	}
	p := gofeed.NewParser()
	p.Client = client
	p.UserAgent = userAgent
	return &GofeedFetcher{parser: p}
}

func (f *GofeedFetcher) Fetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	feed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	return feed, nil
}

// NewHTTPClient returns a client with short dial and overall timeouts for external hosts.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
