package es

import (
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
)

const (
	DefaultIndexName = "cre_articles"
	maxRetries       = 3
)

// ClientConfig addresses the cluster that backs the article search UI.
type ClientConfig struct {
	Addresses []string
	IndexName string
	Username  string
	Password  string
}

func newClient(config ClientConfig) (*elasticsearch.TypedClient, error) {
	cfg := elasticsearch.Config{
		Addresses:     config.Addresses,
		MaxRetries:    maxRetries,
		RetryOnStatus: []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusTooManyRequests},
	}

	if config.Username != "" && config.Password != "" {
		cfg.Username = config.Username
		cfg.Password = config.Password
	}

	return elasticsearch.NewTypedClient(cfg)
}
