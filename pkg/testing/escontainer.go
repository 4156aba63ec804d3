package testing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/crehub/news-digest/internal/storage/es"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/elasticsearch"
	"github.com/testcontainers/testcontainers-go/wait"
)

const esImage = "docker.elastic.co/elasticsearch/elasticsearch:8.19.0"

// ESContainer is a single-node Elasticsearch reachable over plain HTTP.
type ESContainer struct {
	Container testcontainers.Container
	Address   string
}

// NewESContainer starts Elasticsearch and terminates it when tb finishes.
func NewESContainer(ctx context.Context, tb testing.TB) *ESContainer {
	tb.Helper()

	container, err := elasticsearch.Run(ctx, esImage,
		elasticsearch.WithPassword(""),
		testcontainers.WithEnv(map[string]string{"ES_JAVA_OPTS": "-Xms512m -Xmx512m"}),
		testcontainers.WithWaitStrategy(
			wait.ForHTTP("/").
				WithPort("9200").
				WithStartupTimeout(90*time.Second),
		),
	)
	if err != nil {
		tb.Fatalf("failed to start elasticsearch container: %v", err)
	}

	tb.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			tb.Logf("failed to terminate elasticsearch container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		tb.Fatalf("failed to get elasticsearch host: %v", err)
	}
	port, err := container.MappedPort(ctx, "9200")
	if err != nil {
		tb.Fatalf("failed to get elasticsearch port: %v", err)
	}

	return &ESContainer{
		Container: container,
		Address:   fmt.Sprintf("http://%s:%s", host, port.Port()),
	}
}

// ClientConfig points an indexer at the container.
func (c *ESContainer) ClientConfig(indexName string) es.ClientConfig {
	return es.ClientConfig{Addresses: []string{c.Address}, IndexName: indexName}
}
