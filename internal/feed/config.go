package feed

import (
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/crehub/news-digest/internal/domain"
	"gopkg.in/yaml.v3"
)

// FeedList is the YAML document listing the feeds a run collects.
type FeedList struct {
	Kind    string              `yaml:"kind"`
	Version string              `yaml:"version"`
	Feeds   []domain.FeedSource `yaml:"feeds"`
}

func (fl *FeedList) Validate() error {
	if fl.Kind != "FeedList" {
		return fmt.Errorf("kind must be FeedList, got %q", fl.Kind)
	}
	if fl.Version == "" {
		return fmt.Errorf("version is required")
	}
	if len(fl.Feeds) == 0 {
		return fmt.Errorf("at least one feed is required")
	}
	seen := make(map[string]struct{}, len(fl.Feeds))
	for i, f := range fl.Feeds {
		if f.SourceID == "" {
			return fmt.Errorf("feeds[%d] must have sourceId defined", i)
		}
		if _, dup := seen[f.SourceID]; dup {
			return fmt.Errorf("feeds[%d] duplicates sourceId %q", i, f.SourceID)
		}
		seen[f.SourceID] = struct{}{}
		u, err := url.Parse(f.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("feeds[%d] has invalid url %q", i, f.URL)
		}
	}
	return nil
}

type YAMLFeedLoader struct {
	reader io.Reader
}

func NewYAMLFeedLoader(reader io.Reader) *YAMLFeedLoader {
	return &YAMLFeedLoader{
		reader: reader,
	}
}

func (l *YAMLFeedLoader) Load() ([]domain.FeedSource, error) {
	decoder := yaml.NewDecoder(l.reader)
	var list FeedList
	if err := decoder.Decode(&list); err != nil {
		return nil, err
	}
	if err := list.Validate(); err != nil {
		return nil, err
	}
	for i := range list.Feeds {
		if list.Feeds[i].Name == "" {
			list.Feeds[i].Name = list.Feeds[i].SourceID
		}
	}
	return list.Feeds, nil
}

// LoadFeedsFile reads a FeedList from disk.
func LoadFeedsFile(path string) ([]domain.FeedSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feeds config: %w", err)
	}
	defer f.Close()
	return NewYAMLFeedLoader(f).Load()
}
