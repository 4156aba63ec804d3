package schedule

import (
	"sort"
	"strings"

	"github.com/crehub/news-digest/internal/domain"
)

const DefaultDigestLimit = 10

// BuildDigest selects the articles for one subscriber: those whose counties or cities
// intersect the subscriber's selection, newest first, trimmed to limit.
// An empty selection applies no geographic filter.
func BuildDigest(sub domain.Subscriber, articles []domain.Article, limit int) []domain.Article {
	if limit <= 0 {
		limit = DefaultDigestLimit
	}
	filter := newGeoFilter(sub)

	out := make([]domain.Article, 0, min(limit, len(articles)))
	for _, a := range articles {
		if !a.IsCategorized || !a.IsRelevant {
			continue
		}
		if filter.matches(a) {
			out = append(out, a)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

type geoFilter struct {
	counties map[string]struct{}
	cities   map[string]struct{}
}

func newGeoFilter(sub domain.Subscriber) geoFilter {
	f := geoFilter{
		counties: make(map[string]struct{}),
		cities:   make(map[string]struct{}),
	}
	for _, c := range sub.SelectedCounties {
		if k := key(c); k != "" && k != key(domain.OtherCounty) {
			f.counties[k] = struct{}{}
		}
	}
	for _, c := range sub.SelectedCities {
		if k := key(c.Name); k != "" {
			f.cities[k] = struct{}{}
		}
	}
	return f
}

func (f geoFilter) matches(a domain.Article) bool {
	if len(f.counties) == 0 && len(f.cities) == 0 {
		return true
	}
	return intersects(f.counties, a.Counties) || intersects(f.cities, a.Cities)
}

func intersects(set map[string]struct{}, values []string) bool {
	for _, v := range values {
		if _, ok := set[key(v)]; ok {
			return true
		}
	}
	return false
}

func key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
