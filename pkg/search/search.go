package search

import (
	"context"
	"strings"
)

// Result is a single ranked web search hit. Rank is implicit in slice order.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Provider returns ranked results for a query. Implementations wrap an
// external search API and own their retry/rate-limit policy.
type Provider interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// excludedDomains are filtered from every provider's results.
var excludedDomains = []string{"facebook.com", "twitter.com"}

func filterExcluded(results []Result) []Result {
	filtered := results[:0]
	for _, r := range results {
		excluded := false
		for _, domain := range excludedDomains {
			if strings.Contains(r.URL, domain) {
				excluded = true
				break
			}
		}
		if !excluded {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
