package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const braveEndpoint = "https://api.search.brave.com/res/v1/web/search"

// Brave uses the Brave Search API, authenticated via X-Subscription-Token.
// The free tier allows one request per second, so concurrent callers sharing
// a provider are paced through a single gate.
type Brave struct {
	apiKey   string
	endpoint string
	client   *http.Client
	gate     chan struct{}
}

func NewBrave(apiKey string) *Brave {
	b := &Brave{
		apiKey: apiKey,
		client: &http.Client{Timeout: 15 * time.Second},
		gate:   make(chan struct{}, 1),
	}
	b.gate <- struct{}{}
	return b
}

// NewBraveWithClient is used by tests to point the provider at a fake server.
func NewBraveWithClient(apiKey, endpoint string, client *http.Client) *Brave {
	b := &Brave{apiKey: apiKey, endpoint: endpoint, client: client, gate: make(chan struct{}, 1)}
	b.gate <- struct{}{}
	return b
}

func (b *Brave) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if strings.TrimSpace(b.apiKey) == "" {
		return nil, fmt.Errorf("brave: API key is missing")
	}
	if maxResults <= 0 {
		maxResults = 5
	}

	select {
	case <-b.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() {
		// Release after a one second hold to stay under 1 req/s.
		time.AfterFunc(time.Second, func() { b.gate <- struct{}{} })
	}()

	endpoint := b.endpoint
	if endpoint == "" {
		endpoint = braveEndpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		endpoint+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brave http %d", resp.StatusCode)
	}

	var body struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("brave: decode response: %w", err)
	}

	results := make([]Result, 0, len(body.Web.Results))
	for _, r := range body.Web.Results {
		results = append(results, Result{Title: r.Title, URL: r.URL, Snippet: r.Description})
		if len(results) >= maxResults {
			break
		}
	}
	return filterExcluded(results), nil
}
