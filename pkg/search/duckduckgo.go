package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"
)

const ddgEndpoint = "https://lite.duckduckgo.com/lite/"

const browserUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ddgPace enforces a global 1 query per second limit across all DuckDuckGo
// instances and goroutines.
var ddgPace struct {
	mu   sync.Mutex
	last time.Time
}

// DuckDuckGo scrapes the DuckDuckGo lite HTML interface. It needs no API key
// and serves as the default provider.
type DuckDuckGo struct {
	endpoint string
	client   *http.Client
}

func NewDuckDuckGo() *DuckDuckGo {
	return &DuckDuckGo{client: &http.Client{Timeout: 15 * time.Second}}
}

// NewDuckDuckGoWithClient is used by tests to point the provider at a fake server.
func NewDuckDuckGoWithClient(endpoint string, client *http.Client) *DuckDuckGo {
	return &DuckDuckGo{endpoint: endpoint, client: client}
}

func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("duckduckgo: query is empty")
	}
	if maxResults <= 0 {
		maxResults = 5
	}

	ddgPace.mu.Lock()
	if wait := time.Until(ddgPace.last.Add(time.Second)); wait > 0 {
		ddgPace.mu.Unlock()
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		ddgPace.mu.Lock()
	}
	ddgPace.last = time.Now()
	ddgPace.mu.Unlock()

	endpoint := d.endpoint
	if endpoint == "" {
		endpoint = ddgEndpoint
	}

	form := url.Values{}
	form.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUA)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: read response: %w", err)
	}

	return filterExcluded(parseLiteResults(string(body), maxResults)), nil
}

var (
	ddgLinkRe    = regexp.MustCompile(`<a[^>]*class=['"]result-link['"][^>]*href=['"]([^'"]+)['"][^>]*>([^<]+)</a>|<a[^>]*href=['"]([^'"]+)['"][^>]*class=['"]result-link['"][^>]*>([^<]+)</a>`)
	ddgSnippetRe = regexp.MustCompile(`<td[^>]*class=['"]result-snippet['"][^>]*>([^<]+)</td>`)
)

// parseLiteResults extracts result links and snippets from the lite HTML
// page. A snippet belongs to a link only if it sits between that link and the
// next one, so rows without a snippet cell and skipped duplicate links cannot
// shift snippets onto the wrong result.
func parseLiteResults(html string, maxResults int) []Result {
	links := ddgLinkRe.FindAllStringSubmatchIndex(html, -1)
	snippets := ddgSnippetRe.FindAllStringSubmatchIndex(html, -1)

	var results []Result
	seen := make(map[string]bool)
	si := 0
	for li, m := range links {
		href, title := matchGroup(html, m, 1), matchGroup(html, m, 2)
		if href == "" {
			href, title = matchGroup(html, m, 3), matchGroup(html, m, 4)
		}
		href = strings.TrimSpace(href)
		title = decodeEntities(strings.TrimSpace(title))

		// Advance past snippets belonging to earlier (possibly skipped) links.
		for si < len(snippets) && snippets[si][0] < m[1] {
			si++
		}

		if href == "" || title == "" || seen[href] {
			continue
		}
		seen[href] = true

		nextLink := len(html)
		if li+1 < len(links) {
			nextLink = links[li+1][0]
		}

		snippet := ""
		if si < len(snippets) && snippets[si][0] < nextLink {
			snippet = decodeEntities(strings.TrimSpace(matchGroup(html, snippets[si], 1)))
			si++
		}

		results = append(results, Result{Title: title, URL: href, Snippet: snippet})
		if len(results) >= maxResults {
			break
		}
	}
	return results
}

// matchGroup returns the text of capture group g from a SubmatchIndex match,
// or "" when the group did not participate.
func matchGroup(s string, m []int, g int) string {
	if 2*g+1 >= len(m) || m[2*g] < 0 {
		return ""
	}
	return s[m[2*g]:m[2*g+1]]
}

func decodeEntities(s string) string {
	replacements := []struct{ from, to string }{
		{"&amp;", "&"}, {"&lt;", "<"}, {"&gt;", ">"},
		{"&quot;", "\""}, {"&#39;", "'"}, {"&nbsp;", " "},
	}
	for _, r := range replacements {
		s = strings.ReplaceAll(s, r.from, r.to)
	}
	return s
}
