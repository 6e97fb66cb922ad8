package scraper

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mikeboe/research-agent/pkg/splitter"
)

// stubFetcher returns canned text per URL and fails for URLs in failing.
type stubFetcher struct {
	mu       sync.Mutex
	failing  map[string]bool
	delay    time.Duration
	inFlight int32
	maxSeen  int32
}

func (f *stubFetcher) Fetch(ctx context.Context, url string) (string, error) {
	current := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)

	f.mu.Lock()
	if current > f.maxSeen {
		f.maxSeen = current
	}
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if f.failing[url] {
		return "", fmt.Errorf("simulated fetch failure for %s", url)
	}
	return strings.Repeat("Content from "+url+". ", 10), nil
}

func newTestCoordinator(f Fetcher, concurrency int) *Coordinator {
	return NewCoordinator(f, splitter.NewRecursiveCharacterTextSplitter(500, 50), concurrency, nil)
}

func TestScrapeAllPartialFailure(t *testing.T) {
	fetcher := &stubFetcher{failing: map[string]bool{
		"https://bad1.example.com": true,
		"https://bad2.example.com": true,
	}}
	coord := newTestCoordinator(fetcher, 3)

	targets := []Target{
		{URL: "https://ok1.example.com", Title: "One"},
		{URL: "https://bad1.example.com", Title: "Two"},
		{URL: "https://ok2.example.com", Title: "Three"},
		{URL: "https://bad2.example.com", Title: "Four"},
		{URL: "https://ok3.example.com", Title: "Five"},
	}

	chunks := coord.ScrapeAll(context.Background(), targets)
	if len(chunks) == 0 {
		t.Fatal("expected chunks from surviving URLs")
	}

	sources := make(map[string]bool)
	for _, c := range chunks {
		sources[c.Source] = true
	}
	if len(sources) != 3 {
		t.Errorf("expected chunks from exactly 3 sources, got %d: %v", len(sources), sources)
	}
	if sources["https://bad1.example.com"] || sources["https://bad2.example.com"] {
		t.Error("chunks present from failing URLs")
	}
}

func TestScrapeAllConcurrencyBounded(t *testing.T) {
	fetcher := &stubFetcher{delay: 20 * time.Millisecond}
	coord := newTestCoordinator(fetcher, 2)

	var targets []Target
	for i := 0; i < 8; i++ {
		targets = append(targets, Target{URL: fmt.Sprintf("https://site%d.example.com", i)})
	}

	coord.ScrapeAll(context.Background(), targets)

	fetcher.mu.Lock()
	maxSeen := fetcher.maxSeen
	fetcher.mu.Unlock()
	if maxSeen > 2 {
		t.Errorf("concurrency limit exceeded: %d fetches in flight", maxSeen)
	}
}

func TestScrapeAllDeduplicatesURLs(t *testing.T) {
	fetcher := &stubFetcher{}
	coord := newTestCoordinator(fetcher, 3)

	chunks := coord.ScrapeAll(context.Background(), []Target{
		{URL: "https://dup.example.com"},
		{URL: "https://dup.example.com"},
		{URL: ""},
	})

	sources := make(map[string]bool)
	for _, c := range chunks {
		sources[c.Source] = true
	}
	if len(sources) != 1 {
		t.Errorf("expected a single deduplicated source, got %v", sources)
	}
}

func TestScrapeAllCancellation(t *testing.T) {
	fetcher := &stubFetcher{delay: 500 * time.Millisecond}
	coord := newTestCoordinator(fetcher, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	chunks := coord.ScrapeAll(ctx, []Target{
		{URL: "https://slow1.example.com"},
		{URL: "https://slow2.example.com"},
		{URL: "https://slow3.example.com"},
	})
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancellation did not abort promptly, took %v", elapsed)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks after cancellation, got %d", len(chunks))
	}
}

func TestHTMLToText(t *testing.T) {
	html := `<html><head><style>body {color: red}</style><script>alert(1)</script></head>
	<body><nav>Menu</nav><h1>Title</h1><p>First &amp; second paragraph.</p><footer>Legal</footer></body></html>`

	text := htmlToText(html)
	if strings.Contains(text, "alert") || strings.Contains(text, "color: red") {
		t.Errorf("script/style content leaked: %q", text)
	}
	if strings.Contains(text, "Menu") || strings.Contains(text, "Legal") {
		t.Errorf("page chrome leaked: %q", text)
	}
	if !strings.Contains(text, "First & second paragraph.") {
		t.Errorf("content or entities mangled: %q", text)
	}
}
