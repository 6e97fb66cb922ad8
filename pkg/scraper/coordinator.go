package scraper

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mikeboe/research-agent/pkg/splitter"
	"github.com/mikeboe/research-agent/pkg/vectorstore"
)

// Target names a URL to scrape together with the title it was found under.
type Target struct {
	URL   string
	Title string
}

// Coordinator fans the fetcher out over a set of URLs with bounded
// parallelism. Per-URL failures cost their chunks and nothing else.
type Coordinator struct {
	fetcher     Fetcher
	splitter    *splitter.TextSplitter
	concurrency int
	logger      *slog.Logger
}

func NewCoordinator(fetcher Fetcher, ts *splitter.TextSplitter, concurrency int, logger *slog.Logger) *Coordinator {
	if concurrency <= 0 {
		concurrency = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		fetcher:     fetcher,
		splitter:    ts,
		concurrency: concurrency,
		logger:      logger,
	}
}

// ScrapeAll fetches and chunks every target concurrently, capped at the
// configured concurrency limit. The aggregate is a set union; chunk order
// across URLs is not defined.
func (c *Coordinator) ScrapeAll(ctx context.Context, targets []Target) []vectorstore.Chunk {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		allChunks []vectorstore.Chunk
	)

	semaphore := make(chan struct{}, c.concurrency)
	seen := make(map[string]bool)

	for _, target := range targets {
		if target.URL == "" || seen[target.URL] {
			continue
		}
		seen[target.URL] = true

		wg.Add(1)
		go func(t Target) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-ctx.Done():
				return
			}

			chunks, err := c.scrapeOne(ctx, t)
			if err != nil {
				c.logger.Warn("Failed to scrape URL", "url", t.URL, "error", err)
				return
			}

			mu.Lock()
			allChunks = append(allChunks, chunks...)
			mu.Unlock()
		}(target)
	}

	wg.Wait()
	c.logger.Info("Scraping complete", "urls", len(seen), "chunks", len(allChunks))
	return allChunks
}

func (c *Coordinator) scrapeOne(ctx context.Context, t Target) ([]vectorstore.Chunk, error) {
	text, err := c.fetcher.Fetch(ctx, t.URL)
	if err != nil {
		return nil, err
	}
	return c.splitter.SplitIntoChunks(text, t.URL, t.Title)
}
