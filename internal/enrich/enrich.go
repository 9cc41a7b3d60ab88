// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich fetches the full page content of top-ranked documents so
// downstream synthesis works from more than search snippets. Fetch failures
// degrade to the original snippet; enrichment never fails a run.
package enrich

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/meshintel/fit-engine/pkg/types"
)

// maxRedirects bounds redirect chains on a single fetch.
const maxRedirects = 10

// Enricher fetches and extracts page text for the top passing documents,
// bounded by a concurrency semaphore and backed by an LRU page cache.
type Enricher struct {
	client *http.Client
	cfg    types.EnrichConfig
	cache  *lru.Cache[string, string]
	logger *zap.Logger
}

// New builds an enricher. Zero-valued tunables fall back to the defaults in
// types.DefaultConfig.
func New(cfg types.EnrichConfig, logger *zap.Logger) (*Enricher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := types.DefaultConfig().Enrich
	if cfg.TopK <= 0 {
		cfg.TopK = def.TopK
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.MaxContentChars <= 0 {
		cfg.MaxContentChars = def.MaxContentChars
	}
	if cfg.MinContentChars <= 0 {
		cfg.MinContentChars = def.MinContentChars
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = def.CacheSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	cache, err := lru.New[string, string](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("enrich cache: %w", err)
	}

	return &Enricher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		cfg:    cfg,
		cache:  cache,
		logger: logger,
	}, nil
}

// Enrich fills Content on the first TopK documents, which the caller passes
// ordered best first. It returns a new slice; the input is not mutated. It
// never returns an error: a failed fetch produces a fallback entry carrying
// the document's snippet.
func (e *Enricher) Enrich(ctx context.Context, docs []types.CandidateDocument) []types.CandidateDocument {
	out := make([]types.CandidateDocument, len(docs))
	copy(out, docs)

	limit := e.cfg.TopK
	if limit > len(out) {
		limit = len(out)
	}

	sem := semaphore.NewWeighted(int64(e.cfg.Concurrency))
	var wg sync.WaitGroup

	for i := 0; i < limit; i++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context gone; the rest degrade to fallback entries.
			for j := i; j < limit; j++ {
				out[j].Content = out[j].Snippet
				out[j].FetchStatus = types.FetchFallback
			}
			break
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)

			content, err := e.fetch(ctx, out[i].URL)
			if err != nil {
				e.logger.Debug("enrichment fetch failed, using snippet",
					zap.String("url", out[i].URL), zap.Error(err))
				out[i].Content = out[i].Snippet
				out[i].FetchStatus = types.FetchFallback
				return
			}
			out[i].Content = content
			out[i].FetchStatus = types.FetchFull
		}(i)
	}
	wg.Wait()

	return out
}

// fetch returns extracted page text for a URL, serving from the cache when
// possible. Extractions shorter than MinContentChars count as failures.
func (e *Enricher) fetch(ctx context.Context, url string) (string, error) {
	if content, ok := e.cache.Get(url); ok {
		return content, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if e.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", e.cfg.UserAgent)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: HTTP %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", url, err)
	}

	content, err := e.extract(string(body))
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", url, err)
	}
	if len(content) < e.cfg.MinContentChars {
		return "", fmt.Errorf("extract %s: %d chars below minimum", url, len(content))
	}

	e.cache.Add(url, content)
	return content, nil
}

// extract converts an HTML page to plain text: noise elements removed,
// title, headings, paragraph blocks, and list items in document order.
func (e *Enricher) extract(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, nav, footer, header, aside, iframe").Remove()

	var b strings.Builder

	if title := strings.TrimSpace(doc.Find("title").Text()); title != "" {
		b.WriteString(title + "\n\n")
	}
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			b.WriteString(text + "\n\n")
		}
	})
	doc.Find("p, article, section").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); len(text) > 30 {
			b.WriteString(text + "\n\n")
		}
	})
	doc.Find("li").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			b.WriteString("- " + text + "\n")
		}
	})

	content := strings.TrimSpace(b.String())
	if len(content) > e.cfg.MaxContentChars {
		content = content[:e.cfg.MaxContentChars]
	}
	return content, nil
}
