// Package fetch provides generic URL fetching with optional caching.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jonathan/autofill-agent/internal/storage"
)

// DefaultPageCacheTTL is how long a fetched page stays fresh. Application
// forms change rarely, but a day is short enough to pick up edits.
const DefaultPageCacheTTL = 24 * time.Hour

// pageCacheKeyPrefix namespaces cached pages in the key-value store.
const pageCacheKeyPrefix = "autofill:page_cache:"

// cachedPage is the JSON shape persisted per URL.
type cachedPage struct {
	URL        string    `json:"url"`
	HTML       string    `json:"html"`
	Text       string    `json:"text,omitempty"`
	StatusCode int       `json:"status_code"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// CachedFetcher wraps URL fetching with store-backed caching.
type CachedFetcher struct {
	kv        storage.Store
	options   *Options
	cacheTTL  time.Duration
	skipCache bool // For testing or forcing fresh fetches
}

// CachedFetcherConfig holds configuration for the cached fetcher.
type CachedFetcherConfig struct {
	CacheTTL  time.Duration
	SkipCache bool
	Options   *Options
}

// DefaultCachedFetcherConfig returns sensible defaults.
func DefaultCachedFetcherConfig() *CachedFetcherConfig {
	return &CachedFetcherConfig{
		CacheTTL:  DefaultPageCacheTTL,
		SkipCache: false,
		Options:   DefaultOptions(),
	}
}

// NewCachedFetcher creates a new cached fetcher.
func NewCachedFetcher(kv storage.Store, config *CachedFetcherConfig) *CachedFetcher {
	if config == nil {
		config = DefaultCachedFetcherConfig()
	}
	if config.Options == nil {
		config.Options = DefaultOptions()
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = DefaultPageCacheTTL
	}
	return &CachedFetcher{
		kv:        kv,
		options:   config.Options,
		cacheTTL:  config.CacheTTL,
		skipCache: config.SkipCache,
	}
}

// CachedResult extends Result with cache metadata.
type CachedResult struct {
	*Result
	FromCache bool // Whether this result came from cache
}

// Fetch retrieves a URL, using cache if available and fresh.
// Returns cached content if within TTL, otherwise fetches fresh content and caches it.
func (f *CachedFetcher) Fetch(ctx context.Context, urlStr string) (*CachedResult, error) {
	key := cacheKey(urlStr)

	// Try to get a fresh cached page
	if !f.skipCache && f.kv != nil {
		var page cachedPage
		found, err := storage.GetJSON(ctx, f.kv, key, &page)
		if err != nil {
			return nil, fmt.Errorf("failed to check cache: %w", err)
		}
		if found && time.Since(page.FetchedAt) < f.cacheTTL {
			return &CachedResult{
				Result: &Result{
					URL:        page.URL,
					HTML:       page.HTML,
					Text:       page.Text,
					StatusCode: page.StatusCode,
				},
				FromCache: true,
			}, nil
		}
	}

	// Fetch fresh content
	result, err := URL(ctx, urlStr, f.options)
	if err != nil {
		return nil, err
	}

	// Extract text from HTML
	text, _ := ExtractMainText(result.HTML, DefaultTextSelectors())
	result.Text = text

	// Store in cache
	if f.kv != nil {
		page := cachedPage{
			URL:        urlStr,
			HTML:       result.HTML,
			Text:       result.Text,
			StatusCode: result.StatusCode,
			FetchedAt:  time.Now(),
		}
		if err := f.kv.Set(ctx, key, page); err != nil {
			// The fetch succeeded, a write failure only costs the cache
			_ = err
		}
	}

	return &CachedResult{
		Result:    result,
		FromCache: false,
	}, nil
}

// FetchMultiple fetches multiple URLs with caching.
// Returns results in the same order as input URLs. Failed fetches are nil in the result slice.
func (f *CachedFetcher) FetchMultiple(ctx context.Context, urls []string) ([]*CachedResult, []error) {
	results := make([]*CachedResult, len(urls))
	errors := make([]error, len(urls))

	for i, url := range urls {
		result, err := f.Fetch(ctx, url)
		if err != nil {
			errors[i] = err
		} else {
			results[i] = result
		}
	}

	return results, errors
}

// InvalidateCache removes a cached page, forcing a re-fetch on next request.
func (f *CachedFetcher) InvalidateCache(ctx context.Context, urlStr string) error {
	if f.kv == nil {
		return nil
	}
	return f.kv.Remove(ctx, cacheKey(urlStr))
}

func cacheKey(urlStr string) string {
	sum := sha256.Sum256([]byte(urlStr))
	return pageCacheKeyPrefix + hex.EncodeToString(sum[:8])
}
