package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/autofill-agent/internal/storage"
)

func TestDefaultCachedFetcherConfig(t *testing.T) {
	config := DefaultCachedFetcherConfig()

	if config == nil {
		t.Fatal("DefaultCachedFetcherConfig returned nil")
	}

	if config.CacheTTL == 0 {
		t.Error("Expected non-zero CacheTTL")
	}

	if config.SkipCache != false {
		t.Error("Expected SkipCache to be false by default")
	}

	if config.Options == nil {
		t.Error("Expected Options to be non-nil")
	}
}

func TestNewCachedFetcher_NilConfig(t *testing.T) {
	fetcher := NewCachedFetcher(nil, nil)

	if fetcher == nil {
		t.Fatal("NewCachedFetcher returned nil")
	}

	if fetcher.cacheTTL == 0 {
		t.Error("Expected non-zero cacheTTL")
	}

	if fetcher.options == nil {
		t.Error("Expected non-nil options")
	}
}

func TestNewCachedFetcher_EmptyConfig(t *testing.T) {
	config := &CachedFetcherConfig{}
	fetcher := NewCachedFetcher(nil, config)

	if fetcher == nil {
		t.Fatal("NewCachedFetcher returned nil")
	}

	// Should use defaults for zero values
	if fetcher.cacheTTL == 0 {
		t.Error("Expected non-zero cacheTTL even with empty config")
	}

	if fetcher.options == nil {
		t.Error("Expected non-nil options even with empty config")
	}
}

func TestCachedFetcher_SecondFetchHitsCache(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><main>Application</main></body></html>`))
	}))
	defer server.Close()

	fetcher := NewCachedFetcher(storage.NewMemoryStore(), nil)

	first, err := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Contains(t, first.HTML, "Application")

	second, err := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.HTML, second.HTML)
	assert.Equal(t, int32(1), hits.Load())
}

func TestCachedFetcher_SkipCacheAlwaysFetches(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`<html><body>ok</body></html>`))
	}))
	defer server.Close()

	fetcher := NewCachedFetcher(storage.NewMemoryStore(), &CachedFetcherConfig{SkipCache: true})

	for i := 0; i < 2; i++ {
		result, err := fetcher.Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		assert.False(t, result.FromCache)
	}
	assert.Equal(t, int32(2), hits.Load())
}

func TestCachedFetcher_InvalidateForcesRefetch(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`<html><body>ok</body></html>`))
	}))
	defer server.Close()

	fetcher := NewCachedFetcher(storage.NewMemoryStore(), nil)

	_, err := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	require.NoError(t, fetcher.InvalidateCache(context.Background(), server.URL))

	result, err := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Equal(t, int32(2), hits.Load())
}

func TestCachedFetcher_FetchMultiple(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>ok</body></html>`))
	}))
	defer server.Close()

	fetcher := NewCachedFetcher(storage.NewMemoryStore(), nil)

	results, errs := fetcher.FetchMultiple(context.Background(), []string{server.URL, "not-a-valid-url"})
	require.Len(t, results, 2)
	require.Len(t, errs, 2)
	assert.NotNil(t, results[0])
	assert.NoError(t, errs[0])
	assert.Nil(t, results[1])
	assert.Error(t, errs[1])
}
