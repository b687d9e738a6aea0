package client

import (
	"net/http"

	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewCachingHTTPClient creates an HTTP client that honours Cache-Control on responses,
// so identity provider JWKS documents are only refetched when they expire.
func NewCachingHTTPClient(cfg Config) *http.Client {
	var cache httpcache.Cache
	if cfg.CacheDir == "" {
		cache = httpcache.NewMemoryCache()
	} else {
		// persists across restarts
		cache = diskcache.New(cfg.CacheDir)
	}

	var transport http.RoundTripper = httpcache.NewTransport(cache)
	if cfg.Tracing {
		transport = otelhttp.NewTransport(transport)
	}

	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}
}

// NewInMemoryCachingHTTPClient creates an HTTP client with in-memory caching only.
func NewInMemoryCachingHTTPClient() *http.Client {
	return NewCachingHTTPClient(DefaultConfig())
}
