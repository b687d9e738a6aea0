package client

import (
	"time"
)

// Config holds configuration for outbound HTTP clients, currently only the JWKS fetcher.
type Config struct {
	Timeout time.Duration

	// CacheDir enables a disk backed HTTP cache; empty keeps responses in memory.
	CacheDir string

	// Tracing wraps the transport with otelhttp so JWKS fetches show up in traces.
	Tracing bool
}

// DefaultConfig returns a default client configuration
func DefaultConfig() Config {
	return Config{
		Timeout: 10 * time.Second,
	}
}
