package client

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewCachingHTTPClient(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Cache-Control", "public, max-age=300")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"keys":[]}`))
	}))
	defer srv.Close()

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "memory", cfg: DefaultConfig()},
		{name: "disk", cfg: Config{CacheDir: t.TempDir()}},
		{name: "traced", cfg: Config{Tracing: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits.Store(0)
			c := NewCachingHTTPClient(tt.cfg)

			for range 3 {
				resp, err := c.Get(srv.URL + "/.well-known/jwks.json")
				require.NoError(t, err)
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				require.NoError(t, resp.Body.Close())
				require.JSONEq(t, `{"keys":[]}`, string(body))
			}

			require.Equal(t, int32(1), hits.Load())
		})
	}
}
