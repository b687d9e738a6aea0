package gate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllowList_Allows(t *testing.T) {
	allow := DefaultAllowList()

	tests := []struct {
		path    string
		allowed bool
	}{
		{path: "/api/subscription/start", allowed: true},
		{path: "/api/subscription/start/", allowed: true},
		{path: "/api/subscription/start/now", allowed: false},
		{path: "/api/subscription", allowed: false},
		{path: "/api/payment-connection", allowed: true},
		{path: "/api/payment-connection/mandate", allowed: true},
		{path: "/api/payment-connection/", allowed: true},
		{path: "/api/payment-connectionsexport", allowed: false},
		{path: "/api/payment-connections/mandate", allowed: false},
		{path: "/api/members", allowed: false},
		{path: "/", allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			require.Equal(t, tt.allowed, allow.Allows(tt.path))
		})
	}

	require.False(t, AllowList{}.Allows("/api/subscription/start"))

	t.Run("prefix with trailing slash", func(t *testing.T) {
		list := AllowList{Prefixes: []string{"/api/payment-connection/"}}
		require.True(t, list.Allows("/api/payment-connection"))
		require.True(t, list.Allows("/api/payment-connection/mandate"))
		require.False(t, list.Allows("/api/payment-connectionsexport"))
	})
}

func TestLoadAllowList(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "allow.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
exact:
  - /api/subscription/start
  - /api/invoices/pay
prefixes:
  - /api/payment-connection
`), 0o600))

		list, err := LoadAllowList(path)
		require.NoError(t, err)
		require.True(t, list.Allows("/api/invoices/pay"))
		require.True(t, list.Allows("/api/payment-connection/x"))
	})

	t.Run("empty file allows nothing", func(t *testing.T) {
		list, err := ParseAllowList(nil)
		require.NoError(t, err)
		require.Empty(t, list.Exact)
		require.False(t, list.Allows("/api/subscription/start"))
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := ParseAllowList([]byte("exakt:\n  - /api/x\n"))
		require.Error(t, err)
	})

	t.Run("relative path", func(t *testing.T) {
		_, err := ParseAllowList([]byte("prefixes:\n  - api/x\n"))
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadAllowList(filepath.Join(dir, "missing.yaml"))
		require.Error(t, err)
	})
}
