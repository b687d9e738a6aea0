package postgres

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestLoadMigrations(t *testing.T) {
	t.Run("embedded migrations parse", func(t *testing.T) {
		migrations, err := loadMigrations(migrationsFS)
		require.NoError(t, err)
		require.NotEmpty(t, migrations)
		require.Equal(t, 1, migrations[0].version)
		require.Contains(t, migrations[0].sql, "CREATE TABLE organisations")
	})

	t.Run("sorted by numeric version", func(t *testing.T) {
		fsys := fstest.MapFS{
			"migrations/10_later.sql":  {Data: []byte("SELECT 10")},
			"migrations/2_second.sql":  {Data: []byte("SELECT 2")},
			"migrations/1_initial.sql": {Data: []byte("SELECT 1")},
			"migrations/README.md":     {Data: []byte("ignored")},
		}

		migrations, err := loadMigrations(fsys)
		require.NoError(t, err)
		require.Len(t, migrations, 3)
		require.Equal(t, []int{1, 2, 10}, []int{migrations[0].version, migrations[1].version, migrations[2].version})
	})

	t.Run("invalid version", func(t *testing.T) {
		fsys := fstest.MapFS{"migrations/abc_bad.sql": {Data: []byte("SELECT 1")}}
		_, err := loadMigrations(fsys)
		require.Error(t, err)
	})

	t.Run("duplicate version", func(t *testing.T) {
		fsys := fstest.MapFS{
			"migrations/1_a.sql": {Data: []byte("SELECT 1")},
			"migrations/1_b.sql": {Data: []byte("SELECT 1")},
		}
		_, err := loadMigrations(fsys)
		require.Error(t, err)
	})
}

func TestPoolConfig(t *testing.T) {
	cfg := &PoolConfig{ConnString: "postgres://localhost/ledenhub"}
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())
	require.Equal(t, int32(20), cfg.MaxConns)

	require.Error(t, (&PoolConfig{}).Validate())
	require.Error(t, (&PoolConfig{ConnString: "x", MinConns: 5, MaxConns: 1}).Validate())
}
