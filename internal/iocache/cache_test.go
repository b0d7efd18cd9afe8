package iocache

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/SebSchroeter/masterthesis/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetGlobals lets a test initialize the global manager again.
func resetGlobals(t *testing.T) {
	t.Helper()
	initOnce = sync.Once{}
	closeOnce = sync.Once{}
	Manager.Lock()
	Manager.reconstruction, Manager.analysis = nil, nil
	Manager.Unlock()
}

func TestInitStores(t *testing.T) {
	t.Run("sqlite files", func(t *testing.T) {
		resetGlobals(t)
		dir := t.TempDir()
		cachePath := filepath.Join(dir, "cache.db")
		analysisPath := filepath.Join(dir, "analysis.db")

		require.NoError(t, InitStores(schema.SQLiteBackend, cachePath, schema.SQLiteBackend, analysisPath))
		assert.NotNil(t, Manager.GetReconstructionStore())
		assert.NotNil(t, Manager.GetAnalysisStore())
		CloseStores()

		for _, p := range []string{cachePath, analysisPath} {
			_, err := os.Stat(p)
			assert.NoError(t, err, "database file %s should exist", p)
		}
	})

	t.Run("idempotent setup", func(t *testing.T) {
		resetGlobals(t)
		path := filepath.Join(t.TempDir(), "cache.db")

		// Multiple initializations should be safe (sync.Once)
		assert.NoError(t, InitStores(schema.SQLiteBackend, path, "", ""))
		assert.NoError(t, InitStores(schema.MySQLBackend, "bad", "", ""))
		assert.Nil(t, Manager.GetAnalysisStore())

		// Multiple closes should be safe (sync.Once)
		CloseStores()
		CloseStores()
	})

	t.Run("none backend", func(t *testing.T) {
		resetGlobals(t)
		require.NoError(t, InitStores(schema.NoneBackend, "", schema.NoneBackend, ""))
		store := Manager.GetReconstructionStore()
		require.NotNil(t, store)
		assert.NoError(t, store.Set("k", []byte("v"), 1, 1))
		_, _, _, err := store.Get("k")
		assert.ErrorIs(t, err, sql.ErrNoRows)
		CloseStores()
	})

	t.Run("invalid backend", func(t *testing.T) {
		resetGlobals(t)
		err := InitStores("oracle", "", "", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported cache backend")
	})

	t.Run("analysis failure closes cache store", func(t *testing.T) {
		resetGlobals(t)
		err := InitStores(schema.SQLiteBackend, ":memory:", schema.RedisBackend, "redis://localhost:1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to initialize analysis store")
		assert.Nil(t, Manager.GetReconstructionStore())
	})
}

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name    string
		table   string
		wantErr bool
	}{
		{"simple", "wvg_reconstruction_cache", false},
		{"leading underscore", "_cache", false},
		{"digits", "cache2", false},
		{"empty", "", true},
		{"leading digit", "2cache", true},
		{"dash", "wvg-cache", true},
		{"injection", "cache; DROP TABLE users", true},
		{"quote", `cache"`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.table)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, `"t"`, quoteTableName("t", schema.SQLiteBackend))
	assert.Equal(t, `"t"`, quoteTableName("t", schema.PostgreSQLBackend))
	assert.Equal(t, "`t`", quoteTableName("t", schema.MySQLBackend))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?, ?, ?", placeholders(schema.SQLiteBackend, 3))
	assert.Equal(t, "?, ?", placeholders(schema.MySQLBackend, 2))
	assert.Equal(t, "$1, $2, $3", placeholders(schema.PostgreSQLBackend, 3))
	assert.Equal(t, "$4", placeholder(schema.PostgreSQLBackend, 4))
}

func TestDriverFor(t *testing.T) {
	tests := map[schema.DatabaseBackend]string{
		schema.SQLiteBackend:     "sqlite",
		schema.MySQLBackend:      "mysql",
		schema.PostgreSQLBackend: "pgx",
	}
	for backend, want := range tests {
		got, err := driverFor(backend)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := driverFor(schema.RedisBackend)
	assert.Error(t, err)
}

func TestSQLiteBackendOperations(t *testing.T) {
	t.Run("set and get operations", func(t *testing.T) {
		store, err := NewCacheStore("test_table", schema.SQLiteBackend, ":memory:")
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		require.NoError(t, store.Set("key", []byte(`{"weights":[2,1,1]}`), 1, 1234567890))

		value, version, timestamp, err := store.Get("key")
		require.NoError(t, err)
		assert.JSONEq(t, `{"weights":[2,1,1]}`, string(value))
		assert.Equal(t, 1, version)
		assert.Equal(t, int64(1234567890), timestamp)
	})

	t.Run("upsert behavior", func(t *testing.T) {
		store, err := NewCacheStore("test_table", schema.SQLiteBackend, ":memory:")
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		require.NoError(t, store.Set("upsert_key", []byte("initial"), 1, 1000))
		require.NoError(t, store.Set("upsert_key", []byte("updated"), 2, 2000))

		value, version, timestamp, err := store.Get("upsert_key")
		require.NoError(t, err)
		assert.Equal(t, "updated", string(value))
		assert.Equal(t, 2, version)
		assert.Equal(t, int64(2000), timestamp)
	})

	t.Run("get non-existent key", func(t *testing.T) {
		store, err := NewCacheStore("test_table", schema.SQLiteBackend, ":memory:")
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		_, _, _, err = store.Get("missing")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("survives reopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cache.db")
		store, err := NewCacheStore(reconstructionTable, schema.SQLiteBackend, path)
		require.NoError(t, err)
		require.NoError(t, store.Set("k", []byte("v"), 3, 42))
		require.NoError(t, store.Close())

		store, err = NewCacheStore(reconstructionTable, schema.SQLiteBackend, path)
		require.NoError(t, err)
		defer func() { _ = store.Close() }()
		value, version, _, err := store.Get("k")
		require.NoError(t, err)
		assert.Equal(t, "v", string(value))
		assert.Equal(t, 3, version)
	})
}

func TestGetUpsertQuery(t *testing.T) {
	tests := []struct {
		backend schema.DatabaseBackend
		want    string
	}{
		{schema.SQLiteBackend, "INSERT OR REPLACE"},
		{schema.MySQLBackend, "ON DUPLICATE KEY UPDATE"},
		{schema.PostgreSQLBackend, "ON CONFLICT (cache_key)"},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			ps := &CacheStoreImpl{tableName: reconstructionTable, backend: tt.backend}
			query := ps.getUpsertQuery()
			assert.Contains(t, query, tt.want)
			assert.Contains(t, query, quoteTableName(reconstructionTable, tt.backend))
		})
	}
}

func TestGetCreateTableQuery(t *testing.T) {
	tests := []struct {
		backend schema.DatabaseBackend
		want    string
	}{
		{schema.SQLiteBackend, "cache_value BLOB"},
		{schema.MySQLBackend, "cache_value MEDIUMBLOB"},
		{schema.PostgreSQLBackend, "cache_value BYTEA"},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			query := getCreateTableQuery(reconstructionTable, tt.backend)
			assert.True(t, strings.Contains(query, "CREATE TABLE IF NOT EXISTS"))
			assert.Contains(t, query, tt.want)
		})
	}
}

func TestNewCacheStoreErrors(t *testing.T) {
	_, err := NewCacheStore("bad-name", schema.SQLiteBackend, ":memory:")
	assert.Error(t, err)

	_, err = NewCacheStore(reconstructionTable, "oracle", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported cache backend")

	_, err = NewCacheStore(reconstructionTable, schema.RedisBackend, "not a url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid Redis URL")
}

func TestCacheStoreGetStatus(t *testing.T) {
	t.Run("none backend", func(t *testing.T) {
		store, err := NewCacheStore(reconstructionTable, schema.NoneBackend, "")
		require.NoError(t, err)
		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.Equal(t, "none", status.Backend)
		assert.False(t, status.Connected)
	})

	t.Run("empty sqlite", func(t *testing.T) {
		store, err := NewCacheStore(reconstructionTable, schema.SQLiteBackend, ":memory:")
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.True(t, status.Connected)
		assert.Zero(t, status.TotalEntries)
		assert.True(t, status.LastEntryTime.IsZero())
	})

	t.Run("populated sqlite", func(t *testing.T) {
		store, err := NewCacheStore(reconstructionTable, schema.SQLiteBackend, ":memory:")
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		require.NoError(t, store.Set("a", []byte("1"), 1, 1000))
		require.NoError(t, store.Set("b", []byte("2"), 1, 3000))
		require.NoError(t, store.Set("c", []byte("3"), 1, 2000))

		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.Equal(t, "sqlite", status.Backend)
		assert.Equal(t, 3, status.TotalEntries)
		assert.Equal(t, int64(1000), status.OldestEntryTime.Unix())
		assert.Equal(t, int64(3000), status.LastEntryTime.Unix())
		assert.Greater(t, status.TableSizeBytes, int64(0))
	})
}

func TestClearCache(t *testing.T) {
	t.Run("sqlite removes file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cache.db")
		store, err := NewCacheStore(reconstructionTable, schema.SQLiteBackend, path)
		require.NoError(t, err)
		require.NoError(t, store.Close())

		require.NoError(t, ClearCache(schema.SQLiteBackend, path, ""))
		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("sqlite missing file is fine", func(t *testing.T) {
		assert.NoError(t, ClearCache(schema.SQLiteBackend, filepath.Join(t.TempDir(), "nope.db"), ""))
	})

	t.Run("sqlite requires path", func(t *testing.T) {
		assert.Error(t, ClearCache(schema.SQLiteBackend, "", ""))
	})

	t.Run("none backend", func(t *testing.T) {
		assert.NoError(t, ClearCache(schema.NoneBackend, "", ""))
		assert.NoError(t, ClearAnalysis(schema.NoneBackend, "", ""))
	})

	t.Run("unsupported backend", func(t *testing.T) {
		assert.Error(t, ClearCache("oracle", "", ""))
		assert.Error(t, ClearAnalysis(schema.RedisBackend, "", ""))
	})
}

func TestCacheStoreManagerConcurrency(t *testing.T) {
	store, err := NewCacheStore(reconstructionTable, schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	mgr := &CacheStoreManager{reconstruction: store}

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := mgr.GetReconstructionStore()
			key := string(rune('a' + i))
			assert.NoError(t, s.Set(key, []byte(key), 1, int64(i)))
			_, _, _, err := s.Get(key)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 8, status.TotalEntries)
}
