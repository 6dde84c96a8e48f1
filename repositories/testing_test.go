package repositories

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

// openTestDB opens a throwaway badger instance under the test's temp dir.
func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	opts := badger.DefaultOptions(t.TempDir()).WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func openTestIndex(t *testing.T) *bluge.Writer {
	t.Helper()
	cfg := bluge.DefaultConfig(filepath.Join(t.TempDir(), "bluge"))
	writer, err := bluge.OpenWriter(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	return writer
}

func testLogger() *slog.Logger { return slog.Default() }
