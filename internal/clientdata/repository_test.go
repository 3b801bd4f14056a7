package clientdata

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedQuote struct {
	Current       string `msgpack:"current"`
	PreviousClose string `msgpack:"previous_close"`
}

func newTestCacheDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE quotes (symbol TEXT PRIMARY KEY, data BLOB NOT NULL, expires_at INTEGER NOT NULL);
		CREATE TABLE daily_series (symbol TEXT PRIMARY KEY, data BLOB NOT NULL, expires_at INTEGER NOT NULL);
	`)
	require.NoError(t, err)

	return db
}

func TestStoreAndGetIfFresh(t *testing.T) {
	repo := NewRepository(newTestCacheDB(t))

	in := cachedQuote{Current: "150.25", PreviousClose: "148.90"}
	require.NoError(t, repo.Store("quotes", "AAPL", in, time.Minute))

	var out cachedQuote
	found, err := repo.GetIfFresh("quotes", "AAPL", &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, in, out)
}

func TestGetIfFresh_MissReturnsFalse(t *testing.T) {
	repo := NewRepository(newTestCacheDB(t))

	var out cachedQuote
	found, err := repo.GetIfFresh("quotes", "MSFT", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetIfFresh_ExpiredEntryIsSkippedButGetReturnsIt(t *testing.T) {
	repo := NewRepository(newTestCacheDB(t))

	in := cachedQuote{Current: "99.00", PreviousClose: "101.00"}
	require.NoError(t, repo.Store("quotes", "TSLA", in, -time.Minute))

	var out cachedQuote
	found, err := repo.GetIfFresh("quotes", "TSLA", &out)
	require.NoError(t, err)
	assert.False(t, found, "expired entries must not count as fresh")

	found, err = repo.Get("quotes", "TSLA", &out)
	require.NoError(t, err)
	require.True(t, found, "stale fallback should still find the entry")
	assert.Equal(t, in, out)
}

func TestDeleteAllExpired(t *testing.T) {
	repo := NewRepository(newTestCacheDB(t))

	require.NoError(t, repo.Store("quotes", "OLD", cachedQuote{}, -time.Hour))
	require.NoError(t, repo.Store("quotes", "NEW", cachedQuote{}, time.Hour))

	results, err := repo.DeleteAllExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), results["quotes"])

	var out cachedQuote
	found, err := repo.Get("quotes", "NEW", &out)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestValidateTableRejectsUnknownNames(t *testing.T) {
	repo := NewRepository(newTestCacheDB(t))
	err := repo.Store("users; DROP TABLE quotes", "x", cachedQuote{}, time.Minute)
	assert.Error(t, err)
}
