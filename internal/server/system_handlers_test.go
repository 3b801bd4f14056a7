package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthdesk/wealthdesk/internal/database"
	"github.com/wealthdesk/wealthdesk/internal/events"
)

type fakeOracleStatus struct{ remaining int }

func (f *fakeOracleStatus) GetRemainingRequests() int { return f.remaining }

func setupSystemHandlers(t *testing.T) *SystemHandlers {
	t.Helper()

	dir := t.TempDir()
	mainDB, err := database.New(database.Config{
		Path:    filepath.Join(dir, "main.db"),
		Profile: database.ProfileLedger,
		Name:    "main",
	})
	require.NoError(t, err)
	t.Cleanup(func() { mainDB.Close() })
	require.NoError(t, mainDB.Migrate())

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(dir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	require.NoError(t, err)
	t.Cleanup(func() { cacheDB.Close() })
	require.NoError(t, cacheDB.Migrate())

	return NewSystemHandlers(mainDB, cacheDB, &fakeOracleStatus{remaining: 17}, zerolog.Nop())
}

func TestHandleSystemStatus(t *testing.T) {
	h := setupSystemHandlers(t)

	r := chi.NewRouter()
	h.RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/system/status", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})

	assert.Equal(t, "ok", data["status"])
	oracle := data["oracle"].(map[string]interface{})
	assert.Equal(t, float64(17), oracle["remaining_requests"])
}

func TestHandleDatabaseStats(t *testing.T) {
	h := setupSystemHandlers(t)

	r := chi.NewRouter()
	h.RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/system/database-stats", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})

	main := data["main"].(map[string]interface{})
	assert.Contains(t, main, "portfolios")
	assert.Contains(t, main, "transactions")

	cache := data["cache"].(map[string]interface{})
	assert.Contains(t, cache, "quotes")
}

func TestParseTypesFilter(t *testing.T) {
	assert.Nil(t, parseTypesFilter(""))

	allowed := parseTypesFilter("trade_executed, portfolio_changed")
	assert.True(t, allowed[events.TradeExecuted])
	assert.True(t, allowed[events.PortfolioChanged])
	assert.False(t, allowed[events.PricesRefreshed])
}
