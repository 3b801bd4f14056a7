package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/wealthdesk/wealthdesk/internal/database"
)

// mainTables are the tables reported in the status endpoint's row counts
var mainTables = []string{"users", "portfolios", "holdings", "transactions", "risk_assessments"}
var cacheTables = []string{"quotes", "daily_series"}

// oracleStatus reports the upstream market data budget
type oracleStatus interface {
	GetRemainingRequests() int
}

// SystemHandlers serves operational status endpoints
type SystemHandlers struct {
	mainDB    *database.DB
	cacheDB   *database.DB
	oracle    oracleStatus
	startedAt time.Time
	log       zerolog.Logger
}

// NewSystemHandlers creates new system handlers
func NewSystemHandlers(mainDB, cacheDB *database.DB, oracle oracleStatus, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		mainDB:    mainDB,
		cacheDB:   cacheDB,
		oracle:    oracle,
		startedAt: time.Now(),
		log:       log.With().Str("handler", "system").Logger(),
	}
}

// RegisterRoutes registers the system routes
func (h *SystemHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/system", func(r chi.Router) {
		r.Get("/status", h.HandleSystemStatus)
		r.Get("/database-stats", h.HandleDatabaseStats)
	})
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPct, memPct := h.systemStats()

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"status":         "ok",
			"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
			"goroutines":     runtime.NumGoroutine(),
			"cpu_percent":    cpuPct,
			"memory_percent": memPct,
			"oracle": map[string]interface{}{
				"remaining_requests": h.oracle.GetRemainingRequests(),
			},
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleDatabaseStats handles GET /api/system/database-stats
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	mainStats, err := h.mainDB.Stats(mainTables...)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read main database stats")
		http.Error(w, "Failed to read database stats", http.StatusInternalServerError)
		return
	}
	cacheStats, err := h.cacheDB.Stats(cacheTables...)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read cache database stats")
		http.Error(w, "Failed to read database stats", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"main":  mainStats,
			"cache": cacheStats,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// systemStats returns CPU and RAM usage percentages. The 100ms sampling
// window keeps the endpoint fast enough for dashboard polling.
func (h *SystemHandlers) systemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
