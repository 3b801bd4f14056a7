// Package handlers provides HTTP handlers for portfolio operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/wealthdesk/wealthdesk/internal/domain"
	"github.com/wealthdesk/wealthdesk/internal/modules/auth"
	"github.com/wealthdesk/wealthdesk/internal/modules/portfolio"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	service *portfolio.Service
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service *portfolio.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

type createPortfolioRequest struct {
	Name           string `json:"name"`
	InitialBalance string `json:"initial_balance"`
}

type tradeRequest struct {
	Symbol   string `json:"symbol"`
	Side     string `json:"side"`
	Quantity string `json:"quantity"`
	Price    string `json:"price"`
}

// HandleCreatePortfolio handles POST /api/portfolios
func (h *Handler) HandleCreatePortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req createPortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	balance := decimal.Zero
	if req.InitialBalance != "" {
		var err error
		balance, err = decimal.NewFromString(req.InitialBalance)
		if err != nil {
			http.Error(w, "Invalid initial balance", http.StatusBadRequest)
			return
		}
	}

	p, err := h.service.CreatePortfolio(r.Context(), userID, req.Name, balance)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, envelope(p))
}

// HandleListPortfolios handles GET /api/portfolios
func (h *Handler) HandleListPortfolios(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	portfolios, err := h.service.ListPortfolios(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"portfolios": portfolios,
		"count":      len(portfolios),
	}))
}

// HandleGetPortfolio handles GET /api/portfolios/{id}
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	userID, portfolioID, ok := h.identify(w, r)
	if !ok {
		return
	}

	view, err := h.service.GetPortfolio(r.Context(), portfolioID, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(view))
}

// HandleGetSummary handles GET /api/portfolios/{id}/summary
func (h *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	userID, portfolioID, ok := h.identify(w, r)
	if !ok {
		return
	}

	summary, err := h.service.GetSummary(r.Context(), portfolioID, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(summary))
}

// HandleGetHoldings handles GET /api/portfolios/{id}/holdings
func (h *Handler) HandleGetHoldings(w http.ResponseWriter, r *http.Request) {
	userID, portfolioID, ok := h.identify(w, r)
	if !ok {
		return
	}

	holdings, err := h.service.GetHoldings(r.Context(), portfolioID, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"holdings": holdings,
		"count":    len(holdings),
	}))
}

// HandleGetTransactions handles GET /api/portfolios/{id}/transactions
func (h *Handler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	userID, portfolioID, ok := h.identify(w, r)
	if !ok {
		return
	}

	limit := 100 // default
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}

	transactions, err := h.service.GetTransactionHistory(r.Context(), portfolioID, userID, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"transactions": transactions,
		"count":        len(transactions),
	}))
}

// HandleTrade handles POST /api/portfolios/{id}/transactions
func (h *Handler) HandleTrade(w http.ResponseWriter, r *http.Request) {
	userID, portfolioID, ok := h.identify(w, r)
	if !ok {
		return
	}

	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	side, err := domain.TradeSideFromString(req.Side)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		http.Error(w, "Invalid quantity", http.StatusBadRequest)
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		http.Error(w, "Invalid price", http.StatusBadRequest)
		return
	}

	result, err := h.service.ExecuteTrade(r.Context(), portfolioID, userID, req.Symbol, side, quantity, price)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, envelope(map[string]interface{}{
		"transaction":  result.Transaction,
		"cash_balance": result.Portfolio.CashBalance,
	}))
}

// identify resolves the authenticated user and the {id} URL parameter
func (h *Handler) identify(w http.ResponseWriter, r *http.Request) (userID, portfolioID int64, ok bool) {
	userID, authed := auth.UserIDFromContext(r.Context())
	if !authed {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return 0, 0, false
	}

	portfolioID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid portfolio ID", http.StatusBadRequest)
		return 0, 0, false
	}
	return userID, portfolioID, true
}

func envelope(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
}

// writeError maps domain errors to HTTP status codes. Trades rejected by
// business rules are 422, not 400: the request was well-formed, the state
// just does not allow it.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrPortfolioNotFound):
		http.Error(w, "Portfolio not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrHoldingNotFound):
		http.Error(w, "Holding not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrInsufficientFunds):
		http.Error(w, "Insufficient funds", http.StatusUnprocessableEntity)
	case errors.Is(err, domain.ErrInsufficientHoldings):
		http.Error(w, "Insufficient holdings", http.StatusUnprocessableEntity)
	case errors.Is(err, domain.ErrPricingUnavailable):
		http.Error(w, "Pricing temporarily unavailable", http.StatusBadGateway)
	default:
		h.log.Error().Err(err).Msg("Portfolio request failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
