package portfolio

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/wealthdesk/wealthdesk/internal/database"
	"github.com/wealthdesk/wealthdesk/internal/domain"
)

// HoldingRepository handles holding database operations.
// Holdings are a per-portfolio view keyed by (portfolio_id, symbol).
type HoldingRepository struct {
	q   database.Queryer
	log zerolog.Logger
}

// NewHoldingRepository creates a new holding repository
func NewHoldingRepository(q database.Queryer, log zerolog.Logger) *HoldingRepository {
	return &HoldingRepository{
		q:   q,
		log: log.With().Str("repo", "holding").Logger(),
	}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *HoldingRepository) WithTx(tx *sql.Tx) *HoldingRepository {
	return &HoldingRepository{q: tx, log: r.log}
}

const holdingColumns = `id, portfolio_id, symbol, quantity, average_price, last_updated`

// ListByPortfolio returns all holdings of a portfolio, sorted by symbol so
// iteration order is reproducible.
func (r *HoldingRepository) ListByPortfolio(portfolioID int64) ([]domain.Holding, error) {
	rows, err := r.q.Query(
		`SELECT `+holdingColumns+` FROM holdings WHERE portfolio_id = ? ORDER BY symbol ASC`,
		portfolioID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	var holdings []domain.Holding
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return holdings, nil
}

// GetBySymbol returns the holding for a symbol, or domain.ErrHoldingNotFound
func (r *HoldingRepository) GetBySymbol(portfolioID int64, symbol string) (*domain.Holding, error) {
	row := r.q.QueryRow(
		`SELECT `+holdingColumns+` FROM holdings WHERE portfolio_id = ? AND symbol = ?`,
		portfolioID, normalizeSymbol(symbol),
	)

	var (
		h           domain.Holding
		qty, avg    string
		lastUpdated int64
	)
	err := row.Scan(&h.ID, &h.PortfolioID, &h.Symbol, &qty, &avg, &lastUpdated)
	if err == sql.ErrNoRows {
		return nil, domain.ErrHoldingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan holding: %w", err)
	}
	if err := fillHoldingDecimals(&h, qty, avg, lastUpdated); err != nil {
		return nil, err
	}
	return &h, nil
}

// Upsert inserts the holding or, when (portfolio_id, symbol) exists, replaces
// quantity and average price in place.
func (r *HoldingRepository) Upsert(h *domain.Holding) error {
	_, err := r.q.Exec(
		`INSERT INTO holdings (portfolio_id, symbol, quantity, average_price, last_updated)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(portfolio_id, symbol) DO UPDATE SET
			quantity = excluded.quantity,
			average_price = excluded.average_price,
			last_updated = excluded.last_updated`,
		h.PortfolioID, normalizeSymbol(h.Symbol), h.Quantity.String(), h.AveragePrice.String(), h.LastUpdated.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert holding: %w", err)
	}
	return nil
}

// Delete removes a holding. A holding sold down to exactly zero quantity is
// deleted, never kept at zero.
func (r *HoldingRepository) Delete(portfolioID int64, symbol string) error {
	_, err := r.q.Exec(
		`DELETE FROM holdings WHERE portfolio_id = ? AND symbol = ?`,
		portfolioID, normalizeSymbol(symbol),
	)
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	return nil
}

func scanHolding(rows *sql.Rows) (domain.Holding, error) {
	var (
		h           domain.Holding
		qty, avg    string
		lastUpdated int64
	)
	if err := rows.Scan(&h.ID, &h.PortfolioID, &h.Symbol, &qty, &avg, &lastUpdated); err != nil {
		return h, fmt.Errorf("failed to scan holding: %w", err)
	}
	if err := fillHoldingDecimals(&h, qty, avg, lastUpdated); err != nil {
		return h, err
	}
	return h, nil
}

func fillHoldingDecimals(h *domain.Holding, qty, avg string, lastUpdated int64) error {
	var err error
	h.Quantity, err = decimal.NewFromString(qty)
	if err != nil {
		return fmt.Errorf("corrupt quantity for holding %d: %w", h.ID, err)
	}
	h.AveragePrice, err = decimal.NewFromString(avg)
	if err != nil {
		return fmt.Errorf("corrupt average price for holding %d: %w", h.ID, err)
	}
	h.LastUpdated = time.Unix(lastUpdated, 0)
	return nil
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
