package portfolio

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/wealthdesk/wealthdesk/internal/database"
	"github.com/wealthdesk/wealthdesk/internal/domain"
)

// PortfolioRepository handles portfolio database operations
type PortfolioRepository struct {
	q   database.Queryer
	log zerolog.Logger
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(q database.Queryer, log zerolog.Logger) *PortfolioRepository {
	return &PortfolioRepository{
		q:   q,
		log: log.With().Str("repo", "portfolio").Logger(),
	}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *PortfolioRepository) WithTx(tx *sql.Tx) *PortfolioRepository {
	return &PortfolioRepository{q: tx, log: r.log}
}

const portfolioColumns = `id, user_id, name, cash_balance, created_at, updated_at`

// Create inserts a new portfolio with the given starting cash balance
func (r *PortfolioRepository) Create(userID int64, name string, cashBalance decimal.Decimal) (*domain.Portfolio, error) {
	now := time.Now()

	res, err := r.q.Exec(
		`INSERT INTO portfolios (user_id, name, cash_balance, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		userID, name, cashBalance.String(), now.Unix(), now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert portfolio: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio id: %w", err)
	}

	return &domain.Portfolio{
		ID:          id,
		UserID:      userID,
		Name:        name,
		CashBalance: cashBalance,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// GetForUser retrieves a portfolio by id, scoped to its owner.
// Returns domain.ErrPortfolioNotFound when no such portfolio exists for the user.
func (r *PortfolioRepository) GetForUser(id, userID int64) (*domain.Portfolio, error) {
	row := r.q.QueryRow(
		`SELECT `+portfolioColumns+` FROM portfolios WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	return scanPortfolio(row)
}

// ListByUser returns all portfolios owned by a user, oldest first
func (r *PortfolioRepository) ListByUser(userID int64) ([]domain.Portfolio, error) {
	rows, err := r.q.Query(
		`SELECT `+portfolioColumns+` FROM portfolios WHERE user_id = ? ORDER BY created_at ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	var portfolios []domain.Portfolio
	for rows.Next() {
		var (
			p                    domain.Portfolio
			balance              string
			createdAt, updatedAt int64
		)
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &balance, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		p.CashBalance, err = decimal.NewFromString(balance)
		if err != nil {
			return nil, fmt.Errorf("corrupt cash balance for portfolio %d: %w", p.ID, err)
		}
		p.CreatedAt = time.Unix(createdAt, 0)
		p.UpdatedAt = time.Unix(updatedAt, 0)
		portfolios = append(portfolios, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolios: %w", err)
	}

	return portfolios, nil
}

// UpdateCashBalance sets a portfolio's cash balance and bumps updated_at
func (r *PortfolioRepository) UpdateCashBalance(id int64, balance decimal.Decimal, updatedAt time.Time) error {
	res, err := r.q.Exec(
		`UPDATE portfolios SET cash_balance = ?, updated_at = ? WHERE id = ?`,
		balance.String(), updatedAt.Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update cash balance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check cash balance update: %w", err)
	}
	if affected == 0 {
		return domain.ErrPortfolioNotFound
	}
	return nil
}

func scanPortfolio(row *sql.Row) (*domain.Portfolio, error) {
	var (
		p                    domain.Portfolio
		balance              string
		createdAt, updatedAt int64
	)
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &balance, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrPortfolioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan portfolio: %w", err)
	}

	p.CashBalance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("corrupt cash balance for portfolio %d: %w", p.ID, err)
	}
	p.CreatedAt = time.Unix(createdAt, 0)
	p.UpdatedAt = time.Unix(updatedAt, 0)
	return &p, nil
}
