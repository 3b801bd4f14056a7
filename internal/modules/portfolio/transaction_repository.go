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

// TransactionRepository handles the append-only trade log.
// Rows are never updated or deleted.
type TransactionRepository struct {
	q   database.Queryer
	log zerolog.Logger
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(q database.Queryer, log zerolog.Logger) *TransactionRepository {
	return &TransactionRepository{
		q:   q,
		log: log.With().Str("repo", "transaction").Logger(),
	}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *TransactionRepository) WithTx(tx *sql.Tx) *TransactionRepository {
	return &TransactionRepository{q: tx, log: r.log}
}

// Create appends a transaction to the log and fills in its assigned id
func (r *TransactionRepository) Create(t *domain.Transaction) error {
	res, err := r.q.Exec(
		`INSERT INTO transactions (portfolio_id, symbol, type, quantity, price, total_amount, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.PortfolioID,
		normalizeSymbol(t.Symbol),
		string(t.Type),
		t.Quantity.String(),
		t.Price.String(),
		t.TotalAmount.String(),
		t.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	t.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get transaction id: %w", err)
	}
	return nil
}

// ListByPortfolio returns transactions newest first, the canonical read order.
// limit <= 0 means no limit.
func (r *TransactionRepository) ListByPortfolio(portfolioID int64, limit int) ([]domain.Transaction, error) {
	query := `SELECT id, portfolio_id, symbol, type, quantity, price, total_amount, created_at
	          FROM transactions WHERE portfolio_id = ?
	          ORDER BY created_at DESC, id DESC`
	args := []interface{}{portfolioID}

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var (
			t                  domain.Transaction
			side               string
			qty, price, total  string
			createdAt          int64
		)
		if err := rows.Scan(&t.ID, &t.PortfolioID, &t.Symbol, &side, &qty, &price, &total, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		t.Type = domain.TradeSide(side)
		if t.Quantity, err = decimal.NewFromString(qty); err != nil {
			return nil, fmt.Errorf("corrupt quantity for transaction %d: %w", t.ID, err)
		}
		if t.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("corrupt price for transaction %d: %w", t.ID, err)
		}
		if t.TotalAmount, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("corrupt total amount for transaction %d: %w", t.ID, err)
		}
		t.CreatedAt = time.Unix(createdAt, 0)

		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

// CountByPortfolio returns the number of logged transactions for a portfolio
func (r *TransactionRepository) CountByPortfolio(portfolioID int64) (int64, error) {
	var count int64
	err := r.q.QueryRow(
		`SELECT COUNT(*) FROM transactions WHERE portfolio_id = ?`, portfolioID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}
