package portfolio

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/wealthdesk/wealthdesk/internal/database"
	"github.com/wealthdesk/wealthdesk/internal/domain"
	"github.com/wealthdesk/wealthdesk/internal/events"
)

// Service coordinates the trade engine, valuation engine and repositories.
//
// Correctness model: every trade runs under a per-portfolio mutex AND inside
// one SQLite transaction spanning the three writes (cash balance, holding,
// transaction log). The mutex serializes the read-modify-write per portfolio
// so two concurrent trades can never both read the same stale cash balance;
// the database transaction makes the three writes atomic on disk.
type Service struct {
	db            *database.DB
	portfolioRepo *PortfolioRepository
	holdingRepo   *HoldingRepository
	txRepo        *TransactionRepository
	valuator      *Valuator
	eventBus      *events.Bus
	log           zerolog.Logger

	locks sync.Map // portfolio id -> *sync.Mutex
}

// NewService creates a new portfolio service
func NewService(
	db *database.DB,
	portfolioRepo *PortfolioRepository,
	holdingRepo *HoldingRepository,
	txRepo *TransactionRepository,
	valuator *Valuator,
	eventBus *events.Bus,
	log zerolog.Logger,
) *Service {
	return &Service{
		db:            db,
		portfolioRepo: portfolioRepo,
		holdingRepo:   holdingRepo,
		txRepo:        txRepo,
		valuator:      valuator,
		eventBus:      eventBus,
		log:           log.With().Str("service", "portfolio").Logger(),
	}
}

// View is the full get-portfolio response: the portfolio, its enriched
// holdings and the live valuation summary.
type View struct {
	Portfolio *domain.Portfolio        `json:"portfolio"`
	Holdings  []domain.EnrichedHolding `json:"holdings"`
	Summary   *domain.Summary          `json:"summary"`
}

// CreatePortfolio creates a portfolio with a starting cash balance
func (s *Service) CreatePortfolio(ctx context.Context, userID int64, name string, initialBalance decimal.Decimal) (*domain.Portfolio, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if initialBalance.IsNegative() {
		return nil, fmt.Errorf("%w: initial balance cannot be negative", domain.ErrInvalidInput)
	}

	p, err := s.portfolioRepo.Create(userID, name, initialBalance)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("portfolio_id", p.ID).
		Int64("user_id", userID).
		Str("initial_balance", initialBalance.String()).
		Msg("Portfolio created")

	s.eventBus.Publish(events.PortfolioChanged, &events.PortfolioChangedData{
		PortfolioID: p.ID,
		CashBalance: p.CashBalance.String(),
	})

	return p, nil
}

// ListPortfolios returns all portfolios owned by a user
func (s *Service) ListPortfolios(ctx context.Context, userID int64) ([]domain.Portfolio, error) {
	return s.portfolioRepo.ListByUser(userID)
}

// GetPortfolio returns a portfolio with enriched holdings and summary
func (s *Service) GetPortfolio(ctx context.Context, portfolioID, userID int64) (*View, error) {
	p, table, err := s.load(portfolioID, userID)
	if err != nil {
		return nil, err
	}

	holdings, err := s.valuator.EnrichHoldings(ctx, table)
	if err != nil {
		return nil, err
	}
	summary, err := s.valuator.Summarize(ctx, p, table)
	if err != nil {
		return nil, err
	}

	return &View{Portfolio: p, Holdings: holdings, Summary: summary}, nil
}

// GetSummary returns the live valuation summary for a portfolio
func (s *Service) GetSummary(ctx context.Context, portfolioID, userID int64) (*domain.Summary, error) {
	p, table, err := s.load(portfolioID, userID)
	if err != nil {
		return nil, err
	}
	return s.valuator.Summarize(ctx, p, table)
}

// GetHoldings returns the enriched holdings for a portfolio
func (s *Service) GetHoldings(ctx context.Context, portfolioID, userID int64) ([]domain.EnrichedHolding, error) {
	_, table, err := s.load(portfolioID, userID)
	if err != nil {
		return nil, err
	}
	return s.valuator.EnrichHoldings(ctx, table)
}

// GetTransactionHistory returns the trade log, newest first
func (s *Service) GetTransactionHistory(ctx context.Context, portfolioID, userID int64, limit int) ([]domain.Transaction, error) {
	if _, err := s.portfolioRepo.GetForUser(portfolioID, userID); err != nil {
		return nil, err
	}
	return s.txRepo.ListByPortfolio(portfolioID, limit)
}

// HeldSymbols returns the distinct symbols held across all portfolios.
// Used by the background quote refresh job.
func (s *Service) HeldSymbols(ctx context.Context) ([]string, error) {
	rows, err := s.db.Conn().Query(`SELECT DISTINCT symbol FROM holdings ORDER BY symbol ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query held symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}
	return symbols, rows.Err()
}

// ExecuteTrade validates and applies one buy/sell trade atomically.
// See the Service doc comment for the serialization model.
func (s *Service) ExecuteTrade(
	ctx context.Context,
	portfolioID, userID int64,
	symbol string,
	side domain.TradeSide,
	quantity, price decimal.Decimal,
) (*TradeResult, error) {
	lock := s.portfolioLock(portfolioID)
	lock.Lock()
	defer lock.Unlock()

	tx, err := s.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	portfolioRepo := s.portfolioRepo.WithTx(tx)
	holdingRepo := s.holdingRepo.WithTx(tx)
	txRepo := s.txRepo.WithTx(tx)

	p, err := portfolioRepo.GetForUser(portfolioID, userID)
	if err != nil {
		return nil, err
	}
	holdings, err := holdingRepo.ListByPortfolio(portfolioID)
	if err != nil {
		return nil, err
	}
	table := NewHoldingTable(holdings)

	result, err := ExecuteTrade(p, table, symbol, side, quantity, price, nowFunc())
	if err != nil {
		return nil, err
	}

	if err := portfolioRepo.UpdateCashBalance(p.ID, p.CashBalance, p.UpdatedAt); err != nil {
		return nil, err
	}
	if result.HoldingGone {
		if err := holdingRepo.Delete(p.ID, result.Transaction.Symbol); err != nil {
			return nil, err
		}
	} else if result.Holding != nil {
		if err := holdingRepo.Upsert(result.Holding); err != nil {
			return nil, err
		}
	}
	if err := txRepo.Create(result.Transaction); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit trade: %w", err)
	}

	s.log.Info().
		Int64("portfolio_id", p.ID).
		Str("symbol", result.Transaction.Symbol).
		Str("side", string(side)).
		Str("quantity", quantity.String()).
		Str("price", price.String()).
		Str("cash_balance", p.CashBalance.String()).
		Msg("Trade executed")

	s.eventBus.Publish(events.TradeExecuted, &events.TradeExecutedData{
		PortfolioID: p.ID,
		Symbol:      result.Transaction.Symbol,
		Side:        string(side),
		Quantity:    quantity.String(),
		Price:       price.String(),
		TotalAmount: result.Transaction.TotalAmount.String(),
	})
	s.eventBus.Publish(events.PortfolioChanged, &events.PortfolioChangedData{
		PortfolioID: p.ID,
		CashBalance: p.CashBalance.String(),
	})

	return result, nil
}

// portfolioLock returns the mutex serializing trades for one portfolio
func (s *Service) portfolioLock(portfolioID int64) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(portfolioID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// load fetches a portfolio and builds its holding table
func (s *Service) load(portfolioID, userID int64) (*domain.Portfolio, *HoldingTable, error) {
	p, err := s.portfolioRepo.GetForUser(portfolioID, userID)
	if err != nil {
		return nil, nil, err
	}
	holdings, err := s.holdingRepo.ListByPortfolio(portfolioID)
	if err != nil {
		return nil, nil, err
	}
	return p, NewHoldingTable(holdings), nil
}
