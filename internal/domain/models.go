// Package domain provides core domain models and types.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TradeSide represents the direction of a trade
type TradeSide string

const (
	SideBuy  TradeSide = "BUY"
	SideSell TradeSide = "SELL"
)

// TradeSideFromString parses a trade side, accepting any casing.
func TradeSideFromString(s string) (TradeSide, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return SideBuy, nil
	case "SELL":
		return SideSell, nil
	default:
		return "", fmt.Errorf("invalid trade side: %q", s)
	}
}

// Portfolio represents a user's portfolio. CashBalance is a fixed-point decimal
// and is never negative in any committed state.
type Portfolio struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	Name        string          `json:"name"`
	CashBalance decimal.Decimal `json:"cash_balance"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Holding represents an open position in one symbol within a portfolio.
// Quantity is strictly positive while the holding exists; a holding driven to
// exactly zero is deleted, never kept at zero. Fractional quantities are allowed.
type Holding struct {
	ID           int64           `json:"id"`
	PortfolioID  int64           `json:"portfolio_id"`
	Symbol       string          `json:"symbol"`
	Quantity     decimal.Decimal `json:"quantity"`
	AveragePrice decimal.Decimal `json:"average_price"`
	LastUpdated  time.Time       `json:"last_updated"`
}

// CostBasis returns quantity x average price.
func (h *Holding) CostBasis() decimal.Decimal {
	return h.Quantity.Mul(h.AveragePrice)
}

// Transaction is one entry in the append-only trade log. Immutable once created.
type Transaction struct {
	ID          int64           `json:"id"`
	PortfolioID int64           `json:"portfolio_id"`
	Symbol      string          `json:"symbol"`
	Type        TradeSide       `json:"type"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Quote is a point-in-time price pair for a symbol, supplied by the price
// oracle per request. Never persisted by the core beyond the cache TTL.
type Quote struct {
	Symbol        string          `json:"symbol"`
	Current       decimal.Decimal `json:"current"`
	PreviousClose decimal.Decimal `json:"previous_close"`
}

// EnrichedHolding is a holding decorated with live pricing and P/L.
type EnrichedHolding struct {
	Symbol               string          `json:"symbol"`
	Quantity             decimal.Decimal `json:"quantity"`
	AveragePrice         decimal.Decimal `json:"average_price"`
	CurrentPrice         decimal.Decimal `json:"current_price"`
	CurrentValue         decimal.Decimal `json:"current_value"`
	ProfitLoss           decimal.Decimal `json:"profit_loss"`
	ProfitLossPercentage decimal.Decimal `json:"profit_loss_percentage"`
}

// Summary is the portfolio-level valuation result. DailyChange compares the
// live total against the value computed with previous-close prices.
type Summary struct {
	TotalValue            decimal.Decimal `json:"total_value"`
	CashBalance           decimal.Decimal `json:"cash_balance"`
	DailyChange           decimal.Decimal `json:"daily_change"`
	DailyChangePercentage decimal.Decimal `json:"daily_change_percentage"`
}

// User represents a registered user. PasswordHash never leaves the auth module.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	RiskProfile  string    `json:"risk_profile,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RiskLevel is the classification stored on the user record
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskAssessment is one submitted questionnaire with its resulting classification.
type RiskAssessment struct {
	ID                 int64     `json:"id"`
	UserID             int64     `json:"user_id"`
	RiskLevel          RiskLevel `json:"risk_level"`
	InvestmentDuration int       `json:"investment_duration"` // years
	RiskTolerance      int       `json:"risk_tolerance"`      // 1-10
	FinancialGoals     string    `json:"financial_goals,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}
