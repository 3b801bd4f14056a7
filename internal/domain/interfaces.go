package domain

import "context"

// PriceOracle defines the contract for fetching market prices. Implementations
// may be slow or fail; callers decide concurrency and timeout policy.
// Errors are ErrSymbolNotFound or ErrOracleUnavailable (possibly wrapped).
type PriceOracle interface {
	// GetQuote returns the current and previous-close price for a symbol.
	GetQuote(ctx context.Context, symbol string) (*Quote, error)

	// GetDailyCloses returns up to limit daily closing prices for a symbol,
	// oldest first. Used by analytics, never by the trade path.
	GetDailyCloses(ctx context.Context, symbol string, limit int) ([]float64, error)
}

// RiskScorer classifies a risk questionnaire into a risk level. The engine
// delegates classification and only stores the result.
type RiskScorer interface {
	Score(ctx context.Context, input RiskInput) (RiskLevel, error)
}

// RiskInput is the questionnaire payload handed to the scorer.
type RiskInput struct {
	InvestmentDuration int      // years
	RiskTolerance      int      // 1-10
	FinancialGoals     []string // free-form goal tags
}
