// Package analytics computes technical indicators for individual symbols
// from daily closing prices.
package analytics

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/wealthdesk/wealthdesk/internal/domain"
	"github.com/wealthdesk/wealthdesk/pkg/formulas"
)

// historyDays is how many daily closes the indicators are computed over.
// RSI-14 needs 15, SMA/EMA-20 need 20; 100 gives volatility a stable base.
const historyDays = 100

// Indicators is the per-symbol technical analysis result. Indicator fields
// are nil when the price history is too short to compute them.
type Indicators struct {
	Symbol               string   `json:"symbol"`
	LastClose            float64  `json:"last_close"`
	DailyChangePct       *float64 `json:"daily_change_pct"`
	SMA20                *float64 `json:"sma_20"`
	EMA20                *float64 `json:"ema_20"`
	RSI14                *float64 `json:"rsi_14"`
	AnnualizedVolatility *float64 `json:"annualized_volatility"`
	MaxDrawdown          *float64 `json:"max_drawdown"`
	Trend                string   `json:"trend"`
	RSISignal            string   `json:"rsi_signal"`
}

// Service computes indicators from oracle price history
type Service struct {
	oracle domain.PriceOracle
	log    zerolog.Logger
}

// NewService creates a new analytics service
func NewService(oracle domain.PriceOracle, log zerolog.Logger) *Service {
	return &Service{
		oracle: oracle,
		log:    log.With().Str("service", "analytics").Logger(),
	}
}

// Analyze fetches daily closes for a symbol and computes its indicators
func (s *Service) Analyze(ctx context.Context, symbol string) (*Indicators, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", domain.ErrInvalidInput)
	}

	closes, err := s.oracle.GetDailyCloses(ctx, symbol, historyDays)
	if err != nil {
		return nil, err
	}
	if len(closes) == 0 {
		return nil, domain.ErrSymbolNotFound
	}

	result := &Indicators{
		Symbol:    symbol,
		LastClose: closes[len(closes)-1],
		SMA20:     formulas.CalculateSMA(closes, 20),
		EMA20:     formulas.CalculateEMA(closes, 20),
		RSI14:     formulas.CalculateRSI(closes, 14),
	}

	if len(closes) >= 2 {
		prev := closes[len(closes)-2]
		if prev != 0 {
			change := (result.LastClose - prev) / prev * 100
			result.DailyChangePct = &change
		}

		returns := formulas.CalculateReturns(closes)
		vol := formulas.AnnualizedVolatility(returns)
		result.AnnualizedVolatility = &vol

		drawdown := formulas.MaxDrawdown(closes)
		result.MaxDrawdown = &drawdown
	}

	result.Trend = classifyTrend(result.LastClose, result.SMA20)
	result.RSISignal = classifyRSI(result.RSI14)

	s.log.Debug().
		Str("symbol", symbol).
		Int("closes", len(closes)).
		Msg("Computed indicators")

	return result, nil
}

// classifyTrend compares the last close against the 20-day average
func classifyTrend(lastClose float64, sma20 *float64) string {
	if sma20 == nil {
		return "unknown"
	}
	if lastClose > *sma20 {
		return "up"
	}
	return "down"
}

// classifyRSI applies the standard 30/70 oversold/overbought bands
func classifyRSI(rsi *float64) string {
	switch {
	case rsi == nil:
		return "unknown"
	case *rsi < 30:
		return "oversold"
	case *rsi > 70:
		return "overbought"
	default:
		return "neutral"
	}
}
