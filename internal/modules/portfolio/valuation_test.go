package portfolio

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthdesk/wealthdesk/internal/domain"
)

// stubOracle serves quotes from a fixed map and fails for anything else.
type stubOracle struct {
	quotes map[string]*domain.Quote
	calls  atomic.Int64
}

func (s *stubOracle) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	s.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q, ok := s.quotes[symbol]
	if !ok {
		return nil, domain.ErrSymbolNotFound
	}
	return q, nil
}

func (s *stubOracle) GetDailyCloses(ctx context.Context, symbol string, limit int) ([]float64, error) {
	return nil, domain.ErrOracleUnavailable
}

func TestSummarize_WorkedExample(t *testing.T) {
	oracle := &stubOracle{quotes: map[string]*domain.Quote{
		"AAPL": {Symbol: "AAPL", Current: dec("50"), PreviousClose: dec("40")},
	}}
	v := NewValuator(oracle, 4, zerolog.Nop())

	p := testPortfolio("1000")
	table := NewHoldingTable([]domain.Holding{{
		PortfolioID: 1, Symbol: "AAPL", Quantity: dec("10"), AveragePrice: dec("30"),
	}})

	summary, err := v.Summarize(context.Background(), p, table)
	require.NoError(t, err)

	// total = 1000 + 10x50 = 1500; previous = 1000 + 10x40 = 1400
	assert.True(t, summary.TotalValue.Equal(dec("1500")), "got %s", summary.TotalValue)
	assert.True(t, summary.CashBalance.Equal(dec("1000")))
	assert.True(t, summary.DailyChange.Equal(dec("100")))

	// 100 / 1400 x 100 ~= 7.1428%
	pct, _ := summary.DailyChangePercentage.Round(4).Float64()
	assert.InDelta(t, 7.1429, pct, 0.0001)
}

func TestSummarize_EmptyPortfolioIsJustCash(t *testing.T) {
	oracle := &stubOracle{quotes: map[string]*domain.Quote{}}
	v := NewValuator(oracle, 4, zerolog.Nop())

	summary, err := v.Summarize(context.Background(), testPortfolio("2500"), NewHoldingTable(nil))
	require.NoError(t, err)

	assert.True(t, summary.TotalValue.Equal(dec("2500")))
	assert.True(t, summary.DailyChange.IsZero())
	assert.True(t, summary.DailyChangePercentage.IsZero())
	assert.Equal(t, int64(0), oracle.calls.Load(), "no holdings means no oracle calls")
}

func TestSummarize_ZeroPreviousValueGuardsPercentage(t *testing.T) {
	// Cash of zero and a previous close of zero would divide by zero
	oracle := &stubOracle{quotes: map[string]*domain.Quote{
		"NEWCO": {Symbol: "NEWCO", Current: dec("5"), PreviousClose: dec("0")},
	}}
	v := NewValuator(oracle, 4, zerolog.Nop())

	p := testPortfolio("0")
	table := NewHoldingTable([]domain.Holding{{
		PortfolioID: 1, Symbol: "NEWCO", Quantity: dec("10"), AveragePrice: dec("1"),
	}})

	summary, err := v.Summarize(context.Background(), p, table)
	require.NoError(t, err)
	assert.True(t, summary.TotalValue.Equal(dec("50")))
	assert.True(t, summary.DailyChangePercentage.IsZero())
}

func TestEnrichHoldings(t *testing.T) {
	oracle := &stubOracle{quotes: map[string]*domain.Quote{
		"AAPL": {Symbol: "AAPL", Current: dec("150"), PreviousClose: dec("148")},
		"MSFT": {Symbol: "MSFT", Current: dec("80"), PreviousClose: dec("85")},
	}}
	v := NewValuator(oracle, 4, zerolog.Nop())

	table := NewHoldingTable([]domain.Holding{
		{PortfolioID: 1, Symbol: "MSFT", Quantity: dec("5"), AveragePrice: dec("100")},
		{PortfolioID: 1, Symbol: "AAPL", Quantity: dec("10"), AveragePrice: dec("100")},
	})

	enriched, err := v.EnrichHoldings(context.Background(), table)
	require.NoError(t, err)
	require.Len(t, enriched, 2)

	// Sorted by symbol
	aapl, msft := enriched[0], enriched[1]
	assert.Equal(t, "AAPL", aapl.Symbol)
	assert.Equal(t, "MSFT", msft.Symbol)

	assert.True(t, aapl.CurrentValue.Equal(dec("1500")))
	assert.True(t, aapl.ProfitLoss.Equal(dec("500")), "1500 - 10x100 cost basis")
	assert.True(t, aapl.ProfitLossPercentage.Equal(dec("50")))

	assert.True(t, msft.CurrentValue.Equal(dec("400")))
	assert.True(t, msft.ProfitLoss.Equal(dec("-100")))
	assert.True(t, msft.ProfitLossPercentage.Equal(dec("-20")))
}

func TestFetchQuotes_FailFast(t *testing.T) {
	// One of the symbols has no quote; the whole valuation must fail,
	// wrapped as a pricing error, with no partial result.
	oracle := &stubOracle{quotes: map[string]*domain.Quote{
		"AAPL": {Symbol: "AAPL", Current: dec("150"), PreviousClose: dec("148")},
	}}
	v := NewValuator(oracle, 2, zerolog.Nop())

	table := NewHoldingTable([]domain.Holding{
		{PortfolioID: 1, Symbol: "AAPL", Quantity: dec("1"), AveragePrice: dec("1")},
		{PortfolioID: 1, Symbol: "GONE", Quantity: dec("1"), AveragePrice: dec("1")},
	})

	summary, err := v.Summarize(context.Background(), testPortfolio("100"), table)
	require.ErrorIs(t, err, domain.ErrPricingUnavailable)
	assert.Nil(t, summary)

	_, err = v.EnrichHoldings(context.Background(), table)
	require.ErrorIs(t, err, domain.ErrPricingUnavailable)
}

func TestFetchQuotes_ContextCancelled(t *testing.T) {
	oracle := &stubOracle{quotes: map[string]*domain.Quote{
		"AAPL": {Symbol: "AAPL", Current: dec("150"), PreviousClose: dec("148")},
	}}
	v := NewValuator(oracle, 1, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	table := NewHoldingTable([]domain.Holding{
		{PortfolioID: 1, Symbol: "AAPL", Quantity: dec("1"), AveragePrice: dec("1")},
	})

	_, err := v.Summarize(ctx, testPortfolio("0"), table)
	require.Error(t, err)
}
