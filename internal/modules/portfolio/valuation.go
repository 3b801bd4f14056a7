package portfolio

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/wealthdesk/wealthdesk/internal/domain"
)

var oneHundred = decimal.NewFromInt(100)

// Valuator computes portfolio summaries and per-holding P/L from live quotes.
//
// Oracle lookups for distinct symbols are independent and fan out concurrently,
// bounded by a worker cap. The policy is fail-fast: if any lookup fails the
// whole call fails with domain.ErrPricingUnavailable - partially priced
// holdings would misstate the total.
type Valuator struct {
	oracle  domain.PriceOracle
	workers int
	log     zerolog.Logger
}

// NewValuator creates a new valuation engine
func NewValuator(oracle domain.PriceOracle, workers int, log zerolog.Logger) *Valuator {
	if workers < 1 {
		workers = 1
	}
	return &Valuator{
		oracle:  oracle,
		workers: workers,
		log:     log.With().Str("service", "valuation").Logger(),
	}
}

// Summarize computes total value and daily change for a portfolio.
// Both totals start at the cash balance; each holding contributes
// quantity x current and quantity x previousClose respectively.
func (v *Valuator) Summarize(ctx context.Context, p *domain.Portfolio, table *HoldingTable) (*domain.Summary, error) {
	quotes, err := v.fetchQuotes(ctx, table.Symbols())
	if err != nil {
		return nil, err
	}

	totalValue := p.CashBalance
	previousDayValue := p.CashBalance

	for _, h := range table.Holdings() {
		quote := quotes[h.Symbol]
		totalValue = totalValue.Add(h.Quantity.Mul(quote.Current))
		previousDayValue = previousDayValue.Add(h.Quantity.Mul(quote.PreviousClose))
	}

	dailyChange := totalValue.Sub(previousDayValue)
	dailyChangePct := decimal.Zero
	if !previousDayValue.IsZero() {
		dailyChangePct = dailyChange.Div(previousDayValue).Mul(oneHundred)
	}

	return &domain.Summary{
		TotalValue:            totalValue,
		CashBalance:           p.CashBalance,
		DailyChange:           dailyChange,
		DailyChangePercentage: dailyChangePct,
	}, nil
}

// EnrichHoldings decorates holdings with current price, value and P/L.
// Results come back sorted by symbol.
func (v *Valuator) EnrichHoldings(ctx context.Context, table *HoldingTable) ([]domain.EnrichedHolding, error) {
	quotes, err := v.fetchQuotes(ctx, table.Symbols())
	if err != nil {
		return nil, err
	}

	enriched := make([]domain.EnrichedHolding, 0, table.Len())
	for _, h := range table.Holdings() {
		quote := quotes[h.Symbol]

		currentValue := h.Quantity.Mul(quote.Current)
		costBasis := h.CostBasis()
		profitLoss := currentValue.Sub(costBasis)

		profitLossPct := decimal.Zero
		if !costBasis.IsZero() {
			profitLossPct = profitLoss.Div(costBasis).Mul(oneHundred)
		}

		enriched = append(enriched, domain.EnrichedHolding{
			Symbol:               h.Symbol,
			Quantity:             h.Quantity,
			AveragePrice:         h.AveragePrice,
			CurrentPrice:         quote.Current,
			CurrentValue:         currentValue,
			ProfitLoss:           profitLoss,
			ProfitLossPercentage: profitLossPct,
		})
	}

	return enriched, nil
}

// fetchQuotes resolves quotes for all symbols with bounded concurrency.
// All lookups must succeed; the first failure cancels the rest.
func (v *Valuator) fetchQuotes(ctx context.Context, symbols []string) (map[string]*domain.Quote, error) {
	if len(symbols) == 0 {
		return map[string]*domain.Quote{}, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)
	quotes := make(map[string]*domain.Quote, len(symbols))
	sem := make(chan struct{}, v.workers)

	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			quote, err := v.oracle.GetQuote(ctx, symbol)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
					cancel() // fail fast: abandon remaining lookups
				}
				return
			}
			quotes[symbol] = quote
		}(symbol)
	}

	wg.Wait()

	if firstErr != nil {
		v.log.Warn().Err(firstErr).Int("symbols", len(symbols)).Msg("Valuation aborted, oracle lookup failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrPricingUnavailable, firstErr)
	}

	// A cancelled context can leave lookups unfinished without an error
	if len(quotes) != len(symbols) {
		return nil, fmt.Errorf("%w: %v", domain.ErrPricingUnavailable, ctx.Err())
	}

	return quotes, nil
}
