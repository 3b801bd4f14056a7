package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/wealthdesk/wealthdesk/internal/domain"
	"github.com/wealthdesk/wealthdesk/internal/events"
)

// symbolSource lists the symbols currently held across all portfolios
type symbolSource interface {
	HeldSymbols(ctx context.Context) ([]string, error)
}

// RefreshQuotesJob warms the quote cache for every held symbol so interactive
// valuations mostly hit fresh cache instead of the upstream API.
type RefreshQuotesJob struct {
	symbols  symbolSource
	oracle   domain.PriceOracle
	eventBus *events.Bus
	timeout  time.Duration
	log      zerolog.Logger
}

// NewRefreshQuotesJob creates a new quote refresh job
func NewRefreshQuotesJob(symbols symbolSource, oracle domain.PriceOracle, eventBus *events.Bus, log zerolog.Logger) *RefreshQuotesJob {
	return &RefreshQuotesJob{
		symbols:  symbols,
		oracle:   oracle,
		eventBus: eventBus,
		timeout:  2 * time.Minute,
		log:      log.With().Str("job", "refresh_quotes").Logger(),
	}
}

// Name returns the job name
func (j *RefreshQuotesJob) Name() string {
	return "refresh_quotes"
}

// Run fetches a fresh quote for each held symbol. Individual failures are
// logged and skipped; the job keeps going so one bad symbol cannot starve
// the rest of the cache.
func (j *RefreshQuotesJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	symbols, err := j.symbols.HeldSymbols(ctx)
	if err != nil {
		return err
	}
	if len(symbols) == 0 {
		return nil
	}

	failed := 0
	for _, symbol := range symbols {
		if _, err := j.oracle.GetQuote(ctx, symbol); err != nil {
			failed++
			j.log.Warn().Err(err).Str("symbol", symbol).Msg("Quote refresh failed")
		}
	}

	j.log.Info().
		Int("symbols", len(symbols)).
		Int("failed", failed).
		Msg("Quote cache refreshed")

	j.eventBus.Publish(events.PricesRefreshed, &events.PricesRefreshedData{
		Symbols: len(symbols),
		Failed:  failed,
	})
	return nil
}
