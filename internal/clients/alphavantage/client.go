// Package alphavantage provides the Alpha Vantage price oracle client.
// GLOBAL_QUOTE supplies the current price and previous close used by the
// valuation engine; TIME_SERIES_DAILY feeds the analytics indicators.
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/wealthdesk/wealthdesk/internal/clientdata"
	"github.com/wealthdesk/wealthdesk/internal/domain"
)

const defaultBaseURL = "https://www.alphavantage.co/query"

// Free tier allows 25 requests per day
const dailyRequestLimit = 25

// Client for the Alpha Vantage API. Implements domain.PriceOracle.
type Client struct {
	baseURL   string
	apiKey    string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository // optional; nil disables caching

	mu           sync.Mutex
	requestCount int
	countDate    string // YYYY-MM-DD the counter belongs to
}

// Compile-time check that Client implements the oracle contract
var _ domain.PriceOracle = (*Client)(nil)

// NewClient creates a new Alpha Vantage client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(apiKey, baseURL string, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:   baseURL,
		apiKey:    apiKey,
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log.With().Str("client", "alphavantage").Logger(),
		cacheRepo: cacheRepo,
		countDate: time.Now().Format("2006-01-02"),
	}
}

// cachedQuote is the structure stored in the quote cache
type cachedQuote struct {
	Current       string `msgpack:"current"`
	PreviousClose string `msgpack:"previous_close"`
}

// GetQuote fetches the current and previous-close price for a symbol.
// If the API fails, returns stale cached data if available (stale data > no data).
func (c *Client) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, domain.ErrSymbolNotFound
	}

	// Check persistent cache for fresh data
	if c.cacheRepo != nil {
		var cached cachedQuote
		if found, err := c.cacheRepo.GetIfFresh("quotes", symbol, &cached); err == nil && found {
			if q, err := cached.toQuote(symbol); err == nil {
				c.log.Debug().Str("symbol", symbol).Msg("Quote cache hit")
				return q, nil
			}
		}
	}

	raw, err := c.query(ctx, url.Values{
		"function": {"GLOBAL_QUOTE"},
		"symbol":   {symbol},
	})
	if err != nil {
		// API failed - fall back to stale cache
		if q, ok := c.staleQuote(symbol); ok {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("API failed, using stale cached quote")
			return q, nil
		}
		return nil, err
	}

	var payload struct {
		GlobalQuote map[string]string `json:"Global Quote"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: malformed quote response: %v", domain.ErrOracleUnavailable, err)
	}
	if len(payload.GlobalQuote) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrSymbolNotFound, symbol)
	}

	current, err := decimal.NewFromString(payload.GlobalQuote["05. price"])
	if err != nil {
		return nil, fmt.Errorf("%w: bad price for %s", domain.ErrOracleUnavailable, symbol)
	}
	previousClose, err := decimal.NewFromString(payload.GlobalQuote["08. previous close"])
	if err != nil {
		return nil, fmt.Errorf("%w: bad previous close for %s", domain.ErrOracleUnavailable, symbol)
	}

	quote := &domain.Quote{
		Symbol:        symbol,
		Current:       current,
		PreviousClose: previousClose,
	}

	if c.cacheRepo != nil {
		entry := cachedQuote{Current: current.String(), PreviousClose: previousClose.String()}
		if err := c.cacheRepo.Store("quotes", symbol, entry, clientdata.TTLQuote); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache quote")
		}
	}

	return quote, nil
}

// GetDailyCloses returns up to limit daily closing prices, oldest first.
func (c *Client) GetDailyCloses(ctx context.Context, symbol string, limit int) ([]float64, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, domain.ErrSymbolNotFound
	}
	if limit <= 0 {
		limit = 100
	}

	if c.cacheRepo != nil {
		var cached []float64
		if found, err := c.cacheRepo.GetIfFresh("daily_series", symbol, &cached); err == nil && found {
			return tail(cached, limit), nil
		}
	}

	raw, err := c.query(ctx, url.Values{
		"function":   {"TIME_SERIES_DAILY"},
		"symbol":     {symbol},
		"outputsize": {"compact"},
	})
	if err != nil {
		if c.cacheRepo != nil {
			var stale []float64
			if found, cerr := c.cacheRepo.Get("daily_series", symbol, &stale); cerr == nil && found {
				c.log.Warn().Err(err).Str("symbol", symbol).Msg("API failed, using stale daily series")
				return tail(stale, limit), nil
			}
		}
		return nil, err
	}

	var payload struct {
		Series map[string]struct {
			Close string `json:"4. close"`
		} `json:"Time Series (Daily)"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: malformed daily series: %v", domain.ErrOracleUnavailable, err)
	}
	if len(payload.Series) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrSymbolNotFound, symbol)
	}

	// Map iteration order is random; sort dates ascending so closes come out oldest first
	dates := make([]string, 0, len(payload.Series))
	for date := range payload.Series {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	closes := make([]float64, 0, len(dates))
	for _, date := range dates {
		var close float64
		if _, err := fmt.Sscanf(payload.Series[date].Close, "%f", &close); err != nil {
			continue
		}
		closes = append(closes, close)
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store("daily_series", symbol, closes, clientdata.TTLDailySeries); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache daily series")
		}
	}

	return tail(closes, limit), nil
}

// GetRemainingRequests returns how many API requests remain for today
func (c *Client) GetRemainingRequests() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rolloverLocked()
	return dailyRequestLimit - c.requestCount
}

// ResetDailyCounter resets the daily request counter (tests, manual override)
func (c *Client) ResetDailyCounter() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestCount = 0
	c.countDate = time.Now().Format("2006-01-02")
}

// checkRateLimit consumes one request slot, failing when the daily budget is spent
func (c *Client) checkRateLimit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rolloverLocked()
	if c.requestCount >= dailyRequestLimit {
		return fmt.Errorf("%w: daily request limit reached", domain.ErrOracleUnavailable)
	}
	c.requestCount++
	return nil
}

// rolloverLocked resets the counter when the calendar day changes. Caller holds mu.
func (c *Client) rolloverLocked() {
	today := time.Now().Format("2006-01-02")
	if c.countDate != today {
		c.countDate = today
		c.requestCount = 0
	}
}

// query performs one API request and surfaces rate-limit notes as oracle errors.
func (c *Client) query(ctx context.Context, params url.Values) (json.RawMessage, error) {
	if err := c.checkRateLimit(); err != nil {
		return nil, err
	}

	params.Set("apikey", c.apiKey)
	reqURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOracleUnavailable, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOracleUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: http %d", domain.ErrOracleUnavailable, resp.StatusCode)
	}

	var probe map[string]json.RawMessage
	raw := json.RawMessage{}
	if err := json.NewDecoder(resp.Body).Decode(&probe); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOracleUnavailable, err)
	}

	// Alpha Vantage signals throttling with a "Note" or "Information" field
	// inside an HTTP 200 response
	if _, ok := probe["Note"]; ok {
		return nil, fmt.Errorf("%w: rate limited", domain.ErrOracleUnavailable)
	}
	if _, ok := probe["Information"]; ok {
		return nil, fmt.Errorf("%w: rate limited", domain.ErrOracleUnavailable)
	}

	raw, err = json.Marshal(probe)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOracleUnavailable, err)
	}
	return raw, nil
}

func (c *Client) staleQuote(symbol string) (*domain.Quote, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}
	var cached cachedQuote
	found, err := c.cacheRepo.Get("quotes", symbol, &cached)
	if err != nil || !found {
		return nil, false
	}
	q, err := cached.toQuote(symbol)
	if err != nil {
		return nil, false
	}
	return q, true
}

func (cq cachedQuote) toQuote(symbol string) (*domain.Quote, error) {
	current, err := decimal.NewFromString(cq.Current)
	if err != nil {
		return nil, err
	}
	previousClose, err := decimal.NewFromString(cq.PreviousClose)
	if err != nil {
		return nil, err
	}
	return &domain.Quote{Symbol: symbol, Current: current, PreviousClose: previousClose}, nil
}

func tail(values []float64, limit int) []float64 {
	if len(values) <= limit {
		return values
	}
	return values[len(values)-limit:]
}
