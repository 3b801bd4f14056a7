package portfolio

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wealthdesk/wealthdesk/internal/domain"
)

// nowFunc is stubbed in tests that need deterministic timestamps
var nowFunc = time.Now

// TradeResult describes the state changes produced by one executed trade.
// The service uses it to persist portfolio, holding and transaction in a
// single database transaction.
type TradeResult struct {
	Portfolio   *domain.Portfolio
	Holding     *domain.Holding // nil when the sell closed the position
	HoldingGone bool            // the holding was removed from the table
	Transaction *domain.Transaction
}

// ExecuteTrade validates and applies a single buy/sell trade against a
// portfolio and its holding table. Validation happens entirely before any
// mutation, so a rejected trade leaves both arguments untouched.
//
// Effects on success:
//   - cash balance adjusted by quantity x price
//   - holding created, restated (weighted-average cost) or removed
//   - immutable transaction appended
//   - portfolio updated_at bumped to now
func ExecuteTrade(
	p *domain.Portfolio,
	table *HoldingTable,
	symbol string,
	side domain.TradeSide,
	quantity, price decimal.Decimal,
	now time.Time,
) (*TradeResult, error) {
	symbol = normalizeSymbol(symbol)

	// All validation up front - the operation is all-or-nothing
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", domain.ErrInvalidInput)
	}
	if !quantity.IsPositive() {
		return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	}
	if !price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be positive", domain.ErrInvalidInput)
	}

	totalAmount := quantity.Mul(price)

	switch side {
	case domain.SideBuy:
		if p.CashBalance.LessThan(totalAmount) {
			return nil, fmt.Errorf("%w: need %s, have %s",
				domain.ErrInsufficientFunds, totalAmount, p.CashBalance)
		}
	case domain.SideSell:
		holding, ok := table.Lookup(symbol)
		if !ok || holding.Quantity.LessThan(quantity) {
			return nil, fmt.Errorf("%w: %s", domain.ErrInsufficientHoldings, symbol)
		}
	default:
		return nil, fmt.Errorf("%w: unknown trade side %q", domain.ErrInvalidInput, side)
	}

	result := &TradeResult{Portfolio: p}

	switch side {
	case domain.SideBuy:
		p.CashBalance = p.CashBalance.Sub(totalAmount)

		if holding, ok := table.Lookup(symbol); ok {
			// Weighted-average restatement. The new average must be computed
			// from the trade's total amount and BEFORE the quantity is
			// overwritten; using the updated quantity corrupts the cost basis.
			newQuantity := holding.Quantity.Add(quantity)
			newAverage := holding.Quantity.Mul(holding.AveragePrice).
				Add(totalAmount).
				Div(newQuantity)

			holding.AveragePrice = newAverage
			holding.Quantity = newQuantity
			holding.LastUpdated = now
			result.Holding = holding
		} else {
			holding := &domain.Holding{
				PortfolioID:  p.ID,
				Symbol:       symbol,
				Quantity:     quantity,
				AveragePrice: price,
				LastUpdated:  now,
			}
			table.Insert(holding)
			result.Holding = holding
		}

	case domain.SideSell:
		p.CashBalance = p.CashBalance.Add(totalAmount)

		holding, _ := table.Lookup(symbol)
		// Exact decimal comparison against the pre-decrement quantity.
		// Fractional shares are allowed, so float equality would be wrong here.
		if holding.Quantity.Equal(quantity) {
			table.Remove(symbol)
			result.HoldingGone = true
		} else {
			holding.Quantity = holding.Quantity.Sub(quantity)
			// Sells never change the average cost
			holding.LastUpdated = now
			result.Holding = holding
		}
	}

	p.UpdatedAt = now

	result.Transaction = &domain.Transaction{
		PortfolioID: p.ID,
		Symbol:      symbol,
		Type:        side,
		Quantity:    quantity,
		Price:       price,
		TotalAmount: totalAmount,
		CreatedAt:   now,
	}

	return result, nil
}
