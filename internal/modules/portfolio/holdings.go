package portfolio

import (
	"sort"

	"github.com/wealthdesk/wealthdesk/internal/domain"
)

// HoldingTable is the in-memory view of one portfolio's open positions,
// keyed by symbol. It is built from holding rows at the start of an operation
// and written back through the holding repository afterwards.
//
// Iteration via Symbols()/Holdings() is sorted by symbol: totals don't depend
// on order, but valuation results must be reproducible.
type HoldingTable struct {
	bySymbol map[string]*domain.Holding
}

// NewHoldingTable builds a table from holding rows
func NewHoldingTable(holdings []domain.Holding) *HoldingTable {
	table := &HoldingTable{bySymbol: make(map[string]*domain.Holding, len(holdings))}
	for i := range holdings {
		h := holdings[i]
		table.bySymbol[h.Symbol] = &h
	}
	return table
}

// Lookup returns the holding for a symbol, if present
func (t *HoldingTable) Lookup(symbol string) (*domain.Holding, bool) {
	h, ok := t.bySymbol[normalizeSymbol(symbol)]
	return h, ok
}

// Insert adds or replaces a holding
func (t *HoldingTable) Insert(h *domain.Holding) {
	h.Symbol = normalizeSymbol(h.Symbol)
	t.bySymbol[h.Symbol] = h
}

// Remove deletes a holding from the table
func (t *HoldingTable) Remove(symbol string) {
	delete(t.bySymbol, normalizeSymbol(symbol))
}

// Len returns the number of open positions
func (t *HoldingTable) Len() int {
	return len(t.bySymbol)
}

// Symbols returns all symbols in sorted order
func (t *HoldingTable) Symbols() []string {
	symbols := make([]string, 0, len(t.bySymbol))
	for s := range t.bySymbol {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// Holdings returns all holdings sorted by symbol
func (t *HoldingTable) Holdings() []domain.Holding {
	holdings := make([]domain.Holding, 0, len(t.bySymbol))
	for _, symbol := range t.Symbols() {
		holdings = append(holdings, *t.bySymbol[symbol])
	}
	return holdings
}
