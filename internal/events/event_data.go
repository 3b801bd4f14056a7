package events

// TradeExecutedData contains data for TradeExecuted events
type TradeExecutedData struct {
	PortfolioID int64  `json:"portfolio_id"`
	Symbol      string `json:"symbol"`
	Side        string `json:"side"`
	Quantity    string `json:"quantity"`
	Price       string `json:"price"`
	TotalAmount string `json:"total_amount"`
}

// PortfolioChangedData contains data for PortfolioChanged events
type PortfolioChangedData struct {
	PortfolioID int64  `json:"portfolio_id"`
	CashBalance string `json:"cash_balance"`
}

// PricesRefreshedData contains data for PricesRefreshed events
type PricesRefreshedData struct {
	Symbols int `json:"symbols"`
	Failed  int `json:"failed"`
}

// RiskProfileChangedData contains data for RiskProfileChanged events
type RiskProfileChangedData struct {
	UserID    int64  `json:"user_id"`
	RiskLevel string `json:"risk_level"`
}
