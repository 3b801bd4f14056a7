package domain

import "errors"

// Error taxonomy for the engine. Validation failures are local and
// side-effect-free: no partial writes occur when a trade is rejected.
var (
	// ErrInvalidInput - non-positive quantity/price or malformed request.
	// Rejected before any mutation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientFunds - a buy exceeding the portfolio's cash balance
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientHoldings - a sell exceeding the held quantity, or for a
	// symbol with no open position
	ErrInsufficientHoldings = errors.New("insufficient holdings")

	// ErrPortfolioNotFound - no portfolio for the given id/user pair
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrHoldingNotFound - no holding for the given symbol
	ErrHoldingNotFound = errors.New("holding not found")

	// ErrUserNotFound - no such user
	ErrUserNotFound = errors.New("user not found")

	// ErrPricingUnavailable - the price oracle failed during valuation. The
	// whole call fails rather than returning stale or partial numbers.
	ErrPricingUnavailable = errors.New("pricing unavailable")

	// ErrSymbolNotFound - the oracle does not know the symbol
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrOracleUnavailable - the oracle is unreachable, rate-limited or slow
	ErrOracleUnavailable = errors.New("price oracle unavailable")

	// ErrEmailTaken - registration with an already-registered email
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials - login failure; deliberately does not distinguish
	// unknown email from wrong password
	ErrInvalidCredentials = errors.New("invalid email or password")
)
