package database

// schemas maps database names to their embedded schema definitions.
// The main database holds users, portfolios, holdings, transactions and risk
// assessments in one file so a trade can mutate cash, holding and transaction
// log inside a single SQLite transaction.
var schemas = map[string]string{
	"main": mainSchema,
	"cache": cacheSchema,
}

const mainSchema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	first_name    TEXT,
	last_name     TEXT,
	risk_profile  TEXT,
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS portfolios (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id      INTEGER NOT NULL REFERENCES users(id),
	name         TEXT NOT NULL,
	cash_balance TEXT NOT NULL,
	created_at   INTEGER NOT NULL,
	updated_at   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_portfolios_user ON portfolios(user_id);

CREATE TABLE IF NOT EXISTS holdings (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	portfolio_id  INTEGER NOT NULL REFERENCES portfolios(id) ON DELETE CASCADE,
	symbol        TEXT NOT NULL,
	quantity      TEXT NOT NULL,
	average_price TEXT NOT NULL,
	last_updated  INTEGER NOT NULL,
	UNIQUE(portfolio_id, symbol)
);

CREATE TABLE IF NOT EXISTS transactions (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	portfolio_id INTEGER NOT NULL REFERENCES portfolios(id),
	symbol       TEXT NOT NULL,
	type         TEXT NOT NULL CHECK(type IN ('BUY','SELL')),
	quantity     TEXT NOT NULL,
	price        TEXT NOT NULL,
	total_amount TEXT NOT NULL,
	created_at   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_portfolio_date
	ON transactions(portfolio_id, created_at DESC);

CREATE TABLE IF NOT EXISTS risk_assessments (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id             INTEGER NOT NULL REFERENCES users(id),
	risk_level          TEXT NOT NULL CHECK(risk_level IN ('low','medium','high')),
	investment_duration INTEGER NOT NULL,
	risk_tolerance      INTEGER NOT NULL,
	financial_goals     TEXT,
	created_at          INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_risk_assessments_user ON risk_assessments(user_id);
`

const cacheSchema = `
CREATE TABLE IF NOT EXISTS quotes (
	symbol     TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS daily_series (
	symbol     TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);
`
