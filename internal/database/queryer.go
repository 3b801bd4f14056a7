package database

import "database/sql"

// Queryer is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Repositories are written against it so the portfolio service can run the
// three writes of a trade inside one transaction.
type Queryer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

var (
	_ Queryer = (*sql.DB)(nil)
	_ Queryer = (*sql.Tx)(nil)
)
