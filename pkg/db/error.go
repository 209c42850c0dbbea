package db

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUndefinedTable    = "42P01"
	mysqlUnknownTable   = 1146
	sqliteNoSuchTable = "no such table"
)

// IsUndefinedTable reports whether err is a driver error for a table that
// does not exist.
func IsUndefinedTable(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUndefinedTable
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlUnknownTable
	}

	// SQLite drivers only surface the message.
	return strings.Contains(strings.ToLower(err.Error()), sqliteNoSuchTable)
}
