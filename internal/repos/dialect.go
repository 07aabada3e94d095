package repos

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"boutique/internal/domain"
)

// Driver names accepted by OpenDB, as registered with database/sql.
const (
	DriverSQLite = "sqlite"
	DriverPgx    = "pgx"
	DriverMySQL  = "mysql"
)

// stampLayout is fixed width so string order matches time order.
const stampLayout = "2006-01-02T15:04:05.000000Z07:00"

func stamp(t time.Time) string { return t.UTC().Format(stampLayout) }

func parseStamp(s string) time.Time {
	t, err := time.Parse(stampLayout, s)
	if err != nil {
		// rows written by hand or by an older build
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t.UTC()
}

// forUpdate returns the row-lock suffix where the store supports it.
// SQLite serialises writers already.
func forUpdate(q sqlx.QueryerContext) string {
	if b, ok := q.(interface{ DriverName() string }); ok && b.DriverName() != DriverSQLite {
		return " FOR UPDATE"
	}
	return ""
}

// translate maps driver errors onto domain sentinels.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) && (se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY) {
		return true
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe.Code == "23505"
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isTransient reports lock contention and serialisation failures that are
// safe to retry as a whole transaction.
func isTransient(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code() & 0xff
		return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe.Code == "40001" || pe.Code == "40P01"
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1213 || me.Number == 1205
	}
	return false
}

func isDuplicateIndex(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1061
}

// likeArg builds a case-insensitive contains pattern for LOWER(col) LIKE ?.
func likeArg(q string) string {
	return "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
}
