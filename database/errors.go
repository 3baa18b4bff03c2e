package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// ViolationKind вид нарушения ограничения хранилища
type ViolationKind int

const (
	ViolationNone ViolationKind = iota
	ViolationUnique
	ViolationForeignKey
)

// Коды ошибок PostgreSQL
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgTooManyConnections  = "53300"
	pgAdminShutdown       = "57P01"
	pgCannotConnectNow    = "57P03"
)

// ConstraintViolation описывает нарушение уникальности или внешнего ключа,
// полученное от драйвера БД
type ConstraintViolation struct {
	Kind       ViolationKind
	Table      string
	Columns    []string
	Constraint string
}

// HasColumn проверяет, участвует ли колонка в нарушенном ограничении
func (v ConstraintViolation) HasColumn(column string) bool {
	for _, c := range v.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// ParseConstraintViolation распознает нарушение ограничения для PostgreSQL (pgx и lib/pq) и SQLite
func ParseConstraintViolation(err error) (ConstraintViolation, bool) {
	if err == nil {
		return ConstraintViolation{}, false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fromPostgres(pgErr.Code, pgErr.TableName, pgErr.ConstraintName, pgErr.ColumnName, pgErr.Detail)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fromPostgres(string(pqErr.Code), pqErr.Table, pqErr.Constraint, pqErr.Column, pqErr.Detail)
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return fromSQLite(liteErr)
	}

	return ConstraintViolation{}, false
}

func fromPostgres(code, table, constraint, column, detail string) (ConstraintViolation, bool) {
	var kind ViolationKind
	switch code {
	case pgUniqueViolation:
		kind = ViolationUnique
	case pgForeignKeyViolation:
		kind = ViolationForeignKey
	default:
		return ConstraintViolation{}, false
	}

	columns := columnsFromDetail(detail)
	if len(columns) == 0 && column != "" {
		columns = []string{column}
	}

	return ConstraintViolation{
		Kind:       kind,
		Table:      table,
		Columns:    columns,
		Constraint: constraint,
	}, true
}

// columnsFromDetail извлекает колонки из "Key (a, b)=(1, 2) already exists."
func columnsFromDetail(detail string) []string {
	start := strings.Index(detail, "Key (")
	if start < 0 {
		return nil
	}
	rest := detail[start+len("Key ("):]
	end := strings.Index(rest, ")=")
	if end < 0 {
		return nil
	}
	return splitColumns(rest[:end])
}

func fromSQLite(liteErr sqlite3.Error) (ConstraintViolation, bool) {
	if liteErr.Code != sqlite3.ErrConstraint {
		return ConstraintViolation{}, false
	}

	switch liteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		// "UNIQUE constraint failed: screens.code"
		v := ConstraintViolation{Kind: ViolationUnique}
		msg := liteErr.Error()
		if idx := strings.Index(msg, "failed: "); idx >= 0 {
			for _, qualified := range splitColumns(msg[idx+len("failed: "):]) {
				table, column, ok := strings.Cut(qualified, ".")
				if !ok {
					v.Columns = append(v.Columns, qualified)
					continue
				}
				v.Table = table
				v.Columns = append(v.Columns, column)
			}
		}
		return v, true
	case sqlite3.ErrConstraintForeignKey:
		// SQLite не сообщает, какая связь нарушена
		return ConstraintViolation{Kind: ViolationForeignKey}, true
	}

	return ConstraintViolation{}, false
}

func splitColumns(list string) []string {
	parts := strings.Split(list, ",")
	columns := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			columns = append(columns, p)
		}
	}
	return columns
}

// IsUnavailable сообщает, что хранилище недоступно: обрыв соединения, таймаут
// или отказ сервера принимать подключения
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return isUnavailableCode(pgErr.Code)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return isUnavailableCode(string(pqErr.Code))
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

func isUnavailableCode(code string) bool {
	// Класс 08 - ошибки соединения
	if strings.HasPrefix(code, "08") {
		return true
	}
	switch code {
	case pgTooManyConnections, pgAdminShutdown, pgCannotConnectNow:
		return true
	}
	return false
}
