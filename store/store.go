package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bookstore/database"
	"bookstore/utils"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrDuplicate  = errors.New("duplicate value")
	ErrForeignKey = errors.New("referenced row does not exist")
)

// Store is the single persistence handle of the process. It is built once
// in main and handed to the services.
type Store struct {
	db     *sqlx.DB
	qb     squirrel.StatementBuilderType
	driver string
}

// Open connects to driver ("postgres" or "sqlite") and picks the matching
// placeholder format.
func Open(driver, dsn string) (*Store, error) {
	var format squirrel.PlaceholderFormat
	switch driver {
	case database.DriverPostgres:
		format = squirrel.Dollar
	case database.DriverSQLite:
		format = squirrel.Question
		dsn = sqliteDSN(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, utils.ErrorWithTrace(err, "connect "+driver)
	}
	if driver == database.DriverSQLite {
		// one writer at a time, transactions never wait on themselves
		db.SetMaxOpenConns(1)
	}

	return &Store{
		db:     db,
		qb:     squirrel.StatementBuilder.PlaceholderFormat(format),
		driver: driver,
	}, nil
}

func (s *Store) Driver() string {
	return s.driver
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// inTx runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise.
func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return utils.ErrorWithTrace(err, "begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if err = tx.Commit(); err != nil {
			err = utils.ErrorWithTrace(err, "commit transaction")
		}
	}()

	return fn(tx)
}

// classify maps driver specific constraint errors onto the package
// sentinels so callers never look at driver types.
func classify(err error, msg string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return fmt.Errorf("%s: %w: %s", msg, ErrDuplicate, pqErr.Constraint)
		case "23503":
			return fmt.Errorf("%s: %w: %s", msg, ErrForeignKey, pqErr.Constraint)
		}
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%s: %w", msg, ErrDuplicate)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%s: %w", msg, ErrForeignKey)
		case sqlite3.SQLITE_CONSTRAINT:
			// primary code only, fall back to the message
			switch text := liteErr.Error(); {
			case strings.Contains(text, "UNIQUE constraint failed"):
				return fmt.Errorf("%s: %w", msg, ErrDuplicate)
			case strings.Contains(text, "FOREIGN KEY constraint failed"):
				return fmt.Errorf("%s: %w", msg, ErrForeignKey)
			}
		}
	}

	return utils.ErrorWithTrace(err, msg)
}

func sqliteDSN(dsn string) string {
	dsn = strings.TrimPrefix(dsn, "sqlite://")
	pragmas := []string{}
	if !strings.Contains(dsn, "foreign_keys") {
		pragmas = append(pragmas, "_pragma=foreign_keys(1)")
	}
	if !strings.Contains(dsn, "busy_timeout") {
		pragmas = append(pragmas, "_pragma=busy_timeout(5000)")
	}
	if len(pragmas) == 0 {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(pragmas, "&")
}
