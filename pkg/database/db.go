package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
)

// DB is the subset of sqlx.DB the repositories use, plus context-scoped
// transaction support. Repositories depend on this interface so tests can
// substitute a stub.
type DB interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	Close() error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	PingContext(ctx context.Context) error
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
	Rebind(query string) string
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	SetConnMaxLifetime(d time.Duration)
	SetMaxIdleConns(n int)
	SetMaxOpenConns(n int)
	GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, Tx, error)
}

type DatabaseInstance struct {
	*sqlx.DB
	logger ectologger.Logger
}

func NewDatabaseInstance(db *sqlx.DB, logger ectologger.Logger) DB {
	return &DatabaseInstance{
		DB:     db,
		logger: logger,
	}
}

func (db *DatabaseInstance) GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, Tx, error) {
	return GetTx(ctx, db.logger, db, opts)
}
