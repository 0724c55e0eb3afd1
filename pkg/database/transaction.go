package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
)

type TxContextKey string

const txStatusKey = TxContextKey("txStatus")
const txKey = TxContextKey("tx-context-key")

// Tx wraps a database transaction. A Tx stored in the context is reused by
// nested GetTx calls, so a service method can span several repository calls
// in one transaction without threading the Tx explicitly.
type Tx interface {
	IsOpen() bool
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
	Rebind(query string) string
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

type Transaction struct {
	*sqlx.Tx
	logger   ectologger.Logger
	isClosed bool
}

func NewTx(tx *sqlx.Tx, logger ectologger.Logger) Tx {
	return &Transaction{
		Tx:       tx,
		logger:   logger,
		isClosed: false,
	}
}

// GetTx returns the open transaction from the context when one exists,
// otherwise it begins a new one and stores it in the returned context.
func GetTx(ctx context.Context, logger ectologger.Logger, db DB, opts *sql.TxOptions) (context.Context, Tx, error) {
	ctxTx, ok := ctx.Value(txKey).(Tx)
	if ok && ctxTx != nil && ctxTx.IsOpen() {
		status, ok := ctx.Value(txStatusKey).(string)
		if ok && status == "open" {
			return ctx, ctxTx, nil
		}
	}

	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		logger.WithContext(ctx).WithError(err).Errorf("error while beginning transaction")
		return ctx, nil, fmt.Errorf("error while beginning transaction")
	}

	newTx := NewTx(tx, logger)

	ctx = context.WithValue(ctx, txStatusKey, "open")
	ctx = context.WithValue(ctx, txKey, newTx)
	return ctx, newTx, nil
}

func (t *Transaction) IsOpen() bool {
	return !t.isClosed
}

func (t *Transaction) Rollback(ctx context.Context) error {
	if t.isClosed {
		return nil
	}

	status, ok := ctx.Value(txStatusKey).(string)
	if ok && status == "open" {
		return nil // ctx tx is owned by the caller
	}

	err := t.Tx.Rollback()
	if err != nil {
		t.logger.WithContext(ctx).WithError(err).Errorf("error while rolling back transaction")
		return fmt.Errorf("error while rolling back transaction")
	}

	t.isClosed = true
	return nil
}

func (t *Transaction) Commit(ctx context.Context) error {
	if t.isClosed {
		return nil
	}

	err := t.Tx.Commit()
	if err != nil {
		t.logger.WithContext(ctx).WithError(err).Errorf("error while committing transaction")
		return fmt.Errorf("error while committing transaction")
	}

	t.isClosed = true

	return nil
}
