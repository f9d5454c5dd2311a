package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// UniqueViolation is the PostgreSQL SQLSTATE for unique constraint failures.
const UniqueViolation = "23505"

// TxObserver receives the duration and outcome of each transaction.
type TxObserver interface {
	ObserveTransaction(label string, duration time.Duration, committed bool)
}

// Transactor runs units of work inside a database transaction. A connection
// is checked out per call and released on every exit path.
type Transactor struct {
	db       *sqlx.DB
	opts     *sql.TxOptions
	observer TxObserver
}

// NewTransactor builds a Transactor using READ COMMITTED isolation; row
// locks taken with SELECT ... FOR UPDATE provide the required exclusivity.
func NewTransactor(db *sqlx.DB, observer TxObserver) *Transactor {
	return &Transactor{
		db:       db,
		opts:     &sql.TxOptions{Isolation: sql.LevelReadCommitted},
		observer: observer,
	}
}

// WithinTx executes fn in a transaction, committing when fn returns nil and
// rolling back otherwise (including panics).
func (t *Transactor) WithinTx(ctx context.Context, label string, fn func(exec sqlx.ExtContext) error) (err error) {
	start := time.Now()
	committed := false
	defer func() {
		if t.observer != nil {
			t.observer.ObserveTransaction(label, time.Since(start), committed)
		}
	}()

	tx, err := t.db.BeginTxx(ctx, t.opts)
	if err != nil {
		return fmt.Errorf("begin %s transaction: %w", label, err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s transaction: %w", label, err)
	}
	committed = true
	return nil
}

// IsUniqueViolation reports whether err is a PostgreSQL unique violation,
// optionally restricted to a constraint name.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if string(pqErr.Code) != UniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
