package repos

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	applog "boutique/internal/log"
)

// InTx runs fn inside one transaction, committing on success. Lock
// contention is retried with exponential backoff up to retries extra
// attempts; any other error rolls back and is returned as is.
func InTx(ctx context.Context, db *sqlx.DB, retries int, fn func(tx *sqlx.Tx) error) error {
	if retries < 0 {
		retries = 0
	}
	attempt := 0
	op := func() (struct{}, error) {
		attempt++
		err := runTx(ctx, db, fn)
		if err == nil {
			return struct{}{}, nil
		}
		if !isTransient(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		applog.L().Warn("db.tx.retry", zap.Int("attempt", attempt), zap.Error(err))
		return struct{}{}, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(retries+1)),
	)
	var pe *backoff.PermanentError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}

func runTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
