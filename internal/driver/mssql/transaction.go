package mssql

import (
	"context"
	"fmt"
)

// Transactions are emulated with plain statements on the pinned session.
// The nesting argument is accepted for interface compatibility but every
// call sends its statement; nesting depth lives on the server and is read
// with TransactionLevel.

// Begin starts a transaction.
func (a *Adapter) Begin(ctx context.Context, nesting bool) error {
	_, err := a.Execute(ctx, "BEGIN TRANSACTION;", nil, nil)
	return err
}

// Commit commits the innermost transaction.
func (a *Adapter) Commit(ctx context.Context, nesting bool) error {
	_, err := a.Execute(ctx, "COMMIT TRANSACTION", nil, nil)
	return err
}

// Rollback rolls back the whole transaction.
func (a *Adapter) Rollback(ctx context.Context, nesting bool) error {
	_, err := a.Execute(ctx, "ROLLBACK TRANSACTION", nil, nil)
	return err
}

// TransactionLevel returns @@TRANCOUNT for the session. It is queried on
// every call.
func (a *Adapter) TransactionLevel(ctx context.Context) (int, error) {
	cur, err := a.runQuery(ctx, "SELECT @@TRANCOUNT as level", nil, nil)
	if err != nil {
		return 0, err
	}
	defer cur.Close()
	if !cur.Next() {
		if err := cur.Err(); err != nil {
			return 0, err
		}
		return 0, nil
	}
	n, err := toInt64(cur.Row()[0])
	if err != nil {
		return 0, fmt.Errorf("reading transaction level: %w", err)
	}
	return int(n), nil
}

// InTransaction reports whether the session has an open transaction.
func (a *Adapter) InTransaction(ctx context.Context) (bool, error) {
	n, err := a.TransactionLevel(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// WithTransaction runs fn between Begin and Commit, rolling back when fn
// returns an error.
func (a *Adapter) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := a.Begin(ctx, false); err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(ctx); err != nil {
		if rbErr := a.Rollback(ctx, false); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := a.Commit(ctx, false); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
