package mssql

import (
	"context"
	"errors"
	"fmt"

	mssqldb "github.com/microsoft/go-mssqldb"

	"github.com/johndauphine/sqlsrv-adapter/internal/driver"
	"github.com/johndauphine/sqlsrv-adapter/internal/logging"
)

// Query runs a row-returning statement. The text goes through the SQL Server
// rewrite rules first. A nil params runs the statement without arguments;
// types, when given, must cover every value.
func (a *Adapter) Query(ctx context.Context, query string, params []any, types []driver.BindType) (*Cursor, error) {
	return a.runQuery(ctx, rewriteQuery(query), params, types)
}

// runQuery executes query verbatim.
func (a *Adapter) runQuery(ctx context.Context, query string, params []any, types []driver.BindType) (*Cursor, error) {
	if err := a.begin(query, params, types); err != nil {
		return nil, err
	}
	args, err := bindArgs(params, types)
	if err != nil {
		return nil, err
	}

	mode := cursorModeFor(query)
	logging.Debug("[%s] query (%s): %s", a.id, mode, query)

	stmt, err := a.conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, a.executionError(query, err)
	}
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		stmt.Close()
		return nil, a.executionError(query, err)
	}

	a.fireAfter(params)
	return newCursor(stmt, rows, mode)
}

// Execute runs a statement that returns no rows and reports the number of
// affected rows.
func (a *Adapter) Execute(ctx context.Context, query string, params []any, types []driver.BindType) (int64, error) {
	if err := a.begin(query, params, types); err != nil {
		return 0, err
	}
	logging.Debug("[%s] execute: %s", a.id, query)

	var affected int64
	if params != nil {
		args, err := bindArgs(params, types)
		if err != nil {
			return 0, err
		}
		stmt, err := a.conn.PrepareContext(ctx, query)
		if err != nil {
			return 0, a.executionError(query, err)
		}
		defer stmt.Close()
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return 0, a.executionError(query, err)
		}
		affected, _ = res.RowsAffected()
	} else {
		res, err := a.conn.ExecContext(ctx, query)
		if err != nil {
			return 0, a.executionError(query, err)
		}
		affected, _ = res.RowsAffected()
	}

	a.affected = affected
	a.fireAfter(params)
	return affected, nil
}

// begin records the statement for diagnostics and consults the before hook.
func (a *Adapter) begin(query string, params []any, types []driver.BindType) error {
	if a.conn == nil {
		return fmt.Errorf("%w: adapter is not connected", driver.ErrConnection)
	}
	a.lastSQL = query
	a.lastVars = params
	a.lastTypes = types
	if logging.IsDebug() && len(params) > 0 {
		logging.Debug("[%s] params: %v types: %v", a.id, params, types)
	}
	if !a.fireBefore(params) {
		logging.Debug("[%s] statement vetoed: %s", a.id, query)
		return driver.ErrVetoed
	}
	return nil
}

func (a *Adapter) executionError(query string, err error) error {
	execErr := &driver.ExecutionError{SQL: query, Err: err}
	var srvErr mssqldb.Error
	if errors.As(err, &srvErr) {
		execErr.Number = srvErr.Number
		execErr.State = srvErr.State
	}
	logging.Debug("[%s] %v", a.id, execErr)
	return execErr
}

// FetchAll runs query and returns every row keyed by column name.
func (a *Adapter) FetchAll(ctx context.Context, query string, params []any, types []driver.BindType) ([]map[string]any, error) {
	cur, err := a.Query(ctx, query, params, types)
	if err != nil {
		return nil, err
	}
	return cur.FetchAll()
}

// FetchOne returns the first row of query, or nil when there is none.
func (a *Adapter) FetchOne(ctx context.Context, query string, params []any, types []driver.BindType) (map[string]any, error) {
	cur, err := a.Query(ctx, query, params, types)
	if err != nil {
		return nil, err
	}
	defer cur.Close()
	if !cur.Next() {
		return nil, cur.Err()
	}
	return cur.Map(), nil
}

// FetchColumn returns column col of the first row, or nil when there are no
// rows.
func (a *Adapter) FetchColumn(ctx context.Context, query string, params []any, col int) (any, error) {
	cur, err := a.Query(ctx, query, params, nil)
	if err != nil {
		return nil, err
	}
	defer cur.Close()
	if !cur.Next() {
		return nil, cur.Err()
	}
	row := cur.Row()
	if col < 0 || col >= len(row) {
		return nil, fmt.Errorf("%w: column %d out of range [0,%d)", driver.ErrArgument, col, len(row))
	}
	return row[col], nil
}
