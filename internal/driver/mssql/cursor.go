package mssql

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/johndauphine/sqlsrv-adapter/internal/driver"
)

// CursorMode describes how a Cursor can move through its rows.
type CursorMode int

const (
	// CursorScrollable buffers the whole result set and supports seeking.
	CursorScrollable CursorMode = iota
	// CursorForwardOnly streams rows from the server once.
	CursorForwardOnly
)

func (m CursorMode) String() string {
	if m == CursorForwardOnly {
		return "forward-only"
	}
	return "scrollable"
}

// cursorModeFor selects forward-only for anything that looks like a stored
// procedure call. The match is a plain case-sensitive substring test.
func cursorModeFor(query string) CursorMode {
	if strings.Contains(query, "exec") {
		return CursorForwardOnly
	}
	return CursorScrollable
}

// Cursor iterates the rows of one query.
//
// A forward-only cursor holds the session until it is exhausted or closed;
// no other statement may run on the adapter in between.
type Cursor struct {
	mode    CursorMode
	columns []string

	// forward-only
	stmt *sql.Stmt
	rows *sql.Rows

	// scrollable
	buffered [][]any
	pos      int

	current []any
	err     error
	closed  bool
}

func newCursor(stmt *sql.Stmt, rows *sql.Rows, mode CursorMode) (*Cursor, error) {
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		stmt.Close()
		return nil, fmt.Errorf("reading columns: %w", err)
	}
	c := &Cursor{mode: mode, columns: cols, stmt: stmt, rows: rows}
	if mode == CursorForwardOnly {
		return c, nil
	}

	defer func() {
		c.rows = nil
		c.stmt = nil
	}()
	defer stmt.Close()
	defer rows.Close()
	for rows.Next() {
		row, err := scanRow(rows, len(cols))
		if err != nil {
			return nil, err
		}
		c.buffered = append(c.buffered, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return c, nil
}

func scanRow(rows *sql.Rows, n int) ([]any, error) {
	vals := make([]any, n)
	ptrs := make([]any, n)
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scanning row: %w", err)
	}
	for i, v := range vals {
		if b, ok := v.([]byte); ok {
			vals[i] = append([]byte(nil), b...)
		}
	}
	return vals, nil
}

// Mode returns the cursor mode chosen for the statement.
func (c *Cursor) Mode() CursorMode { return c.mode }

// Columns returns the result column names.
func (c *Cursor) Columns() []string { return c.columns }

// Next advances to the next row.
func (c *Cursor) Next() bool {
	if c.closed {
		return false
	}
	if c.mode == CursorScrollable {
		if c.pos >= len(c.buffered) {
			c.current = nil
			return false
		}
		c.current = c.buffered[c.pos]
		c.pos++
		return true
	}

	if !c.rows.Next() {
		c.err = c.rows.Err()
		c.current = nil
		c.Close()
		return false
	}
	row, err := scanRow(c.rows, len(c.columns))
	if err != nil {
		c.err = err
		c.current = nil
		c.Close()
		return false
	}
	c.current = row
	return true
}

// Row returns the values of the current row in column order.
func (c *Cursor) Row() []any { return c.current }

// Map returns the current row keyed by column name.
func (c *Cursor) Map() map[string]any {
	if c.current == nil {
		return nil
	}
	m := make(map[string]any, len(c.columns))
	for i, col := range c.columns {
		m[col] = c.current[i]
	}
	return m
}

// Err returns the error, if any, that ended iteration.
func (c *Cursor) Err() error { return c.err }

// NumRows returns the number of rows in a scrollable cursor.
func (c *Cursor) NumRows() (int, error) {
	if c.mode != CursorScrollable {
		return 0, fmt.Errorf("%w: row count needs a scrollable cursor", driver.ErrArgument)
	}
	return len(c.buffered), nil
}

// DataSeek positions a scrollable cursor so the next call to Next returns
// row n (zero based).
func (c *Cursor) DataSeek(n int) error {
	if c.mode != CursorScrollable {
		return fmt.Errorf("%w: seek needs a scrollable cursor", driver.ErrArgument)
	}
	if n < 0 || n > len(c.buffered) {
		return fmt.Errorf("%w: row %d out of range [0,%d]", driver.ErrArgument, n, len(c.buffered))
	}
	c.pos = n
	c.current = nil
	return nil
}

// FetchAll returns the remaining rows as maps and closes the cursor.
func (c *Cursor) FetchAll() ([]map[string]any, error) {
	defer c.Close()
	var out []map[string]any
	for c.Next() {
		out = append(out, c.Map())
	}
	return out, c.err
}

// FetchRows returns the remaining rows as value slices and closes the cursor.
func (c *Cursor) FetchRows() ([][]any, error) {
	defer c.Close()
	var out [][]any
	for c.Next() {
		out = append(out, c.current)
	}
	return out, c.err
}

// Close releases the statement. It is safe to call more than once.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	var firstErr error
	if c.rows != nil {
		firstErr = c.rows.Close()
		c.rows = nil
	}
	if c.stmt != nil {
		if err := c.stmt.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		c.stmt = nil
	}
	return firstErr
}
