package mssql

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/johndauphine/sqlsrv-adapter/internal/driver"
)

// Where is the structured form of an UPDATE condition. Bind is appended
// after the values of the SET clause. BindTypes only apply when the update
// itself is typed.
type Where struct {
	Conditions string
	Bind       []any
	BindTypes  []driver.BindType
}

// Insert adds one row to table. values must be a non-empty slice or array;
// fields may be nil to insert in column order. Table and field names are used
// as given.
//
// The statement also selects SCOPE_IDENTITY(). Insert returns true and
// remembers the id when it is positive; otherwise it returns false, which is
// the normal outcome for tables without an identity column.
func (a *Adapter) Insert(ctx context.Context, table string, values any, fields []string, dataTypes []driver.BindType) (bool, error) {
	rv := reflect.ValueOf(values)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return false, fmt.Errorf("%w: insert values for %s must be a slice, got %T", driver.ErrArgument, table, values)
	}
	if rv.Len() == 0 {
		return false, fmt.Errorf("%w: unable to insert into %s without data", driver.ErrArgument, table)
	}
	if dataTypes != nil && len(dataTypes) != rv.Len() {
		return false, fmt.Errorf("%w: %d values, %d bind types", driver.ErrBindTypeMismatch, rv.Len(), len(dataTypes))
	}

	placeholders := make([]string, rv.Len())
	params := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		placeholders[i] = "?"
		params[i] = normalize(rv.Index(i).Interface())
	}

	var sb strings.Builder
	sb.WriteString("SET NOCOUNT ON; INSERT INTO ")
	sb.WriteString(table)
	if fields != nil {
		sb.WriteString(" (")
		sb.WriteString(strings.Join(fields, ", "))
		sb.WriteString(")")
	}
	sb.WriteString(" VALUES (")
	sb.WriteString(strings.Join(placeholders, ", "))
	sb.WriteString("); SELECT CAST(SCOPE_IDENTITY() AS int) AS newid")

	cur, err := a.runQuery(ctx, sb.String(), params, dataTypes)
	if err != nil {
		a.clearLastInsertID()
		return false, err
	}
	rows, err := cur.FetchAll()
	if err != nil {
		a.clearLastInsertID()
		return false, err
	}

	if len(rows) > 0 {
		if raw, ok := rows[0]["newid"]; ok && raw != nil {
			if id, err := toInt64(raw); err == nil && id > 0 {
				a.lastInsertID = id
				a.hasLastInsertID = true
				return true, nil
			}
		}
	}
	a.clearLastInsertID()
	return false, nil
}

// LastInsertID returns the identity produced by the last successful Insert.
// The arguments are accepted for compatibility; the cached value is returned
// without a round trip.
func (a *Adapter) LastInsertID(table, primaryKey string) (int64, bool) {
	return a.lastInsertID, a.hasLastInsertID
}

// Update sets fields to values on the rows matching where. Nil values are
// written as literal null; a nil where updates every row.
func (a *Adapter) Update(ctx context.Context, table string, fields []string, values []any, where *Where, dataTypes []driver.BindType) (int64, error) {
	if len(fields) != len(values) {
		return 0, fmt.Errorf("%w: the number of values in the update is not the same as fields", driver.ErrArgument)
	}
	if dataTypes != nil && len(dataTypes) != len(values) {
		return 0, fmt.Errorf("%w: %d values, %d bind types", driver.ErrBindTypeMismatch, len(values), len(dataTypes))
	}
	if where != nil && strings.TrimSpace(where.Conditions) == "" {
		return 0, fmt.Errorf("%w: update condition has no conditions", driver.ErrArgument)
	}

	sets := make([]string, len(fields))
	params := []any{}
	var types []driver.BindType
	if dataTypes != nil {
		types = []driver.BindType{}
	}
	for i, field := range fields {
		v := normalize(values[i])
		if v == nil {
			sets[i] = field + " = null"
			continue
		}
		sets[i] = field + " = ?"
		params = append(params, v)
		if dataTypes != nil {
			types = append(types, dataTypes[i])
		}
	}

	query := "UPDATE " + table + " SET " + strings.Join(sets, ", ")
	if where != nil {
		query += " WHERE " + where.Conditions
		params = append(params, where.Bind...)
		if types != nil {
			types = appendWhereTypes(types, where)
		}
	}

	return a.Execute(ctx, query, params, types)
}

// appendWhereTypes appends the condition's bind types, defaulting to string
// for condition values that have none.
func appendWhereTypes(types []driver.BindType, where *Where) []driver.BindType {
	for i := range where.Bind {
		if i < len(where.BindTypes) {
			types = append(types, where.BindTypes[i])
		} else {
			types = append(types, driver.BindStr)
		}
	}
	return types
}

// Delete removes the rows of table matching where. An empty where deletes
// every row.
func (a *Adapter) Delete(ctx context.Context, table string, where string, placeholders []any, dataTypes []driver.BindType) (int64, error) {
	query := "DELETE FROM " + table
	if strings.TrimSpace(where) != "" {
		query += " WHERE " + where
	}
	return a.Execute(ctx, query, placeholders, dataTypes)
}
