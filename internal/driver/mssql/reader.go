package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/johndauphine/sqlsrv-adapter/internal/driver"
)

// fetchAll runs an introspection statement without the query rewrite.
func (a *Adapter) fetchAll(ctx context.Context, query string) ([]map[string]any, error) {
	cur, err := a.runQuery(ctx, query, nil, nil)
	if err != nil {
		return nil, err
	}
	return cur.FetchAll()
}

func (a *Adapter) fetchRows(ctx context.Context, query string) ([][]any, error) {
	cur, err := a.runQuery(ctx, query, nil, nil)
	if err != nil {
		return nil, err
	}
	return cur.FetchRows()
}

// PrimaryKeyColumns returns the primary key columns of table in key order.
func (a *Adapter) PrimaryKeyColumns(ctx context.Context, table, schema string) ([]string, error) {
	if a.dialect == nil {
		return nil, fmt.Errorf("%w: adapter is not connected", driver.ErrConnection)
	}
	rows, err := a.fetchAll(ctx, a.dialect.PrimaryKey(table, schema))
	if err != nil {
		return nil, fmt.Errorf("loading primary key of %s: %w", table, err)
	}
	cols := make([]string, 0, len(rows))
	for _, r := range rows {
		cols = append(cols, asString(r["COLUMN_NAME"]))
	}
	return cols, nil
}

// DescribeColumns returns one Column per physical column of table, in
// declaration order.
func (a *Adapter) DescribeColumns(ctx context.Context, table, schema string) ([]driver.Column, error) {
	pkCols, err := a.PrimaryKeyColumns(ctx, table, schema)
	if err != nil {
		return nil, err
	}
	primary := make(map[string]bool, len(pkCols))
	for _, c := range pkCols {
		primary[c] = true
	}

	rows, err := a.fetchAll(ctx, a.dialect.DescribeColumns(table, schema))
	if err != nil {
		return nil, fmt.Errorf("loading columns of %s: %w", table, err)
	}

	columns := make([]driver.Column, 0, len(rows))
	previous := ""
	for i, r := range rows {
		col := a.mapper.MapColumn(driver.TypeInfo{
			TypeName:  asString(r["TYPE_NAME"]),
			Length:    asInt(r["LENGTH"]),
			Precision: asInt(r["PRECISION"]),
			Scale:     asNullInt(r["SCALE"]),
		})
		col.Name = asString(r["COLUMN_NAME"])
		col.Primary = primary[col.Name]
		if nullable, ok := r["NULLABLE"]; ok && nullable != nil && asInt(nullable) == 0 {
			col.NotNull = true
		}
		if def := r["COLUMN_DEF"]; def != nil {
			s := asString(def)
			col.Default = &s
		}
		if i == 0 {
			col.First = true
		} else {
			col.After = previous
		}
		previous = col.Name
		columns = append(columns, col)
	}
	return columns, nil
}

// DescribeIndexes returns the named indexes of table with their key columns.
func (a *Adapter) DescribeIndexes(ctx context.Context, table, schema string) ([]driver.Index, error) {
	if a.dialect == nil {
		return nil, fmt.Errorf("%w: adapter is not connected", driver.ErrConnection)
	}
	rows, err := a.fetchAll(ctx, a.dialect.DescribeIndexes(table, schema))
	if err != nil {
		return nil, fmt.Errorf("loading indexes of %s: %w", table, err)
	}

	var indexes []driver.Index
	pos := make(map[string]int)
	for _, r := range rows {
		name := asString(r["index_name"])
		i, ok := pos[name]
		if !ok {
			i = len(indexes)
			pos[name] = i
			indexes = append(indexes, driver.Index{Name: name})
		}
		if col := asString(r["column_name"]); col != "" {
			indexes[i].Columns = append(indexes[i].Columns, col)
		}
	}
	return indexes, nil
}

// DescribeReferences returns the foreign keys of table, one per constraint.
func (a *Adapter) DescribeReferences(ctx context.Context, table, schema string) ([]driver.Reference, error) {
	if a.dialect == nil {
		return nil, fmt.Errorf("%w: adapter is not connected", driver.ErrConnection)
	}
	rows, err := a.fetchRows(ctx, a.dialect.DescribeReferences(table, schema))
	if err != nil {
		return nil, fmt.Errorf("loading references of %s: %w", table, err)
	}

	var refs []driver.Reference
	pos := make(map[string]int)
	for _, r := range rows {
		if len(r) < 6 {
			return nil, fmt.Errorf("loading references of %s: expected 6 columns, got %d", table, len(r))
		}
		name := asString(r[2])
		i, ok := pos[name]
		if !ok {
			i = len(refs)
			pos[name] = i
			refs = append(refs, driver.Reference{
				Name:             name,
				ReferencedSchema: asString(r[3]),
				ReferencedTable:  asString(r[4]),
			})
		}
		refs[i].Columns = append(refs[i].Columns, asString(r[1]))
		refs[i].ReferencedColumns = append(refs[i].ReferencedColumns, asString(r[5]))
	}
	return refs, nil
}

// TableOptions returns the storage options of table, or an empty map when
// the table is unknown.
func (a *Adapter) TableOptions(ctx context.Context, table, schema string) (map[string]any, error) {
	if a.dialect == nil {
		return nil, fmt.Errorf("%w: adapter is not connected", driver.ErrConnection)
	}
	query := a.dialect.TableOptions(table, schema)
	if query == "" {
		return map[string]any{}, nil
	}
	rows, err := a.fetchAll(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("loading options of %s: %w", table, err)
	}
	if len(rows) == 0 {
		return map[string]any{}, nil
	}
	return rows[0], nil
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func asInt(v any) int {
	if v == nil {
		return 0
	}
	n, err := toInt64(v)
	if err != nil {
		return 0
	}
	return int(n)
}

func asNullInt(v any) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	n, err := toInt64(v)
	if err != nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: n, Valid: true}
}
