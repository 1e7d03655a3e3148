package mssql

import (
	"fmt"
	"strings"
)

// Dialect implements driver.Dialect for SQL Server.
//
// Identifiers are only bracket-quoted; nothing here protects against
// untrusted table or schema names.
type Dialect struct{}

func (d *Dialect) DBType() string { return "mssql" }

func (d *Dialect) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (d *Dialect) QualifyTable(schema, table string) string {
	return d.QuoteIdentifier(schema) + "." + d.QuoteIdentifier(table)
}

// objectName returns the table reference used inside OBJECT_ID().
// Without a schema the server resolves the caller's default schema.
func (d *Dialect) objectName(table, schema string) string {
	if schema == "" {
		return unicodeLiteral(d.QuoteIdentifier(table))
	}
	return unicodeLiteral(d.QualifyTable(schema, table))
}

// catalogArgs builds the @table_name/@table_owner arguments shared by the
// sp_pkeys and sp_columns catalog procedures. sp_columns matches its
// arguments as LIKE patterns, so wildcards are escaped for it only.
func catalogArgs(table, schema string, pattern bool) string {
	name := func(s string) string {
		if pattern {
			s = escapePattern(s)
		}
		return unicodeLiteral(s)
	}
	args := "@table_name = " + name(table)
	if schema != "" {
		args += ", @table_owner = " + name(schema)
	}
	return args
}

func (d *Dialect) PrimaryKey(table, schema string) string {
	return "exec sp_pkeys " + catalogArgs(table, schema, false)
}

// DescribeColumns uses sp_columns because it reports ODBC type names with the
// identity marker ("int identity") the type mapper relies on.
func (d *Dialect) DescribeColumns(table, schema string) string {
	return "exec sp_columns " + catalogArgs(table, schema, true)
}

func (d *Dialect) DescribeIndexes(table, schema string) string {
	return fmt.Sprintf(`SELECT
	i.name AS index_name,
	i.index_id,
	c.name AS column_name
FROM sys.indexes i
JOIN sys.index_columns ic ON ic.object_id = i.object_id AND ic.index_id = i.index_id
JOIN sys.columns c ON c.object_id = ic.object_id AND c.column_id = ic.column_id
WHERE i.object_id = OBJECT_ID(%s)
  AND i.name IS NOT NULL
  AND ic.is_included_column = 0
ORDER BY i.index_id, ic.key_ordinal`, d.objectName(table, schema))
}

// DescribeReferences lists one row per foreign key column. Column order is
// significant: table, column, constraint, referenced schema, referenced
// table, referenced column.
func (d *Dialect) DescribeReferences(table, schema string) string {
	return fmt.Sprintf(`SELECT
	OBJECT_NAME(fk.parent_object_id) AS TABLE_NAME,
	pc.name AS COLUMN_NAME,
	fk.name AS CONSTRAINT_NAME,
	SCHEMA_NAME(rt.schema_id) AS REFERENCED_TABLE_SCHEMA,
	rt.name AS REFERENCED_TABLE_NAME,
	rc.name AS REFERENCED_COLUMN_NAME
FROM sys.foreign_keys fk
JOIN sys.foreign_key_columns fkc ON fkc.constraint_object_id = fk.object_id
JOIN sys.columns pc ON pc.object_id = fkc.parent_object_id AND pc.column_id = fkc.parent_column_id
JOIN sys.tables rt ON rt.object_id = fkc.referenced_object_id
JOIN sys.columns rc ON rc.object_id = fkc.referenced_object_id AND rc.column_id = fkc.referenced_column_id
WHERE fk.parent_object_id = OBJECT_ID(%s)
ORDER BY fk.name, fkc.constraint_column_id`, d.objectName(table, schema))
}

func (d *Dialect) TableOptions(table, schema string) string {
	return fmt.Sprintf(`SELECT
	t.type_desc AS TABLE_TYPE,
	t.lock_escalation_desc AS LOCK_ESCALATION,
	t.temporal_type_desc AS TEMPORAL_TYPE,
	t.is_memory_optimized AS MEMORY_OPTIMIZED,
	CAST(DATABASEPROPERTYEX(DB_NAME(), 'Collation') AS nvarchar(128)) AS TABLE_COLLATION
FROM sys.tables t
WHERE t.object_id = OBJECT_ID(%s)`, d.objectName(table, schema))
}

// BuildDSN builds an ADO-style connection string without credentials.
func (d *Dialect) BuildDSN(host string, port int, database string, loginTimeout int) string {
	parts := []string{"server=" + host}
	if port > 0 {
		parts = append(parts, fmt.Sprintf("port=%d", port))
	}
	parts = append(parts, "database="+database)
	if loginTimeout > 0 {
		parts = append(parts, fmt.Sprintf("dial timeout=%d", loginTimeout))
	}
	return strings.Join(parts, ";")
}

// unicodeLiteral renders s as a Unicode (N-prefixed) string literal.
func unicodeLiteral(s string) string {
	return "N'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// escapePattern neutralizes the LIKE wildcards sp_columns applies to its name
// arguments, so "user_roles" does not match "userXroles".
func escapePattern(s string) string {
	r := strings.NewReplacer("[", "[[]", "%", "[%]", "_", "[_]")
	return r.Replace(s)
}
