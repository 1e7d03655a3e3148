package driver

// Dialect abstracts database-specific SQL text generation.
// Each database driver provides its own Dialect implementation. All methods
// are pure: they only build SQL, execution happens in the adapter.
type Dialect interface {
	// DBType returns the database type (e.g., "mssql").
	DBType() string

	// QuoteIdentifier quotes a single identifier.
	// MSSQL: [identifier]
	QuoteIdentifier(name string) string

	// QualifyTable returns a fully qualified table reference.
	// MSSQL: [schema].[table]
	QualifyTable(schema, table string) string

	// PrimaryKey returns SQL listing the primary key columns of a table.
	// Rows expose a COLUMN_NAME column.
	PrimaryKey(table, schema string) string

	// DescribeColumns returns SQL describing every column of a table in
	// declaration order.
	DescribeColumns(table, schema string) string

	// DescribeIndexes returns SQL listing index members, one row per column.
	DescribeIndexes(table, schema string) string

	// DescribeReferences returns SQL listing foreign key members, one row per column.
	DescribeReferences(table, schema string) string

	// TableOptions returns SQL for table creation options, or "" when the
	// dialect has none.
	TableOptions(table, schema string) string

	// BuildDSN builds the public part of the connection string (no credentials).
	BuildDSN(host string, port int, database string, loginTimeout int) string
}
