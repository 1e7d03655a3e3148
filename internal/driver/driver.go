// Package driver provides the database-neutral side of the adapter: column,
// index and reference descriptors, the Dialect and TypeMapper collaborator
// interfaces, the error taxonomy, and a registry of pluggable drivers.
package driver

// DriverDefaults contains default values for a database driver.
// Used by the adapter when the connection descriptor leaves a field empty.
type DriverDefaults struct {
	// Port is the default port (e.g., 1433 for MSSQL).
	Port int

	// Schema is the default schema (e.g., "dbo" for MSSQL).
	Schema string

	// LoginTimeout is the connect timeout in seconds written into the DSN.
	LoginTimeout int
}

// Driver represents a pluggable database driver that bundles the dialect
// and type mapping of one database product.
//
// To add a new database:
// 1. Create a package under internal/driver/<dbname>/
// 2. Implement the Driver interface
// 3. Register via init(): driver.Register(&MyDriver{})
type Driver interface {
	// Name returns the primary driver name (e.g., "sqlsrv").
	Name() string

	// Aliases returns alternative names for this driver.
	// For example, sqlsrv has aliases ["mssql", "sqlserver"].
	Aliases() []string

	// Defaults returns the default configuration values for this driver.
	Defaults() DriverDefaults

	// Dialect returns the SQL dialect for this database.
	Dialect() Dialect

	// TypeMapper returns the mapper from native type names to ColumnType.
	TypeMapper() TypeMapper
}
