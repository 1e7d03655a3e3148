// Package mssql implements the SQL Server adapter: dialect translation, type
// mapping, connection management, statement execution, emulated transactions
// and the insert/update/delete builders.
package mssql

import "github.com/johndauphine/sqlsrv-adapter/internal/driver"

func init() {
	driver.Register(&Driver{})
}

// Driver implements driver.Driver for Microsoft SQL Server.
type Driver struct{}

// Name returns the primary driver name.
func (d *Driver) Name() string {
	return "sqlsrv"
}

// Aliases returns alternative names for the driver.
func (d *Driver) Aliases() []string {
	return []string{"mssql", "sqlserver"}
}

// Defaults returns the default configuration values for SQL Server.
func (d *Driver) Defaults() driver.DriverDefaults {
	return driver.DriverDefaults{
		Port:         1433,
		Schema:       "dbo",
		LoginTimeout: 5,
	}
}

// Dialect returns the SQL Server dialect.
func (d *Driver) Dialect() driver.Dialect {
	return &Dialect{}
}

// TypeMapper returns the SQL Server type mapper.
func (d *Driver) TypeMapper() driver.TypeMapper {
	return &TypeMapper{}
}
