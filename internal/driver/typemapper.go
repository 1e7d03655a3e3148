package driver

import "database/sql"

// TypeMapper converts a dialect's native column metadata into a normalized
// Column fragment.
type TypeMapper interface {
	// MapColumn fills Type, BindType, IsNumeric, AutoIncrement, Size and
	// Precision. Name, position and constraint flags are left to the caller.
	MapColumn(info TypeInfo) Column
}

// TypeInfo contains the raw metadata reported by introspection for one column.
type TypeInfo struct {
	// TypeName is the native type name (e.g., "int identity", "nvarchar").
	TypeName string

	// Length is the reported length in characters or bytes.
	Length int

	// Precision is the numeric precision.
	Precision int

	// Scale is the numeric scale; invalid when the server reports NULL.
	Scale sql.NullInt64
}
