package driver

import "strings"

// ColumnType is the normalized column type every dialect maps its native
// type names onto.
type ColumnType int

const (
	TypeInteger ColumnType = iota
	TypeDate
	TypeVarchar
	TypeDecimal
	TypeDatetime
	TypeChar
	TypeText
	TypeFloat
	TypeBoolean
	TypeDouble
	TypeBlob
	TypeBigInteger
	TypeTimestamp
)

// String returns the upper-case name of the type (e.g. "VARCHAR").
func (t ColumnType) String() string {
	switch t {
	case TypeInteger:
		return "INTEGER"
	case TypeDate:
		return "DATE"
	case TypeVarchar:
		return "VARCHAR"
	case TypeDecimal:
		return "DECIMAL"
	case TypeDatetime:
		return "DATETIME"
	case TypeChar:
		return "CHAR"
	case TypeText:
		return "TEXT"
	case TypeFloat:
		return "FLOAT"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeDouble:
		return "DOUBLE"
	case TypeBlob:
		return "BLOB"
	case TypeBigInteger:
		return "BIGINTEGER"
	case TypeTimestamp:
		return "TIMESTAMP"
	default:
		return "UNKNOWN"
	}
}

// BindType tells the executor how a bound value must be coerced before it is
// handed to the database driver.
type BindType int

const (
	BindNull BindType = iota
	BindInt
	BindStr
	BindBlob
	BindBool
	BindDecimal
)

func (b BindType) String() string {
	switch b {
	case BindNull:
		return "null"
	case BindInt:
		return "int"
	case BindStr:
		return "str"
	case BindBlob:
		return "blob"
	case BindBool:
		return "bool"
	case BindDecimal:
		return "decimal"
	default:
		return "unknown"
	}
}

// ParseBindType converts a name such as "int" or "decimal" to a BindType.
func ParseBindType(s string) (BindType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "null":
		return BindNull, true
	case "int", "integer":
		return BindInt, true
	case "str", "string":
		return BindStr, true
	case "blob":
		return BindBlob, true
	case "bool", "boolean":
		return BindBool, true
	case "decimal":
		return BindDecimal, true
	}
	return BindStr, false
}

// Column describes one physical table column.
type Column struct {
	Name          string     `json:"name" yaml:"name"`
	Type          ColumnType `json:"type" yaml:"type"`
	BindType      BindType   `json:"bind_type" yaml:"bind_type"`
	Size          int        `json:"size" yaml:"size"`
	Precision     int        `json:"precision" yaml:"precision"`
	IsNumeric     bool       `json:"is_numeric" yaml:"is_numeric"`
	NotNull       bool       `json:"not_null" yaml:"not_null"`
	Primary       bool       `json:"primary" yaml:"primary"`
	AutoIncrement bool       `json:"auto_increment" yaml:"auto_increment"`
	Default       *string    `json:"default,omitempty" yaml:"default,omitempty"`

	// First is set on the first column of the table; every other column
	// names its predecessor in After.
	First bool   `json:"first,omitempty" yaml:"first,omitempty"`
	After string `json:"after,omitempty" yaml:"after,omitempty"`
}

// HasDefault returns true if the column declares a default value.
func (c *Column) HasDefault() bool {
	return c.Default != nil
}

// Index represents a table index.
type Index struct {
	Name    string   `json:"name" yaml:"name"`
	Columns []string `json:"columns" yaml:"columns"`
}

// Reference represents a foreign key constraint.
type Reference struct {
	Name              string   `json:"name" yaml:"name"`
	ReferencedSchema  string   `json:"referenced_schema" yaml:"referenced_schema"`
	ReferencedTable   string   `json:"referenced_table" yaml:"referenced_table"`
	Columns           []string `json:"columns" yaml:"columns"`
	ReferencedColumns []string `json:"referenced_columns" yaml:"referenced_columns"`
}

// MarshalText renders the type by name in YAML and JSON output.
func (t ColumnType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// MarshalText renders the bind type by name in YAML and JSON output.
func (b BindType) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}
