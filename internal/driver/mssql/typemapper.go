package mssql

import (
	"strings"

	"github.com/johndauphine/sqlsrv-adapter/internal/driver"
)

// TypeMapper maps the type names reported by sp_columns onto driver.ColumnType.
type TypeMapper struct{}

type typeMapping struct {
	colType       driver.ColumnType
	bindType      driver.BindType
	numeric       bool
	autoIncrement bool
}

// typeMappings is keyed by the lower-cased sp_columns TYPE_NAME. Identity
// columns are reported with an " identity" suffix.
var typeMappings = map[string]typeMapping{
	"int identity":      {driver.TypeInteger, driver.BindInt, true, true},
	"tinyint identity":  {driver.TypeInteger, driver.BindInt, true, true},
	"smallint identity": {driver.TypeInteger, driver.BindInt, true, true},

	"bigint": {driver.TypeBigInteger, driver.BindInt, true, false},

	"decimal":    {driver.TypeDecimal, driver.BindDecimal, true, false},
	"money":      {driver.TypeDecimal, driver.BindDecimal, true, false},
	"smallmoney": {driver.TypeDecimal, driver.BindDecimal, true, false},

	"int":      {driver.TypeInteger, driver.BindInt, true, false},
	"tinyint":  {driver.TypeInteger, driver.BindInt, true, false},
	"smallint": {driver.TypeInteger, driver.BindInt, true, false},

	"numeric": {driver.TypeDouble, driver.BindDecimal, true, false},
	"float":   {driver.TypeFloat, driver.BindDecimal, true, false},

	"bit": {driver.TypeBoolean, driver.BindBool, false, false},

	"date":          {driver.TypeDate, driver.BindStr, false, false},
	"datetime":      {driver.TypeDatetime, driver.BindStr, false, false},
	"datetime2":     {driver.TypeDatetime, driver.BindStr, false, false},
	"smalldatetime": {driver.TypeDatetime, driver.BindStr, false, false},
	"timestamp":     {driver.TypeTimestamp, driver.BindStr, false, false},

	"char":     {driver.TypeChar, driver.BindStr, false, false},
	"nchar":    {driver.TypeChar, driver.BindStr, false, false},
	"varchar":  {driver.TypeVarchar, driver.BindStr, false, false},
	"nvarchar": {driver.TypeVarchar, driver.BindStr, false, false},
	"text":     {driver.TypeText, driver.BindStr, false, false},
	"ntext":    {driver.TypeText, driver.BindStr, false, false},

	"varbinary": {driver.TypeBlob, driver.BindStr, false, false},
}

var fallbackMapping = typeMapping{driver.TypeVarchar, driver.BindStr, false, false}

// MapColumn implements driver.TypeMapper.
//
// Size is the reported length unless the server reports a scale (zero
// included), in which case it is the precision. The scale itself is not kept.
func (m *TypeMapper) MapColumn(info driver.TypeInfo) driver.Column {
	mapping, ok := typeMappings[strings.ToLower(strings.TrimSpace(info.TypeName))]
	if !ok {
		mapping = fallbackMapping
	}

	col := driver.Column{
		Type:          mapping.colType,
		BindType:      mapping.bindType,
		IsNumeric:     mapping.numeric,
		AutoIncrement: mapping.autoIncrement,
		Size:          info.Length,
		Precision:     info.Precision,
	}
	if info.Scale.Valid {
		col.Size = info.Precision
	}
	return col
}
