package mssql

import (
	"database/sql"
	"testing"

	"github.com/johndauphine/sqlsrv-adapter/internal/driver"
)

func TestTypeMapper_MapColumn(t *testing.T) {
	m := &TypeMapper{}
	tests := []struct {
		typeName string
		wantType driver.ColumnType
		wantBind driver.BindType
		numeric  bool
		autoIncr bool
	}{
		{"int identity", driver.TypeInteger, driver.BindInt, true, true},
		{"tinyint identity", driver.TypeInteger, driver.BindInt, true, true},
		{"smallint identity", driver.TypeInteger, driver.BindInt, true, true},
		{"bigint", driver.TypeBigInteger, driver.BindInt, true, false},
		{"decimal", driver.TypeDecimal, driver.BindDecimal, true, false},
		{"money", driver.TypeDecimal, driver.BindDecimal, true, false},
		{"smallmoney", driver.TypeDecimal, driver.BindDecimal, true, false},
		{"int", driver.TypeInteger, driver.BindInt, true, false},
		{"tinyint", driver.TypeInteger, driver.BindInt, true, false},
		{"smallint", driver.TypeInteger, driver.BindInt, true, false},
		{"numeric", driver.TypeDouble, driver.BindDecimal, true, false},
		{"float", driver.TypeFloat, driver.BindDecimal, true, false},
		{"bit", driver.TypeBoolean, driver.BindBool, false, false},
		{"date", driver.TypeDate, driver.BindStr, false, false},
		{"datetime", driver.TypeDatetime, driver.BindStr, false, false},
		{"datetime2", driver.TypeDatetime, driver.BindStr, false, false},
		{"smalldatetime", driver.TypeDatetime, driver.BindStr, false, false},
		{"timestamp", driver.TypeTimestamp, driver.BindStr, false, false},
		{"char", driver.TypeChar, driver.BindStr, false, false},
		{"nchar", driver.TypeChar, driver.BindStr, false, false},
		{"varchar", driver.TypeVarchar, driver.BindStr, false, false},
		{"nvarchar", driver.TypeVarchar, driver.BindStr, false, false},
		{"text", driver.TypeText, driver.BindStr, false, false},
		{"ntext", driver.TypeText, driver.BindStr, false, false},
		{"varbinary", driver.TypeBlob, driver.BindStr, false, false},
		{"uniqueidentifier", driver.TypeVarchar, driver.BindStr, false, false},
		{"xml", driver.TypeVarchar, driver.BindStr, false, false},
		{"bigint identity", driver.TypeVarchar, driver.BindStr, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			col := m.MapColumn(driver.TypeInfo{TypeName: tt.typeName})
			if col.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", col.Type, tt.wantType)
			}
			if col.BindType != tt.wantBind {
				t.Errorf("BindType = %v, want %v", col.BindType, tt.wantBind)
			}
			if col.IsNumeric != tt.numeric {
				t.Errorf("IsNumeric = %v, want %v", col.IsNumeric, tt.numeric)
			}
			if col.AutoIncrement != tt.autoIncr {
				t.Errorf("AutoIncrement = %v, want %v", col.AutoIncrement, tt.autoIncr)
			}
		})
	}
}

func TestTypeMapper_SizeResolution(t *testing.T) {
	m := &TypeMapper{}
	tests := []struct {
		name     string
		info     driver.TypeInfo
		wantSize int
		wantPrec int
	}{
		{
			name:     "no scale keeps length",
			info:     driver.TypeInfo{TypeName: "nvarchar", Length: 100, Precision: 50},
			wantSize: 100,
			wantPrec: 50,
		},
		{
			name:     "scale uses precision",
			info:     driver.TypeInfo{TypeName: "decimal", Length: 9, Precision: 18, Scale: sql.NullInt64{Int64: 2, Valid: true}},
			wantSize: 18,
			wantPrec: 18,
		},
		{
			name:     "zero scale still uses precision",
			info:     driver.TypeInfo{TypeName: "int", Length: 4, Precision: 10, Scale: sql.NullInt64{Int64: 0, Valid: true}},
			wantSize: 10,
			wantPrec: 10,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col := m.MapColumn(tt.info)
			if col.Size != tt.wantSize {
				t.Errorf("Size = %d, want %d", col.Size, tt.wantSize)
			}
			if col.Precision != tt.wantPrec {
				t.Errorf("Precision = %d, want %d", col.Precision, tt.wantPrec)
			}
		})
	}
}
