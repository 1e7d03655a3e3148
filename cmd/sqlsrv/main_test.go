package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/johndauphine/sqlsrv-adapter/internal/driver"
)

func TestParseAssignments(t *testing.T) {
	fields, values, err := parseAssignments([]string{"name=R2-D2", "serial = ", "owner=NULL", "note=a=b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "serial", "owner", "note"}, fields)
	assert.Equal(t, []any{"R2-D2", " ", nil, "a=b"}, values)

	for _, bad := range []string{"name", "=value", " =x"} {
		_, _, err := parseAssignments([]string{bad})
		assert.ErrorIs(t, err, driver.ErrArgument, bad)
	}
}

func TestParseBindTypes(t *testing.T) {
	types, err := parseBindTypes(nil)
	require.NoError(t, err)
	assert.Nil(t, types)

	types, err = parseBindTypes([]string{"int", "STR", "bool"})
	require.NoError(t, err)
	assert.Equal(t, []driver.BindType{driver.BindInt, driver.BindStr, driver.BindBool}, types)

	_, err = parseBindTypes([]string{"int", "money"})
	assert.ErrorIs(t, err, driver.ErrArgument)
}

func TestBindInputs(t *testing.T) {
	params, types, err := bindInputs(nil, nil)
	require.NoError(t, err)
	assert.Nil(t, params)
	assert.Nil(t, types)

	params, types, err = bindInputs([]string{"7", "NULL", "null"}, []string{"int", "null", "str"})
	require.NoError(t, err)
	assert.Equal(t, []any{"7", nil, "null"}, params)
	assert.Equal(t, []driver.BindType{driver.BindInt, driver.BindNull, driver.BindStr}, types)
}

func TestPrintStructuredRejectsUnknownFormat(t *testing.T) {
	err := printStructured("xml", map[string]int{"a": 1})
	assert.ErrorIs(t, err, driver.ErrArgument)
}

func TestOutputFlagListsEveryFormat(t *testing.T) {
	var usage string
	for _, f := range globalFlags() {
		if sf, ok := f.(*cli.StringFlag); ok && sf.Name == "output" {
			usage = sf.Usage
		}
	}
	require.NotEmpty(t, usage)

	for _, format := range []string{"yaml", "json"} {
		assert.Contains(t, usage, format)
		assert.NoError(t, printStructured(format, map[string]int{"a": 1}), format)
	}
	assert.Contains(t, usage, "table")
}

func TestRenderTableAlignsColumns(t *testing.T) {
	out := renderTable([]string{"ID", "NAME"}, [][]string{{"1", "R2-D2"}, {"10", "C-3PO"}})
	assert.Contains(t, out, "R2-D2")
	assert.Contains(t, out, "C-3PO")
	assert.Equal(t, 3, len(strings.Split(out, "\n")))
}

func TestReadLoadFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0600))
		return path
	}

	lf, err := readLoadFile(write("ok.yaml", `
fields: [name, serial]
types: [str, int]
rows:
  - [R2-D2, 1]
  - [C-3PO, ~]
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "serial"}, lf.Fields)
	require.Len(t, lf.Rows, 2)
	assert.Equal(t, []any{"C-3PO", nil}, lf.Rows[1])

	_, err = readLoadFile(write("empty.yaml", "fields: [name]\n"))
	assert.ErrorIs(t, err, driver.ErrArgument)

	_, err = readLoadFile(write("short.yaml", "fields: [name, serial]\nrows:\n  - [R2-D2]\n"))
	assert.ErrorIs(t, err, driver.ErrArgument)

	_, err = readLoadFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
