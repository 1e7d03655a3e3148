package mssql

import "testing"

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain select untouched",
			input: "SELECT id, name FROM robots",
			want:  "SELECT id, name FROM robots",
		},
		{
			name:  "rowcount bracketed",
			input: "SELECT rowcount FROM stats",
			want:  "SELECT [rowcount] FROM stats",
		},
		{
			name:  "rowcount already bracketed",
			input: "SELECT [rowcount], rowcount FROM stats",
			want:  "SELECT [rowcount], rowcount FROM stats",
		},
		{
			name:  "double quotes stripped",
			input: `SELECT "id", "name" FROM "robots"`,
			want:  "SELECT id, name FROM robots",
		},
		{
			name:  "inner count only strips quotes",
			input: `SELECT x.n FROM (SELECT COUNT(*) "n" FROM "robots" ORDER BY id) x`,
			want:  "SELECT x.n FROM (SELECT COUNT(*) n FROM robots ORDER BY id) x",
		},
		{
			name:  "numrows subquery gets alias and top",
			input: `SELECT COUNT(*) "numrows" FROM (SELECT "id" FROM "robots" ORDER BY "name")`,
			want:  "SELECT COUNT(*) numrows FROM (SELECT TOP 100 PERCENT id FROM robots ORDER BY name) dt",
		},
		{
			name:  "numrows without inner select tops the outer one",
			input: `SELECT COUNT(*) "numrows" FROM t ORDER BY x`,
			want:  "SELECT TOP 100 PERCENT COUNT(*) numrows FROM t ORDER BY x dt",
		},
		{
			name:  "numrows subquery without order",
			input: `SELECT COUNT(*) "numrows" FROM (SELECT "id" FROM "robots")`,
			want:  "SELECT COUNT(*) numrows FROM (SELECT id FROM robots) dt",
		},
		{
			name:  "numrows subquery with existing top",
			input: `SELECT COUNT(*) "numrows" FROM (SELECT TOP 10 "id" FROM "robots" ORDER BY "name")`,
			want:  "SELECT COUNT(*) numrows FROM (SELECT TOP 10 id FROM robots ORDER BY name) dt",
		},
		{
			name:  "numrows subquery with distinct",
			input: `SELECT COUNT(*) "numrows" FROM (SELECT DISTINCT "type" FROM "robots" ORDER BY "type")`,
			want:  "SELECT COUNT(*) numrows FROM (SELECT DISTINCT type FROM robots ORDER BY type) dt",
		},
		{
			name:  "numrows distinct is case insensitive",
			input: `SELECT COUNT(*) "numrows" FROM (select distinct "type" FROM "robots" ORDER BY "type")`,
			want:  "SELECT COUNT(*) numrows FROM (select distinct type FROM robots ORDER BY type) dt",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rewriteQuery(tt.input); got != tt.want {
				t.Errorf("rewriteQuery()\n got: %s\nwant: %s", got, tt.want)
			}
		})
	}
}

func TestCursorModeFor(t *testing.T) {
	tests := []struct {
		query string
		want  CursorMode
	}{
		{"SELECT * FROM robots", CursorScrollable},
		{"exec sp_columns @table_name = N'robots'", CursorForwardOnly},
		{"EXEC sp_who", CursorScrollable},
		{"SELECT executed_at FROM jobs", CursorForwardOnly},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := cursorModeFor(tt.query); got != tt.want {
				t.Errorf("cursorModeFor(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}
