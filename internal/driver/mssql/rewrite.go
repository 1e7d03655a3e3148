package mssql

import "strings"

const (
	countPrefix   = "SELECT COUNT(*)"
	countSubquery = `SELECT COUNT(*) "numrows" `
	topAll        = "TOP 100 PERCENT "
)

// rewriteQuery adapts generated SELECT text to SQL Server before it is
// prepared. The rules are literal substring matches, applied in order:
//
//  1. rowcount is a reserved word and gets bracketed unless it already is.
//  2. A COUNT(*) that is not at the start of the text only loses its
//     double quotes.
//  3. A leading `SELECT COUNT(*) "numrows" ` wraps a derived table, which
//     needs an alias, and an ORDER BY inside it needs a TOP clause.
//  4. Double quotes are not identifier delimiters here and are dropped.
func rewriteQuery(query string) string {
	if !strings.Contains(query, "[rowcount]") {
		query = strings.ReplaceAll(query, "rowcount", "[rowcount]")
	}

	if strings.Index(query, countPrefix) > 0 {
		return stripDoubleQuotes(query)
	}

	if strings.Contains(query, countSubquery) {
		query += " dt"
		if !strings.Contains(query, "TOP") &&
			strings.Contains(query, "ORDER") &&
			!strings.Contains(strings.ToUpper(query), "SELECT DISTINCT") {
			query = injectTop(query)
		}
	}

	return stripDoubleQuotes(query)
}

// injectTop inserts TOP 100 PERCENT after the first SELECT that follows the
// outer one, or after the leading SELECT when there is no inner one.
func injectTop(query string) string {
	pos := 0
	if len(query) > 1 {
		if i := strings.Index(query[1:], "SELECT"); i >= 0 {
			pos = i + 1
		}
	}
	pos += len("SELECT ")
	if pos > len(query) {
		return query
	}
	return query[:pos] + topAll + query[pos:]
}

func stripDoubleQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, "")
}
