/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"regexp"
	"strings"
)

// TableItem is implemented by every record type written through the storage.
// The key is "<partition>/<id>" or a bare "<id>"; writes rewrite it to the bare
// id before storing, so the record's JSON must carry it as "id".
type TableItem interface {
	GetKey() string
	SetKey(key string)
}

// CountItem is the minimal projection used when counting records.
type CountItem struct {
	ID string `json:"id"`
}

// QueryParams selects records from one table.
type QueryParams struct {
	// Table is the container to query.
	Table string
	// Columns projects the result to the named top-level fields. Empty selects whole records.
	Columns []string
	// Filter is an optional predicate over the alias c, with or without a leading WHERE.
	Filter string
}

// QueryText renders the SQL sent to the store:
//
//	SELECT c['Name'], c['Key'] FROM c WHERE c.Name = 'x'
func (p QueryParams) QueryText() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	if len(p.Columns) == 0 {
		b.WriteString("*")
	} else {
		for i, col := range p.Columns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString("c['")
			b.WriteString(EscapeString(col))
			b.WriteString("']")
		}
	}
	b.WriteString(" FROM c")
	if where := WhereClause(p.Filter); where != "" {
		b.WriteString(" ")
		b.WriteString(where)
	}
	return b.String()
}

// WhereClause returns "" for an empty filter, the filter itself when it already
// starts a WHERE clause, and "WHERE <filter>" otherwise. Text inside quoted
// literals is ignored, so 'somewhere else' is a value and not a clause.
func WhereClause(filter string) string {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return ""
	}
	if whereKeyword.MatchString(outsideLiterals(filter)) {
		return filter
	}
	return "WHERE " + filter
}

var whereKeyword = regexp.MustCompile(`(?i)\bwhere\s`)

// outsideLiterals blanks the content of single-quoted literals, honouring
// backslash escapes. An unterminated literal runs to the end of s.
func outsideLiterals(s string) string {
	out := []byte(s)
	inLiteral := false
	for i := 0; i < len(out); i++ {
		switch {
		case !inLiteral && out[i] == '\'':
			inLiteral = true
		case inLiteral && out[i] == '\\':
			out[i] = ' '
			if i+1 < len(out) {
				i++
				out[i] = ' '
			}
		case inLiteral && out[i] == '\'':
			inLiteral = false
		case inLiteral:
			out[i] = ' '
		}
	}
	return string(out)
}

// CountQueryText renders the id-only projection used by Count.
func CountQueryText(filter string) string {
	q := "SELECT c.id FROM c"
	if where := WhereClause(filter); where != "" {
		q += " " + where
	}
	return q
}

// EscapeString escapes a value for use inside a single-quoted SQL literal.
func EscapeString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
