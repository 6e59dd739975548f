/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package dynamo

import (
	"regexp"
	"strings"

	"github.com/suparena/tablestore/errors"
)

var (
	fromAlias   = regexp.MustCompile(`(?i)\bFROM\s+c\b`)
	aliasPath   = regexp.MustCompile(`\bc((?:\.(?:"(?:[^"]|"")*"|[A-Za-z_][A-Za-z0-9_]*))+)`)
	pathSegment = regexp.MustCompile(`"(?:[^"]|"")*"|[A-Za-z_][A-Za-z0-9_]*`)
	containsFn  = regexp.MustCompile(`(?i)\bCONTAINS\s*\(`)
	startsFn    = regexp.MustCompile(`(?i)\bSTARTSWITH\s*\(`)
	notEqual    = regexp.MustCompile(`!=`)
	unsupported = regexp.MustCompile(`(?i)\b(ENDSWITH|TOSTRING|IS_DEFINED|IS_NULL|LOWER|UPPER|LENGTH)\s*\(`)
)

// Translate rewrites a query over the alias c into PartiQL for table:
//
//	SELECT c['Name'] FROM c WHERE c.Kind = 'it\'s'
//	SELECT "Name" FROM "db.orders" WHERE "Kind" = 'it''s'
//
// CONTAINS and STARTSWITH map to contains and begins_with. Functions with no
// DynamoDB counterpart are rejected.
func Translate(query, table string) (string, error) {
	var out, code strings.Builder

	flush := func() error {
		s := code.String()
		code.Reset()
		if m := unsupported.FindStringSubmatch(s); m != nil {
			return errors.NewValidationError("query", "function "+strings.ToUpper(m[1])+" is not supported by DynamoDB")
		}
		s = aliasPath.ReplaceAllStringFunc(s, func(m string) string {
			segments := pathSegment.FindAllString(m[1:], -1)
			for i, seg := range segments {
				if !strings.HasPrefix(seg, `"`) {
					segments[i] = quoteIdent(seg)
				}
			}
			return strings.Join(segments, ".")
		})
		s = fromAlias.ReplaceAllLiteralString(s, "FROM "+quoteIdent(table))
		s = containsFn.ReplaceAllString(s, "contains(")
		s = startsFn.ReplaceAllString(s, "begins_with(")
		s = notEqual.ReplaceAllString(s, "<>")
		out.WriteString(s)
		return nil
	}

	for i := 0; i < len(query); {
		switch {
		case strings.HasPrefix(query[i:], "['"):
			end, name, ok := readQuoted(query, i+1)
			if !ok || end >= len(query) || query[end] != ']' {
				return "", errors.NewValidationError("query", "unterminated field access")
			}
			code.WriteString("." + quoteIdent(name))
			i = end + 1
		case query[i] == '\'':
			end, lit, ok := readQuoted(query, i)
			if !ok {
				return "", errors.NewValidationError("query", "unterminated string literal")
			}
			if err := flush(); err != nil {
				return "", err
			}
			out.WriteString("'" + strings.ReplaceAll(lit, "'", "''") + "'")
			i = end
		default:
			code.WriteByte(query[i])
			i++
		}
	}
	if err := flush(); err != nil {
		return "", err
	}
	return out.String(), nil
}

// readQuoted reads the single-quoted literal starting at start and returns the
// index after its closing quote and its unescaped content.
func readQuoted(s string, start int) (int, string, bool) {
	var b strings.Builder
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if i+1 < len(s) {
				i++
				b.WriteByte(s[i])
			}
		case '\'':
			return i + 1, b.String(), true
		default:
			b.WriteByte(s[i])
		}
	}
	return len(s), "", false
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
