/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"fmt"
	"strconv"
	"strings"
)

// FilterBuilder provides a fluent interface for building query filters
type FilterBuilder struct {
	conditions []string
	joiner     string
}

// Filter starts a builder whose conditions are joined with AND.
func Filter() *FilterBuilder {
	return &FilterBuilder{joiner: " AND "}
}

// AnyOf starts a builder whose conditions are joined with OR.
func AnyOf() *FilterBuilder {
	return &FilterBuilder{joiner: " OR "}
}

// Eq adds field = value
func (f *FilterBuilder) Eq(field string, value any) *FilterBuilder {
	return f.compare(field, "=", value)
}

// NotEq adds field != value
func (f *FilterBuilder) NotEq(field string, value any) *FilterBuilder {
	return f.compare(field, "!=", value)
}

// GreaterThan adds field > value
func (f *FilterBuilder) GreaterThan(field string, value any) *FilterBuilder {
	return f.compare(field, ">", value)
}

// GreaterOrEqual adds field >= value
func (f *FilterBuilder) GreaterOrEqual(field string, value any) *FilterBuilder {
	return f.compare(field, ">=", value)
}

// LessThan adds field < value
func (f *FilterBuilder) LessThan(field string, value any) *FilterBuilder {
	return f.compare(field, "<", value)
}

// LessOrEqual adds field <= value
func (f *FilterBuilder) LessOrEqual(field string, value any) *FilterBuilder {
	return f.compare(field, "<=", value)
}

// Contains adds CONTAINS(field, 'text')
func (f *FilterBuilder) Contains(field, text string) *FilterBuilder {
	return f.add(fmt.Sprintf("CONTAINS(%s, %s)", Field(field), Literal(text)))
}

// StartsWith adds STARTSWITH(field, 'prefix')
func (f *FilterBuilder) StartsWith(field, prefix string) *FilterBuilder {
	return f.add(fmt.Sprintf("STARTSWITH(%s, %s)", Field(field), Literal(prefix)))
}

// Defined adds IS_DEFINED(field)
func (f *FilterBuilder) Defined(field string) *FilterBuilder {
	return f.add(fmt.Sprintf("IS_DEFINED(%s)", Field(field)))
}

// Group adds a nested builder as one parenthesised condition.
func (f *FilterBuilder) Group(g *FilterBuilder) *FilterBuilder {
	if inner := g.Build(); inner != "" {
		f.add("(" + inner + ")")
	}
	return f
}

// Raw adds a condition verbatim.
func (f *FilterBuilder) Raw(condition string) *FilterBuilder {
	return f.add(condition)
}

// Build joins the conditions. The result has no WHERE prefix and is meant for QueryParams.Filter.
func (f *FilterBuilder) Build() string {
	return strings.Join(f.conditions, f.joiner)
}

func (f *FilterBuilder) compare(field, op string, value any) *FilterBuilder {
	return f.add(fmt.Sprintf("%s %s %s", Field(field), op, Literal(value)))
}

func (f *FilterBuilder) add(condition string) *FilterBuilder {
	f.conditions = append(f.conditions, condition)
	return f
}

// Field renders a top-level document field reference.
func Field(name string) string {
	return "c['" + EscapeString(name) + "']"
}

// Literal renders a Go value as a SQL literal.
func Literal(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return "'" + EscapeString(v) + "'"
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case fmt.Stringer:
		return "'" + EscapeString(v.String()) + "'"
	default:
		return "'" + EscapeString(fmt.Sprint(v)) + "'"
	}
}
