/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package memory

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/suparena/tablestore/errors"
	"github.com/xwb1989/sqlparser"
)

// query is a parsed SELECT over one container.
type query struct {
	alias   string
	star    bool
	columns []projection
	where   sqlparser.Expr
}

type projection struct {
	name string
	path []string
}

// undefined marks a missing document field; every comparison against it is false.
type undefinedValue struct{}

var undefined = undefinedValue{}

var (
	bracketField = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)\['((?:[^'\\]|\\.)*)'\]`)
	dottedField  = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)\.([A-Za-z_][A-Za-z0-9_]*)`)
	functionCall = regexp.MustCompile(`(?i)\b(CONTAINS|STARTSWITH|ENDSWITH|IS_DEFINED|IS_NULL|TOSTRING|LOWER|UPPER|LENGTH)\s*\(`)
)

const functionPrefix = "doc_"

// normalize turns store SQL into text the MySQL grammar accepts: field accessors
// become quoted identifiers and store functions get a prefix that cannot collide
// with reserved words. String literals are left untouched.
func normalize(sql string) string {
	return outsideStrings(sql, func(seg string) string {
		seg = bracketField.ReplaceAllStringFunc(seg, func(m string) string {
			parts := bracketField.FindStringSubmatch(m)
			return parts[1] + ".`" + unescape(parts[2]) + "`"
		})
		seg = dottedField.ReplaceAllString(seg, "$1.`$2`")
		seg = functionCall.ReplaceAllStringFunc(seg, func(m string) string {
			name := strings.TrimSpace(strings.TrimSuffix(m, "("))
			return functionPrefix + strings.ToLower(name) + "("
		})
		return seg
	})
}

// outsideStrings applies fn to every part of sql that is not inside a quoted
// literal or a bracket accessor.
func outsideStrings(sql string, fn func(string) string) string {
	var out strings.Builder
	var seg strings.Builder
	flush := func() {
		out.WriteString(fn(seg.String()))
		seg.Reset()
	}

	for i := 0; i < len(sql); i++ {
		ch := sql[i]
		if ch != '\'' && ch != '"' {
			seg.WriteByte(ch)
			continue
		}
		// A quote right after '[' belongs to a bracket accessor, which fn rewrites as a whole.
		if ch == '\'' && i > 0 && sql[i-1] == '[' {
			end := closingQuote(sql, i)
			seg.WriteString(sql[i:end])
			i = end - 1
			continue
		}
		flush()
		end := closingQuote(sql, i)
		out.WriteString(sql[i:end])
		i = end - 1
	}
	flush()
	return out.String()
}

// closingQuote returns the index just past the literal that starts at i.
func closingQuote(sql string, i int) int {
	quote := sql[i]
	for j := i + 1; j < len(sql); j++ {
		switch sql[j] {
		case '\\':
			j++
		case quote:
			return j + 1
		}
	}
	return len(sql)
}

func unescape(s string) string {
	s = strings.ReplaceAll(s, `\'`, `'`)
	return strings.ReplaceAll(s, `\\`, `\`)
}

func compile(sql string) (*query, error) {
	stmt, err := sqlparser.Parse(normalize(sql))
	if err != nil {
		return nil, errors.NewValidationError("query", fmt.Sprintf("cannot parse %q: %v", sql, err))
	}
	sel, ok := stmt.(*sqlparser.Select)
	if !ok {
		return nil, errors.NewValidationError("query", "only SELECT is supported")
	}
	if len(sel.From) != 1 {
		return nil, errors.NewValidationError("query", "exactly one FROM source is supported")
	}

	q := &query{}
	switch t := sel.From[0].(type) {
	case *sqlparser.AliasedTableExpr:
		name, ok := t.Expr.(sqlparser.TableName)
		if !ok {
			return nil, errors.NewValidationError("query", "FROM must name the container alias")
		}
		q.alias = name.Name.String()
		if !t.As.IsEmpty() {
			q.alias = t.As.String()
		}
	default:
		return nil, errors.NewValidationError("query", "FROM must name the container alias")
	}

	for _, expr := range sel.SelectExprs {
		switch e := expr.(type) {
		case *sqlparser.StarExpr:
			q.star = true
		case *sqlparser.AliasedExpr:
			col, ok := e.Expr.(*sqlparser.ColName)
			if !ok {
				return nil, errors.NewValidationError("query", "only field projections are supported")
			}
			path := q.path(col)
			if len(path) == 0 {
				q.star = true
				continue
			}
			name := path[len(path)-1]
			if !e.As.IsEmpty() {
				name = e.As.String()
			}
			q.columns = append(q.columns, projection{name: name, path: path})
		default:
			return nil, errors.NewValidationError("query", "unsupported projection")
		}
	}

	if sel.Where != nil {
		q.where = sel.Where.Expr
	}
	return q, nil
}

// path resolves a column reference to a field path below the alias. The alias
// itself resolves to an empty path.
func (q *query) path(col *sqlparser.ColName) []string {
	name := col.Name.String()
	qualifier := col.Qualifier.Name.String()
	outer := col.Qualifier.Qualifier.String()
	// c.a.b parses as qualifier c.a and name b.

	switch {
	case qualifier == "" && name == q.alias:
		return nil
	case qualifier == "":
		return []string{name}
	case outer == "" && qualifier == q.alias:
		return []string{name}
	default:
		return []string{qualifier, name}
	}
}

func (q *query) run(docs [][]byte) ([][]byte, error) {
	out := make([][]byte, 0, len(docs))
	for _, raw := range docs {
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("stored document is not valid JSON: %w", err)
		}
		if q.where != nil {
			v, err := q.eval(doc, q.where)
			if err != nil {
				return nil, err
			}
			if b, ok := v.(bool); !ok || !b {
				continue
			}
		}
		if q.star || len(q.columns) == 0 {
			out = append(out, raw)
			continue
		}
		projected := make(map[string]any, len(q.columns))
		for _, col := range q.columns {
			if v := lookup(doc, col.path); v != undefined {
				projected[col.name] = v
			}
		}
		body, err := json.Marshal(projected)
		if err != nil {
			return nil, err
		}
		out = append(out, body)
	}
	return out, nil
}

func lookup(doc map[string]any, path []string) any {
	var cur any = doc
	for _, p := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return undefined
		}
		if cur, ok = m[p]; !ok {
			return undefined
		}
	}
	return cur
}

func (q *query) eval(doc map[string]any, expr sqlparser.Expr) (any, error) {
	switch e := expr.(type) {
	case *sqlparser.AndExpr:
		l, err := q.eval(doc, e.Left)
		if err != nil {
			return nil, err
		}
		if !truthy(l) {
			return false, nil
		}
		r, err := q.eval(doc, e.Right)
		return truthy(r), err
	case *sqlparser.OrExpr:
		l, err := q.eval(doc, e.Left)
		if err != nil {
			return nil, err
		}
		if truthy(l) {
			return true, nil
		}
		r, err := q.eval(doc, e.Right)
		return truthy(r), err
	case *sqlparser.NotExpr:
		v, err := q.eval(doc, e.Expr)
		if err != nil {
			return nil, err
		}
		if _, ok := v.(bool); !ok {
			return undefined, nil
		}
		return !truthy(v), nil
	case *sqlparser.ParenExpr:
		return q.eval(doc, e.Expr)
	case *sqlparser.ComparisonExpr:
		return q.compare(doc, e)
	case *sqlparser.IsExpr:
		v, err := q.eval(doc, e.Expr)
		if err != nil {
			return nil, err
		}
		switch e.Operator {
		case sqlparser.IsNullStr:
			return v == nil, nil
		case sqlparser.IsNotNullStr:
			return v != nil && v != undefined, nil
		case sqlparser.IsTrueStr:
			return v == true, nil
		case sqlparser.IsFalseStr:
			return v == false, nil
		}
		return nil, errors.NewValidationError("query", "unsupported IS operator "+e.Operator)
	case *sqlparser.ColName:
		path := q.path(e)
		if len(path) == 0 {
			return doc, nil
		}
		return lookup(doc, path), nil
	case *sqlparser.SQLVal:
		switch e.Type {
		case sqlparser.StrVal:
			return string(e.Val), nil
		case sqlparser.IntVal, sqlparser.FloatVal:
			return strconv.ParseFloat(string(e.Val), 64)
		}
		return nil, errors.NewValidationError("query", "unsupported literal "+string(e.Val))
	case sqlparser.BoolVal:
		return bool(e), nil
	case *sqlparser.NullVal:
		return nil, nil
	case *sqlparser.UnaryExpr:
		v, err := q.eval(doc, e.Expr)
		if err != nil {
			return nil, err
		}
		f, ok := v.(float64)
		if !ok || e.Operator != sqlparser.UMinusStr {
			return undefined, nil
		}
		return -f, nil
	case *sqlparser.FuncExpr:
		return q.call(doc, e)
	}
	return nil, errors.NewValidationError("query", fmt.Sprintf("unsupported expression %s", sqlparser.String(expr)))
}

func (q *query) compare(doc map[string]any, e *sqlparser.ComparisonExpr) (any, error) {
	left, err := q.eval(doc, e.Left)
	if err != nil {
		return nil, err
	}

	if e.Operator == sqlparser.InStr || e.Operator == sqlparser.NotInStr {
		tuple, ok := e.Right.(sqlparser.ValTuple)
		if !ok {
			return nil, errors.NewValidationError("query", "IN expects a value list")
		}
		found := false
		for _, item := range tuple {
			v, err := q.eval(doc, item)
			if err != nil {
				return nil, err
			}
			if c, ok := order(left, v); ok && c == 0 {
				found = true
				break
			}
		}
		if left == undefined {
			return undefined, nil
		}
		return found == (e.Operator == sqlparser.InStr), nil
	}

	right, err := q.eval(doc, e.Right)
	if err != nil {
		return nil, err
	}
	c, ok := order(left, right)
	if !ok {
		return undefined, nil
	}
	switch e.Operator {
	case sqlparser.EqualStr:
		return c == 0, nil
	case sqlparser.NotEqualStr:
		return c != 0, nil
	case sqlparser.LessThanStr:
		return c < 0, nil
	case sqlparser.LessEqualStr:
		return c <= 0, nil
	case sqlparser.GreaterThanStr:
		return c > 0, nil
	case sqlparser.GreaterEqualStr:
		return c >= 0, nil
	}
	return nil, errors.NewValidationError("query", "unsupported operator "+e.Operator)
}

// order compares two values of the same JSON type. ok is false when the
// values cannot be compared, which makes the comparison undefined.
func order(a, b any) (int, bool) {
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		}
		return 1, true
	case nil:
		if b == nil {
			return 0, true
		}
	}
	return 0, false
}

func (q *query) call(doc map[string]any, e *sqlparser.FuncExpr) (any, error) {
	name := strings.ToLower(e.Name.String())
	if !strings.HasPrefix(name, functionPrefix) {
		return nil, errors.NewValidationError("query", "unsupported function "+e.Name.String())
	}
	name = strings.TrimPrefix(name, functionPrefix)

	args := make([]any, 0, len(e.Exprs))
	for _, arg := range e.Exprs {
		aliased, ok := arg.(*sqlparser.AliasedExpr)
		if !ok {
			return nil, errors.NewValidationError("query", "unsupported argument in "+name)
		}
		v, err := q.eval(doc, aliased.Expr)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	switch name {
	case "is_defined":
		return len(args) == 1 && args[0] != undefined, nil
	case "is_null":
		return len(args) == 1 && args[0] == nil, nil
	case "tostring":
		if len(args) != 1 || args[0] == undefined {
			return undefined, nil
		}
		return toString(args[0])
	case "lower", "upper", "length":
		if len(args) != 1 {
			return nil, errors.NewValidationError("query", name+" takes one argument")
		}
		s, ok := args[0].(string)
		if !ok {
			return undefined, nil
		}
		switch name {
		case "lower":
			return strings.ToLower(s), nil
		case "upper":
			return strings.ToUpper(s), nil
		}
		return float64(len([]rune(s))), nil
	case "contains", "startswith", "endswith":
		if len(args) < 2 || len(args) > 3 {
			return nil, errors.NewValidationError("query", name+" takes two or three arguments")
		}
		s, ok1 := args[0].(string)
		sub, ok2 := args[1].(string)
		if !ok1 || !ok2 {
			return undefined, nil
		}
		if len(args) == 3 && args[2] == true {
			s, sub = strings.ToLower(s), strings.ToLower(sub)
		}
		switch name {
		case "contains":
			return strings.Contains(s, sub), nil
		case "startswith":
			return strings.HasPrefix(s, sub), nil
		}
		return strings.HasSuffix(s, sub), nil
	}
	return nil, errors.NewValidationError("query", "unsupported function "+name)
}

func toString(v any) (any, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(x), nil
	case nil:
		return "null", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func truthy(v any) bool {
	b, ok := v.(bool)
	return ok && b
}
