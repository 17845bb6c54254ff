// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package dialect lowers a qmodel.Query into parameterized SQL text for a
// specific backend, expanding the abstract rowhash/blockhash/blockname
// fields into dialect-specific expressions along the way. It is the only
// place in the module that pattern-matches on qmodel.FieldKind.
package dialect

import (
	"fmt"
	"strings"

	"github.com/reconsql/reconsql/qmodel"
)

// Renderer lowers a Query to (sql, params). All filter values become
// positional parameters; literal interpolation is never used.
type Renderer interface {
	// Name identifies the dialect, for logging and adapter selection.
	Name() string
	// Render produces the SQL text and its positional parameters for
	// the given query, expanding the abstract rowhash/blockhash/blockname
	// fields internally.
	Render(q qmodel.Query) (string, []any, error)
}

// paramStyle selects the dialect's positional-parameter syntax, and
// placeholder renders it for the i'th (1-based) parameter. Postgres uses
// $1, $2, ...; MySQL and ClickHouse use a bare '?'.
type paramStyle int

const (
	paramDollar paramStyle = iota
	paramQuestion
)

func placeholder(style paramStyle, i int) string {
	if style == paramDollar {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}

// renderCommon implements the clause assembly shared by every dialect:
// SELECT/FROM/JOIN/WHERE/GROUP BY/ORDER BY/LIMIT. Dialects differ only in
// how they expand rowhash/blockhash/blockname fields (expandField) and in
// their parameter placeholder style.
func renderCommon(q qmodel.Query, style paramStyle, expandField func(qmodel.Field) (string, error)) (string, []any, error) {
	var params []any
	nextParam := func(v any) string {
		params = append(params, v)
		return placeholder(style, len(params))
	}

	var sb strings.Builder

	selectExprs := make([]string, 0, len(q.Select))
	for _, f := range q.Select {
		expr, err := expandField(f)
		if err != nil {
			return "", nil, err
		}
		if f.Alias != "" {
			expr = fmt.Sprintf("%s AS %s", expr, f.Alias)
		}
		selectExprs = append(selectExprs, expr)
	}
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(selectExprs, ", "))

	sb.WriteString("\nFROM ")
	sb.WriteString(qualify(q.Table.Schema, q.Table.Name))
	if q.Table.Alias != "" {
		sb.WriteString(" AS ")
		sb.WriteString(q.Table.Alias)
	}

	for _, j := range q.Joins {
		sb.WriteString("\n")
		sb.WriteString(string(j.Type))
		sb.WriteString(" JOIN ")
		sb.WriteString(qualify(j.Schema, j.Name))
		if j.Alias != "" {
			sb.WriteString(" AS ")
			sb.WriteString(j.Alias)
		}
		sb.WriteString(" ON ")
		sb.WriteString(j.On)
	}

	if len(q.Filters) > 0 {
		conds := make([]string, 0, len(q.Filters))
		for _, flt := range q.Filters {
			conds = append(conds, fmt.Sprintf("%s %s %s", flt.Column, flt.Op, nextParam(flt.Value)))
		}
		sb.WriteString("\nWHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}

	if len(q.GroupBy) > 0 {
		exprs := make([]string, 0, len(q.GroupBy))
		for _, f := range q.GroupBy {
			expr, err := expandField(f)
			if err != nil {
				return "", nil, err
			}
			exprs = append(exprs, expr)
		}
		sb.WriteString("\nGROUP BY ")
		sb.WriteString(strings.Join(exprs, ", "))
	}

	if len(q.OrderBy) > 0 {
		terms := make([]string, 0, len(q.OrderBy))
		for _, o := range q.OrderBy {
			terms = append(terms, fmt.Sprintf("%s %s", o.Column, o.Direction))
		}
		sb.WriteString("\nORDER BY ")
		sb.WriteString(strings.Join(terms, ", "))
	}

	if q.Limit > 0 {
		sb.WriteString("\nLIMIT ")
		sb.WriteString(nextParam(q.Limit))
	}

	return sb.String(), params, nil
}

func qualify(schema, name string) string {
	if schema == "" {
		return name
	}
	return schema + "." + name
}

// ByName returns the built-in renderer for a dialect name ("postgres",
// "mysql", "clickhouse"), or false if unknown.
func ByName(name string) (Renderer, bool) {
	switch name {
	case "postgres":
		return Postgres{}, true
	case "mysql":
		return MySQL{}, true
	case "clickhouse":
		return ClickHouse{}, true
	default:
		return nil, false
	}
}
