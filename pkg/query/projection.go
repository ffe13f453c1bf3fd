// Package query builds parameterized SELECT statements over a projection of
// table columns onto the field names domain code filters and sorts by.
package query

import (
	"fmt"
	"strings"
)

type projected struct {
	view   string
	column string
}

// ProjectionMap binds field names to alias-qualified columns of one table.
type ProjectionMap struct {
	table  string
	alias  string
	fields []projected
}

// NewProjectionMap starts a projection over table, which may be
// schema-qualified, read through alias.
func NewProjectionMap(table, alias string) *ProjectionMap {
	return &ProjectionMap{table: table, alias: alias}
}

// Project selects column under the field name view. Columns are selected
// in the order they are projected.
func (p *ProjectionMap) Project(column, view string) *ProjectionMap {
	p.fields = append(p.fields, projected{view: view, column: p.alias + "." + column})
	return p
}

func (p *ProjectionMap) From() string {
	return p.table + " " + p.alias
}

// Column returns the qualified column for view. Field names are fixed at
// compile time, so an unknown one panics rather than reaching SQL.
func (p *ProjectionMap) Column(view string) string {
	for _, f := range p.fields {
		if f.view == view {
			return f.column
		}
	}
	panic(fmt.Sprintf("query: field %q is not projected from %s", view, p.table))
}

// Columns returns the select list.
func (p *ProjectionMap) Columns() string {
	cols := make([]string, len(p.fields))
	for i, f := range p.fields {
		cols[i] = f.column
	}
	return strings.Join(cols, ", ")
}
