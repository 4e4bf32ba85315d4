// Package query builds parameterized WHERE clauses over the session_logs
// schema. Field names are validated against the known column set and
// values always travel as parameters, never interpolated.
package query

import (
	"fmt"

	"github.com/cdtdelta/logguard/internal/model"
)

// Logic determines how multiple predicates are combined.
type Logic int

const (
	AND Logic = iota
	OR
)

// Operator represents a SQL comparison operator.
type Operator string

const (
	Equal          Operator = "="
	NotEqual       Operator = "!="
	Like           Operator = "LIKE"
	GreaterOrEqual Operator = ">="
	LessOrEqual    Operator = "<="
)

var validOperators = map[Operator]bool{
	Equal: true, NotEqual: true, Like: true,
	GreaterOrEqual: true, LessOrEqual: true,
}

// Placeholders supplies dialect-specific parameter placeholders. The
// database dialects satisfy this through structural typing.
type Placeholders interface {
	Placeholder(index int) string
	QuoteColumn(name string) string
}

// Predicate is a single filter condition or a composite of conditions.
type Predicate struct {
	kind  predicateKind
	field string
	op    Operator
	value interface{}
	date1 string
	date2 string
	left  *Predicate
	right *Predicate
	logic Logic
}

type predicateKind int

const (
	predSimple predicateKind = iota + 1
	predDate
	predComposite
)

// Simple creates a predicate comparing a column to a value. Returns nil if
// the column is not a session_logs field or the operator is unrecognized.
func Simple(field string, op Operator, value interface{}) *Predicate {
	if !IsValidField(field) || !validOperators[op] {
		return nil
	}
	return &Predicate{kind: predSimple, field: field, op: op, value: value}
}

// DateRange creates a predicate filtering events between two canonical
// timestamps (inclusive).
func DateRange(from, to string) *Predicate {
	return &Predicate{kind: predDate, date1: from, date2: to}
}

// Combine joins predicates with the given logic. Nil predicates are
// skipped; an empty result returns nil.
func Combine(preds []*Predicate, logic Logic) *Predicate {
	filtered := make([]*Predicate, 0, len(preds))
	for _, p := range preds {
		if p != nil {
			filtered = append(filtered, p)
		}
	}

	if len(filtered) == 0 {
		return nil
	}
	result := filtered[0]
	for _, p := range filtered[1:] {
		result = &Predicate{kind: predComposite, left: result, right: p, logic: logic}
	}
	return result
}

// WhereClause renders the predicate as a SQL fragment with its parameter
// values, using the given placeholder style.
func (p *Predicate) WhereClause(ph Placeholders) (string, []interface{}) {
	if p == nil {
		return "", nil
	}
	idx := 0
	return p.build(ph, &idx)
}

func (p *Predicate) build(ph Placeholders, idx *int) (string, []interface{}) {
	switch p.kind {
	case predSimple:
		*idx++
		value := p.value
		if p.op == Like {
			value = fmt.Sprintf("%%%v%%", value)
		}
		return fmt.Sprintf("(%s %s %s)", ph.QuoteColumn(p.field), p.op, ph.Placeholder(*idx)),
			[]interface{}{value}

	case predDate:
		*idx += 2
		return fmt.Sprintf("(timestamp BETWEEN %s AND %s)",
				ph.Placeholder(*idx-1), ph.Placeholder(*idx)),
			[]interface{}{p.date1, p.date2}

	case predComposite:
		leftSQL, leftArgs := p.left.build(ph, idx)
		rightSQL, rightArgs := p.right.build(ph, idx)

		op := "AND"
		if p.logic == OR {
			op = "OR"
		}
		return fmt.Sprintf("(%s %s %s)", leftSQL, op, rightSQL),
			append(leftArgs, rightArgs...)
	}
	return "", nil
}

// IsValidField reports whether name is a session_logs column.
func IsValidField(name string) bool {
	for _, f := range model.ExportFields {
		if f == name {
			return true
		}
	}
	return false
}
