package filter

import (
	"sort"
	"strings"
)

// Polarity selects whether a filter specification narrows (include) or removes (exclude) rows.
type Polarity int

const (
	// Include keeps rows matching the specification.
	Include Polarity = iota
	// Exclude drops rows matching the specification.
	Exclude
)

func (p Polarity) String() string {
	if p == Exclude {
		return "exclude"
	}
	return "include"
}

// ExcludePrefix marks an exclude-polarity key in the flat query-parameter form.
const ExcludePrefix = "exclude_"

// Param is one raw filter key/value pair.
type Param struct {
	Key   string
	Value string
}

// Spec is an ordered set of raw filter parameters. Order only affects the generated SQL text.
type Spec struct {
	params []Param
}

// NewSpec creates a Spec preserving the given order.
func NewSpec(params ...Param) Spec {
	return Spec{params: append([]Param(nil), params...)}
}

// FromMap creates a Spec from an unordered map, sorted by key for stable output.
func FromMap(m map[string]string) Spec {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	params := make([]Param, 0, len(keys))
	for _, k := range keys {
		params = append(params, Param{Key: k, Value: m[k]})
	}
	return Spec{params: params}
}

// SplitQuery separates a flat parameter bag into include and exclude specifications.
// Keys prefixed with "exclude_" land in the exclude spec with the prefix stripped.
func SplitQuery(values map[string][]string) (include, exclude Spec) {
	inc := make(map[string]string)
	exc := make(map[string]string)
	for k, vs := range values {
		if len(vs) == 0 {
			continue
		}
		v := vs[len(vs)-1]
		if rest, ok := strings.CutPrefix(k, ExcludePrefix); ok && rest != "" {
			exc[rest] = v
			continue
		}
		inc[k] = v
	}
	return FromMap(inc), FromMap(exc)
}

// With returns a copy of s with key set to value, appended after existing params.
func (s Spec) With(key, value string) Spec {
	out := make([]Param, 0, len(s.params)+1)
	for _, p := range s.params {
		if p.Key != key {
			out = append(out, p)
		}
	}
	return Spec{params: append(out, Param{Key: key, Value: value})}
}

// Get returns the raw value for key.
func (s Spec) Get(key string) (string, bool) {
	for _, p := range s.params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Params returns the parameters in order.
func (s Spec) Params() []Param { return s.params }

// IsEmpty reports whether the spec has no parameters.
func (s Spec) IsEmpty() bool { return len(s.params) == 0 }

// Clause is a composable SQL boolean expression with positional arguments.
// The zero value is the empty clause, which matches every row.
type Clause struct {
	sql  string
	args []any
}

// Raw creates a clause from literal SQL and its arguments.
func Raw(sql string, args ...any) Clause {
	return Clause{sql: sql, args: args}
}

// SQL returns the expression text.
func (c Clause) SQL() string { return c.sql }

// Args returns the positional arguments.
func (c Clause) Args() []any { return c.args }

// IsEmpty reports whether the clause constrains nothing.
func (c Clause) IsEmpty() bool { return c.sql == "" }

// Where renders " WHERE <expr>" or "" for the empty clause.
func (c Clause) Where() string {
	if c.IsEmpty() {
		return ""
	}
	return " WHERE " + c.sql
}

// And joins clauses with AND, skipping empty ones.
func And(clauses ...Clause) Clause {
	return join(" AND ", clauses)
}

// Or joins clauses with OR, skipping empty ones.
func Or(clauses ...Clause) Clause {
	return join(" OR ", clauses)
}

// Not negates c. The empty clause stays empty.
func Not(c Clause) Clause {
	if c.IsEmpty() {
		return c
	}
	return Clause{sql: "NOT (" + c.sql + ")", args: c.args}
}

func join(op string, clauses []Clause) Clause {
	var nonEmpty []Clause
	for _, c := range clauses {
		if !c.IsEmpty() {
			nonEmpty = append(nonEmpty, c)
		}
	}
	switch len(nonEmpty) {
	case 0:
		return Clause{}
	case 1:
		return nonEmpty[0]
	}

	parts := make([]string, 0, len(nonEmpty))
	var args []any
	for _, c := range nonEmpty {
		parts = append(parts, "("+c.sql+")")
		args = append(args, c.args...)
	}
	return Clause{sql: strings.Join(parts, op), args: args}
}
