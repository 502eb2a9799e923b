package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bakwc/ppg-incidents/internal/domain"
)

// NullCode is the choice code that selects rows where the column is unset.
const NullCode = "null"

// Compiler turns filter specifications into SQL clauses using a Registry.
type Compiler struct {
	reg *Registry
}

// NewCompiler creates a compiler over reg.
func NewCompiler(reg *Registry) *Compiler {
	return &Compiler{reg: reg}
}

// Compile builds one clause for spec under polarity. Keys are ANDed together; under
// Exclude every key contributes its own negated clause. Unknown keys are ignored.
// Any unparsable numeric or month literal fails the whole compilation.
func (c *Compiler) Compile(spec Spec, polarity Polarity) (Clause, error) {
	var clauses []Clause
	for _, p := range spec.Params() {
		d, ok := c.reg.Lookup(p.Key)
		if !ok {
			continue
		}
		cl, err := compileOne(d, strings.TrimSpace(p.Value), polarity)
		if err != nil {
			return Clause{}, err
		}
		clauses = append(clauses, cl)
	}
	return And(clauses...), nil
}

// CompilePair compiles include and exclude specs and joins them with AND.
func (c *Compiler) CompilePair(include, exclude Spec) (Clause, error) {
	inc, err := c.Compile(include, Include)
	if err != nil {
		return Clause{}, fmt.Errorf("include filters: %w", err)
	}
	exc, err := c.Compile(exclude, Exclude)
	if err != nil {
		return Clause{}, fmt.Errorf("exclude filters: %w", err)
	}
	return And(inc, exc), nil
}

func compileOne(d Descriptor, value string, polarity Polarity) (Clause, error) {
	switch d.Shape {
	case ShapeChoice:
		return choiceClause(d.Column, value, polarity), nil
	case ShapeBoolean:
		b, ok := parseFlag(value)
		if !ok {
			return Clause{}, nil
		}
		return polarize(Raw(d.Column+" = ?", boolInt(b)), polarity), nil
	case ShapeRange:
		cl, err := rangeClause(d, value)
		if err != nil {
			return Clause{}, err
		}
		return polarize(cl, polarity), nil
	case ShapeNotNull:
		if b, ok := parseFlag(value); !ok || !b {
			return Clause{}, nil
		}
		if polarity == Exclude {
			return Raw(d.Column + " IS NULL"), nil
		}
		return Raw(d.Column + " IS NOT NULL"), nil
	case ShapeComposite:
		if b, ok := parseFlag(value); !ok || !b {
			return Clause{}, nil
		}
		return polarize(substringClause(d.Columns, d.Needles), polarity), nil
	case ShapeEquals:
		if value == "" {
			return Clause{}, nil
		}
		return polarize(Raw(d.Column+" = ?", value), polarity), nil
	case ShapeMonth:
		cl, err := monthClause(d, value)
		if err != nil {
			return Clause{}, err
		}
		return polarize(cl, polarity), nil
	default:
		return Clause{}, fmt.Errorf("filter %q: unsupported shape %s", d.Key, d.Shape)
	}
}

func polarize(c Clause, polarity Polarity) Clause {
	if polarity == Exclude {
		return Not(c)
	}
	return c
}

// choiceClause builds both polarities explicitly:
//
//	include: col IS NULL OR col IN (codes)
//	exclude: col IS NOT NULL AND col NOT IN (codes)
//
// Exclude always drops unset rows, so include and exclude of the same codes are not complements.
func choiceClause(column, value string, polarity Polarity) Clause {
	var codes []any
	wantNull := false
	for _, raw := range strings.Split(value, ",") {
		code := strings.TrimSpace(raw)
		switch {
		case code == "":
		case code == NullCode:
			wantNull = true
		default:
			codes = append(codes, code)
		}
	}
	if !wantNull && len(codes) == 0 {
		return Clause{}
	}

	if polarity == Exclude {
		parts := []Clause{Raw(column + " IS NOT NULL")}
		if len(codes) > 0 {
			parts = append(parts, Raw(column+" NOT IN ("+placeholders(len(codes))+")", codes...))
		}
		return And(parts...)
	}

	var parts []Clause
	if wantNull {
		parts = append(parts, Raw(column+" IS NULL"))
	}
	if len(codes) > 0 {
		parts = append(parts, Raw(column+" IN ("+placeholders(len(codes))+")", codes...))
	}
	return Or(parts...)
}

func rangeClause(d Descriptor, value string) (Clause, error) {
	if value == "" {
		return Clause{}, nil
	}
	op := " >= ?"
	if d.Bound == Upper {
		op = " < ?"
	}

	if d.Kind == Year {
		y, err := strconv.Atoi(value)
		if err != nil || y < 0 || y > 9999 {
			return Clause{}, domain.NewFilterValueError(d.Key, value)
		}
		return Raw(d.Column+op, fmt.Sprintf("%04d-01-01", y)), nil
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return Clause{}, domain.NewFilterValueError(d.Key, value)
	}
	return Raw(d.Column+op, f), nil
}

func monthClause(d Descriptor, value string) (Clause, error) {
	if value == "" {
		return Clause{}, nil
	}
	month, err := time.Parse("2006-01", value)
	if err != nil {
		return Clause{}, domain.NewFilterValueError(d.Key, value)
	}
	if d.Bound == Upper {
		return Raw(d.Column+" < ?", month.AddDate(0, 1, 0).Format(time.DateOnly)), nil
	}
	return Raw(d.Column+" >= ?", month.Format(time.DateOnly)), nil
}

// substringClause matches when any needle occurs in any column, case-insensitively.
// NULL columns never match, so the negated form keeps rows without data.
func substringClause(columns, needles []string) Clause {
	var parts []Clause
	for _, col := range columns {
		for _, n := range needles {
			parts = append(parts, Raw("instr(lower(coalesce("+col+", '')), ?) > 0", strings.ToLower(n)))
		}
	}
	return Or(parts...)
}

// parseFlag accepts "true"/"false" in any case; anything else is ignored.
func parseFlag(s string) (flag, ok bool) {
	switch {
	case strings.EqualFold(s, "true"):
		return true, true
	case strings.EqualFold(s, "false"):
		return false, true
	default:
		return false, false
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// ContainsFold matches rows where any column contains any needle, ignoring case.
// NULL columns never match.
func ContainsFold(columns []string, needles ...string) Clause {
	return substringClause(columns, needles)
}
