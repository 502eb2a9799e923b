package request

import (
	"fmt"
	"strings"

	"github.com/bakwc/ppg-incidents/internal/domain"
)

// DefaultOrder is most recent first.
const DefaultOrder = "-date"

// sortable maps public sort keys to columns. Secondary columns keep ties stable.
var sortable = map[string][]string{
	"date":            {"date", "time"},
	"created_at":      {"created_at"},
	"updated_at":      {"updated_at"},
	"flight_altitude": {"flight_altitude"},
	"wind_speed_ms":   {"wind_speed_ms"},
	"severity":        {"severity"},
	"country":         {"country"},
	"title":           {"title"},
}

// Order is a validated sort specification.
type Order struct {
	key  string
	desc bool
}

// ParseOrder parses "field" or "-field". Empty input yields DefaultOrder.
func ParseOrder(s string) (Order, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		s = DefaultOrder
	}
	key, desc := strings.CutPrefix(s, "-")
	if _, ok := sortable[key]; !ok {
		return Order{}, fmt.Errorf("%w: cannot order by %q", domain.ErrInvalidRequest, s)
	}
	return Order{key: key, desc: desc}, nil
}

// MustParseOrder is ParseOrder that panics on error.
func MustParseOrder(s string) Order {
	o, err := ParseOrder(s)
	if err != nil {
		panic(err)
	}
	return o
}

// Key returns the public sort key.
func (o Order) Key() string { return o.key }

// Desc reports descending order.
func (o Order) Desc() bool { return o.desc }

// String renders the order in its public form.
func (o Order) String() string {
	if o.desc {
		return "-" + o.key
	}
	return o.key
}

// SQL renders an ORDER BY expression list, ending with the id as a tiebreaker.
func (o Order) SQL() string {
	dir := " ASC"
	if o.desc {
		dir = " DESC"
	}
	cols := sortable[o.key]
	if cols == nil {
		cols = sortable["date"]
		dir = " DESC"
	}
	parts := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		parts = append(parts, c+dir)
	}
	parts = append(parts, "id"+dir)
	return strings.Join(parts, ", ")
}
