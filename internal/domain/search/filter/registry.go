package filter

import (
	"fmt"

	"github.com/bakwc/ppg-incidents/internal/domain/incident"
)

// Shape tags how a filter key is compiled.
type Shape int

const (
	// ShapeBoolean compiles "true"/"false" to column equality.
	ShapeBoolean Shape = iota + 1
	// ShapeChoice compiles comma-separated codes, with "null" selecting unset rows.
	ShapeChoice
	// ShapeRange compiles a single inclusive lower or exclusive upper numeric bound.
	ShapeRange
	// ShapeNotNull compiles a true flag to IS NOT NULL.
	ShapeNotNull
	// ShapeComposite compiles a true flag to substring checks over one or more text columns.
	ShapeComposite
	// ShapeEquals compiles a value to column equality.
	ShapeEquals
	// ShapeMonth compiles a YYYY-MM literal to a month-aligned date bound.
	ShapeMonth
)

func (s Shape) String() string {
	switch s {
	case ShapeBoolean:
		return "boolean"
	case ShapeChoice:
		return "choice"
	case ShapeRange:
		return "range"
	case ShapeNotNull:
		return "not_null"
	case ShapeComposite:
		return "composite"
	case ShapeEquals:
		return "equals"
	case ShapeMonth:
		return "month"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// Bound selects the side of a range or month key.
type Bound int

const (
	// Lower is inclusive.
	Lower Bound = iota
	// Upper is exclusive.
	Upper
)

// NumberKind selects how a range literal is parsed.
type NumberKind int

const (
	// Float parses any decimal literal.
	Float NumberKind = iota
	// Year parses an integer year and compares against an ISO date column.
	Year
)

// Descriptor describes how one filter key maps onto storage.
type Descriptor struct {
	Key     string
	Shape   Shape
	Column  string
	Bound   Bound
	Kind    NumberKind
	Columns []string // composite: columns searched
	Needles []string // composite: lower-cased substrings, any of which matches
}

// Registry maps filter keys to descriptors. Built once, read-only afterwards.
type Registry struct {
	byKey map[string]Descriptor
	order []string
}

// NewRegistry builds a registry, rejecting duplicate keys and incomplete descriptors.
func NewRegistry(descs ...Descriptor) (*Registry, error) {
	r := &Registry{byKey: make(map[string]Descriptor, len(descs))}
	for _, d := range descs {
		if d.Key == "" {
			return nil, fmt.Errorf("filter descriptor without key")
		}
		if _, dup := r.byKey[d.Key]; dup {
			return nil, fmt.Errorf("duplicate filter key %q", d.Key)
		}
		switch d.Shape {
		case ShapeComposite:
			if len(d.Columns) == 0 || len(d.Needles) == 0 {
				return nil, fmt.Errorf("composite filter %q needs columns and needles", d.Key)
			}
		case ShapeBoolean, ShapeChoice, ShapeRange, ShapeNotNull, ShapeEquals, ShapeMonth:
			if d.Column == "" {
				return nil, fmt.Errorf("filter %q needs a column", d.Key)
			}
		default:
			return nil, fmt.Errorf("filter %q has unknown shape %d", d.Key, int(d.Shape))
		}
		r.byKey[d.Key] = d
		r.order = append(r.order, d.Key)
	}
	return r, nil
}

// MustNewRegistry is NewRegistry that panics on error.
func MustNewRegistry(descs ...Descriptor) *Registry {
	r, err := NewRegistry(descs...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the descriptor for key.
func (r *Registry) Lookup(key string) (Descriptor, bool) {
	d, ok := r.byKey[key]
	return d, ok
}

// Keys returns every registered key in registration order.
func (r *Registry) Keys() []string {
	return append([]string(nil), r.order...)
}

// videoHosts are the substrings that mark a link as a video.
var videoHosts = []string{"youtube.com", "youtu.be", "vimeo.com"}

// IncidentRegistry returns the registry for the incidents table.
func IncidentRegistry() *Registry {
	var descs []Descriptor

	for _, col := range []string{"potentially_fatal", "hardware_failure", "bad_hardware_preflight"} {
		descs = append(descs, Descriptor{Key: col, Shape: ShapeBoolean, Column: col})
	}
	for _, f := range incident.Factors {
		descs = append(descs, Descriptor{Key: f.Name, Shape: ShapeBoolean, Column: f.Name})
	}

	for _, col := range []string{
		"severity", "flight_phase", "reserve_use", "cause_confidence", "primary_cause",
		"pilot_actions", "factor_accelerator", "factor_trimmer_position", "paramotor_type",
		"mid_air_collision",
	} {
		descs = append(descs, Descriptor{Key: col, Shape: ShapeChoice, Column: col})
	}

	ranges := []struct {
		name   string
		column string
		kind   NumberKind
	}{
		{"year", "date", Year},
		{"altitude", "flight_altitude", Float},
		{"wind_speed_ms", "wind_speed_ms", Float},
	}
	for _, rg := range ranges {
		descs = append(descs,
			Descriptor{Key: rg.name + "_min", Shape: ShapeRange, Column: rg.column, Bound: Lower, Kind: rg.kind},
			Descriptor{Key: rg.name + "_max", Shape: ShapeRange, Column: rg.column, Bound: Upper, Kind: rg.kind},
		)
	}

	descs = append(descs,
		Descriptor{Key: "altitude_not_null", Shape: ShapeNotNull, Column: "flight_altitude"},
		Descriptor{Key: "wind_speed_ms_not_null", Shape: ShapeNotNull, Column: "wind_speed_ms"},
		Descriptor{Key: "date_not_null", Shape: ShapeNotNull, Column: "date"},
	)

	collapse := []string{"collapse_types"}
	descs = append(descs,
		Descriptor{Key: "collapse", Shape: ShapeComposite, Columns: collapse, Needles: []string{"asymmetric", "frontal", "cravatte"}},
		Descriptor{Key: "stall", Shape: ShapeComposite, Columns: collapse, Needles: []string{"full_stall"}},
		Descriptor{Key: "spin", Shape: ShapeComposite, Columns: collapse, Needles: []string{"spin"}},
		Descriptor{Key: "line_twist", Shape: ShapeComposite, Columns: collapse, Needles: []string{"line_twist"}},
		Descriptor{Key: "unknown_collapse", Shape: ShapeComposite, Columns: collapse, Needles: []string{"unknown"}},
		Descriptor{Key: "has_video", Shape: ShapeComposite, Columns: []string{"source_links", "media_links"}, Needles: videoHosts},
	)

	descs = append(descs,
		Descriptor{Key: "country", Shape: ShapeEquals, Column: "country"},
		Descriptor{Key: "date_from", Shape: ShapeMonth, Column: "date", Bound: Lower},
		Descriptor{Key: "date_to", Shape: ShapeMonth, Column: "date", Bound: Upper},
	)

	return MustNewRegistry(descs...)
}
