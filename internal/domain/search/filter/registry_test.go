package filter

import (
	"strings"
	"testing"
)

func TestIncidentRegistry_Shapes(t *testing.T) {
	reg := IncidentRegistry()

	tests := []struct {
		key   string
		shape Shape
	}{
		{"potentially_fatal", ShapeBoolean},
		{"factor_helmet_worn", ShapeBoolean},
		{"severity", ShapeChoice},
		{"factor_accelerator", ShapeChoice},
		{"year_min", ShapeRange},
		{"wind_speed_ms_max", ShapeRange},
		{"altitude_not_null", ShapeNotNull},
		{"has_video", ShapeComposite},
		{"line_twist", ShapeComposite},
		{"country", ShapeEquals},
		{"date_to", ShapeMonth},
	}
	for _, tt := range tests {
		d, ok := reg.Lookup(tt.key)
		if !ok {
			t.Errorf("%s: not registered", tt.key)
			continue
		}
		if d.Shape != tt.shape {
			t.Errorf("%s: shape %s, want %s", tt.key, d.Shape, tt.shape)
		}
	}

	if _, ok := reg.Lookup("order_by"); ok {
		t.Error("order_by must not be a filter key")
	}
}

func TestNewRegistry_Errors(t *testing.T) {
	tests := []struct {
		name    string
		descs   []Descriptor
		wantErr string
	}{
		{"missing key", []Descriptor{{Shape: ShapeBoolean, Column: "x"}}, "without key"},
		{"duplicate", []Descriptor{
			{Key: "x", Shape: ShapeBoolean, Column: "x"},
			{Key: "x", Shape: ShapeChoice, Column: "x"},
		}, "duplicate"},
		{"composite without needles", []Descriptor{{Key: "c", Shape: ShapeComposite, Columns: []string{"x"}}}, "needles"},
		{"missing column", []Descriptor{{Key: "r", Shape: ShapeRange}}, "needs a column"},
		{"unknown shape", []Descriptor{{Key: "u", Column: "u"}}, "unknown shape"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.descs...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestMustNewRegistry_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustNewRegistry(Descriptor{})
}
