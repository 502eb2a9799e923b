package filter

import (
	"reflect"
	"testing"
)

func newTestCompiler(t *testing.T) *Compiler {
	t.Helper()
	return NewCompiler(IncidentRegistry())
}

func assertClause(t *testing.T, got Clause, wantSQL string, wantArgs ...any) {
	t.Helper()
	if got.SQL() != wantSQL {
		t.Errorf("sql:\ngot:  %s\nwant: %s", got.SQL(), wantSQL)
	}
	if len(wantArgs) == 0 && len(got.Args()) == 0 {
		return
	}
	if !reflect.DeepEqual(got.Args(), wantArgs) {
		t.Errorf("args: got %#v, want %#v", got.Args(), wantArgs)
	}
}
