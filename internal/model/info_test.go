package model

import (
	"reflect"
	"testing"
)

func TestParseScope(t *testing.T) {
	cases := []struct {
		in      string
		want    Scope
		wantErr bool
	}{
		{"singleton", Singleton, false},
		{"scoped", Scoped, false},
		{"transient", Transient, false},
		{"", Scoped, false},
		{"global", Scoped, true},
	}
	for _, c := range cases {
		got, err := ParseScope(c.in)
		if (err != nil) != c.wantErr {
			t.Errorf("ParseScope(%q) err = %v", c.in, err)
		}
		if err == nil && got != c.want {
			t.Errorf("ParseScope(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestDependsLegally(t *testing.T) {
	if Singleton.DependsLegally(Scoped) {
		t.Error("singleton -> scoped must be illegal")
	}
	if Singleton.DependsLegally(Transient) {
		t.Error("singleton -> transient must be illegal")
	}
	if !Singleton.DependsLegally(Singleton) {
		t.Error("singleton -> singleton must be legal")
	}
	if !Scoped.DependsLegally(Transient) {
		t.Error("scoped -> transient must be legal")
	}
}

func TestModelID(t *testing.T) {
	a := Info{PkgPath: "example.com/app/ui", Name: "TestModel"}
	b := Info{PkgPath: "example.com/app/other", Name: "TestModel"}
	if a.ID() == b.ID() {
		t.Error("same name in different packages must produce distinct IDs")
	}
	if a.ID() != (&Info{PkgPath: "example.com/app/ui", Name: "TestModel"}).ID() {
		t.Error("ID must be deterministic")
	}
}

func TestQualifiedUsed(t *testing.T) {
	r := Reference{Field: "referenced", Accessor: "Referenced", Used: []string{"Counter", "Active"}}
	got := r.QualifiedUsed()
	want := []string{"Model.Referenced.Active", "Model.Referenced.Counter"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("QualifiedUsed() = %v, want %v", got, want)
	}
}

func TestExportName(t *testing.T) {
	for in, want := range map[string]string{
		"counter":  "Counter",
		"Counter":  "Counter",
		"x":        "X",
		"":         "",
		"urlValue": "UrlValue",
	} {
		if got := ExportName(in); got != want {
			t.Errorf("ExportName(%q) = %q, want %q", in, got, want)
		}
	}
}
