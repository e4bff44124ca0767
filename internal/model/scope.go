package model

import "fmt"

// Scope is a model's lifetime policy. It constrains legal dependency
// direction: a Singleton may only depend on Singletons.
type Scope int

const (
	Scoped Scope = iota // default when the directive omits scope=
	Singleton
	Transient
)

func (s Scope) String() string {
	switch s {
	case Singleton:
		return "singleton"
	case Scoped:
		return "scoped"
	case Transient:
		return "transient"
	}
	return "unknown"
}

// ParseScope reads a scope= directive value.
func ParseScope(v string) (Scope, error) {
	switch v {
	case "singleton":
		return Singleton, nil
	case "scoped", "":
		return Scoped, nil
	case "transient":
		return Transient, nil
	}
	return Scoped, fmt.Errorf("unknown scope %q (want singleton, scoped or transient)", v)
}

// DependsLegally reports whether a model of scope s may depend on a
// model of scope dep without creating a captive dependency.
func (s Scope) DependsLegally(dep Scope) bool {
	if s != Singleton {
		return true
	}
	return dep == Singleton
}
