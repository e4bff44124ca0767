// Package model defines the canonical per-model analysis record: the
// single source of truth shared by the live check path and the code
// emitter. Everything here is plain data, built once per analysis pass
// and immutable afterwards.
package model

import (
	"go/token"
	"sort"
	"unicode"
	"unicode/utf8"
)

// Info describes one observable model class after all of its fragments
// have been merged and analyzed.
type Info struct {
	PkgPath string
	PkgName string
	Name    string

	// TypeParams is non-empty for open generic models.
	TypeParams []TypeParam

	Scope Scope

	// Derived is set when the model embeds another concrete model
	// instead of rx.Model directly; Base names it.
	Derived bool
	Base    string

	// Pos is the first declaration location (the struct type spec).
	Pos token.Position

	Properties []Property
	Commands   []Command
	References []Reference
	DIFields   []DIField
	Observers  []Observer

	// HasReadyHook / HasReadyContextHook record user-declared onReady /
	// onReadyContext methods the generated Ready hooks must call.
	HasReadyHook        bool
	HasReadyContextHook bool
}

// TypeParam is one generic type parameter of an open model.
type TypeParam struct {
	Name       string
	Constraint string
}

// ID returns the process-wide unique model identity, derived
// deterministically from package path and name.
func (i *Info) ID() string {
	return i.PkgPath + "." + i.Name
}

// QualifiedProperty returns the change-notification name for one of this
// model's own properties: "Model.<Accessor>".
func QualifiedProperty(accessor string) string {
	return "Model." + accessor
}

// Property is one declared reactive property.
type Property struct {
	// Field is the unexported backing field name; Accessor its exported
	// form used for the generated getter ("counter" -> "Counter").
	Field    string
	Accessor string

	// Type is the rendered declared type.
	Type string

	// Collection marks rx.List / rx.Map fields. Key and Elem hold the
	// rendered type arguments (Key only for rx.Map); init-only
	// collections surface them as constructor parameters.
	Collection bool
	Key        string
	Elem       string

	// Comparable reports whether the value type supports equality
	// comparison; when false every set counts as a change.
	Comparable bool

	// Group is the optional batch-group identifier.
	Group string

	// InitOnly properties are set through the constructor only.
	InitOnly bool

	// Trigger names the method invoked when the property changes.
	Trigger string

	// Exported records a field that was declared exported, which is an
	// invalid shape; extraction keeps it so the rule can point at it.
	Exported bool

	Pos token.Position
}

// CommandShape selects the generated execution plumbing.
type CommandShape int

const (
	ShapeSync        CommandShape = iota // func() / func(T)
	ShapeAsync                           // func() error, awaited
	ShapeCancellable                     // func(ctx, ...) error, switch semantics
)

func (s CommandShape) String() string {
	switch s {
	case ShapeSync:
		return "sync"
	case ShapeAsync:
		return "async"
	case ShapeCancellable:
		return "cancellable"
	}
	return "unknown"
}

// Command is one declared command property.
type Command struct {
	Field      string
	Execute    string
	CanExecute string

	// Elem is the command's parameter type for rx.CommandOf[T]; empty
	// for plain rx.Command. Decl is the field's declared type as
	// written; Exported fields get no generated accessor.
	Elem     string
	Decl     string
	Exported bool

	Shape CommandShape

	// TriggerProps lists property fields whose change invokes the
	// command.
	TriggerProps []string

	Pos token.Position
}

// Reference is a constructor dependency on another model.
type Reference struct {
	Field string
	// Accessor is the exported form of Field, used as the name prefix in
	// forwarded notifications ("referenced" -> "Model.Referenced.X").
	Accessor string

	// Type is the referenced model's simple type name, Decl the field's
	// declared type as written, RefID its unique model identity.
	Type  string
	Decl  string
	RefID string

	// Used holds accessor names of the referenced model's properties
	// actually read anywhere in this model, sorted. Assignment targets
	// and mutation patterns are excluded.
	Used []string

	Pos token.Position
}

// QualifiedUsed returns the fully qualified used-property names,
// sorted: "Model.<RefAccessor>.<Prop>".
func (r Reference) QualifiedUsed() []string {
	out := make([]string, len(r.Used))
	for i, p := range r.Used {
		out[i] = "Model." + r.Accessor + "." + p
	}
	sort.Strings(out)
	return out
}

// DIField is an opaque (non-model) constructor dependency.
type DIField struct {
	Field      string
	Type       string
	Registered bool
	Pos        token.Position
}

// Observer is a method subscribed to a referenced model's changes,
// either auto-detected by naming convention or declared by directive.
type Observer struct {
	Method string
	// Ref is the reference field observed; Properties the accessor
	// names the subscription is filtered to.
	Ref        string
	Properties []string
	Declared   bool
	// TakesContext marks the func(ctx context.Context) shape.
	TakesContext bool
}

// ExportName returns the exported form of an identifier ("counter" ->
// "Counter"). Already-exported names pass through.
func ExportName(name string) string {
	if name == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}
