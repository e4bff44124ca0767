// Package semantic resolves syntactic references against the type
// system: model classification, base-chain walking, comparability,
// runtime collection and command recognition. Every lookup returns nil
// or false on failure so callers can emit a targeted diagnostic instead
// of crashing the pipeline.
package semantic

import (
	"go/types"
)

// RuntimePath is the import path of the rx runtime package; type
// identity against it decides what counts as a model base, an
// observable collection, or a command.
const RuntimePath = "rxgen/rx"

// DepKind classifies a constructor dependency's type.
type DepKind int

const (
	DepService DepKind = iota
	DepModel
	DepModelInterface
)

// CollectionKind distinguishes the observable containers.
type CollectionKind int

const (
	CollectionList CollectionKind = iota
	CollectionMap
)

// Resolver answers semantic questions for one package under analysis.
type Resolver struct {
	pkg  *types.Package
	info *types.Info
}

func NewResolver(pkg *types.Package, info *types.Info) *Resolver {
	return &Resolver{pkg: pkg, info: info}
}

// Pkg returns the package being resolved.
func (r *Resolver) Pkg() *types.Package { return r.pkg }

// Info returns the type-checker facts for the package.
func (r *Resolver) Info() *types.Info { return r.info }

// LookupNamed finds a named type in the package scope. Nil when absent
// or not a type.
func (r *Resolver) LookupNamed(name string) *types.Named {
	if r.pkg == nil {
		return nil
	}
	obj := r.pkg.Scope().Lookup(name)
	tn, ok := obj.(*types.TypeName)
	if !ok {
		return nil
	}
	named, _ := tn.Type().(*types.Named)
	return named
}

// isRuntimeNamed reports whether t is the runtime type of that name,
// looking through generic instantiation.
func isRuntimeNamed(t types.Type, name string) bool {
	named, ok := t.(*types.Named)
	if !ok {
		return false
	}
	obj := named.Origin().Obj()
	return obj.Pkg() != nil && obj.Pkg().Path() == RuntimePath && obj.Name() == name
}

// deref looks through one pointer.
func deref(t types.Type) types.Type {
	if p, ok := t.(*types.Pointer); ok {
		return p.Elem()
	}
	return t
}

// IsModel reports whether t (optionally a pointer) is a named struct
// that embeds rx.Model, directly or through a parent model.
func (r *Resolver) IsModel(t types.Type) bool {
	named, ok := deref(t).(*types.Named)
	if !ok {
		return false
	}
	_, isBase, isDerived := r.modelBase(named, make(map[*types.Named]bool))
	return isBase || isDerived
}

// ModelBase resolves the base-type chain of a model. For a direct model
// (embeds rx.Model) it returns (nil, false). For a derived model it
// returns the parent concrete model and true. For non-models both
// results are zero and ok is false.
func (r *Resolver) ModelBase(named *types.Named) (base *types.Named, derived bool, ok bool) {
	b, isBase, isDerived := r.modelBase(named, make(map[*types.Named]bool))
	if isDerived {
		return b, true, true
	}
	if isBase {
		return nil, false, true
	}
	return nil, false, false
}

func (r *Resolver) modelBase(named *types.Named, visiting map[*types.Named]bool) (parent *types.Named, direct, derived bool) {
	if named == nil || visiting[named] {
		return nil, false, false
	}
	visiting[named] = true
	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		return nil, false, false
	}
	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		if !f.Embedded() {
			continue
		}
		ft := deref(f.Type())
		if isRuntimeNamed(ft, "Model") {
			return nil, true, false
		}
		if embedded, ok := ft.(*types.Named); ok {
			if _, d, dv := r.modelBase(embedded, visiting); d || dv {
				return embedded, false, true
			}
		}
	}
	return nil, false, false
}

// IsModelInterface reports whether t is an interface satisfied only by
// models: its method set includes the model base's change-stream
// surface.
func (r *Resolver) IsModelInterface(t types.Type) bool {
	iface, ok := deref(t).Underlying().(*types.Interface)
	if !ok {
		return false
	}
	var hasSubscribe, hasNotify bool
	for i := 0; i < iface.NumMethods(); i++ {
		switch iface.Method(i).Name() {
		case "Subscribe":
			hasSubscribe = true
		case "Notify":
			hasNotify = true
		}
	}
	return hasSubscribe && hasNotify
}

// ClassifyDep classifies a constructor dependency field's type.
func (r *Resolver) ClassifyDep(t types.Type) DepKind {
	switch {
	case r.IsModel(t):
		return DepModel
	case r.IsModelInterface(t):
		return DepModelInterface
	default:
		return DepService
	}
}

// Comparable reports whether values of t support ==. Type parameters
// count only when their constraint is comparable; everything else
// follows the language rule. Non-comparable property types make the
// generated setter treat every assignment as a change.
func (r *Resolver) Comparable(t types.Type) bool {
	if tp, ok := t.(*types.TypeParam); ok {
		iface, ok := tp.Constraint().Underlying().(*types.Interface)
		return ok && iface.IsComparable()
	}
	return types.Comparable(t)
}

// Collection recognizes rx.List and rx.Map fields.
func (r *Resolver) Collection(t types.Type) (CollectionKind, bool) {
	ft := deref(t)
	if isRuntimeNamed(ft, "List") {
		return CollectionList, true
	}
	if isRuntimeNamed(ft, "Map") {
		return CollectionMap, true
	}
	return 0, false
}

// CollectionTypes returns the instantiated type arguments of an rx.List
// or rx.Map field: elem for lists, key and elem for maps.
func (r *Resolver) CollectionTypes(t types.Type) (key, elem types.Type, kind CollectionKind, ok bool) {
	kind, ok = r.Collection(t)
	if !ok {
		return nil, nil, 0, false
	}
	named, isNamed := deref(t).(*types.Named)
	if !isNamed {
		return nil, nil, 0, false
	}
	args := named.TypeArgs()
	switch {
	case kind == CollectionList && args.Len() == 1:
		return nil, args.At(0), kind, true
	case kind == CollectionMap && args.Len() == 2:
		return args.At(0), args.At(1), kind, true
	}
	return nil, nil, kind, true
}

// CommandElem recognizes rx.Command and rx.CommandOf fields. For
// CommandOf it returns the instantiated element type.
func (r *Resolver) CommandElem(t types.Type) (elem types.Type, isCommand, hasElem bool) {
	ft := deref(t)
	if isRuntimeNamed(ft, "Command") {
		return nil, true, false
	}
	if isRuntimeNamed(ft, "CommandOf") {
		named := ft.(*types.Named)
		args := named.TypeArgs()
		if args != nil && args.Len() == 1 {
			return args.At(0), true, true
		}
		return nil, true, true
	}
	return nil, false, false
}

// ModelID resolves a (possibly pointer) named type to its simple name
// and process-wide model identity "pkgpath.Name".
func (r *Resolver) ModelID(t types.Type) (id, name string, ok bool) {
	named, isNamed := deref(t).(*types.Named)
	if !isNamed {
		return "", "", false
	}
	obj := named.Origin().Obj()
	if obj.Pkg() == nil {
		return "", "", false
	}
	return obj.Pkg().Path() + "." + obj.Name(), obj.Name(), true
}

// StructField returns the type of a named struct's field, or nil.
func (r *Resolver) StructField(typeName, fieldName string) types.Type {
	named := r.LookupNamed(typeName)
	if named == nil {
		return nil
	}
	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		return nil
	}
	for i := 0; i < st.NumFields(); i++ {
		if st.Field(i).Name() == fieldName {
			return st.Field(i).Type()
		}
	}
	return nil
}

// MethodSig returns the signature of a method on the named type
// (pointer or value receiver), or nil when absent.
func (r *Resolver) MethodSig(typeName, method string) *types.Signature {
	named := r.LookupNamed(typeName)
	if named == nil {
		return nil
	}
	for i := 0; i < named.NumMethods(); i++ {
		if named.Method(i).Name() == method {
			sig, _ := named.Method(i).Type().(*types.Signature)
			return sig
		}
	}
	return nil
}

// TypeString renders t for the emitter: package-local names come out
// unqualified, foreign names carry their full import path so the
// generated file can import the package they live in.
func (r *Resolver) TypeString(t types.Type) string {
	return types.TypeString(t, func(p *types.Package) string {
		if r.pkg != nil && p == r.pkg {
			return ""
		}
		return p.Path()
	})
}
