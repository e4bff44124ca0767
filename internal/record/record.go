// Package record aggregates one model's fragments into the canonical
// analysis record shared by the live check path and the generator.
// Creation is two-phase: Create merges fragments and extracts usage
// facts for one type, Finalize runs the analyzer suite once the whole
// compilation's model universe is known. Same fragments in, identical
// record and diagnostics out.
package record

import (
	"fmt"
	"go/ast"
	"go/token"
	"sort"

	"rxgen/internal/analysis"
	"rxgen/internal/diag"
	"rxgen/internal/model"
	"rxgen/internal/semantic"
	"rxgen/internal/syntax"
)

// Package bundles the inputs records are created from: the parsed
// files of one package and its semantic resolver.
type Package struct {
	Fset  *token.FileSet
	Files []*ast.File
	Res   *semantic.Resolver

	// KnownDeps names opaque service types with a known registration;
	// injected fields outside the set draw the advisory diagnostic.
	KnownDeps map[string]bool
}

// Record is the per-model product: merged info, per-method usage facts,
// and every diagnostic found so far.
type Record struct {
	Info    *model.Info
	Methods []syntax.Method
	Facts   map[string]*analysis.Facts
	Diags   []diag.Diagnostic

	finalized bool
}

// HasErrors reports whether any diagnostic blocks generation.
func (r *Record) HasErrors() bool {
	for _, d := range r.Diags {
		if d.Severity == diag.Error {
			return true
		}
	}
	return false
}

// BuildAll creates a record for every directive-marked model in the
// package, sorted by type name. Analysis is deferred to Finalize.
func BuildAll(p *Package) []*Record {
	var frags []syntax.StructFragment
	for _, file := range p.Files {
		frags = append(frags, syntax.ExtractStructs(file, p.Fset)...)
	}
	sort.Slice(frags, func(i, j int) bool { return frags[i].Name < frags[j].Name })

	var out []*Record
	for _, frag := range frags {
		if r := Create(p, frag); r != nil {
			out = append(out, r)
		}
	}
	return out
}

// Create builds the record for one directive-marked struct. nil when
// the type does not resolve to an observable model. Panics after the
// type is confirmed a model become the catch-all diagnostic instead of
// taking the whole run down.
func Create(p *Package, frag syntax.StructFragment) (rec *Record) {
	named := p.Res.LookupNamed(frag.Name)
	if named == nil {
		return nil
	}
	base, derived, ok := p.Res.ModelBase(named)
	if !ok {
		return nil
	}

	info := &model.Info{
		PkgPath: p.Res.Pkg().Path(),
		PkgName: p.Res.Pkg().Name(),
		Name:    frag.Name,
		Derived: derived,
		Pos:     frag.Pos,
	}
	if base != nil {
		info.Base = base.Obj().Name()
	}
	rec = &Record{Info: info, Facts: map[string]*analysis.Facts{}}

	defer func() {
		if r := recover(); r != nil {
			rec.Diags = append(rec.Diags, diag.New(diag.InternalFailure,
				frag.Pos, frag.Name, fmt.Sprint(r)))
		}
	}()

	scope, err := model.ParseScope(frag.Directive.ScopeRaw)
	if err != nil {
		rec.Diags = append(rec.Diags, diag.New(diag.InvalidScopeDirective,
			frag.Pos, frag.Name, frag.Directive.ScopeRaw))
	}
	info.Scope = scope

	for _, tp := range frag.TypeParams {
		info.TypeParams = append(info.TypeParams, model.TypeParam{
			Name: tp.Name, Constraint: tp.Constraint,
		})
	}

	for _, f := range frag.Fields {
		p.classifyField(rec, frag.Name, f)
	}

	p.mergeMethods(rec, frag.Name)
	p.harvestFacts(rec)
	return rec
}

// classifyField sorts one struct field into the record: reactive
// property, command, opaque injection, model reference, or plain state.
func (p *Package) classifyField(rec *Record, typeName string, f syntax.Field) {
	info := rec.Info
	ft := p.Res.StructField(typeName, f.Name)

	// Prefer the checker's rendering: it qualifies foreign names with
	// their import path, which the emitter needs to produce imports.
	typeStr := f.TypeStr
	if ft != nil {
		typeStr = p.Res.TypeString(ft)
	}

	switch f.Tag.Kind {
	case syntax.TagProp:
		prop := model.Property{
			Field:    f.Name,
			Accessor: model.ExportName(f.Name),
			Type:     typeStr,
			Group:    f.Tag.Group,
			InitOnly: f.Tag.Init,
			Trigger:  f.Tag.Trigger,
			Exported: f.Exported,
			Pos:      f.Pos,
		}
		if ft != nil {
			prop.Comparable = p.Res.Comparable(ft)
			if key, elem, _, ok := p.Res.CollectionTypes(ft); ok {
				prop.Collection = true
				if key != nil {
					prop.Key = p.Res.TypeString(key)
				}
				if elem != nil {
					prop.Elem = p.Res.TypeString(elem)
				}
			}
		}
		info.Properties = append(info.Properties, prop)

	case syntax.TagCommand:
		elem, isCommand, hasElem := p.Res.CommandElem(ft)
		if ft == nil || !isCommand {
			rec.Diags = append(rec.Diags, diag.New(diag.InvalidPropertyShape,
				f.Pos, f.Name, info.Name,
				"command-tagged fields must be rx.Command or rx.CommandOf"))
			return
		}
		cmd := model.Command{
			Field:        f.Name,
			Execute:      f.Tag.Execute,
			CanExecute:   f.Tag.CanExecute,
			TriggerProps: f.Tag.TriggerProps,
			Decl:         typeStr,
			Exported:     f.Exported,
			Pos:          f.Pos,
		}
		if hasElem && elem != nil {
			cmd.Elem = p.Res.TypeString(elem)
		}
		info.Commands = append(info.Commands, cmd)

	case syntax.TagInject:
		// The registration lookup also honors the source-level spelling,
		// which is how rxgen.yaml known_deps entries are written.
		info.DIFields = append(info.DIFields, model.DIField{
			Field:      f.Name,
			Type:       typeStr,
			Registered: p.KnownDeps[f.TypeStr] || p.KnownDeps[typeStr],
			Pos:        f.Pos,
		})

	case syntax.TagRef, syntax.TagNone:
		if f.Exported || ft == nil {
			return
		}
		switch p.Res.ClassifyDep(ft) {
		case semantic.DepModel, semantic.DepModelInterface:
			id, typeName, ok := p.Res.ModelID(ft)
			if !ok {
				return
			}
			info.References = append(info.References, model.Reference{
				Field:    f.Name,
				Accessor: model.ExportName(f.Name),
				Type:     typeName,
				Decl:     typeStr,
				RefID:    id,
				Pos:      f.Pos,
			})
		default:
			if f.Tag.Kind == syntax.TagRef {
				rec.Diags = append(rec.Diags, diag.New(diag.InvalidPropertyShape,
					f.Pos, f.Name, info.Name,
					"ref-tagged fields must be observable model types"))
			}
			// Untagged non-model fields are plain private state.
		}
	}
}

// mergeMethods collects the type's methods across every file of the
// package, flags hand-written constructors, and detects ready hooks.
func (p *Package) mergeMethods(rec *Record, typeName string) {
	for _, file := range p.Files {
		rec.Methods = append(rec.Methods, syntax.ExtractMethods(file, typeName, p.Fset)...)
		if pos, found := syntax.FindConstructor(file, typeName, p.Fset); found {
			rec.Diags = append(rec.Diags, diag.New(diag.ConstructorConflict,
				pos, typeName, "New"+typeName))
		}
	}
	sort.SliceStable(rec.Methods, func(i, j int) bool {
		return rec.Methods[i].Name < rec.Methods[j].Name
	})
	for _, m := range rec.Methods {
		switch m.Name {
		case "onReady":
			rec.Info.HasReadyHook = len(m.ParamTypes) == 0 && !m.TakesContext
		case "onReadyContext":
			rec.Info.HasReadyContextHook = len(m.ParamTypes) == 0 && m.TakesContext
		}
	}
}

// harvestFacts runs the usage walker over every merged method body.
func (p *Package) harvestFacts(rec *Record) {
	props := make(map[string]string, len(rec.Info.Properties))
	for _, prop := range rec.Info.Properties {
		props[prop.Field] = prop.Accessor
	}
	refs := make(map[string]bool, len(rec.Info.References))
	for _, ref := range rec.Info.References {
		refs[ref.Field] = true
	}
	for _, m := range rec.Methods {
		if m.Decl == nil {
			continue
		}
		rec.Facts[m.Name] = analysis.MethodFacts(m.Decl, p.Fset, props, refs)
	}
}

// Finalize runs the analyzer suite against the full model universe and
// seals the record's diagnostics. Idempotent.
func (r *Record) Finalize(universe map[string]*model.Info) {
	if r.finalized {
		return
	}
	r.finalized = true

	defer func() {
		if rec := recover(); rec != nil {
			r.Diags = append(r.Diags, diag.New(diag.InternalFailure,
				r.Info.Pos, r.Info.Name, fmt.Sprint(rec)))
		}
	}()

	r.Diags = append(r.Diags, analysis.Analyze(r.Info, r.Methods, r.Facts, universe)...)

	bag := diag.NewBag()
	for _, d := range r.Diags {
		bag.Add(d)
	}
	bag.Sort()
	bag.Dedup()
	r.Diags = bag.Items()
}

// Universe indexes finalizable records by model ID.
func Universe(records []*Record) map[string]*model.Info {
	u := make(map[string]*model.Info, len(records))
	for _, r := range records {
		u[r.Info.ID()] = r.Info
	}
	return u
}

// FinalizeAll finalizes every record against the shared universe.
func FinalizeAll(records []*Record) {
	u := Universe(records)
	for _, r := range records {
		r.Finalize(u)
	}
}
