package analysis

import (
	"sort"
	"strings"

	"rxgen/internal/diag"
	"rxgen/internal/model"
	"rxgen/internal/syntax"
)

// Analyze runs the full analyzer suite over one merged model. It widens
// the reference used-property sets, fills in auto-detected observers,
// and returns every diagnostic for the model. universe maps model ID to
// info for the whole compilation; info itself must be a member.
//
// Analyze mutates info (Used sets, Observers, command shapes) and is
// called exactly once per model, by the record layer, before the record
// is frozen.
func Analyze(info *model.Info, methods []syntax.Method, facts map[string]*Facts, universe map[string]*model.Info) []diag.Diagnostic {
	var diags []diag.Diagnostic

	methodByName := make(map[string]syntax.Method, len(methods))
	for _, m := range methods {
		methodByName[m.Name] = m
	}

	// Valid property accessors per reference, from the referenced
	// model's own record.
	refProps := make(map[string]map[string]bool, len(info.References))
	for _, ref := range info.References {
		set := map[string]bool{}
		if target, ok := universe[ref.RefID]; ok {
			for _, p := range target.Properties {
				set[p.Accessor] = true
			}
		}
		refProps[ref.Field] = set
	}

	diags = append(diags, checkProperties(info, methodByName, facts)...)

	claimed := map[string]bool{}
	for _, c := range info.Commands {
		claimed[c.Execute] = true
		if c.CanExecute != "" {
			claimed[c.CanExecute] = true
		}
	}
	for _, p := range info.Properties {
		if p.Trigger != "" {
			claimed[p.Trigger] = true
		}
	}

	diags = append(diags, checkCommands(info, methodByName, facts)...)

	// Widen usage: every method body contributes reads, so property
	// reads inside command and trigger bodies extend the sets the
	// constructor extractor started.
	for i := range info.References {
		ref := &info.References[i]
		valid := refProps[ref.Field]
		used := map[string]bool{}
		for _, p := range ref.Used {
			used[p] = true
		}
		names := make([]string, 0, len(facts))
		for name := range facts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			for p := range facts[name].RefReads[ref.Field] {
				if valid[p] {
					used[p] = true
				}
			}
		}
		ref.Used = ref.Used[:0]
		for p := range used {
			ref.Used = append(ref.Used, p)
		}
		sort.Strings(ref.Used)
	}

	// Unused reference: dead coupling.
	for _, ref := range info.References {
		if len(ref.Used) == 0 {
			diags = append(diags, diag.New(diag.UnusedReference, ref.Pos,
				ref.Field, info.Name, ref.Type))
		}
	}

	// Scope and base-chain rules per reference.
	for _, ref := range info.References {
		target, ok := universe[ref.RefID]
		if !ok {
			continue
		}
		if !info.Scope.DependsLegally(target.Scope) {
			diags = append(diags, diag.New(diag.ScopeViolation, ref.Pos,
				info.Scope, info.Name, target.Scope, target.Name))
		}
		if target.Derived {
			diags = append(diags, diag.New(diag.DerivedModelReferenced, ref.Pos,
				target.Name, target.Base, info.Name))
		}
	}

	if cycle := findReferenceCycle(info, universe); cycle != nil {
		diags = append(diags, diag.New(diag.ReferenceCycle, info.Pos,
			info.Name, strings.Join(cycle, " -> ")))
	}

	obs := detectObservers(info, methods, facts, claimed, refProps)
	info.Observers = append(info.Observers, obs.observers...)
	diags = append(diags, obs.diags...)

	// Unregistered opaque dependencies: advisory only, registration may
	// live in another module.
	for _, di := range info.DIFields {
		if !di.Registered {
			diags = append(diags, diag.New(diag.UnregisteredDependency, di.Pos,
				di.Type, info.Name))
		}
	}

	diags = append(diags, checkRawAccess(info, facts)...)

	return diags
}

// checkProperties validates property shapes and trigger bindings.
func checkProperties(info *model.Info, methods map[string]syntax.Method, facts map[string]*Facts) []diag.Diagnostic {
	var diags []diag.Diagnostic
	for _, p := range info.Properties {
		if p.Exported {
			diags = append(diags, diag.New(diag.InvalidPropertyShape, p.Pos,
				p.Field, info.Name, "reactive backing fields must be unexported"))
		}
		if p.InitOnly && !p.Collection {
			diags = append(diags, diag.New(diag.InvalidPropertyShape, p.Pos,
				p.Field, info.Name, "init is only legal for rx.List and rx.Map properties"))
		}
		if p.Trigger == "" {
			continue
		}
		if _, ok := methods[p.Trigger]; !ok {
			diags = append(diags, diag.New(diag.TriggerTargetMissing, p.Pos,
				"property "+p.Field, info.Name, p.Trigger))
			continue
		}
		if writesTransitively(p.Trigger, p.Accessor, facts) {
			diags = append(diags, diag.New(diag.TriggerCycle, p.Pos,
				p.Trigger, p.Field))
		}
	}
	return diags
}

// checkCommands resolves command targets, detects the execution shape,
// validates argument lists, and rejects trigger write-back cycles.
func checkCommands(info *model.Info, methods map[string]syntax.Method, facts map[string]*Facts) []diag.Diagnostic {
	var diags []diag.Diagnostic
	propByField := map[string]model.Property{}
	for _, p := range info.Properties {
		propByField[p.Field] = p
	}

	for i := range info.Commands {
		c := &info.Commands[i]
		exec, ok := methods[c.Execute]
		if !ok {
			diags = append(diags, diag.New(diag.CommandTargetMissing, c.Pos,
				c.Field, info.Name, c.Execute))
			continue
		}
		if c.CanExecute != "" {
			if _, ok := methods[c.CanExecute]; !ok {
				diags = append(diags, diag.New(diag.CommandTargetMissing, c.Pos,
					c.Field, info.Name, c.CanExecute))
			}
		}

		// Shape from the execute signature.
		switch {
		case exec.TakesContext:
			c.Shape = model.ShapeCancellable
		case len(exec.ResultTypes) == 1 && exec.ResultTypes[0] == "error":
			c.Shape = model.ShapeAsync
		default:
			c.Shape = model.ShapeSync
		}

		// Signature agreement: the command's element type fixes the
		// parameter list, the detected shape the result list. A context
		// parameter without the error result, or extra results, has no
		// runtime wiring and is rejected here.
		wantParams := []string{}
		if c.Elem != "" {
			wantParams = []string{c.Elem}
		}
		wantResults := []string{}
		if c.Shape != model.ShapeSync {
			wantResults = []string{"error"}
		}
		if !typeListEq(exec.ParamTypes, wantParams) || !typeListEq(exec.ResultTypes, wantResults) {
			diags = append(diags, diag.New(diag.CommandSignatureMismatch, c.Pos,
				c.Field,
				sigString(c.Shape == model.ShapeCancellable, wantParams, wantResults),
				c.Execute,
				sigString(exec.TakesContext, exec.ParamTypes, exec.ResultTypes)))
		}

		// Trigger bindings: the bound property must exist, and the
		// execute method must not write it back, even transitively.
		for _, propField := range c.TriggerProps {
			p, ok := propByField[propField]
			if !ok {
				diags = append(diags, diag.New(diag.TriggerTargetMissing, c.Pos,
					"command "+c.Field, info.Name, propField))
				continue
			}
			if writesTransitively(c.Execute, p.Accessor, facts) {
				diags = append(diags, diag.New(diag.TriggerCycle, c.Pos,
					c.Execute, propField))
			}
		}
	}
	return diags
}

// typeListEq compares two type lists ignoring import-path qualification:
// element types recorded from the checker carry full paths while method
// signatures come off the AST with package names only.
func typeListEq(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if shortType(got[i]) != shortType(want[i]) {
			return false
		}
	}
	return true
}

// shortType strips the directory part of every path-qualified name in t,
// so "example.com/lib.Widget" and "lib.Widget" compare equal.
func shortType(t string) string {
	var b strings.Builder
	start := 0
	for i := 0; i <= len(t); i++ {
		if i == len(t) || strings.IndexByte("[](){}, *&", t[i]) >= 0 {
			seg := t[start:i]
			if slash := strings.LastIndexByte(seg, '/'); slash >= 0 {
				seg = seg[slash+1:]
			}
			b.WriteString(seg)
			if i < len(t) {
				b.WriteByte(t[i])
			}
			start = i + 1
		}
	}
	return b.String()
}

// sigString renders an execute signature for a diagnostic message.
func sigString(takesCtx bool, params, results []string) string {
	all := params
	if takesCtx {
		all = append([]string{"context.Context"}, params...)
	}
	s := "func(" + strings.Join(all, ", ") + ")"
	switch len(results) {
	case 0:
	case 1:
		s += " " + results[0]
	default:
		s += " (" + strings.Join(results, ", ") + ")"
	}
	return s
}

// checkRawAccess reports direct backing-field touches outside generated
// code. One report per method and field.
func checkRawAccess(info *model.Info, facts map[string]*Facts) []diag.Diagnostic {
	var diags []diag.Diagnostic
	names := make([]string, 0, len(facts))
	for name := range facts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		seen := map[string]bool{}
		for _, raw := range facts[name].RawAccess {
			if seen[raw.Field] {
				continue
			}
			seen[raw.Field] = true
			diags = append(diags, diag.New(diag.RawStateAccess, raw.Pos, name, raw.Field))
		}
	}
	return diags
}

// findReferenceCycle searches the reference graph for a cycle through
// info. The returned path starts and ends at info's name; nil when the
// graph is acyclic from here.
func findReferenceCycle(info *model.Info, universe map[string]*model.Info) []string {
	var path []string
	onPath := map[string]bool{}
	var visit func(id string) []string
	visit = func(id string) []string {
		cur, ok := universe[id]
		if !ok {
			return nil
		}
		if onPath[id] {
			if id == info.ID() {
				return append(path[:len(path):len(path)], cur.Name)
			}
			return nil
		}
		onPath[id] = true
		path = append(path, cur.Name)
		for _, ref := range cur.References {
			if found := visit(ref.RefID); found != nil {
				return found
			}
		}
		onPath[id] = false
		path = path[:len(path)-1]
		return nil
	}
	return visit(info.ID())
}

// SharedConsumers counts, across the whole compilation, how many
// distinct consumers reference each model: constructor references plus
// usage sites found in UI templates. Models that are not singletons and
// have more than one consumer are flagged, since scoped and transient
// instances are not safe to share.
func SharedConsumers(universe map[string]*model.Info, templateConsumers map[string]int) []diag.Diagnostic {
	counts := map[string]int{}
	for _, consumer := range universe {
		for _, ref := range consumer.References {
			counts[ref.RefID]++
		}
	}
	for id, n := range templateConsumers {
		counts[id] += n
	}

	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var diags []diag.Diagnostic
	for _, id := range ids {
		target, ok := universe[id]
		if !ok || target.Scope == model.Singleton || counts[id] <= 1 {
			continue
		}
		diags = append(diags, diag.New(diag.SharedScopedModel, target.Pos,
			target.Scope, target.Name, counts[id]))
	}
	return diags
}

// ExternalObservers validates declared cross-service observer bindings.
func ExternalObservers(services []syntax.Method, universe map[string]*model.Info) []diag.Diagnostic {
	return externalObservers(services, universe)
}
