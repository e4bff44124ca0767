package analysis

import (
	"sort"
	"strings"

	"rxgen/internal/diag"
	"rxgen/internal/model"
	"rxgen/internal/syntax"
)

// observerResult is the outcome of auto-detection for one model.
type observerResult struct {
	observers []model.Observer
	diags     []diag.Diagnostic
}

// detectObservers collects a model's observers: methods carrying an
// //rxgen:observe directive, then the implicit naming convention over
// the rest. claimed holds method names already bound as command
// execute/canExecute or property triggers; they are never observers
// (that would double-subscribe).
func detectObservers(info *model.Info, methods []syntax.Method, facts map[string]*Facts, claimed map[string]bool, refProps map[string]map[string]bool) observerResult {
	var res observerResult
	for _, m := range methods {
		if m.HasObserve {
			res.add(declaredObserver(info, m, claimed, refProps))
			continue
		}
		if !syntax.MatchesObserverName(m.Name) {
			continue
		}
		if claimed[m.Name] {
			continue
		}
		if reason := observerShapeProblem(m); reason != "" {
			res.diags = append(res.diags, diag.New(
				diag.ObserverSignatureInvalid, m.Pos, m.Name, info.Name, reason))
			continue
		}
		f := facts[m.Name]
		if f == nil {
			continue
		}
		for _, ref := range info.References {
			valid := refProps[ref.Field]
			var props []string
			for p := range f.RefReads[ref.Field] {
				if valid[p] {
					props = append(props, p)
				}
			}
			if len(props) == 0 {
				continue
			}
			sort.Strings(props)
			res.observers = append(res.observers, model.Observer{
				Method:       m.Name,
				Ref:          ref.Field,
				Properties:   props,
				TakesContext: m.TakesContext,
			})
		}
	}
	return res
}

func (r *observerResult) add(res observerResult) {
	r.observers = append(r.observers, res.observers...)
	r.diags = append(r.diags, res.diags...)
}

// declaredObserver resolves an //rxgen:observe directive on a model
// method. Unlike the convention path, the subscription filter comes
// from the directive, not from the property reads in the body, so an
// empty body still subscribes.
func declaredObserver(info *model.Info, m syntax.Method, claimed map[string]bool, refProps map[string]map[string]bool) observerResult {
	var res observerResult
	fail := func(reason string) observerResult {
		res.diags = append(res.diags, diag.New(
			diag.ObserverSignatureInvalid, m.Pos, m.Name, info.Name, reason))
		return res
	}
	if claimed[m.Name] {
		return fail("it is bound to a command or trigger and cannot also observe")
	}
	if reason := observerShapeProblem(m); reason != "" {
		return fail(reason)
	}
	for _, ref := range info.References {
		if refTypeName(ref.Type) != m.Observe.Model {
			continue
		}
		if !refProps[ref.Field][m.Observe.Property] {
			return fail("it observes " + m.Observe.Model + "." + m.Observe.Property +
				", which is not a reactive property")
		}
		res.observers = append(res.observers, model.Observer{
			Method:       m.Name,
			Ref:          ref.Field,
			Properties:   []string{m.Observe.Property},
			Declared:     true,
			TakesContext: m.TakesContext,
		})
		return res
	}
	return fail("it observes " + m.Observe.Model + ", which " + info.Name + " does not reference")
}

// refTypeName reduces a reference's recorded type to the bare model
// name directives are written against ("example.com/app/core.StatusModel"
// -> "StatusModel").
func refTypeName(t string) string {
	t = strings.TrimPrefix(t, "*")
	if dot := strings.LastIndexByte(t, '.'); dot >= 0 {
		t = t[dot+1:]
	}
	return t
}

// observerShapeProblem names the first constraint a convention-named
// method fails, or "" when the shape qualifies.
func observerShapeProblem(m syntax.Method) string {
	if m.Exported {
		return "it is exported; observers must be unexported"
	}
	if len(m.ParamTypes) > 0 {
		return "it takes parameters beyond an optional context.Context"
	}
	switch {
	case len(m.ResultTypes) == 0:
	case len(m.ResultTypes) == 1 && m.ResultTypes[0] == "error":
	default:
		return "it returns values other than a single error"
	}
	return ""
}

// externalObservers validates declared //rxgen:observe bindings on
// service methods against the universe of models. Directives on model
// methods are skipped here; each model's own analysis resolves those
// against its reference list.
func externalObservers(services []syntax.Method, universe map[string]*model.Info) []diag.Diagnostic {
	var diags []diag.Diagnostic
	for _, m := range services {
		if findByName(universe, m.Recv) != nil {
			continue
		}
		target := findByName(universe, m.Observe.Model)
		if target == nil {
			diags = append(diags, diag.New(diag.ObserverSignatureInvalid, m.Pos,
				m.Name, m.Recv, "it observes unknown model "+m.Observe.Model))
			continue
		}
		if !hasProperty(target, m.Observe.Property) {
			diags = append(diags, diag.New(diag.ObserverSignatureInvalid, m.Pos,
				m.Name, m.Recv,
				"it observes "+m.Observe.Model+"."+m.Observe.Property+", which is not a reactive property"))
		}
	}
	return diags
}

func findByName(universe map[string]*model.Info, name string) *model.Info {
	for _, info := range universe {
		if info.Name == name {
			return info
		}
	}
	return nil
}

func hasProperty(info *model.Info, accessor string) bool {
	for _, p := range info.Properties {
		if p.Accessor == accessor {
			return true
		}
	}
	return false
}
