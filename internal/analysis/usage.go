// Package analysis is the dependency and usage analyzer: it widens the
// per-reference used-property sets by scanning method bodies, detects
// trigger write-back cycles and reference cycles, auto-detects
// observers, and checks scope rules. All functions are pure over the
// merged model info and the per-method facts.
package analysis

import (
	"go/ast"
	"go/token"
)

// Raw is one direct touch of a reactive backing field, bypassing the
// generated accessors.
type Raw struct {
	Field string
	Write bool
	Pos   token.Position
}

// Facts are the usage events harvested from one method body. Property
// names are accessor-form candidates; filtering against the referenced
// model's real property set happens in the analyzer, which knows the
// whole compilation.
type Facts struct {
	Method string
	Pos    token.Position

	// SelfCalls holds plain same-receiver method invocations, the edges
	// for transitive trigger analysis.
	SelfCalls map[string]bool

	SelfReads  map[string]bool
	SelfWrites map[string]bool

	// RefReads / RefWrites are keyed by reference field, then accessor
	// name. A read excluded by a write pattern never lands in RefReads.
	RefReads  map[string]map[string]bool
	RefWrites map[string]map[string]bool

	RawAccess []Raw
}

// mutatingMethods are collection-method receivers that count as writes:
// m.Items().Add(x) mutates, it does not observe.
var mutatingMethods = map[string]bool{
	"Add": true, "Insert": true, "Set": true, "RemoveAt": true,
	"Remove": true, "Clear": true, "Replace": true, "Delete": true,
	"Bind": true,
}

// harvest walks one method body. props maps own backing-field names to
// accessor names; refs is the set of reference field names.
type harvest struct {
	recv  string
	props map[string]string // field -> accessor
	byAcc map[string]string // accessor -> field
	refs  map[string]bool
	fset  *token.FileSet
	facts *Facts

	// excluded suppresses read-counting for targets of an enclosing
	// write pattern (read-modify-write).
	excluded map[string]bool
}

// MethodFacts extracts the usage events of one method.
func MethodFacts(fn *ast.FuncDecl, fset *token.FileSet, propAccessors map[string]string, refFields map[string]bool) *Facts {
	f := &Facts{
		Method:     fn.Name.Name,
		Pos:        fset.Position(fn.Pos()),
		SelfCalls:  map[string]bool{},
		SelfReads:  map[string]bool{},
		SelfWrites: map[string]bool{},
		RefReads:   map[string]map[string]bool{},
		RefWrites:  map[string]map[string]bool{},
	}
	recv := receiverName(fn)
	if recv == "" || fn.Body == nil {
		return f
	}
	byAcc := make(map[string]string, len(propAccessors))
	for field, acc := range propAccessors {
		byAcc[acc] = field
	}
	h := &harvest{
		recv:     recv,
		props:    propAccessors,
		byAcc:    byAcc,
		refs:     refFields,
		fset:     fset,
		facts:    f,
		excluded: map[string]bool{},
	}
	for _, stmt := range fn.Body.List {
		h.stmt(stmt)
	}
	return f
}

func receiverName(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 || len(fn.Recv.List[0].Names) == 0 {
		return ""
	}
	return fn.Recv.List[0].Names[0].Name
}

// stmt dispatches statements that establish write context; everything
// else degrades to a plain expression walk.
func (h *harvest) stmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.AssignStmt:
		var lhsKeys []string
		for _, lhs := range st.Lhs {
			lhsKeys = append(lhsKeys, h.writeTarget(lhs))
		}
		// Reads of an assignment's own target inside its RHS are the
		// read-modify-write pattern and do not count.
		for _, k := range lhsKeys {
			if k != "" {
				h.excluded[k] = true
			}
		}
		for _, rhs := range st.Rhs {
			h.expr(rhs)
		}
		for _, k := range lhsKeys {
			if k != "" {
				delete(h.excluded, k)
			}
		}
	case *ast.IncDecStmt:
		h.writeTarget(st.X)
	case *ast.ExprStmt:
		h.expr(st.X)
	case *ast.IfStmt:
		if st.Init != nil {
			h.stmt(st.Init)
		}
		h.expr(st.Cond)
		h.block(st.Body)
		if st.Else != nil {
			h.stmt(st.Else)
		}
	case *ast.ForStmt:
		if st.Init != nil {
			h.stmt(st.Init)
		}
		if st.Cond != nil {
			h.expr(st.Cond)
		}
		if st.Post != nil {
			h.stmt(st.Post)
		}
		h.block(st.Body)
	case *ast.RangeStmt:
		h.expr(st.X)
		h.block(st.Body)
	case *ast.BlockStmt:
		h.block(st)
	case *ast.ReturnStmt:
		for _, e := range st.Results {
			h.expr(e)
		}
	case *ast.SwitchStmt:
		if st.Init != nil {
			h.stmt(st.Init)
		}
		if st.Tag != nil {
			h.expr(st.Tag)
		}
		for _, c := range st.Body.List {
			cc := c.(*ast.CaseClause)
			for _, e := range cc.List {
				h.expr(e)
			}
			for _, b := range cc.Body {
				h.stmt(b)
			}
		}
	case *ast.DeferStmt:
		h.expr(st.Call)
	case *ast.GoStmt:
		h.expr(st.Call)
	case *ast.DeclStmt:
		if gd, ok := st.Decl.(*ast.GenDecl); ok {
			for _, spec := range gd.Specs {
				if vs, ok := spec.(*ast.ValueSpec); ok {
					for _, v := range vs.Values {
						h.expr(v)
					}
				}
			}
		}
	default:
		// Conservative: walk any expressions reachable from unhandled
		// statements so reads are never silently missed.
		ast.Inspect(s, func(n ast.Node) bool {
			if e, ok := n.(ast.Expr); ok {
				h.expr(e)
				return false
			}
			return true
		})
	}
}

func (h *harvest) block(b *ast.BlockStmt) {
	if b == nil {
		return
	}
	for _, s := range b.List {
		h.stmt(s)
	}
}

// writeTarget records a raw-assignment write and returns the exclusion
// key, or "" when the target is not reactive state.
func (h *harvest) writeTarget(lhs ast.Expr) string {
	sel, ok := lhs.(*ast.SelectorExpr)
	if !ok {
		h.expr(lhs)
		return ""
	}
	// m.field = ...
	if ident, ok := sel.X.(*ast.Ident); ok && ident.Name == h.recv {
		if acc, isProp := h.props[sel.Sel.Name]; isProp {
			h.facts.SelfWrites[acc] = true
			h.facts.RawAccess = append(h.facts.RawAccess, Raw{
				Field: sel.Sel.Name, Write: true, Pos: h.fset.Position(sel.Pos()),
			})
			return "self." + acc
		}
		return ""
	}
	h.expr(sel.X)
	return ""
}

func (h *harvest) expr(e ast.Expr) {
	switch ex := e.(type) {
	case *ast.CallExpr:
		h.call(ex)
	case *ast.SelectorExpr:
		h.bareSelector(ex)
	case *ast.BinaryExpr:
		h.expr(ex.X)
		h.expr(ex.Y)
	case *ast.UnaryExpr:
		h.expr(ex.X)
	case *ast.ParenExpr:
		h.expr(ex.X)
	case *ast.IndexExpr:
		h.expr(ex.X)
		h.expr(ex.Index)
	case *ast.CompositeLit:
		for _, el := range ex.Elts {
			h.expr(el)
		}
	case *ast.KeyValueExpr:
		h.expr(ex.Value)
	case *ast.FuncLit:
		h.block(ex.Body)
	case *ast.StarExpr:
		h.expr(ex.X)
	case *ast.TypeAssertExpr:
		h.expr(ex.X)
	case *ast.SliceExpr:
		h.expr(ex.X)
	case nil:
	default:
		// Identifiers, literals: nothing to record.
	}
}

// call classifies one call expression.
func (h *harvest) call(call *ast.CallExpr) {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		h.expr(call.Fun)
		h.walkArgs(call, "")
		return
	}
	name := sel.Sel.Name

	// Collection mutation through a getter: m.Items().Add(x) or
	// m.ref.Items().Add(x). The inner getter call is consumed as a
	// write, not a read.
	if inner, ok := sel.X.(*ast.CallExpr); ok && mutatingMethods[name] {
		if innerSel, ok := inner.Fun.(*ast.SelectorExpr); ok {
			if target, prop := h.accessTarget(innerSel); target != "" {
				h.recordWrite(target, prop)
				h.walkArgs(call, "")
				return
			}
		}
	}

	if target, prop := h.accessTarget(sel); target != "" {
		// Setter: m.SetCount(...) / m.ref.SetCount(...).
		if base, ok := cutSet(prop); ok {
			h.recordWrite(target, base)
			h.walkArgs(call, target+"."+base)
			return
		}
		h.recordRead(target, prop)
		h.walkArgs(call, "")
		return
	}

	// Plain same-receiver method call: an edge for transitive trigger
	// analysis.
	if ident, ok := sel.X.(*ast.Ident); ok && ident.Name == h.recv {
		h.facts.SelfCalls[name] = true
		h.walkArgs(call, "")
		return
	}

	h.expr(sel.X)
	h.walkArgs(call, "")
}

// walkArgs walks call arguments, optionally suppressing reads of the
// write target (read-modify-write).
func (h *harvest) walkArgs(call *ast.CallExpr, exclude string) {
	if exclude != "" {
		h.excluded[exclude] = true
	}
	for _, a := range call.Args {
		h.expr(a)
	}
	if exclude != "" {
		delete(h.excluded, exclude)
	}
}

// accessTarget resolves a selector to ("self"|refField, methodName)
// when its base is the receiver or a reference field of the receiver.
func (h *harvest) accessTarget(sel *ast.SelectorExpr) (target, name string) {
	switch base := sel.X.(type) {
	case *ast.Ident:
		if base.Name == h.recv {
			// m.X(): self access only when X is a known accessor or
			// setter; otherwise it is a plain method call.
			n := sel.Sel.Name
			if _, ok := h.byAcc[n]; ok {
				return "self", n
			}
			if b, ok := cutSet(n); ok {
				if _, isProp := h.byAcc[b]; isProp {
					return "self", n
				}
			}
		}
	case *ast.SelectorExpr:
		if ident, ok := base.X.(*ast.Ident); ok && ident.Name == h.recv && h.refs[base.Sel.Name] {
			return base.Sel.Name, sel.Sel.Name
		}
	}
	return "", ""
}

func (h *harvest) recordRead(target, prop string) {
	if target == "self" {
		if !h.excluded["self."+prop] {
			h.facts.SelfReads[prop] = true
		}
		return
	}
	if h.excluded[target+"."+prop] {
		return
	}
	set := h.facts.RefReads[target]
	if set == nil {
		set = map[string]bool{}
		h.facts.RefReads[target] = set
	}
	set[prop] = true
}

func (h *harvest) recordWrite(target, prop string) {
	if target == "self" {
		h.facts.SelfWrites[prop] = true
		return
	}
	set := h.facts.RefWrites[target]
	if set == nil {
		set = map[string]bool{}
		h.facts.RefWrites[target] = set
	}
	set[prop] = true
}

// bareSelector records direct backing-field access outside call
// position: m.count read without the accessor.
func (h *harvest) bareSelector(sel *ast.SelectorExpr) {
	if ident, ok := sel.X.(*ast.Ident); ok && ident.Name == h.recv {
		if _, isProp := h.props[sel.Sel.Name]; isProp {
			h.facts.RawAccess = append(h.facts.RawAccess, Raw{
				Field: sel.Sel.Name, Pos: h.fset.Position(sel.Pos()),
			})
		}
		return
	}
	h.expr(sel.X)
}

// cutSet splits a setter name: "SetCount" -> ("Count", true).
func cutSet(name string) (string, bool) {
	if len(name) > 3 && name[:3] == "Set" {
		return name[3:], true
	}
	return "", false
}
