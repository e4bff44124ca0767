package syntax

import (
	"go/ast"
	"go/token"
	"strings"
)

// Method is one method fragment of a model: the declaration plus the
// signature facts the analyzers key off. The body stays attached for
// usage analysis.
type Method struct {
	Name     string
	Exported bool
	Recv     string // receiver base type name
	Decl     *ast.FuncDecl

	// Signature facts. ParamTypes excludes the leading context.Context
	// when TakesContext is set.
	TakesContext bool
	ParamTypes   []string
	ResultTypes  []string

	Observe    ObserveDirective
	HasObserve bool

	Pos token.Position
}

// ExtractMethods returns every method in file whose receiver base type
// is typeName.
func ExtractMethods(file *ast.File, typeName string, fset *token.FileSet) []Method {
	var out []Method
	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Recv == nil || len(fd.Recv.List) == 0 {
			continue
		}
		recv := baseTypeName(fd.Recv.List[0].Type)
		if recv != typeName {
			continue
		}
		m := Method{
			Name:     fd.Name.Name,
			Exported: ast.IsExported(fd.Name.Name),
			Recv:     recv,
			Decl:     fd,
			Pos:      fset.Position(fd.Pos()),
		}
		if obs, ok := FindObserveDirective(fd.Doc); ok {
			m.Observe = obs
			m.HasObserve = true
		}
		fillSignature(&m, fd.Type)
		out = append(out, m)
	}
	return out
}

// ExtractServiceObservers returns methods of non-model types carrying
// an observe directive, keyed for the cross-service observer binding.
func ExtractServiceObservers(file *ast.File, fset *token.FileSet) []Method {
	var out []Method
	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Recv == nil || len(fd.Recv.List) == 0 {
			continue
		}
		obs, ok := FindObserveDirective(fd.Doc)
		if !ok {
			continue
		}
		m := Method{
			Name:       fd.Name.Name,
			Exported:   ast.IsExported(fd.Name.Name),
			Recv:       baseTypeName(fd.Recv.List[0].Type),
			Decl:       fd,
			Observe:    obs,
			HasObserve: true,
			Pos:        fset.Position(fd.Pos()),
		}
		fillSignature(&m, fd.Type)
		out = append(out, m)
	}
	return out
}

func fillSignature(m *Method, ft *ast.FuncType) {
	if ft.Params != nil {
		for _, field := range ft.Params.List {
			ts := ExprString(field.Type)
			n := len(field.Names)
			if n == 0 {
				n = 1
			}
			for i := 0; i < n; i++ {
				if len(m.ParamTypes) == 0 && !m.TakesContext && ts == "context.Context" {
					m.TakesContext = true
					continue
				}
				m.ParamTypes = append(m.ParamTypes, ts)
			}
		}
	}
	if ft.Results != nil {
		for _, field := range ft.Results.List {
			ts := ExprString(field.Type)
			n := len(field.Names)
			if n == 0 {
				n = 1
			}
			for i := 0; i < n; i++ {
				m.ResultTypes = append(m.ResultTypes, ts)
			}
		}
	}
}

// MatchesObserverName reports whether a method name follows one of the
// implicit-observer naming conventions.
func MatchesObserverName(name string) bool {
	exported := strings.ToUpper(name[:1]) + name[1:]
	switch {
	case strings.HasPrefix(exported, "On") && strings.HasSuffix(exported, "Changed"):
		return true
	case strings.HasPrefix(exported, "Handle") && len(exported) > len("Handle"):
		return true
	case strings.HasSuffix(exported, "Handler"):
		return true
	case strings.HasSuffix(exported, "Observer"):
		return true
	}
	return false
}

// FindConstructor reports a hand-written "New<Type>" top-level function
// in the file, which conflicts with the generated constructor.
func FindConstructor(file *ast.File, typeName string, fset *token.FileSet) (token.Position, bool) {
	want := "New" + typeName
	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Recv != nil {
			continue
		}
		if fd.Name.Name == want {
			return fset.Position(fd.Pos()), true
		}
	}
	return token.Position{}, false
}
