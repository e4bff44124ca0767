package syntax

import (
	"go/ast"
	"go/token"
)

// Field is one struct field of a model fragment, with its parsed tag.
type Field struct {
	Name     string
	Exported bool
	Type     ast.Expr
	TypeStr  string
	Tag      Tag
	Pos      token.Position
}

// StructFragment is the struct-declaration part of a model fragment.
type StructFragment struct {
	Name      string
	Directive ModelDirective
	// Embeds lists embedded type names in declaration order; the first
	// entry decides the model base (rx.Model or a parent model).
	Embeds     []string
	Fields     []Field
	TypeParams []TypeParamDecl
	Pos        token.Position
}

// TypeParamDecl is one declared generic type parameter.
type TypeParamDecl struct {
	Name       string
	Constraint string
}

// ExtractStructs returns every struct declaration in file carrying the
// model directive.
func ExtractStructs(file *ast.File, fset *token.FileSet) []StructFragment {
	var out []StructFragment
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts := spec.(*ast.TypeSpec)
			st, ok := ts.Type.(*ast.StructType)
			if !ok {
				continue
			}
			// The directive may sit on the type spec or, for single-spec
			// decls, on the gen decl.
			doc := ts.Doc
			if doc == nil {
				doc = gd.Doc
			}
			dir, ok := FindModelDirective(doc)
			if !ok {
				continue
			}
			frag := StructFragment{
				Name:      ts.Name.Name,
				Directive: dir,
				Pos:       fset.Position(ts.Pos()),
			}
			if ts.TypeParams != nil {
				for _, f := range ts.TypeParams.List {
					constraint := ExprString(f.Type)
					for _, n := range f.Names {
						frag.TypeParams = append(frag.TypeParams, TypeParamDecl{
							Name:       n.Name,
							Constraint: constraint,
						})
					}
				}
			}
			extractStructBody(st, fset, &frag)
			out = append(out, frag)
		}
	}
	return out
}

func extractStructBody(st *ast.StructType, fset *token.FileSet, frag *StructFragment) {
	for _, field := range st.Fields.List {
		if len(field.Names) == 0 {
			if name := baseTypeName(field.Type); name != "" {
				frag.Embeds = append(frag.Embeds, ExprString(field.Type))
			}
			continue
		}
		var raw string
		if field.Tag != nil {
			raw = field.Tag.Value
		}
		tag := ParseTag(raw)
		for _, n := range field.Names {
			frag.Fields = append(frag.Fields, Field{
				Name:     n.Name,
				Exported: ast.IsExported(n.Name),
				Type:     field.Type,
				TypeStr:  ExprString(field.Type),
				Tag:      tag,
				Pos:      fset.Position(n.Pos()),
			})
		}
	}
}

// baseTypeName unwraps pointers, arrays and generic instantiations down
// to the underlying named type of an embedded field.
func baseTypeName(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.StarExpr:
		return baseTypeName(e.X)
	case *ast.IndexExpr:
		return baseTypeName(e.X)
	case *ast.IndexListExpr:
		return baseTypeName(e.X)
	case *ast.SelectorExpr:
		return e.Sel.Name
	case *ast.Ident:
		return e.Name
	default:
		return ""
	}
}

// ExprString renders a type expression the way it was written, for
// display and for re-emission in generated signatures.
func ExprString(expr ast.Expr) string {
	if expr == nil {
		return ""
	}
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.SelectorExpr:
		return ExprString(e.X) + "." + e.Sel.Name
	case *ast.StarExpr:
		return "*" + ExprString(e.X)
	case *ast.IndexExpr:
		return ExprString(e.X) + "[" + ExprString(e.Index) + "]"
	case *ast.IndexListExpr:
		parts := make([]string, len(e.Indices))
		for i, ix := range e.Indices {
			parts[i] = ExprString(ix)
		}
		return ExprString(e.X) + "[" + join(parts) + "]"
	case *ast.ArrayType:
		if e.Len == nil {
			return "[]" + ExprString(e.Elt)
		}
		return "[...]" + ExprString(e.Elt)
	case *ast.MapType:
		return "map[" + ExprString(e.Key) + "]" + ExprString(e.Value)
	case *ast.InterfaceType:
		if e.Methods == nil || len(e.Methods.List) == 0 {
			return "any"
		}
		return "interface{...}"
	case *ast.FuncType:
		return "func(...)"
	case *ast.Ellipsis:
		return "..." + ExprString(e.Elt)
	case *ast.ParenExpr:
		return "(" + ExprString(e.X) + ")"
	case *ast.ChanType:
		return "chan " + ExprString(e.Value)
	default:
		return ""
	}
}

func join(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
