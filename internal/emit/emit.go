// Package emit renders the generated companion sources: one
// `<model>_rxgen.go` per observable model and one `rxgen_registry.go`
// per package. Emission consumes finalized records only; callers gate
// on error-free diagnostics before asking for code.
package emit

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/dave/jennifer/jen"

	"rxgen/internal/model"
	"rxgen/internal/semantic"
)

// File is one generated artifact, named relative to the package
// directory.
type File struct {
	Name   string
	Source []byte
}

const header = "Code generated by rxgen. DO NOT EDIT."

// Companion renders the generated file for one model: constructor,
// property accessors, command accessors, the used-property filter, and
// ready hooks.
func Companion(info *model.Info) (*File, error) {
	f := jen.NewFilePathName(info.PkgPath, info.PkgName)
	f.HeaderComment(header)
	f.ImportName(semantic.RuntimePath, "rx")

	emitConstructor(f, info)
	for _, p := range info.Properties {
		emitProperty(f, info, p)
	}
	for _, c := range info.Commands {
		emitCommandAccessor(f, info, c)
	}
	emitFilterUsed(f, info)
	emitReady(f, info)

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", info.Name, err)
	}
	return &File{Name: companionName(info.Name), Source: buf.Bytes()}, nil
}

// companionName maps a type name to its generated file name
// ("PanelModel" -> "panel_model_rxgen.go").
func companionName(typeName string) string {
	var b strings.Builder
	for i, r := range typeName {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String() + "_rxgen.go"
}

// recvType is the receiver type literal, with type parameters for open
// generic models ("GenericModel[T]").
func recvType(info *model.Info) string {
	if len(info.TypeParams) == 0 {
		return info.Name
	}
	names := make([]string, len(info.TypeParams))
	for i, tp := range info.TypeParams {
		names[i] = tp.Name
	}
	return info.Name + "[" + strings.Join(names, ", ") + "]"
}

func recv(info *model.Info) *jen.Statement {
	return jen.Id("m").Op("*").Id(recvType(info))
}

// typeExpr turns a rendered type string back into jennifer code so
// every package the type mentions is imported. Renderings qualify
// foreign names with their full import path; the bare "rx." shorthand
// maps to the runtime package. Shapes the emitter never qualifies
// (func, chan, struct literals) pass through as written.
func typeExpr(s string) *jen.Statement {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "*"); ok {
		return jen.Op("*").Add(typeExpr(rest))
	}
	if rest, ok := strings.CutPrefix(s, "[]"); ok {
		return jen.Index().Add(typeExpr(rest))
	}
	if rest, ok := strings.CutPrefix(s, "map["); ok {
		if key, val, ok := cutKey(rest); ok {
			return jen.Map(typeExpr(key)).Add(typeExpr(val))
		}
		return jen.Id(s)
	}
	if strings.HasPrefix(s, "[") {
		if end := strings.IndexByte(s, ']'); end > 0 {
			return jen.Index(jen.Id(s[1:end])).Add(typeExpr(s[end+1:]))
		}
	}
	base, args, generic := cutTypeArgs(s)
	if strings.ContainsAny(base, "({ ") {
		return jen.Id(s)
	}
	st := namedExpr(base)
	if generic {
		parts := splitTypeArgs(args)
		idx := make([]jen.Code, len(parts))
		for i, p := range parts {
			idx[i] = typeExpr(p)
		}
		st = st.Index(idx...)
	}
	return st
}

// namedExpr resolves a possibly package-qualified name to an import
// reference.
func namedExpr(base string) *jen.Statement {
	dot := strings.LastIndexByte(base, '.')
	if dot < 0 {
		return jen.Id(base)
	}
	path, name := base[:dot], base[dot+1:]
	if path == "rx" {
		path = semantic.RuntimePath
	}
	return jen.Qual(path, name)
}

// cutKey splits a map type's "K]V" remainder at the key's closing
// bracket.
func cutKey(s string) (key, val string, ok bool) {
	depth := 0
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			if depth == 0 {
				return s[:i], s[i+1:], true
			}
			depth--
		}
	}
	return "", "", false
}

// cutTypeArgs splits "List[string]" into ("List", "string", true).
func cutTypeArgs(s string) (base, args string, ok bool) {
	open := strings.IndexByte(s, '[')
	if open < 0 || !strings.HasSuffix(s, "]") {
		return s, "", false
	}
	return s[:open], s[open+1 : len(s)-1], true
}

// splitTypeArgs splits a type-argument list on top-level commas.
func splitTypeArgs(s string) []string {
	var out []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	out = append(out, strings.TrimSpace(s[start:]))
	return out
}
