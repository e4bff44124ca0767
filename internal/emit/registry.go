package emit

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/dave/jennifer/jen"

	"rxgen/internal/model"
	"rxgen/internal/semantic"
)

// RegistryFileName is the per-package registration artifact.
const RegistryFileName = "rxgen_registry.go"

// Registry renders rxgen_registry.go: a RegisterModels function wiring
// every closed model constructor into the scope registry, sorted by
// model ID. Open generic models are skipped; they cannot be constructed
// without type arguments.
func Registry(pkgPath, pkgName string, infos []*model.Info) (*File, error) {
	ordered := make([]*model.Info, 0, len(infos))
	for _, in := range infos {
		if len(in.TypeParams) == 0 {
			ordered = append(ordered, in)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID() < ordered[j].ID() })

	f := jen.NewFilePathName(pkgPath, pkgName)
	f.HeaderComment(header)
	f.ImportName(semantic.RuntimePath, "rx")

	var body []jen.Code
	for _, in := range ordered {
		body = append(body, registerStmt(pkgPath, in))
	}

	f.Comment("RegisterModels registers every generated model constructor with its")
	f.Comment("scope. Opaque service dependencies resolve by their type key.")
	f.Func().Id("RegisterModels").
		Params(jen.Id("reg").Op("*").Qual(semantic.RuntimePath, "Registry")).
		Block(body...)

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("render registry for %s: %w", pkgPath, err)
	}
	return &File{Name: RegistryFileName, Source: buf.Bytes()}, nil
}

func registerStmt(pkgPath string, info *model.Info) jen.Code {
	var args []jen.Code
	for _, ref := range info.References {
		args = append(args, jen.Id("r").Dot("MustResolve").
			Call(jen.Lit(ref.RefID)).Assert(typeExpr(ref.Decl)))
	}
	for _, d := range info.DIFields {
		args = append(args, jen.Id("r").Dot("MustResolve").
			Call(jen.Lit(DepKey(pkgPath, d.Type))).Assert(typeExpr(d.Type)))
	}
	for _, p := range info.Properties {
		if p.InitOnly && p.Collection {
			args = append(args, jen.Nil())
		}
	}

	provider := jen.Qual(semantic.RuntimePath, "Provider").Values(jen.Dict{
		jen.Id("Scope"): jen.Qual(semantic.RuntimePath, scopeConst(info.Scope)),
		jen.Id("New"): jen.Func().
			Params(jen.Id("r").Op("*").Qual(semantic.RuntimePath, "Resolver")).
			Id("any").
			Block(jen.Return(jen.Id("New" + info.Name).Call(args...))),
	})
	return jen.Id("reg").Dot("Register").Call(jen.Lit(info.ID()), provider)
}

func scopeConst(s model.Scope) string {
	switch s {
	case model.Singleton:
		return "ScopeSingleton"
	case model.Transient:
		return "ScopeTransient"
	}
	return "ScopeScoped"
}

// DepKey is the registry key an opaque dependency resolves under:
// package-local type names are qualified with the package path,
// imported ones register under their rendered name.
func DepKey(pkgPath, typeStr string) string {
	base := strings.TrimPrefix(typeStr, "*")
	if strings.Contains(base, ".") {
		return base
	}
	return pkgPath + "." + base
}
