package emit

import (
	"strings"

	"github.com/dave/jennifer/jen"

	"rxgen/internal/model"
	"rxgen/internal/semantic"
)

// emitConstructor renders New<Model>: dependency parameters, collection
// binding and seeding, command wiring, reference forwarding, and
// observer subscriptions, in that order.
func emitConstructor(f *jen.File, info *model.Info) {
	params := ctorParams(info)

	ret := jen.Op("*").Id(recvType(info))
	lit := jen.Dict{}
	for _, ref := range info.References {
		lit[jen.Id(ref.Field)] = jen.Id(ref.Field)
	}
	for _, d := range info.DIFields {
		lit[jen.Id(d.Field)] = jen.Id(d.Field)
	}

	body := []jen.Code{
		jen.Id("m").Op(":=").Op("&").Id(recvType(info)).Values(lit),
	}
	body = append(body, collectionWiring(info)...)
	body = append(body, commandWiring(info)...)
	body = append(body, forwardWiring(info)...)
	body = append(body, observerWiring(info)...)
	body = append(body, jen.Return(jen.Id("m")))

	fn := f.Func().Id("New" + info.Name)
	if len(info.TypeParams) > 0 {
		tps := make([]jen.Code, len(info.TypeParams))
		for i, tp := range info.TypeParams {
			tps[i] = jen.Id(tp.Name).Add(typeExpr(tp.Constraint))
		}
		fn.Index(tps...)
	}
	fn.Params(params...).Add(ret).Block(body...)
}

// ctorParams lists dependencies in field order: model references,
// opaque injections, then init-only collection seeds.
func ctorParams(info *model.Info) []jen.Code {
	var params []jen.Code
	for _, ref := range info.References {
		params = append(params, jen.Id(ref.Field).Add(typeExpr(ref.Decl)))
	}
	for _, d := range info.DIFields {
		params = append(params, jen.Id(d.Field).Add(typeExpr(d.Type)))
	}
	for _, p := range info.Properties {
		if !p.InitOnly || !p.Collection {
			continue
		}
		params = append(params, jen.Id(p.Field).Add(seedType(p)))
	}
	return params
}

// seedType is the plain container an init-only collection is seeded
// from: []T for lists, map[K]V for maps.
func seedType(p model.Property) *jen.Statement {
	if p.Key != "" {
		return jen.Map(typeExpr(p.Key)).Add(typeExpr(p.Elem))
	}
	return jen.Index().Add(typeExpr(p.Elem))
}

func collectionWiring(info *model.Info) []jen.Code {
	var out []jen.Code
	for _, p := range info.Properties {
		if !p.Collection {
			continue
		}
		out = append(out, jen.Id("m").Dot(p.Field).Dot("Bind").Call(
			jen.Func().Params().Block(notifyStmt(model.QualifiedProperty(p.Accessor))),
		))
		if p.InitOnly {
			out = append(out, jen.Id("m").Dot(p.Field).Dot("Replace").Call(jen.Id(p.Field)))
		}
	}
	return out
}

// commandWiring assigns each command field its runtime value for the
// detected execution shape.
func commandWiring(info *model.Info) []jen.Code {
	var out []jen.Code
	for _, c := range info.Commands {
		ctor := commandCtor(c)
		canExec := jen.Nil()
		if c.CanExecute != "" {
			canExec = jen.Id("m").Dot(c.CanExecute)
		}
		call := jen.Qual(semantic.RuntimePath, ctor).Call(
			jen.Id("m").Dot(c.Execute), canExec,
		)
		if strings.HasPrefix(c.Decl, "*") {
			out = append(out, jen.Id("m").Dot(c.Field).Op("=").Add(call))
		} else {
			out = append(out, jen.Id("m").Dot(c.Field).Op("=").Op("*").Add(call))
		}
	}
	return out
}

func commandCtor(c model.Command) string {
	name := "NewCommand"
	switch c.Shape {
	case model.ShapeAsync:
		name = "NewAsyncCommand"
	case model.ShapeCancellable:
		name = "NewCancellableCommand"
	}
	if strings.Contains(c.Decl, "CommandOf") {
		name += "Of"
	}
	return name
}

// forwardWiring re-publishes each referenced model's changes under this
// model's namespace.
func forwardWiring(info *model.Info) []jen.Code {
	var out []jen.Code
	for _, ref := range info.References {
		out = append(out, jen.Qual(semantic.RuntimePath, "ForwardFrom").Call(
			jen.Id("m").Dot(ref.Field),
			jen.Op("&").Id("m").Dot("Model"),
			jen.Lit(ref.Accessor),
		))
	}
	return out
}

// observerWiring subscribes each observer, detected or directive-
// declared, to exactly the properties it watches, filtered at the
// source model.
func observerWiring(info *model.Info) []jen.Code {
	var out []jen.Code
	for _, o := range info.Observers {
		call := jen.Id("m").Dot(o.Method).Call()
		if o.TakesContext {
			call = jen.Id("m").Dot(o.Method).Call(jen.Qual("context", "Background").Call())
		}
		args := []jen.Code{
			jen.Func().Params(jen.Qual(semantic.RuntimePath, "Change")).Block(call),
		}
		args = append(args, subscribeFilter(o.Properties)...)
		out = append(out, jen.Id("m").Dot(o.Ref).Dot("SubscribeTo").Call(args...))
	}
	return out
}
