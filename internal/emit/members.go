package emit

import (
	"sort"
	"strings"

	"github.com/dave/jennifer/jen"

	"rxgen/internal/model"
)

// emitProperty renders the accessor pair for one reactive property.
// Collections get a single accessor returning the observable container;
// init-only properties get no setter.
func emitProperty(f *jen.File, info *model.Info, p model.Property) {
	if p.Collection {
		f.Func().Params(recv(info)).Id(p.Accessor).Params().Add(collectionReturn(p)).Block(
			jen.Return(collectionRef(p)),
		)
		return
	}

	f.Func().Params(recv(info)).Id(p.Accessor).Params().Add(typeExpr(p.Type)).Block(
		jen.Return(jen.Id("m").Dot(p.Field)),
	)
	if p.InitOnly {
		return
	}

	var body []jen.Code
	if p.Comparable {
		body = append(body, jen.If(jen.Id("m").Dot(p.Field).Op("==").Id("v")).Block(
			jen.Return(),
		))
	}
	body = append(body,
		jen.Id("m").Dot(p.Field).Op("=").Id("v"),
		notifyStmt(model.QualifiedProperty(p.Accessor)),
	)
	body = append(body, changeFollowups(info, p)...)

	f.Func().Params(recv(info)).Id("Set"+p.Accessor).
		Params(jen.Id("v").Add(typeExpr(p.Type))).Block(body...)
}

// changeFollowups are the statements a property change appends after
// its own notification: batch-group flush, trigger method, and
// availability notifications for commands bound to the property.
func changeFollowups(info *model.Info, p model.Property) []jen.Code {
	var out []jen.Code
	if p.Group != "" {
		out = append(out, notifyStmt("Group."+p.Group))
	}
	if p.Trigger != "" {
		out = append(out, jen.Id("m").Dot(p.Trigger).Call())
	}
	for _, c := range info.Commands {
		for _, bound := range c.TriggerProps {
			if bound == p.Field {
				out = append(out, notifyStmt("Command."+model.ExportName(c.Field)))
			}
		}
	}
	return out
}

func notifyStmt(name string) *jen.Statement {
	return jen.Id("m").Dot("Notify").Call(jen.Lit(name))
}

// collectionReturn renders the accessor return type: pointer-typed
// declarations pass through, value declarations return the address.
func collectionReturn(p model.Property) *jen.Statement {
	if strings.HasPrefix(p.Type, "*") {
		return typeExpr(p.Type)
	}
	return typeExpr("*" + p.Type)
}

func collectionRef(p model.Property) *jen.Statement {
	if strings.HasPrefix(p.Type, "*") {
		return jen.Id("m").Dot(p.Field)
	}
	return jen.Op("&").Id("m").Dot(p.Field)
}

// emitCommandAccessor renders the getter for an unexported command
// field. Exported fields are reachable as declared.
func emitCommandAccessor(f *jen.File, info *model.Info, c model.Command) {
	if c.Exported {
		return
	}
	ret := typeExpr(c.Decl)
	val := jen.Id("m").Dot(c.Field)
	if !strings.HasPrefix(c.Decl, "*") {
		ret = typeExpr("*" + c.Decl)
		val = jen.Op("&").Id("m").Dot(c.Field)
	}
	f.Func().Params(recv(info)).Id(model.ExportName(c.Field)).Params().Add(ret).Block(
		jen.Return(val),
	)
}

// emitFilterUsed renders FilterUsedProperties: the sorted union of
// fully qualified referenced-property names this model observes.
func emitFilterUsed(f *jen.File, info *model.Info) {
	var names []string
	for _, ref := range info.References {
		names = append(names, ref.QualifiedUsed()...)
	}
	sort.Strings(names)

	elems := make([]jen.Code, len(names))
	for i, n := range names {
		elems[i] = jen.Lit(n)
	}
	f.Comment("FilterUsedProperties lists the referenced-model property names this")
	f.Comment("model observes, fully qualified and sorted.")
	f.Func().Params(recv(info)).Id("FilterUsedProperties").Params().Index().String().Block(
		jen.Return(jen.Index().String().Values(elems...)),
	)
}

// emitReady renders the guarded ready hooks. The mark guards make
// repeated invocation a no-op.
func emitReady(f *jen.File, info *model.Info) {
	if info.HasReadyHook {
		f.Func().Params(recv(info)).Id("Ready").Params().Block(
			jen.If(jen.Op("!").Id("m").Dot("MarkReady").Call()).Block(jen.Return()),
			jen.Id("m").Dot("onReady").Call(),
		)
	}
	if info.HasReadyContextHook {
		f.Func().Params(recv(info)).Id("ReadyContext").
			Params(jen.Id("ctx").Qual("context", "Context")).Block(
			jen.If(jen.Op("!").Id("m").Dot("MarkReadyContext").Call()).Block(jen.Return()),
			jen.Id("m").Dot("onReadyContext").Call(jen.Id("ctx")),
		)
	}
}

// subscribeFilter renders the source-side filter names for an observer
// subscription.
func subscribeFilter(props []string) []jen.Code {
	out := make([]jen.Code, len(props))
	for i, p := range props {
		out[i] = jen.Lit("Model." + p)
	}
	return out
}
