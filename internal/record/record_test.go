package record_test

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"reflect"
	"sort"
	"strings"
	"testing"

	"rxgen/internal/diag"
	"rxgen/internal/model"
	"rxgen/internal/record"
	"rxgen/internal/semantic"
)

// rxStub is the minimal runtime surface fixtures type-check against.
const rxStub = `package rx

type Change struct{ Name string }

type Model struct{}

func (m *Model) Subscribe(fn func(Change)) func()                    { return nil }
func (m *Model) SubscribeTo(fn func(Change), names ...string) func() { return nil }
func (m *Model) Notify(name string)                                  {}

type List[T any] struct{}

type Map[K comparable, V any] struct{}

type Command struct{}

type CommandOf[T any] struct{}
`

type stubImporter struct {
	rx *types.Package
}

func (s stubImporter) Import(path string) (*types.Package, error) {
	if path == semantic.RuntimePath {
		return s.rx, nil
	}
	return importer.Default().Import(path)
}

// buildPkg type-checks the rx stub plus the named fixture files and
// wraps the result in a record input package.
func buildPkg(t *testing.T, files map[string]string) *record.Package {
	t.Helper()
	fset := token.NewFileSet()

	parse := func(name, src string) *ast.File {
		f, err := parser.ParseFile(fset, name, src, parser.ParseComments)
		if err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		return f
	}

	rxFile := parse("rx.go", rxStub)
	conf := types.Config{Importer: stubImporter{}}
	rxPkg, err := conf.Check(semantic.RuntimePath, fset, []*ast.File{rxFile}, nil)
	if err != nil {
		t.Fatalf("check rx stub: %v", err)
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	var astFiles []*ast.File
	for _, name := range names {
		astFiles = append(astFiles, parse(name, files[name]))
	}

	info := &types.Info{
		Types:      make(map[ast.Expr]types.TypeAndValue),
		Defs:       make(map[*ast.Ident]types.Object),
		Uses:       make(map[*ast.Ident]types.Object),
		Selections: make(map[*ast.SelectorExpr]*types.Selection),
	}
	conf = types.Config{Importer: stubImporter{rx: rxPkg}}
	pkg, err := conf.Check("example.com/app/ui", fset, astFiles, info)
	if err != nil {
		t.Fatalf("check fixture: %v", err)
	}
	return &record.Package{
		Fset:  fset,
		Files: astFiles,
		Res:   semantic.NewResolver(pkg, info),
	}
}

// panelFixture spreads one model over two files: declaration plus a
// separate method file, the multi-fragment case.
func panelFixture() map[string]string {
	return map[string]string{
		"models.go": `package ui

import "rxgen/rx"

//rxgen:model scope=singleton
type StatusModel struct {
	rx.Model
	state string ` + "`rx:\"prop\"`" + `
}

//rxgen:model
type PanelModel struct {
	rx.Model
	title  string          ` + "`rx:\"prop,trigger=recount\"`" + `
	items  rx.List[string] ` + "`rx:\"prop,init\"`" + `
	apply  *rx.Command     ` + "`rx:\"command,execute=doApply\"`" + `
	status *StatusModel
	clock  Clock ` + "`rx:\"inject\"`" + `
}

type Clock interface{ Now() int64 }
`,
		"panel_methods.go": `package ui

func (s *StatusModel) State() string { return "" }

func (m *PanelModel) doApply() error {
	_ = m.status.State()
	return nil
}

func (m *PanelModel) recount() {}

func (m *PanelModel) onReady() {}
`,
	}
}

func findRecord(t *testing.T, recs []*record.Record, name string) *record.Record {
	t.Helper()
	for _, r := range recs {
		if r.Info.Name == name {
			return r
		}
	}
	t.Fatalf("no record for %s", name)
	return nil
}

func hasCode(diags []diag.Diagnostic, code diag.Code) bool {
	for _, d := range diags {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestBuildAllMergesFragments(t *testing.T) {
	p := buildPkg(t, panelFixture())
	recs := record.BuildAll(p)
	if len(recs) != 2 {
		t.Fatalf("records = %d, want StatusModel and PanelModel", len(recs))
	}
	if recs[0].Info.Name != "PanelModel" || recs[1].Info.Name != "StatusModel" {
		t.Fatalf("record order = %s, %s", recs[0].Info.Name, recs[1].Info.Name)
	}

	panel := recs[0]
	if panel.Info.Scope != model.Scoped {
		t.Errorf("omitted scope = %v, want scoped default", panel.Info.Scope)
	}
	if got := len(panel.Info.Properties); got != 2 {
		t.Fatalf("panel properties = %d, want title and items", got)
	}
	items := panel.Info.Properties[1]
	if !items.Collection || !items.InitOnly {
		t.Errorf("items = %+v, want collection init-only", items)
	}
	if panel.Info.Properties[0].Trigger != "recount" {
		t.Errorf("title trigger = %q", panel.Info.Properties[0].Trigger)
	}
	if len(panel.Info.Commands) != 1 || panel.Info.Commands[0].Execute != "doApply" {
		t.Fatalf("panel commands = %+v", panel.Info.Commands)
	}
	if len(panel.Info.References) != 1 {
		t.Fatalf("panel references = %+v", panel.Info.References)
	}
	ref := panel.Info.References[0]
	if ref.RefID != "example.com/app/ui.StatusModel" || ref.Accessor != "Status" {
		t.Errorf("reference = %+v", ref)
	}
	if len(panel.Info.DIFields) != 1 || panel.Info.DIFields[0].Type != "Clock" {
		t.Errorf("DI fields = %+v", panel.Info.DIFields)
	}
	if !panel.Info.HasReadyHook {
		t.Error("onReady in the method file not detected")
	}

	status := recs[1]
	if status.Info.Scope != model.Singleton {
		t.Errorf("status scope = %v", status.Info.Scope)
	}
}

func TestFinalizeWidensUsage(t *testing.T) {
	p := buildPkg(t, panelFixture())
	recs := record.BuildAll(p)
	record.FinalizeAll(recs)

	panel := findRecord(t, recs, "PanelModel")
	// doApply reads status.State(); the command body widens the set.
	if got := panel.Info.References[0].Used; len(got) != 1 || got[0] != "State" {
		t.Fatalf("widened used set = %v, want [State]", got)
	}
	if hasCode(panel.Diags, diag.UnusedReference) {
		t.Fatalf("reference is used, diags = %v", panel.Diags)
	}
	// Clock has no known registration.
	if !hasCode(panel.Diags, diag.UnregisteredDependency) {
		t.Fatalf("want RXGN011 for clock, diags = %v", panel.Diags)
	}
	if panel.HasErrors() {
		t.Fatalf("panel should generate, diags = %v", panel.Diags)
	}
}

func TestKnownDepsSuppressRegistrationWarning(t *testing.T) {
	p := buildPkg(t, panelFixture())
	p.KnownDeps = map[string]bool{"Clock": true}
	recs := record.BuildAll(p)
	record.FinalizeAll(recs)

	panel := findRecord(t, recs, "PanelModel")
	if hasCode(panel.Diags, diag.UnregisteredDependency) {
		t.Fatalf("clock is registered, diags = %v", panel.Diags)
	}
}

func TestCreateSkipsNonModels(t *testing.T) {
	p := buildPkg(t, map[string]string{
		"bare.go": `package ui

//rxgen:model
type Annotated struct {
	Name string
}
`,
	})
	if recs := record.BuildAll(p); len(recs) != 0 {
		t.Fatalf("directive without an rx.Model embed produced %d records", len(recs))
	}
}

func TestCreateDerivedModel(t *testing.T) {
	files := panelFixture()
	files["derived.go"] = `package ui

//rxgen:model
type SpecialStatusModel struct {
	StatusModel
	detail string ` + "`rx:\"prop\"`" + `
}
`
	p := buildPkg(t, files)
	recs := record.BuildAll(p)

	derived := findRecord(t, recs, "SpecialStatusModel")
	if !derived.Info.Derived || derived.Info.Base != "StatusModel" {
		t.Fatalf("derived info = %+v", derived.Info)
	}
}

func TestConstructorConflict(t *testing.T) {
	files := panelFixture()
	files["ctor.go"] = `package ui

func NewPanelModel() *PanelModel { return nil }
`
	p := buildPkg(t, files)
	recs := record.BuildAll(p)
	record.FinalizeAll(recs)

	panel := findRecord(t, recs, "PanelModel")
	if !hasCode(panel.Diags, diag.ConstructorConflict) {
		t.Fatalf("want RXGN013, diags = %v", panel.Diags)
	}
	if !panel.HasErrors() {
		t.Fatal("constructor conflict must block generation")
	}
}

func TestBadScopeValue(t *testing.T) {
	p := buildPkg(t, map[string]string{
		"bad.go": `package ui

import "rxgen/rx"

//rxgen:model scope=global
type OddModel struct {
	rx.Model
	x int ` + "`rx:\"prop\"`" + `
}
`,
	})
	recs := record.BuildAll(p)
	if len(recs) != 1 {
		t.Fatalf("records = %d", len(recs))
	}
	if !hasCode(recs[0].Diags, diag.InvalidScopeDirective) {
		t.Fatalf("unknown scope must be reported, diags = %v", recs[0].Diags)
	}
	var bad *diag.Diagnostic
	for i := range recs[0].Diags {
		if recs[0].Diags[i].Code == diag.InvalidScopeDirective {
			bad = &recs[0].Diags[i]
		}
	}
	if msg := bad.Message(); !strings.Contains(msg, "global") {
		t.Fatalf("message should name the bad value, got %q", msg)
	}
	// Analysis continues on the default scope.
	if recs[0].Info.Scope != model.Scoped {
		t.Fatalf("scope = %v, want fallback to scoped", recs[0].Info.Scope)
	}
}

func TestCommandFieldTypeValidated(t *testing.T) {
	p := buildPkg(t, map[string]string{
		"bad.go": `package ui

import "rxgen/rx"

//rxgen:model
type MisTagged struct {
	rx.Model
	run func() ` + "`rx:\"command,execute=doRun\"`" + `
}

func (m *MisTagged) doRun() {}
`,
	})
	recs := record.BuildAll(p)
	if len(recs) != 1 {
		t.Fatalf("records = %d", len(recs))
	}
	if !hasCode(recs[0].Diags, diag.InvalidPropertyShape) {
		t.Fatalf("func-typed command field, want RXGN002, diags = %v", recs[0].Diags)
	}
}

func TestRecordsDeterministic(t *testing.T) {
	build := func() ([]*model.Info, []string) {
		p := buildPkg(t, panelFixture())
		recs := record.BuildAll(p)
		record.FinalizeAll(recs)
		var infos []*model.Info
		var msgs []string
		for _, r := range recs {
			infos = append(infos, r.Info)
			for _, d := range r.Diags {
				msgs = append(msgs, d.String())
			}
		}
		return infos, msgs
	}

	infos1, msgs1 := build()
	infos2, msgs2 := build()
	if !reflect.DeepEqual(msgs1, msgs2) {
		t.Fatalf("diagnostics differ across runs:\n%v\n%v", msgs1, msgs2)
	}
	if !reflect.DeepEqual(infos1, infos2) {
		t.Fatal("model records differ across runs")
	}
}
