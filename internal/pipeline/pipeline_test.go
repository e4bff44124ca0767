package pipeline

import (
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/tools/go/packages"

	"rxgen/internal/cache"
	"rxgen/internal/diag"
	"rxgen/internal/model"
	"rxgen/internal/project"
	"rxgen/internal/record"
)

func TestTemplateConsumersJoin(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "views")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	tmpl := `<h1>{{ .Panel.Title }}</h1>
<p>{{ .StatusModel.State }}</p>
<p>{{ .Panel.Title }}</p>`
	if err := os.WriteFile(filepath.Join(dir, "panel.tmpl"), []byte(tmpl), 0o644); err != nil {
		t.Fatal(err)
	}

	universe := map[string]*model.Info{
		"example.com/app/ui.PanelModel":  {PkgPath: "example.com/app/ui", Name: "PanelModel"},
		"example.com/app/ui.StatusModel": {PkgPath: "example.com/app/ui", Name: "StatusModel"},
	}
	cfg := &project.Config{Templates: []string{"views"}}

	counts, err := templateConsumers(root, cfg, universe)
	if err != nil {
		t.Fatal(err)
	}
	// One count per file per model, regardless of repeat reads. "Panel"
	// resolves to PanelModel through the suffix rule.
	if got := counts["example.com/app/ui.PanelModel"]; got != 1 {
		t.Errorf("PanelModel consumers = %d, want 1", got)
	}
	if got := counts["example.com/app/ui.StatusModel"]; got != 1 {
		t.Errorf("StatusModel consumers = %d, want 1", got)
	}
}

func TestTemplateConsumersNoDirs(t *testing.T) {
	counts, err := templateConsumers(t.TempDir(), &project.Config{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if counts != nil {
		t.Errorf("counts = %v, want nil", counts)
	}
}

func statusInfo() *model.Info {
	return &model.Info{
		PkgPath: "example.com/app/ui",
		PkgName: "ui",
		Name:    "StatusModel",
		Scope:   model.Singleton,
		Properties: []model.Property{
			{Field: "state", Accessor: "State", Type: "string", Comparable: true},
		},
	}
}

func testWork(t *testing.T) *pkgWork {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "models.go")
	if err := os.WriteFile(src, []byte("package ui\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return &pkgWork{
		target: &project.Target{
			Pkg: &packages.Package{Types: types.NewPackage("example.com/app/ui", "ui")},
			Dir: dir,
		},
		records: []*record.Record{{Info: statusInfo()}},
		inputs:  []string{src},
	}
}

func TestEmitPackageWritesArtifacts(t *testing.T) {
	w := testWork(t)
	c, err := cache.OpenAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	res := &Result{Bag: diag.NewBag()}
	if err := emitPackage(w, c, res); err != nil {
		t.Fatal(err)
	}
	if len(res.Written) != 2 {
		t.Fatalf("written %v, want companion and registry", res.Written)
	}
	for _, name := range []string{"status_model_rxgen.go", "rxgen_registry.go"} {
		if _, err := os.Stat(filepath.Join(w.target.Dir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}

	// Unchanged inputs with intact artifacts hit the cache.
	res2 := &Result{Bag: diag.NewBag()}
	if err := emitPackage(w, c, res2); err != nil {
		t.Fatal(err)
	}
	if res2.Skipped != 1 || len(res2.Written) != 0 {
		t.Errorf("second run skipped=%d written=%v, want cache hit", res2.Skipped, res2.Written)
	}

	// A changed source invalidates the entry.
	if err := os.WriteFile(w.inputs[0], []byte("package ui\n\nvar touched = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	res3 := &Result{Bag: diag.NewBag()}
	if err := emitPackage(w, c, res3); err != nil {
		t.Fatal(err)
	}
	if res3.Skipped != 0 || len(res3.Written) != 2 {
		t.Errorf("after edit skipped=%d written=%v, want re-emit", res3.Skipped, res3.Written)
	}
}

func TestEmitPackageMissingArtifactReemits(t *testing.T) {
	w := testWork(t)
	c, err := cache.OpenAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := emitPackage(w, c, &Result{Bag: diag.NewBag()}); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(w.target.Dir, "status_model_rxgen.go")); err != nil {
		t.Fatal(err)
	}

	res := &Result{Bag: diag.NewBag()}
	if err := emitPackage(w, c, res); err != nil {
		t.Fatal(err)
	}
	if res.Skipped != 0 || len(res.Written) != 2 {
		t.Errorf("skipped=%d written=%v, want re-emit after deleted artifact", res.Skipped, res.Written)
	}
}

func TestEmitPackageSkipsErrorRecords(t *testing.T) {
	w := testWork(t)
	bad := statusInfo()
	bad.Name = "BrokenModel"
	w.records = append(w.records, &record.Record{
		Info: bad,
		Diags: []diag.Diagnostic{
			diag.New(diag.InvalidPropertyShape, token.Position{Filename: "models.go"},
				"state", "BrokenModel", "reactive property fields must be unexported"),
		},
	})
	c, err := cache.OpenAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	res := &Result{Bag: diag.NewBag()}
	if err := emitPackage(w, c, res); err != nil {
		t.Fatal(err)
	}
	if len(res.Written) != 2 {
		t.Fatalf("written %v, want only the clean model's artifacts", res.Written)
	}
	if _, err := os.Stat(filepath.Join(w.target.Dir, "broken_model_rxgen.go")); err == nil {
		t.Error("companion emitted for model with errors")
	}

	// The cached entry remembers the failure so a hit still reports it.
	var p cache.Payload
	hit, err := c.Get("example.com/app/ui", &p)
	if err != nil || !hit {
		t.Fatalf("cache entry hit=%v err=%v", hit, err)
	}
	if !p.HadErrors {
		t.Error("payload.HadErrors = false, want true")
	}
}

func TestEmitPackageNilCache(t *testing.T) {
	w := testWork(t)
	res := &Result{Bag: diag.NewBag()}
	if err := emitPackage(w, nil, res); err != nil {
		t.Fatal(err)
	}
	if len(res.Written) != 2 {
		t.Errorf("written %v, want artifacts with caching disabled", res.Written)
	}
}
