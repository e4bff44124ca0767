package project

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	c, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Packages) != 1 || c.Packages[0] != "./..." {
		t.Fatalf("default packages = %v", c.Packages)
	}
	if !c.Cache {
		t.Fatal("cache should default on")
	}
}

func TestLoadConfig(t *testing.T) {
	root := t.TempDir()
	src := `packages:
  - ./ui/...
templates:
  - ui/templates
exclude:
  - "vendor/**"
  - "*_gen.go"
known_deps:
  - Clock
cache: false
`
	if err := os.WriteFile(filepath.Join(root, ConfigFileName), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadConfig(root)
	if err != nil {
		t.Fatal(err)
	}
	if c.Packages[0] != "./ui/..." {
		t.Errorf("packages = %v", c.Packages)
	}
	if c.Cache {
		t.Error("cache should be off")
	}
	if !c.KnownDepSet()["Clock"] {
		t.Error("known deps not loaded")
	}
	if c.Report != "rxgen-report.yaml" {
		t.Errorf("report default not preserved, got %q", c.Report)
	}
}

func TestLoadConfigRejectsEmptyPackages(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ConfigFileName), []byte("packages: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(root); err == nil {
		t.Fatal("empty package list must fail validation")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	root := t.TempDir()
	c := DefaultConfig()
	c.KnownDeps = []string{"Clock"}
	if err := c.Save(root); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadConfig(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.KnownDeps) != 1 || loaded.KnownDeps[0] != "Clock" {
		t.Fatalf("round trip lost known deps: %v", loaded.KnownDeps)
	}
}

func TestExcluded(t *testing.T) {
	c := &Config{Exclude: []string{"vendor/**", "*_gen.go", "./legacy/**"}}
	cases := []struct {
		path string
		want bool
	}{
		{"vendor", true},
		{"vendor/lib/lib.go", true},
		{"ui/model_gen.go", false}, // single * does not cross /
		{"model_gen.go", true},
		{"legacy/old.go", true},
		{"ui/panel.go", false},
	}
	for _, tc := range cases {
		if got := c.Excluded(tc.path); got != tc.want {
			t.Errorf("Excluded(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
	var nilCfg *Config
	if nilCfg.Excluded("anything") {
		t.Error("nil config must exclude nothing")
	}
}

func TestIsGeneratedName(t *testing.T) {
	if !IsGeneratedName("panel_model_rxgen.go") || !IsGeneratedName("rxgen_registry.go") {
		t.Error("generated artifacts not recognized")
	}
	if IsGeneratedName("panel_model.go") {
		t.Error("hand-written file flagged as generated")
	}
}
