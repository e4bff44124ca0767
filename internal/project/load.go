package project

import (
	"fmt"
	"go/ast"
	"go/token"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/packages"
)

// Target is one loaded package ready for record building: the syntax
// trees that survive exclusion filtering plus the type-checker result.
type Target struct {
	Pkg   *packages.Package
	Files []*ast.File
	Dir   string
}

// LoadTargets loads every package matching the config patterns under
// root. Generated companions and excluded files are dropped from the
// syntax set so re-runs never analyze their own output.
func LoadTargets(root string, cfg *Config) ([]*Target, *token.FileSet, error) {
	fset := token.NewFileSet()
	loadCfg := &packages.Config{
		Mode: packages.NeedName |
			packages.NeedFiles |
			packages.NeedSyntax |
			packages.NeedTypes |
			packages.NeedTypesInfo |
			packages.NeedImports,
		Dir:  root,
		Fset: fset,
	}
	pkgs, err := packages.Load(loadCfg, cfg.Packages...)
	if err != nil {
		return nil, nil, fmt.Errorf("load packages: %w", err)
	}
	if len(pkgs) == 0 {
		return nil, nil, fmt.Errorf("no packages match %v", cfg.Packages)
	}

	var targets []*Target
	for _, pkg := range pkgs {
		if pkg.Types == nil || pkg.TypesInfo == nil {
			continue
		}
		t := &Target{Pkg: pkg}
		for _, file := range pkg.Syntax {
			name := fset.Position(file.Pos()).Filename
			if t.Dir == "" {
				t.Dir = filepath.Dir(name)
			}
			if IsGeneratedName(filepath.Base(name)) {
				continue
			}
			rel, err := filepath.Rel(root, name)
			if err == nil && cfg.Excluded(filepath.ToSlash(rel)) {
				continue
			}
			t.Files = append(t.Files, file)
		}
		if len(t.Files) > 0 {
			targets = append(targets, t)
		}
	}
	return targets, fset, nil
}

// IsGeneratedName reports whether a file name is one of rxgen's own
// artifacts.
func IsGeneratedName(base string) bool {
	return strings.HasSuffix(base, "_rxgen.go") || base == "rxgen_registry.go"
}
