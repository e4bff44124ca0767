// Package pipeline drives a whole compilation: load packages, build and
// finalize records against the cross-package model universe, join
// template usage, and (on the generate path) emit companion files.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"rxgen/internal/analysis"
	"rxgen/internal/cache"
	"rxgen/internal/diag"
	"rxgen/internal/emit"
	"rxgen/internal/model"
	"rxgen/internal/project"
	"rxgen/internal/record"
	"rxgen/internal/semantic"
	"rxgen/internal/syntax"
	"rxgen/internal/templates"
)

// Options select the pipeline mode.
type Options struct {
	// Generate writes companion files; false is the check-only path,
	// which reports the full diagnostic list instead of the
	// generation-suppressed summary.
	Generate bool

	// Cache, when non-nil, skips emission for packages whose inputs
	// are unchanged and whose artifacts still exist.
	Cache *cache.Cache
}

// Result is one pipeline run's outcome.
type Result struct {
	Bag     *diag.Bag
	Models  int
	Written []string
	Skipped int // cache-fresh packages
}

// pkgWork is the per-package intermediate state between the parallel
// build phase and the sequential finalize phase.
type pkgWork struct {
	target   *project.Target
	records  []*record.Record
	services []syntax.Method
	inputs   []string
}

// Run executes the pipeline under root.
func Run(root string, cfg *project.Config, opts Options) (*Result, error) {
	targets, fset, err := project.LoadTargets(root, cfg)
	if err != nil {
		return nil, err
	}
	known := cfg.KnownDepSet()

	// Phase 1: per-package record building, in parallel. Records only
	// see their own package here; the cross-package analysis waits for
	// the universe.
	works := make([]*pkgWork, len(targets))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, t := range targets {
		i, t := i, t
		g.Go(func() error {
			w := &pkgWork{target: t}
			p := &record.Package{
				Fset:      fset,
				Files:     t.Files,
				Res:       semantic.NewResolver(t.Pkg.Types, t.Pkg.TypesInfo),
				KnownDeps: known,
			}
			w.records = record.BuildAll(p)
			for _, file := range t.Files {
				w.services = append(w.services, syntax.ExtractServiceObservers(file, fset)...)
				w.inputs = append(w.inputs, fset.Position(file.Pos()).Filename)
			}
			works[i] = w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Phase 2: cross-package universe, then finalize every record
	// against it. Merge order cannot influence the result: each
	// record's diagnostics are its own, and the bag sort is total.
	var all []*record.Record
	for _, w := range works {
		all = append(all, w.records...)
	}
	universe := record.Universe(all)
	record.FinalizeAll(all)

	res := &Result{Bag: diag.NewBag(), Models: len(all)}

	// Phase 3: compilation-wide rules.
	counts, err := templateConsumers(root, cfg, universe)
	if err != nil {
		return nil, err
	}
	for _, d := range analysis.SharedConsumers(universe, counts) {
		res.Bag.Add(d)
	}
	var services []syntax.Method
	for _, w := range works {
		services = append(services, w.services...)
	}
	for _, d := range analysis.ExternalObservers(services, universe) {
		res.Bag.Add(d)
	}

	for _, r := range all {
		diags := r.Diags
		if opts.Generate {
			diags = diag.WrapForGeneration(r.Info.Name, diags)
		}
		for _, d := range diags {
			res.Bag.Add(d)
		}
	}
	res.Bag.Sort()
	res.Bag.Dedup()

	if opts.Generate {
		for _, w := range works {
			if err := emitPackage(w, opts.Cache, res); err != nil {
				return nil, err
			}
		}
		sort.Strings(res.Written)
	}
	return res, nil
}

// emitPackage writes the companions and registry for one package's
// error-free models, honoring the skip cache.
func emitPackage(w *pkgWork, c *cache.Cache, res *Result) error {
	var clean []*model.Info
	hadErrors := false
	for _, r := range w.records {
		if r.HasErrors() {
			hadErrors = true
			continue
		}
		clean = append(clean, r.Info)
	}
	if len(w.records) == 0 {
		return nil
	}
	pkgPath := w.target.Pkg.Types.Path()

	input, err := cache.HashFiles(w.inputs)
	if err != nil {
		return fmt.Errorf("hash %s: %w", pkgPath, err)
	}
	var cached cache.Payload
	if hit, _ := c.Get(pkgPath, &cached); hit && cached.Fresh(input, w.target.Dir) {
		res.Skipped++
		return nil
	}

	var files []*emit.File
	for _, info := range clean {
		f, err := emit.Companion(info)
		if err != nil {
			return err
		}
		files = append(files, f)
	}
	if len(clean) > 0 {
		reg, err := emit.Registry(pkgPath, w.target.Pkg.Types.Name(), clean)
		if err != nil {
			return err
		}
		files = append(files, reg)
	}

	payload := &cache.Payload{PkgPath: pkgPath, InputHash: input, HadErrors: hadErrors}
	for _, f := range files {
		path := filepath.Join(w.target.Dir, f.Name)
		if err := os.WriteFile(path, f.Source, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		res.Written = append(res.Written, path)
		payload.Artifacts = append(payload.Artifacts, f.Name)
	}
	if err := c.Put(payload); err != nil {
		return fmt.Errorf("cache %s: %w", pkgPath, err)
	}
	return nil
}

// templateConsumers scans the configured template directories and joins
// the chains against the universe by model name.
func templateConsumers(root string, cfg *project.Config, universe map[string]*model.Info) (map[string]int, error) {
	if len(cfg.Templates) == 0 {
		return nil, nil
	}
	dirs := make([]string, len(cfg.Templates))
	for i, d := range cfg.Templates {
		dirs[i] = filepath.Join(root, d)
	}
	usages, err := templates.Scan(dirs)
	if err != nil {
		return nil, err
	}
	idByName := make(map[string]string, len(universe))
	for id, info := range universe {
		idByName[info.Name] = id
	}
	return templates.ConsumerCounts(usages, idByName), nil
}
