// Package templates scans UI template files for model property usage.
// A chain like {{ .Dashboard.Counter }} counts the Dashboard model as
// consumed by the template, which feeds the shared-consumer rule, and
// names the property the view reads.
package templates

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
)

// Chain is one ident.Property read found in a template.
type Chain struct {
	Ident    string
	Property string
}

// Usage is the deduplicated chain set of one template file.
type Usage struct {
	File   string
	Chains []Chain
}

var chainRe = regexp.MustCompile(`\.([A-Z][A-Za-z0-9]*)\.([A-Z][A-Za-z0-9]*)`)

// templateExts are the file suffixes scanned.
var templateExts = map[string]bool{".tmpl": true, ".gohtml": true, ".html": true}

// Scan walks dirs for template files and extracts their property
// chains. Results are sorted by file path, chains by ident then
// property.
func Scan(dirs []string) ([]Usage, error) {
	var out []Usage
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !templateExts[filepath.Ext(path)] {
				return nil
			}
			u, err := scanFile(path)
			if err != nil {
				return err
			}
			if len(u.Chains) > 0 {
				out = append(out, u)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan templates in %s: %w", dir, err)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].File < out[j].File })
	return out, nil
}

func scanFile(path string) (Usage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Usage{}, fmt.Errorf("read %s: %w", path, err)
	}
	seen := map[Chain]bool{}
	var chains []Chain
	for _, m := range chainRe.FindAllStringSubmatch(string(data), -1) {
		c := Chain{Ident: m[1], Property: m[2]}
		if seen[c] {
			continue
		}
		seen[c] = true
		chains = append(chains, c)
	}
	sort.Slice(chains, func(i, j int) bool {
		if chains[i].Ident != chains[j].Ident {
			return chains[i].Ident < chains[j].Ident
		}
		return chains[i].Property < chains[j].Property
	})
	return Usage{File: filepath.ToSlash(path), Chains: chains}, nil
}

// ConsumerCounts joins template usages against the model universe:
// a template ident matches a model named exactly after it, or with a
// "Model" suffix ("Dashboard" -> "DashboardModel"). Each file counts a
// model once.
func ConsumerCounts(usages []Usage, idByName map[string]string) map[string]int {
	counts := map[string]int{}
	for _, u := range usages {
		perFile := map[string]bool{}
		for _, c := range u.Chains {
			id, ok := idByName[c.Ident]
			if !ok {
				id, ok = idByName[c.Ident+"Model"]
			}
			if !ok || perFile[id] {
				continue
			}
			perFile[id] = true
			counts[id]++
		}
	}
	return counts
}

// PropertyReads returns the property names each model is read for
// across all templates, keyed by model ID, sorted.
func PropertyReads(usages []Usage, idByName map[string]string) map[string][]string {
	sets := map[string]map[string]bool{}
	for _, u := range usages {
		for _, c := range u.Chains {
			id, ok := idByName[c.Ident]
			if !ok {
				id, ok = idByName[c.Ident+"Model"]
			}
			if !ok {
				continue
			}
			if sets[id] == nil {
				sets[id] = map[string]bool{}
			}
			sets[id][c.Property] = true
		}
	}
	out := make(map[string][]string, len(sets))
	for id, set := range sets {
		props := make([]string, 0, len(set))
		for p := range set {
			props = append(props, p)
		}
		sort.Strings(props)
		out[id] = props
	}
	return out
}
