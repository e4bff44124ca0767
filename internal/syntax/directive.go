// Package syntax holds the per-fragment extractors: pure functions over
// one file's AST that pull out the local contribution to a model's
// record. Nothing here sees more than a single fragment or resolves a
// symbol; cross-file merging and type resolution happen later.
//
// Extractors are total over well-formed syntax. A malformed tag or
// directive yields an empty result, never an error — the rule that
// expected the data turns its absence into a diagnostic.
package syntax

import (
	"go/ast"
	"strings"
)

// ModelDirective is a parsed "//rxgen:model" marker.
type ModelDirective struct {
	// ScopeRaw is the scope= value as written, unvalidated.
	ScopeRaw string
}

// ObserveDirective is a parsed "//rxgen:observe" marker binding an
// external service method to a named model property.
type ObserveDirective struct {
	Model    string
	Property string
}

const (
	modelMarker   = "//rxgen:model"
	observeMarker = "//rxgen:observe"
)

// FindModelDirective scans a declaration's doc comment for the model
// marker. The second result is false when the marker is absent.
func FindModelDirective(doc *ast.CommentGroup) (ModelDirective, bool) {
	line, ok := directiveLine(doc, modelMarker)
	if !ok {
		return ModelDirective{}, false
	}
	d := ModelDirective{}
	for _, kv := range strings.Fields(line) {
		if v, ok := strings.CutPrefix(kv, "scope="); ok {
			d.ScopeRaw = v
		}
	}
	return d, true
}

// FindObserveDirective scans a method's doc comment for the observe
// marker. Both model= and property= must be present; a partial
// directive reads as absent.
func FindObserveDirective(doc *ast.CommentGroup) (ObserveDirective, bool) {
	line, ok := directiveLine(doc, observeMarker)
	if !ok {
		return ObserveDirective{}, false
	}
	d := ObserveDirective{}
	for _, kv := range strings.Fields(line) {
		if v, ok := strings.CutPrefix(kv, "model="); ok {
			d.Model = v
		}
		if v, ok := strings.CutPrefix(kv, "property="); ok {
			d.Property = v
		}
	}
	if d.Model == "" || d.Property == "" {
		return ObserveDirective{}, false
	}
	return d, true
}

// directiveLine returns the arguments after marker on the first
// matching comment line. Directives are exact-prefix comments with no
// space after "//", like go:generate.
func directiveLine(doc *ast.CommentGroup, marker string) (string, bool) {
	if doc == nil {
		return "", false
	}
	for _, c := range doc.List {
		text := c.Text
		if text == marker {
			return "", true
		}
		if rest, ok := strings.CutPrefix(text, marker+" "); ok {
			return rest, true
		}
	}
	return "", false
}
