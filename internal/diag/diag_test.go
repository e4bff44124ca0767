package diag_test

import (
	"go/token"
	"strings"
	"testing"

	"rxgen/internal/diag"
)

func TestCatalogCodesStableAndUnique(t *testing.T) {
	seen := map[diag.Code]bool{}
	for _, r := range diag.Catalog() {
		if seen[r.Code] {
			t.Errorf("duplicate code %s", r.Code)
		}
		seen[r.Code] = true
		if !strings.HasPrefix(string(r.Code), "RXGN0") {
			t.Errorf("code %s does not follow RXGN0NN", r.Code)
		}
		if r.Title == "" || r.Template == "" {
			t.Errorf("code %s missing title or template", r.Code)
		}
	}
	// Spot-check codes that downstream tooling keys off.
	for _, c := range []diag.Code{diag.TriggerCycle, diag.ScopeViolation, diag.UnusedReference} {
		if !seen[c] {
			t.Errorf("catalog missing %s", c)
		}
	}
}

func TestDiagnosticMessageFormatting(t *testing.T) {
	d := diag.New(diag.ScopeViolation, token.Position{Filename: "a.go", Line: 3, Column: 1},
		"singleton", "AppModel", "scoped", "SessionModel")
	msg := d.Message()
	want := "singleton model AppModel cannot depend on scoped model SessionModel"
	if msg != want {
		t.Errorf("Message() = %q, want %q", msg, want)
	}
	if d.Severity != diag.Error {
		t.Errorf("severity = %v, want error", d.Severity)
	}
	if !strings.Contains(d.String(), "a.go:3:1") {
		t.Errorf("String() missing position: %s", d.String())
	}
}

func TestBagSortDeterministicAcrossMergeOrder(t *testing.T) {
	mk := func(file string, off int, c diag.Code) diag.Diagnostic {
		return diag.New(c, token.Position{Filename: file, Offset: off}, "a", "b", "c", "d")
	}
	a := diag.NewBag()
	a.Add(mk("b.go", 10, diag.UnusedReference))
	a.Add(mk("a.go", 5, diag.ScopeViolation))
	b := diag.NewBag()
	b.Add(mk("a.go", 1, diag.UnusedReference))

	first := diag.NewBag()
	first.Merge(a)
	first.Merge(b)
	first.Sort()

	second := diag.NewBag()
	second.Merge(b)
	second.Merge(a)
	second.Sort()

	if len(first.Items()) != 3 || len(second.Items()) != 3 {
		t.Fatalf("expected 3 items in each bag")
	}
	for i := range first.Items() {
		if first.Items()[i].String() != second.Items()[i].String() {
			t.Errorf("item %d differs across merge orders:\n%s\n%s",
				i, first.Items()[i], second.Items()[i])
		}
	}
	if first.Items()[0].Pos.Filename != "a.go" || first.Items()[0].Pos.Offset != 1 {
		t.Errorf("sort did not order by file+offset: %v", first.Items()[0])
	}
}

func TestBagDedupKeepsFirstDeclaration(t *testing.T) {
	b := diag.NewBag()
	b.Add(diag.New(diag.UnusedReference, token.Position{Filename: "model_extra.go", Offset: 50}, "users", "AppModel", "UserModel"))
	b.Add(diag.New(diag.UnusedReference, token.Position{Filename: "model.go", Offset: 10}, "users", "AppModel", "UserModel"))
	b.Sort()
	b.Dedup()
	if b.Len() != 1 {
		t.Fatalf("expected 1 after dedup, got %d", b.Len())
	}
	if b.Items()[0].Pos.Filename != "model.go" {
		t.Errorf("dedup kept %s, want first declaration model.go", b.Items()[0].Pos.Filename)
	}
}

func TestWrapForGeneration(t *testing.T) {
	diags := []diag.Diagnostic{
		diag.New(diag.UnusedReference, token.Position{Filename: "m.go"}, "users", "AppModel", "UserModel"),
		diag.New(diag.TriggerCycle, token.Position{Filename: "m.go", Line: 9}, "onCountChanged", "count"),
		diag.New(diag.ScopeViolation, token.Position{Filename: "m.go", Line: 12}, "singleton", "AppModel", "scoped", "SessionModel"),
	}
	wrapped := diag.WrapForGeneration("AppModel", diags)
	var summaries, errors int
	for _, d := range wrapped {
		if d.Code == diag.GenerationSuppressed {
			summaries++
			if !strings.Contains(d.Message(), string(diag.TriggerCycle)) {
				t.Errorf("summary should cite first error code: %s", d.Message())
			}
		}
		if d.Severity >= diag.Error && d.Code != diag.GenerationSuppressed {
			errors++
		}
	}
	if summaries != 1 {
		t.Errorf("expected exactly one summary, got %d", summaries)
	}
	if errors != 0 {
		t.Errorf("raw errors should be replaced by the summary, found %d", errors)
	}
	// The advisory warning passes through.
	if wrapped[0].Code != diag.UnusedReference {
		t.Errorf("warning did not pass through: %v", wrapped[0])
	}

	// No errors at all: nothing wrapped.
	clean := diag.WrapForGeneration("AppModel", diags[:1])
	if len(clean) != 1 || clean[0].Code != diag.UnusedReference {
		t.Errorf("clean model should be untouched: %v", clean)
	}
}
