package diag

import "go/token"

// WrapForGeneration converts a model's live diagnostics into the single
// summary entry the generation path reports. The live path (rxgen check,
// IDE integration) surfaces the full list; surfacing it again at build
// time would double every finding, so the build path emits one
// GenerationSuppressed diagnostic per model pointing at the first error
// code instead. Non-error diagnostics pass through untouched: they were
// advisory and generation proceeded.
func WrapForGeneration(modelName string, diags []Diagnostic) []Diagnostic {
	var out []Diagnostic
	var firstErr *Diagnostic
	for i := range diags {
		d := diags[i]
		if d.Severity >= Error {
			if firstErr == nil {
				firstErr = &diags[i]
			}
			continue
		}
		out = append(out, d)
	}
	if firstErr != nil {
		pos := token.Position{}
		if firstErr.Pos.Filename != "" {
			pos = firstErr.Pos
		}
		out = append(out, New(GenerationSuppressed, pos, modelName, string(firstErr.Code)))
	}
	return out
}
