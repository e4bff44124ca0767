package diag

import (
	"fmt"
	"go/token"
)

// Diagnostic is one reported finding: rule code, resolved severity,
// location, and the raw template arguments. The formatted message is
// derived, so both consumption paths render identically from the same
// data.
type Diagnostic struct {
	Code     Code
	Severity Severity
	Pos      token.Position
	Args     []string
	FixHints []string
}

// New builds a diagnostic from the catalog entry for code. Args are
// stringified immediately so a Diagnostic is plain comparable data.
func New(code Code, pos token.Position, args ...any) Diagnostic {
	r, _ := RuleFor(code)
	strArgs := make([]string, len(args))
	for i, a := range args {
		strArgs[i] = fmt.Sprint(a)
	}
	return Diagnostic{
		Code:     code,
		Severity: r.Severity,
		Pos:      pos,
		Args:     strArgs,
		FixHints: r.FixHints,
	}
}

// Message renders the positional template.
func (d Diagnostic) Message() string {
	args := make([]any, len(d.Args))
	for i, a := range d.Args {
		args[i] = a
	}
	return format(d.Code, args)
}

// String renders "file:line:col: severity CODE: message" (no position
// prefix when the diagnostic has none).
func (d Diagnostic) String() string {
	if d.Pos.Filename == "" {
		return fmt.Sprintf("%s %s: %s", d.Severity, d.Code, d.Message())
	}
	return fmt.Sprintf("%s: %s %s: %s", d.Pos, d.Severity, d.Code, d.Message())
}
