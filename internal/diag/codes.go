// Package diag defines the fixed diagnostic rule catalog and the data
// types every analysis step reports into.
//
// The catalog is the contract with downstream tooling: codes are stable
// across versions (suppressions and quick-fixes key off them), message
// templates are positional, and severities are defaults that individual
// reports never override. The package performs no analysis of its own.
package diag

import "fmt"

// Code is a stable rule identifier ("RXGN0NN").
type Code string

const (
	// InternalFailure is the catch-all for unexpected analysis errors.
	// It carries the model name and the recovered error message.
	InternalFailure Code = "RXGN001"

	// InvalidPropertyShape covers exported fields tagged as reactive
	// properties and init options on non-collection types.
	InvalidPropertyShape Code = "RXGN002"

	// CommandTargetMissing: an execute/canExecute name that resolves to
	// no method on the merged model.
	CommandTargetMissing Code = "RXGN003"

	// CommandSignatureMismatch: the execute method's signature does not
	// fit the command: wrong parameter list for the element type, or a
	// result list no command shape accepts.
	CommandSignatureMismatch Code = "RXGN004"

	// TriggerCycle: the trigger's method transitively writes the
	// property that triggers it.
	TriggerCycle Code = "RXGN005"

	// ReferenceCycle: the model reference graph contains a cycle.
	ReferenceCycle Code = "RXGN006"

	// ScopeViolation: a singleton model depends on a non-singleton.
	ScopeViolation Code = "RXGN007"

	// UnusedReference: a constructor model reference none of whose
	// properties are ever read.
	UnusedReference Code = "RXGN008"

	// ObserverSignatureInvalid: a method matching the observer naming
	// convention whose shape disqualifies it.
	ObserverSignatureInvalid Code = "RXGN009"

	// SharedScopedModel: a scoped/transient model referenced by more
	// than one consumer.
	SharedScopedModel Code = "RXGN010"

	// UnregisteredDependency: an opaque injected type with no known
	// registration.
	UnregisteredDependency Code = "RXGN011"

	// DerivedModelReferenced: a model deriving from another concrete
	// model used as a reference target.
	DerivedModelReferenced Code = "RXGN012"

	// ConstructorConflict: a hand-written constructor shadowing the
	// generated one.
	ConstructorConflict Code = "RXGN013"

	// RawStateAccess: user code touching a reactive backing field
	// directly instead of the generated accessors.
	RawStateAccess Code = "RXGN014"

	// GenerationSuppressed is the build-path summary wrapper emitted in
	// place of diagnostics the live path already reported.
	GenerationSuppressed Code = "RXGN015"

	// TriggerTargetMissing: a property trigger naming a method that
	// does not exist on the merged model.
	TriggerTargetMissing Code = "RXGN016"

	// InvalidScopeDirective: a scope= value outside the known set. The
	// model falls back to its default scope for the rest of analysis.
	InvalidScopeDirective Code = "RXGN017"
)

// Rule is one catalog entry.
type Rule struct {
	Code     Code
	Title    string
	Template string // fmt template; positional verbs only
	Severity Severity
	// FixHints are machine-readable suggestion strings attached to every
	// diagnostic of this rule, consumed by IDE-side quick fixes.
	FixHints []string
}

// rules is the catalog, in code order. Append-only.
var rules = []Rule{
	{InternalFailure, "internal analysis failure",
		"analysis of model %s failed: %s; other models are unaffected", Error, nil},
	{InvalidPropertyShape, "invalid reactive property shape",
		"property %s on %s: %s", Error,
		[]string{"unexport the field", "use rx.List or rx.Map for init properties"}},
	{CommandTargetMissing, "command target method missing",
		"command %s on %s names method %s, which does not exist", Error, nil},
	{CommandSignatureMismatch, "command signature mismatch",
		"command %s expects execute signature %s but %s declares %s", Error, nil},
	{TriggerCycle, "circular trigger write-back",
		"trigger method %s writes property %s, which would re-trigger it", Error,
		[]string{"remove the trigger", "write to a different property"}},
	{ReferenceCycle, "model reference cycle",
		"model %s participates in a reference cycle: %s", Error, nil},
	{ScopeViolation, "captive dependency",
		"%s model %s cannot depend on %s model %s", Error,
		[]string{"widen the dependency's scope", "narrow the consumer's scope"}},
	{UnusedReference, "unused model reference",
		"reference %s on %s: no property of %s is ever read", Warning,
		[]string{"remove the reference field"}},
	{ObserverSignatureInvalid, "observer signature invalid",
		"method %s on %s looks like an observer but %s", Warning, nil},
	{SharedScopedModel, "non-singleton model shared",
		"%s model %s is referenced by %s consumers", Warning,
		[]string{"declare the model singleton"}},
	{UnregisteredDependency, "unregistered dependency",
		"dependency %s of %s has no known registration", Warning, nil},
	{DerivedModelReferenced, "derived model referenced",
		"model %s derives from %s and cannot itself be referenced by %s", Error, nil},
	{ConstructorConflict, "constructor conflict",
		"model %s declares %s; the constructor is generated", Error,
		[]string{"rename the hand-written constructor"}},
	{RawStateAccess, "raw state access",
		"method %s accesses backing field %s directly; use the generated accessors", Warning, nil},
	{GenerationSuppressed, "generation suppressed",
		"code generation for %s suppressed; see analyzer diagnostic %s", Error, nil},
	{TriggerTargetMissing, "trigger target missing",
		"%s on %s binds trigger target %s, which does not exist", Error, nil},
	{InvalidScopeDirective, "invalid scope directive",
		"model %s declares scope %s; valid scopes are singleton, scoped and transient", Error,
		[]string{"fix the scope= value", "drop scope= for the default"}},
}

var byCode = func() map[Code]Rule {
	m := make(map[Code]Rule, len(rules))
	for _, r := range rules {
		m[r.Code] = r
	}
	return m
}()

// Catalog returns all rules in code order.
func Catalog() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// RuleFor looks up a rule by code.
func RuleFor(code Code) (Rule, bool) {
	r, ok := byCode[code]
	return r, ok
}

// format renders a rule's message template against args.
func format(code Code, args []any) string {
	r, ok := byCode[code]
	if !ok {
		return fmt.Sprintf("unknown diagnostic %s %v", code, args)
	}
	return fmt.Sprintf(r.Template, args...)
}
