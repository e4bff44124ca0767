package syntax

import (
	"reflect"
	"strconv"
	"strings"
)

// TagKind is the closed set of rx struct-tag families. Downstream logic
// switches over this instead of re-parsing tag strings.
type TagKind int

const (
	TagNone TagKind = iota
	TagProp
	TagCommand
	TagInject
	TagRef
)

// Tag is one parsed `rx:"..."` struct tag.
type Tag struct {
	Kind TagKind

	// Property options.
	Group   string
	Init    bool
	Trigger string

	// Command options. Execute and CanExecute are method names resolved
	// against the merged model later (the nameof analog); TriggerProps
	// are property field names whose change invokes the command.
	Execute      string
	CanExecute   string
	TriggerProps []string
}

// ParseTag reads the rx key of a raw field tag literal (still
// backquoted). Unknown kinds and malformed shapes yield TagNone.
func ParseTag(raw string) Tag {
	if raw == "" {
		return Tag{}
	}
	unquoted, err := strconv.Unquote(raw)
	if err != nil {
		return Tag{}
	}
	value, ok := reflect.StructTag(unquoted).Lookup("rx")
	if !ok {
		return Tag{}
	}

	parts := strings.Split(value, ",")
	t := Tag{}
	switch parts[0] {
	case "prop":
		t.Kind = TagProp
	case "command":
		t.Kind = TagCommand
	case "inject":
		t.Kind = TagInject
	case "ref":
		t.Kind = TagRef
	default:
		return Tag{}
	}

	for _, opt := range parts[1:] {
		switch {
		case opt == "init":
			t.Init = true
		case strings.HasPrefix(opt, "group="):
			t.Group = opt[len("group="):]
		case strings.HasPrefix(opt, "trigger="):
			t.Trigger = opt[len("trigger="):]
		case strings.HasPrefix(opt, "execute="):
			t.Execute = opt[len("execute="):]
		case strings.HasPrefix(opt, "canExecute="):
			t.CanExecute = opt[len("canExecute="):]
		case strings.HasPrefix(opt, "triggerProp="):
			t.TriggerProps = append(t.TriggerProps, opt[len("triggerProp="):])
		}
	}
	return t
}
