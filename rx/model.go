// Package rx is the runtime surface for generated observable models:
// the model base with its change stream, observable collections, command
// plumbing, and the scope registry the generated registration artifact
// writes into.
//
// Subscription dispatch is deliberately unsynchronized. The host UI
// framework guarantees single-threaded mutation of model state, so
// setters and notifications never race; adding locks here would suggest
// a concurrency contract the generated code does not have.
package rx

import "strings"

// Change is one property-change notification. Name is the fully
// qualified property name, e.g. "Model.Counter" or
// "Model.Referenced.Counter" after forwarding.
type Change struct {
	Name string
}

type subscription struct {
	fn     func(Change)
	filter map[string]struct{} // nil means all changes
	gone   bool
}

// Model is the embedded base of every observable model. The zero value
// is ready to use.
type Model struct {
	subs []*subscription

	readyDone        bool
	readyContextDone bool
}

// Subscribe registers fn for every change. The returned function
// removes the subscription; calling it more than once is a no-op.
func (m *Model) Subscribe(fn func(Change)) func() {
	return m.add(&subscription{fn: fn})
}

// SubscribeTo registers fn for changes whose name is in names only.
// Generated observer wiring uses this to keep notification fan-out
// limited to the properties a method actually reads.
func (m *Model) SubscribeTo(fn func(Change), names ...string) func() {
	filter := make(map[string]struct{}, len(names))
	for _, n := range names {
		filter[n] = struct{}{}
	}
	return m.add(&subscription{fn: fn, filter: filter})
}

func (m *Model) add(s *subscription) func() {
	m.subs = append(m.subs, s)
	return func() {
		if s.gone {
			return
		}
		s.gone = true
		for i, cur := range m.subs {
			if cur == s {
				m.subs = append(m.subs[:i], m.subs[i+1:]...)
				break
			}
		}
	}
}

// Notify delivers a change to every matching subscriber, in
// subscription order.
func (m *Model) Notify(name string) {
	c := Change{Name: name}
	// Snapshot: a handler may unsubscribe while we iterate.
	snapshot := make([]*subscription, len(m.subs))
	copy(snapshot, m.subs)
	for _, s := range snapshot {
		if s.gone {
			continue
		}
		if s.filter != nil {
			if _, ok := s.filter[name]; !ok {
				continue
			}
		}
		s.fn(c)
	}
}

// SubscriberCount reports the number of live subscriptions.
func (m *Model) SubscriberCount() int {
	return len(m.subs)
}

// Observable is the change-stream surface a referenced model exposes,
// satisfied by every *Model embedder and by model interfaces.
type Observable interface {
	Subscribe(fn func(Change)) func()
	SubscribeTo(fn func(Change), names ...string) func()
}

// Forward subscribes dst to every change of src, rewriting the name
// prefix "Model." to "Model.<refName>." so a referenced model's
// notifications surface under the referencing model's namespace.
// Returns the unsubscribe function.
func Forward(src, dst *Model, refName string) func() {
	return ForwardFrom(src, dst, refName)
}

// ForwardFrom is Forward over the Observable surface; generated
// constructors use it so interface-typed references wire identically to
// concrete ones.
func ForwardFrom(src Observable, dst *Model, refName string) func() {
	prefix := "Model." + refName + "."
	return src.Subscribe(func(c Change) {
		name := c.Name
		if rest, ok := strings.CutPrefix(name, "Model."); ok {
			name = prefix + rest
		}
		dst.Notify(name)
	})
}

// MarkReady flips the sync ready guard. It returns true exactly once;
// generated Ready hooks bail out on false so repeated invocation cannot
// double-subscribe.
func (m *Model) MarkReady() bool {
	if m.readyDone {
		return false
	}
	m.readyDone = true
	return true
}

// MarkReadyContext is the guard for the context-aware ready hook.
func (m *Model) MarkReadyContext() bool {
	if m.readyContextDone {
		return false
	}
	m.readyContextDone = true
	return true
}
