package rx_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"rxgen/rx"
)

func TestSubscribeAndNotify(t *testing.T) {
	var m rx.Model
	var got []string
	unsub := m.Subscribe(func(c rx.Change) { got = append(got, c.Name) })
	m.Notify("Model.Counter")
	m.Notify("Model.Name")
	unsub()
	m.Notify("Model.Counter")
	if len(got) != 2 || got[0] != "Model.Counter" || got[1] != "Model.Name" {
		t.Errorf("got %v", got)
	}
	// Unsubscribe twice is a no-op.
	unsub()
	if m.SubscriberCount() != 0 {
		t.Errorf("subscriber count = %d, want 0", m.SubscriberCount())
	}
}

func TestSubscribeToFilters(t *testing.T) {
	var m rx.Model
	var fired int
	m.SubscribeTo(func(rx.Change) { fired++ }, "Model.Counter")
	m.Notify("Model.Counter")
	m.Notify("Model.Other")
	if fired != 1 {
		t.Errorf("filtered subscription fired %d times, want 1", fired)
	}
}

func TestForwardRewritesPrefix(t *testing.T) {
	var ref, owner rx.Model
	var got []string
	owner.Subscribe(func(c rx.Change) { got = append(got, c.Name) })
	rx.Forward(&ref, &owner, "Referenced")
	ref.Notify("Model.Counter")
	if len(got) != 1 || got[0] != "Model.Referenced.Counter" {
		t.Errorf("forwarded name = %v, want [Model.Referenced.Counter]", got)
	}
}

func TestReadyGuardsAreIdempotent(t *testing.T) {
	var m rx.Model
	if !m.MarkReady() {
		t.Fatal("first MarkReady must return true")
	}
	if m.MarkReady() {
		t.Fatal("second MarkReady must return false")
	}
	if !m.MarkReadyContext() {
		t.Fatal("context guard is independent and must fire once")
	}
	if m.MarkReadyContext() {
		t.Fatal("second MarkReadyContext must return false")
	}
}

func TestListNotifiesOnMutationOnly(t *testing.T) {
	var l rx.List[string]
	var fired int
	l.Bind(func() { fired++ })
	l.Add("a")
	l.Add("b")
	l.Set(0, "c")
	_ = l.At(0)
	_ = l.Items()
	l.RemoveAt(1)
	l.Clear()
	if fired != 5 {
		t.Errorf("fired %d, want 5 (reads must not notify)", fired)
	}
}

func TestMapNotifies(t *testing.T) {
	var m rx.Map[string, int]
	var fired int
	m.Bind(func() { fired++ })
	m.Set("a", 1)
	m.Delete("a")
	if _, ok := m.Get("a"); ok {
		t.Error("deleted key still present")
	}
	if fired != 2 {
		t.Errorf("fired %d, want 2", fired)
	}
}

func TestCommandCanExecuteGate(t *testing.T) {
	ran := 0
	allowed := false
	c := rx.NewCommand(func() { ran++ }, func() bool { return allowed })
	c.Execute()
	if ran != 0 {
		t.Error("executed while canExecute was false")
	}
	allowed = true
	c.Execute()
	if ran != 1 {
		t.Errorf("ran %d, want 1", ran)
	}
}

func TestCancellableCommandSwitchSemantics(t *testing.T) {
	started := make(chan struct{}, 2)
	cancelled := make(chan struct{}, 1)
	done := make(chan struct{}, 1)
	var first atomic.Bool
	first.Store(true)
	c := rx.NewCancellableCommand(func(ctx context.Context) error {
		started <- struct{}{}
		if first.Swap(false) {
			select {
			case <-ctx.Done():
				cancelled <- struct{}{}
			case <-time.After(5 * time.Second):
			}
			return ctx.Err()
		}
		done <- struct{}{}
		return nil
	}, nil)

	c.Execute()
	<-started
	c.Execute() // supersedes the in-flight invocation
	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("first invocation was not cancelled")
	}
	<-started
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second invocation did not run")
	}
}

func TestCommandOfPassesArgument(t *testing.T) {
	var got string
	c := rx.NewCommandOf(func(s string) { got = s }, nil)
	c.Execute("hello")
	if got != "hello" {
		t.Errorf("got %q", got)
	}
}

func TestRegistryScopes(t *testing.T) {
	type instance struct{ n int }
	g := rx.NewRegistry()
	var built int
	g.Register("app.Single", rx.Provider{Scope: rx.ScopeSingleton, New: func(*rx.Resolver) any {
		built++
		return &instance{built}
	}})
	g.Register("app.PerScope", rx.Provider{Scope: rx.ScopeScoped, New: func(*rx.Resolver) any {
		return &instance{}
	}})
	g.Register("app.Fresh", rx.Provider{Scope: rx.ScopeTransient, New: func(*rx.Resolver) any {
		return &instance{}
	}})

	r1 := g.NewResolver()
	r2 := g.NewResolver()

	s1 := r1.MustResolve("app.Single")
	s2 := r2.MustResolve("app.Single")
	if s1 != s2 {
		t.Error("singleton differs across resolvers")
	}
	if built != 1 {
		t.Errorf("singleton built %d times", built)
	}

	p1 := r1.MustResolve("app.PerScope")
	if p1 != r1.MustResolve("app.PerScope") {
		t.Error("scoped instance not cached within resolver")
	}
	if p1 == r2.MustResolve("app.PerScope") {
		t.Error("scoped instance shared across resolvers")
	}

	if r1.MustResolve("app.Fresh") == r1.MustResolve("app.Fresh") {
		t.Error("transient instance cached")
	}
}

func TestRegistryCaptiveDependency(t *testing.T) {
	g := rx.NewRegistry()
	g.Register("app.Session", rx.Provider{Scope: rx.ScopeScoped, New: func(*rx.Resolver) any {
		return new(struct{})
	}})
	g.Register("app.App", rx.Provider{Scope: rx.ScopeSingleton, New: func(r *rx.Resolver) any {
		if _, err := r.Resolve("app.Session"); err == nil {
			t.Error("resolving scoped inside singleton must fail")
		}
		return new(struct{})
	}})
	if _, err := g.NewResolver().Resolve("app.App"); err != nil {
		t.Fatalf("singleton itself must resolve: %v", err)
	}
}

func TestRegistryUnknownID(t *testing.T) {
	g := rx.NewRegistry()
	if _, err := g.NewResolver().Resolve("app.Missing"); err == nil {
		t.Fatal("expected error for unregistered model")
	}
}
