package rx

import "context"

// Command is a bindable parameterless action with execute/can-execute
// semantics. Exactly one of the three execute shapes is set by the
// generated wiring.
type Command struct {
	execute     func()
	executeErr  func() error
	executeCtx  func(context.Context) error
	canExecute  func() bool
	cancelPrior context.CancelFunc
	onError     func(error)
}

// NewCommand wires a synchronous execute.
func NewCommand(execute func(), canExecute func() bool) *Command {
	return &Command{execute: execute, canExecute: canExecute}
}

// NewAsyncCommand wires an error-returning execute run on a background
// goroutine.
func NewAsyncCommand(execute func() error, canExecute func() bool) *Command {
	return &Command{executeErr: execute, canExecute: canExecute}
}

// NewCancellableCommand wires a context-aware execute with switch
// semantics: a new invocation cancels the in-flight one.
func NewCancellableCommand(execute func(context.Context) error, canExecute func() bool) *Command {
	return &Command{executeCtx: execute, canExecute: canExecute}
}

// OnError sets the handler async shapes report failures to.
func (c *Command) OnError(fn func(error)) {
	c.onError = fn
}

// CanExecute reports whether Execute would run.
func (c *Command) CanExecute() bool {
	return c.canExecute == nil || c.canExecute()
}

// Execute runs the command if CanExecute allows it.
func (c *Command) Execute() {
	if !c.CanExecute() {
		return
	}
	switch {
	case c.execute != nil:
		c.execute()
	case c.executeErr != nil:
		go c.report(c.executeErr())
	case c.executeCtx != nil:
		if c.cancelPrior != nil {
			c.cancelPrior()
		}
		ctx, cancel := context.WithCancel(context.Background())
		c.cancelPrior = cancel
		go func() {
			c.report(c.executeCtx(ctx))
			cancel()
		}()
	}
}

func (c *Command) report(err error) {
	if err != nil && c.onError != nil && err != context.Canceled {
		c.onError(err)
	}
}

// CommandOf is a Command carrying one typed argument.
type CommandOf[T any] struct {
	execute     func(T)
	executeErr  func(T) error
	executeCtx  func(context.Context, T) error
	canExecute  func() bool
	cancelPrior context.CancelFunc
	onError     func(error)
}

func NewCommandOf[T any](execute func(T), canExecute func() bool) *CommandOf[T] {
	return &CommandOf[T]{execute: execute, canExecute: canExecute}
}

func NewAsyncCommandOf[T any](execute func(T) error, canExecute func() bool) *CommandOf[T] {
	return &CommandOf[T]{executeErr: execute, canExecute: canExecute}
}

func NewCancellableCommandOf[T any](execute func(context.Context, T) error, canExecute func() bool) *CommandOf[T] {
	return &CommandOf[T]{executeCtx: execute, canExecute: canExecute}
}

func (c *CommandOf[T]) OnError(fn func(error)) {
	c.onError = fn
}

func (c *CommandOf[T]) CanExecute() bool {
	return c.canExecute == nil || c.canExecute()
}

func (c *CommandOf[T]) Execute(arg T) {
	if !c.CanExecute() {
		return
	}
	switch {
	case c.execute != nil:
		c.execute(arg)
	case c.executeErr != nil:
		go c.report(c.executeErr(arg))
	case c.executeCtx != nil:
		if c.cancelPrior != nil {
			c.cancelPrior()
		}
		ctx, cancel := context.WithCancel(context.Background())
		c.cancelPrior = cancel
		go func() {
			c.report(c.executeCtx(ctx, arg))
			cancel()
		}()
	}
}

func (c *CommandOf[T]) report(err error) {
	if err != nil && c.onError != nil && err != context.Canceled {
		c.onError(err)
	}
}
