package tracks

import (
	"context"
	"log/slog"

	"github.com/aretw0/tracks/internal/runtime"
	"github.com/aretw0/tracks/pkg/domain"
	"github.com/aretw0/tracks/pkg/grammar"
)

// Interpreter is the high-level entry point for the library.
// It wraps the internal turtle and accepts whole program texts.
type Interpreter struct {
	turtle *runtime.Turtle
	opts   []runtime.Option
	start  *domain.Position
}

// Option defines a functional option for configuring the Interpreter.
type Option func(*Interpreter)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(i *Interpreter) {
		i.opts = append(i.opts, runtime.WithLifecycleHooks(hooks))
	}
}

// WithLogger sets a custom structured logger for the interpreter.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) {
		i.opts = append(i.opts, runtime.WithLogger(logger))
	}
}

// WithStart places the turtle at p instead of the centre of the canvas.
func WithStart(p domain.Position) Option {
	return func(i *Interpreter) {
		i.start = &p
	}
}

// WithHeading sets the initial heading in degrees (default 0, north).
func WithHeading(angle int) Option {
	return func(i *Interpreter) {
		i.opts = append(i.opts, runtime.WithAngle(angle))
	}
}

// New creates an interpreter over a blank width x height canvas.
// The turtle starts at the centre, heading north.
func New(width, height int, opts ...Option) (*Interpreter, error) {
	i := &Interpreter{}
	for _, opt := range opts {
		opt(i)
	}

	start := domain.Position{X: width / 2, Y: height / 2}
	if i.start != nil {
		start = *i.start
	}

	turtle, err := runtime.New(width, height, append([]runtime.Option{runtime.WithPosition(start)}, i.opts...)...)
	if err != nil {
		return nil, err
	}
	i.turtle = turtle
	return i, nil
}

// Restore resumes an interpreter from a snapshot.
func Restore(snapshot *domain.Snapshot, opts ...Option) (*Interpreter, error) {
	i := &Interpreter{}
	for _, opt := range opts {
		opt(i)
	}

	turtle, err := runtime.Restore(snapshot, i.opts...)
	if err != nil {
		return nil, err
	}
	i.turtle = turtle
	return i, nil
}

// Run executes program text. Execution stops at the first failing command; the
// state reached before it is kept.
func (i *Interpreter) Run(ctx context.Context, text string) error {
	commands, err := grammar.ExtractCommands(text)
	if err != nil {
		return err
	}
	return i.turtle.ProcessCommands(ctx, commands)
}

// Tracks renders the canvas.
func (i *Interpreter) Tracks() string { return i.turtle.Tracks() }

// Angle returns the heading in degrees, within [0, 360).
func (i *Interpreter) Angle() int { return i.turtle.Angle() }

// Position returns the turtle's cell.
func (i *Interpreter) Position() domain.Position { return i.turtle.Position() }

// Snapshot captures the current state.
func (i *Interpreter) Snapshot() *domain.Snapshot { return i.turtle.Snapshot() }

// Draw runs text on a fresh canvas and returns what it rendered.
// On failure the partial canvas is returned alongside the error.
func Draw(ctx context.Context, width, height int, text string, opts ...Option) (string, error) {
	ip, err := New(width, height, opts...)
	if err != nil {
		return "", err
	}
	err = ip.Run(ctx, text)
	return ip.Tracks(), err
}
