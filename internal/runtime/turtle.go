package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/tracks/internal/logging"
	"github.com/aretw0/tracks/pkg/domain"
	"github.com/aretw0/tracks/pkg/grammar"
)

// Turtle is the interpreter state machine: a heading, a position and the grid it paints.
// A Turtle is not safe for concurrent use; give each command stream its own instance.
type Turtle struct {
	angle    int
	position domain.Position
	grid     *domain.Grid
	commands int

	maxSteps int
	steps    int

	hooks  domain.LifecycleHooks
	logger *slog.Logger
}

// New creates a turtle on a fresh width x height canvas, heading north from {0,0}.
func New(width, height int, opts ...Option) (*Turtle, error) {
	grid, err := domain.NewGrid(width, height)
	if err != nil {
		return nil, err
	}

	t := &Turtle{
		grid:   grid,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Restore rebuilds a turtle from a snapshot: same canvas, heading, position and marks.
func Restore(s *domain.Snapshot, opts ...Option) (*Turtle, error) {
	if s == nil {
		return nil, fmt.Errorf("restore: nil snapshot")
	}

	t, err := New(s.Width, s.Height, opts...)
	if err != nil {
		return nil, err
	}
	t.angle = normalize(s.Angle)
	t.position = s.Position
	t.commands = s.Commands

	for _, m := range s.Marks {
		if err := t.grid.Mark(m.Y, m.X); err != nil {
			return nil, fmt.Errorf("restore: %w", err)
		}
	}
	return t, nil
}

// Snapshot captures the current state in its persisted form.
func (t *Turtle) Snapshot() *domain.Snapshot {
	return &domain.Snapshot{
		Width:    t.grid.Width(),
		Height:   t.grid.Height(),
		Angle:    t.angle,
		Position: t.position,
		Marks:    t.grid.Marked(),
		Commands: t.commands,
	}
}

// Angle returns the heading in degrees, within [0, 360).
func (t *Turtle) Angle() int { return t.angle }

// SetAngle replaces the heading. The value is normalised.
func (t *Turtle) SetAngle(angle int) { t.angle = normalize(angle) }

// Position returns the current cell.
func (t *Turtle) Position() domain.Position { return t.position }

// SetPosition teleports the turtle without marking anything.
func (t *Turtle) SetPosition(p domain.Position) { t.position = p }

// Grid exposes the canvas owned by the turtle.
func (t *Turtle) Grid() *domain.Grid { return t.grid }

// Tracks renders the canvas. It has no side effects.
func (t *Turtle) Tracks() string { return t.grid.Render() }

// Rotate adds delta degrees to the heading, keeping it within [0, 360).
func (t *Turtle) Rotate(delta int) {
	t.angle = normalize(t.angle + delta%360)
}

// Move advances one unit along the heading and marks the cell it lands on.
// A move that would leave the grid fails with domain.ErrOutOfBounds and changes nothing.
func (t *Turtle) Move() error {
	return t.step(context.Background(), 1)
}

// Left rotates counter-clockwise.
func (t *Turtle) Left(degrees int) { t.Rotate(-(degrees % 360)) }

// Right rotates clockwise.
func (t *Turtle) Right(degrees int) { t.Rotate(degrees) }

// Forward moves distance units along the heading.
func (t *Turtle) Forward(ctx context.Context, distance int) error {
	return t.walk(ctx, distance, 1)
}

// Back moves distance units against the heading. The heading is unchanged.
func (t *Turtle) Back(ctx context.Context, distance int) error {
	return t.walk(ctx, distance, -1)
}

// Repeat runs body count times, each pass starting again from its first command.
func (t *Turtle) Repeat(ctx context.Context, count int, body []string) error {
	return t.repeat(ctx, count, body, 1)
}

// ProcessCommand parses and executes one top-level command string.
func (t *Turtle) ProcessCommand(ctx context.Context, command string) error {
	if err := t.dispatch(ctx, command, 0); err != nil {
		return err
	}
	t.commands++
	return nil
}

// ProcessCommands executes commands strictly in order and stops at the first failure.
// Commands applied before the failure stay applied.
func (t *Turtle) ProcessCommands(ctx context.Context, commands []string) error {
	for _, command := range commands {
		if err := t.ProcessCommand(ctx, command); err != nil {
			return err
		}
	}
	return nil
}

func (t *Turtle) dispatch(ctx context.Context, command string, depth int) error {
	if err := t.tick(ctx); err != nil {
		return t.fail(ctx, command, err)
	}

	cmd, err := grammar.ParseCommand(command)
	if err != nil {
		return t.fail(ctx, command, err)
	}

	t.logger.Debug("Command", "command", command, "opcode", cmd.Opcode(), "depth", depth)
	if t.hooks.OnCommand != nil {
		t.hooks.OnCommand(ctx, &domain.CommandEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventCommand},
			Command:   command,
			Opcode:    cmd.Opcode(),
			Depth:     depth,
		})
	}

	switch c := cmd.(type) {
	case domain.Rotate:
		if c.Direction == domain.OpLeft {
			t.Left(c.Degrees)
		} else {
			t.Right(c.Degrees)
		}
		return nil

	case domain.Move:
		sign := 1
		if c.Direction == domain.OpBack {
			sign = -1
		}
		if err := t.walk(ctx, c.Distance, sign); err != nil {
			return t.fail(ctx, command, err)
		}
		return nil

	case domain.Repeat:
		err := t.repeat(ctx, c.Count, c.Body, depth+1)
		var cmdErr *domain.CommandError
		if err == nil || errors.As(err, &cmdErr) {
			// Body failures were reported by the inner dispatch.
			return err
		}
		return t.fail(ctx, command, err)

	default:
		return t.fail(ctx, command, fmt.Errorf("%w: unsupported command %T", domain.ErrMalformedCommand, cmd))
	}
}

func (t *Turtle) repeat(ctx context.Context, count int, body []string, depth int) error {
	for i := 0; i < count; i++ {
		if err := t.tick(ctx); err != nil {
			return err
		}
		for _, command := range body {
			if err := t.dispatch(ctx, command, depth); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Turtle) walk(ctx context.Context, distance, sign int) error {
	for i := 0; i < distance; i++ {
		if err := t.tick(ctx); err != nil {
			return err
		}
		if err := t.step(ctx, sign); err != nil {
			return err
		}
	}
	return nil
}

// tick charges one unit of work: a command, a repeat pass or a unit step.
// It stops the run when ctx is done or the step budget is spent.
func (t *Turtle) tick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run interrupted: %w", err)
	}
	if t.maxSteps > 0 {
		t.steps++
		if t.steps > t.maxSteps {
			return fmt.Errorf("%w: budget %d", domain.ErrStepLimit, t.maxSteps)
		}
	}
	return nil
}

// step moves one unit; sign -1 walks backwards.
func (t *Turtle) step(ctx context.Context, sign int) error {
	dx, dy := Displacement(t.angle)
	next := domain.Position{
		X: t.position.X + sign*dx,
		Y: t.position.Y + sign*dy,
	}

	if err := t.grid.Mark(next.Y, next.X); err != nil {
		return fmt.Errorf("move from (%d,%d) heading %d: %w", t.position.X, t.position.Y, t.angle, err)
	}
	t.position = next

	if t.hooks.OnMark != nil {
		t.hooks.OnMark(ctx, &domain.MarkEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventMark},
			Position:  next,
			Angle:     t.angle,
		})
	}
	return nil
}

// fail reports err for command, keeping the innermost offending command when err already names one.
func (t *Turtle) fail(ctx context.Context, command string, err error) error {
	var cmdErr *domain.CommandError
	if !errors.As(err, &cmdErr) {
		cmdErr = &domain.CommandError{Command: command, Err: err}
		err = cmdErr
	}

	t.logger.Warn("Command failed", "command", cmdErr.Command, "error", cmdErr.Err)
	if t.hooks.OnError != nil {
		t.hooks.OnError(ctx, &domain.ErrorEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventError},
			Command:   cmdErr.Command,
			Err:       err,
		})
	}
	return err
}
