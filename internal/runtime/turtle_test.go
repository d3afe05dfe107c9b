package runtime_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/aretw0/tracks/internal/runtime"
	"github.com/aretw0/tracks/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTurtle(t *testing.T, opts ...runtime.Option) *runtime.Turtle {
	t.Helper()
	turtle, err := runtime.New(11, 11, opts...)
	require.NoError(t, err)
	return turtle
}

func TestTurtle_Rotate(t *testing.T) {
	tests := []struct {
		name  string
		start int
		delta int
		want  int
	}{
		{"Reduces For Negative Amounts", 180, -90, 90},
		{"Increases For Positive Amounts", 90, 90, 180},
		{"Wraps Past 360", 315, 90, 45},
		{"Wraps Below 0", 45, -90, 315},
		{"Normalizes 360 To 0", 315, 45, 0},
		{"Large Positive Delta", 0, 1125, 45},
		{"Large Negative Delta", 0, -1125, 315},
		{"Max Int Delta", 90, math.MaxInt, 97},
		{"Min Int Delta", 90, math.MinInt, 82},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			turtle := newTurtle(t)
			turtle.SetAngle(tt.start)
			turtle.Rotate(tt.delta)
			assert.Equal(t, tt.want, turtle.Angle())
		})
	}
}

func TestTurtle_RotateIsClosedAndReversible(t *testing.T) {
	turtle := newTurtle(t)
	for _, start := range []int{0, 45, 90, 179, 315, 359} {
		for _, delta := range []int{-1000, -360, -361, -45, 0, 1, 90, 359, 360, 720, 1001, math.MaxInt, math.MinInt + 1} {
			turtle.SetAngle(start)
			turtle.Rotate(delta)
			got := turtle.Angle()
			assert.True(t, got >= 0 && got < 360, "rotate(%d) from %d gave %d", delta, start, got)

			turtle.Rotate(-delta)
			assert.Equal(t, start, turtle.Angle(), "rotate(%d) then rotate(%d) from %d", delta, -delta, start)

			if delta%360 == 0 {
				assert.Equal(t, start, got, "rotating by %d should be a no-op", delta)
			}
		}
	}
}

func TestTurtle_LeftRightExtremes(t *testing.T) {
	turtle := newTurtle(t)

	turtle.Left(math.MinInt)
	assert.Equal(t, 8, turtle.Angle())
	turtle.Right(math.MinInt)
	assert.Equal(t, 0, turtle.Angle())

	turtle.Right(math.MaxInt)
	assert.Equal(t, 7, turtle.Angle())
	turtle.Left(math.MaxInt)
	assert.Equal(t, 0, turtle.Angle())

	require.NoError(t, turtle.ProcessCommand(context.Background(), "LT -9223372036854775808"))
	assert.Equal(t, 8, turtle.Angle())
}

func TestTurtle_MoveDirections(t *testing.T) {
	tests := []struct {
		angle int
		want  domain.Position
	}{
		{0, domain.Position{X: 5, Y: 3}},
		{45, domain.Position{X: 7, Y: 3}},
		{90, domain.Position{X: 7, Y: 5}},
		{135, domain.Position{X: 7, Y: 7}},
		{180, domain.Position{X: 5, Y: 7}},
		{225, domain.Position{X: 3, Y: 7}},
		{270, domain.Position{X: 3, Y: 5}},
		{315, domain.Position{X: 3, Y: 3}},
	}

	for _, tt := range tests {
		turtle := newTurtle(t, runtime.WithPosition(domain.Position{X: 5, Y: 5}), runtime.WithAngle(tt.angle))
		for i := 0; i < 2; i++ {
			require.NoError(t, turtle.Move())
		}
		assert.Equal(t, tt.want, turtle.Position(), "heading %d", tt.angle)
	}
}

func TestTurtle_MoveMarksTrail(t *testing.T) {
	t.Run("Straight", func(t *testing.T) {
		turtle := newTurtle(t, runtime.WithPosition(domain.Position{X: 5, Y: 5}))
		require.NoError(t, turtle.Move())
		require.NoError(t, turtle.Move())

		assertCell(t, turtle, 4, 5, domain.TokenVisited)
		assertCell(t, turtle, 3, 5, domain.TokenVisited)
		assertCell(t, turtle, 5, 5, domain.TokenUnvisited)
	})

	t.Run("Diagonal", func(t *testing.T) {
		turtle := newTurtle(t, runtime.WithPosition(domain.Position{X: 5, Y: 5}), runtime.WithAngle(45))
		require.NoError(t, turtle.Move())
		require.NoError(t, turtle.Move())

		assertCell(t, turtle, 4, 6, domain.TokenVisited)
		assertCell(t, turtle, 3, 7, domain.TokenVisited)
	})
}

func TestDisplacement(t *testing.T) {
	// Canonical headings match the trigonometric projection.
	for _, angle := range []int{0, 45, 90, 135, 180, 225, 270, 315} {
		rad := float64(angle) * math.Pi / 180
		wantDX, wantDY := int(math.Round(math.Sin(rad))), -int(math.Round(math.Cos(rad)))

		dx, dy := runtime.Displacement(angle)
		assert.Equal(t, [2]int{wantDX, wantDY}, [2]int{dx, dy}, "heading %d", angle)
		assert.False(t, dx == 0 && dy == 0, "heading %d must move", angle)
	}

	dx, dy := runtime.Displacement(10)
	assert.Equal(t, [2]int{0, -1}, [2]int{dx, dy}, "10 degrees rounds to north")

	dx, dy = runtime.Displacement(80)
	assert.Equal(t, [2]int{1, 0}, [2]int{dx, dy}, "80 degrees rounds to east")

	dx, dy = runtime.Displacement(-90)
	assert.Equal(t, [2]int{-1, 0}, [2]int{dx, dy}, "-90 degrees is west")
}

func TestTurtle_MoveOutOfBounds(t *testing.T) {
	turtle := newTurtle(t)

	err := turtle.Move()
	assert.ErrorIs(t, err, domain.ErrOutOfBounds)
	assert.Equal(t, domain.Position{}, turtle.Position(), "failed move must not change position")
	assert.NotContains(t, turtle.Tracks(), domain.TokenVisited)
}

func TestTurtle_ProcessCommand(t *testing.T) {
	ctx := context.Background()
	center := runtime.WithPosition(domain.Position{X: 5, Y: 5})

	t.Run("Left And Right", func(t *testing.T) {
		turtle := newTurtle(t)
		require.NoError(t, turtle.ProcessCommand(ctx, "RT 90"))
		assert.Equal(t, 90, turtle.Angle())
		require.NoError(t, turtle.ProcessCommand(ctx, "LT 135"))
		assert.Equal(t, 315, turtle.Angle())
	})

	t.Run("Forward Expands Into Unit Moves", func(t *testing.T) {
		turtle := newTurtle(t, center)
		require.NoError(t, turtle.ProcessCommand(ctx, "FD 3"))
		assert.Equal(t, domain.Position{X: 5, Y: 2}, turtle.Position())
		assert.Len(t, turtle.Grid().Marked(), 3)
	})

	t.Run("Back Keeps Heading", func(t *testing.T) {
		turtle := newTurtle(t, center, runtime.WithAngle(45))
		require.NoError(t, turtle.ProcessCommand(ctx, "BK 2"))
		assert.Equal(t, domain.Position{X: 3, Y: 7}, turtle.Position())
		assert.Equal(t, 45, turtle.Angle())
	})

	t.Run("Back Matches Turn Around", func(t *testing.T) {
		a := newTurtle(t, center, runtime.WithAngle(135))
		b := newTurtle(t, center, runtime.WithAngle(135))

		require.NoError(t, a.ProcessCommand(ctx, "BK 4"))
		require.NoError(t, b.ProcessCommands(ctx, []string{"RT 180", "FD 4", "RT 180"}))

		assert.Equal(t, b.Position(), a.Position())
		assert.Equal(t, b.Angle(), a.Angle())
		assert.Equal(t, b.Tracks(), a.Tracks())
	})

	t.Run("Aliases Behave Identically", func(t *testing.T) {
		a := newTurtle(t, center)
		b := newTurtle(t, center)

		require.NoError(t, a.ProcessCommands(ctx, []string{"LT 45", "FD 2", "RT 90", "BK 1", "REPEAT 2 [ FD 1 ]"}))
		require.NoError(t, b.ProcessCommands(ctx, []string{"left 45", "forward 2", "right 90", "back 1", "repeat 2 [ forward 1 ]"}))

		assert.Equal(t, a.Snapshot(), b.Snapshot())
	})

	t.Run("Repeat Zero Does Nothing", func(t *testing.T) {
		turtle := newTurtle(t, center)
		require.NoError(t, turtle.ProcessCommand(ctx, "REPEAT 0 [ FD 1 RT 90 ]"))
		assert.Equal(t, domain.Position{X: 5, Y: 5}, turtle.Position())
		assert.Equal(t, 0, turtle.Angle())
	})

	t.Run("Nested Repeat", func(t *testing.T) {
		turtle := newTurtle(t, center)
		require.NoError(t, turtle.ProcessCommand(ctx, "REPEAT 2 [ REPEAT 2 [ RT 45 ] ]"))
		assert.Equal(t, 180, turtle.Angle())
	})
}

func TestTurtle_ClosedSquare(t *testing.T) {
	turtle, err := runtime.New(5, 5, runtime.WithPosition(domain.Position{X: 2, Y: 2}))
	require.NoError(t, err)

	require.NoError(t, turtle.ProcessCommand(context.Background(), "REPEAT 4 [ FD 1 RT 90 ]"))

	assert.Equal(t, domain.Position{X: 2, Y: 2}, turtle.Position())
	assert.Equal(t, 0, turtle.Angle())

	want := strings.Join([]string{
		". . . . . ",
		". . X X . ",
		". . X X . ",
		". . . . . ",
		". . . . . ",
	}, "\n")
	assert.Equal(t, want, turtle.Tracks())
}

func TestTurtle_ClosedSquareFromCorner(t *testing.T) {
	// Heading north from {0,0} leaves the grid on the first step.
	turtle, err := runtime.New(5, 5)
	require.NoError(t, err)

	err = turtle.ProcessCommand(context.Background(), "REPEAT 4 [ FD 1 RT 90 ]")
	assert.ErrorIs(t, err, domain.ErrOutOfBounds)

	var cmdErr *domain.CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "FD 1", cmdErr.Command)
	assert.Equal(t, domain.Position{}, turtle.Position())
}

func TestTurtle_ProcessCommandsStopsAtFailure(t *testing.T) {
	turtle := newTurtle(t, runtime.WithPosition(domain.Position{X: 5, Y: 5}))

	err := turtle.ProcessCommands(context.Background(), []string{"FD 2", "JUMP 3", "FD 2"})
	assert.ErrorIs(t, err, domain.ErrMalformedCommand)

	// The first command stays applied, the last one never ran.
	assert.Equal(t, domain.Position{X: 5, Y: 3}, turtle.Position())
	assert.Equal(t, 1, turtle.Snapshot().Commands)
}

func TestTurtle_Tracks(t *testing.T) {
	turtle, err := runtime.New(3, 2)
	require.NoError(t, err)

	first := turtle.Tracks()
	assert.Equal(t, ". . . \n. . . ", first)
	assert.Equal(t, first, turtle.Tracks())
}

func TestTurtle_InvalidDimension(t *testing.T) {
	_, err := runtime.New(-1, 5)
	assert.ErrorIs(t, err, domain.ErrInvalidDimension)
}

func TestTurtle_SnapshotRestore(t *testing.T) {
	ctx := context.Background()
	turtle := newTurtle(t, runtime.WithPosition(domain.Position{X: 5, Y: 5}))
	require.NoError(t, turtle.ProcessCommands(ctx, []string{"RT 45", "FD 3", "RT 90", "FD 2"}))

	restored, err := runtime.Restore(turtle.Snapshot())
	require.NoError(t, err)

	assert.Equal(t, turtle.Angle(), restored.Angle())
	assert.Equal(t, turtle.Position(), restored.Position())
	assert.Equal(t, turtle.Tracks(), restored.Tracks())

	// Both continue identically.
	require.NoError(t, turtle.ProcessCommand(ctx, "BK 1"))
	require.NoError(t, restored.ProcessCommand(ctx, "BK 1"))
	assert.Equal(t, turtle.Snapshot(), restored.Snapshot())
}

func TestTurtle_RestoreRejectsMarksOutsideGrid(t *testing.T) {
	_, err := runtime.Restore(&domain.Snapshot{
		Width:  2,
		Height: 2,
		Marks:  []domain.Position{{X: 3, Y: 0}},
	})
	assert.ErrorIs(t, err, domain.ErrOutOfBounds)
}

func TestTurtle_LifecycleHooks(t *testing.T) {
	var commands []string
	var depths []int
	var marks []domain.Position
	var failures []string

	hooks := domain.LifecycleHooks{
		OnCommand: func(ctx context.Context, e *domain.CommandEvent) {
			commands = append(commands, e.Command)
			depths = append(depths, e.Depth)
		},
		OnMark: func(ctx context.Context, e *domain.MarkEvent) {
			marks = append(marks, e.Position)
		},
		OnError: func(ctx context.Context, e *domain.ErrorEvent) {
			failures = append(failures, e.Command)
		},
	}

	turtle := newTurtle(t, runtime.WithPosition(domain.Position{X: 5, Y: 5}), runtime.WithLifecycleHooks(hooks))
	require.NoError(t, turtle.ProcessCommand(context.Background(), "REPEAT 2 [ FD 1 ]"))

	assert.Equal(t, []string{"REPEAT 2 [ FD 1 ]", "FD 1", "FD 1"}, commands)
	assert.Equal(t, []int{0, 1, 1}, depths)
	assert.Equal(t, []domain.Position{{X: 5, Y: 4}, {X: 5, Y: 3}}, marks)

	_ = turtle.ProcessCommand(context.Background(), "REPEAT 2 [ FD x ]")
	assert.Equal(t, []string{"FD x"}, failures, "nested failures are reported once, for the innermost command")
}

func assertCell(t *testing.T, turtle *runtime.Turtle, row, col int, want string) {
	t.Helper()
	got, err := turtle.Grid().CellAt(row, col)
	require.NoError(t, err)
	assert.Equal(t, want, got, "cell (%d,%d)", row, col)
}

func TestTurtle_StopsWhenContextDone(t *testing.T) {
	var failures []error
	turtle := newTurtle(t, runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnError: func(ctx context.Context, e *domain.ErrorEvent) { failures = append(failures, e.Err) },
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := turtle.ProcessCommand(ctx, "REPEAT 20000 [ REPEAT 20000 [ RT 1 ] ]")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "canceled", domain.ErrorKind(err))
	assert.Equal(t, 0, turtle.Angle())
	assert.Len(t, failures, 1)

	err = turtle.Forward(ctx, 3)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.Position{}, turtle.Position())
}

func TestTurtle_StopsMidRepeatOnDeadline(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var rotations int
	turtle := newTurtle(t, runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnCommand: func(_ context.Context, e *domain.CommandEvent) {
			if e.Opcode == domain.OpRight {
				rotations++
				if rotations == 5 {
					cancel()
				}
			}
		},
	}))

	err := turtle.ProcessCommand(ctx, "REPEAT 20000 [ REPEAT 20000 [ RT 1 ] ]")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 5, rotations)
	assert.Equal(t, 5, turtle.Angle())
}

func TestTurtle_MaxSteps(t *testing.T) {
	var failures int
	turtle := newTurtle(t,
		runtime.WithMaxSteps(100),
		runtime.WithLifecycleHooks(domain.LifecycleHooks{
			OnError: func(context.Context, *domain.ErrorEvent) { failures++ },
		}),
	)

	err := turtle.ProcessCommand(context.Background(), "REPEAT 20000 [ REPEAT 20000 [ RT 1 ] ]")
	require.ErrorIs(t, err, domain.ErrStepLimit)
	assert.Equal(t, "step_limit", domain.ErrorKind(err))
	assert.Equal(t, 1, failures)

	var cmdErr *domain.CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, "RT 1", cmdErr.Command)
}

func TestTurtle_MaxStepsCountsUnitMoves(t *testing.T) {
	turtle := newTurtle(t,
		runtime.WithPosition(domain.Position{X: 5, Y: 10}),
		runtime.WithMaxSteps(4),
	)

	// One step for the command, then one per unit move.
	err := turtle.ProcessCommand(context.Background(), "FD 5")
	require.ErrorIs(t, err, domain.ErrStepLimit)
	assert.Equal(t, domain.Position{X: 5, Y: 7}, turtle.Position())
}

func TestTurtle_MaxStepsEmptyRepeatBody(t *testing.T) {
	turtle := newTurtle(t, runtime.WithMaxSteps(10))

	err := turtle.ProcessCommand(context.Background(), "REPEAT 1000000000 [ ]")
	assert.ErrorIs(t, err, domain.ErrStepLimit)
}
