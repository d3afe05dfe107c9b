package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aretw0/tracks"
	"github.com/aretw0/tracks/internal/presentation/tui"
	"github.com/aretw0/tracks/internal/runtime"
	"github.com/aretw0/tracks/pkg/domain"
	"github.com/aretw0/tracks/pkg/program"
)

// RunOptions configures a single program run.
type RunOptions struct {
	Path  string
	Debug bool
	// Plain forces unstyled output even on a terminal.
	Plain bool
	// Start overrides the centre start position.
	Start *domain.Position
	Angle int
	Out   io.Writer
}

// RunFile loads the program at opts.Path, runs it and prints the resulting canvas.
// The canvas reached before a failing command is printed too.
func RunFile(ctx context.Context, opts RunOptions) error {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	logger := createLogger(opts.Debug)

	p, err := program.Load(opts.Path)
	if err != nil {
		return err
	}

	turtleOpts := []runtime.Option{runtime.WithLogger(logger), runtime.WithAngle(opts.Angle)}
	if opts.Debug {
		turtleOpts = append(turtleOpts, runtime.WithLifecycleHooks(createDebugHooks(logger)))
	}
	if opts.Start != nil {
		turtleOpts = append(turtleOpts, runtime.WithPosition(*opts.Start))
	}

	turtle, runErr := p.Run(ctx, turtleOpts...)
	if turtle == nil {
		return runErr
	}

	styled := !opts.Plain && isTerminal(out)
	if styled {
		tui.PrintBanner(out, tracks.Version)
		report := tui.Report{
			Source:   filepath.Base(opts.Path),
			Snapshot: turtle.Snapshot(),
			Tracks:   turtle.Tracks(),
			Err:      runErr,
		}
		rendered, err := tui.NewRenderer()(report.Markdown())
		if err != nil {
			// glamour unavailable, colour the raw canvas instead
			rendered = tui.Colorize(turtle.Tracks()) + "\n"
		}
		fmt.Fprint(out, rendered)
	} else {
		fmt.Fprintln(out, turtle.Tracks())
	}

	if runErr != nil {
		if styled {
			printSystemMessage(out, "Stopped: %v", runErr)
		}
		return handleExecutionError(runErr)
	}
	return nil
}

// Validate parses the program at path without running it.
func Validate(path string, out io.Writer) error {
	p, err := program.Load(path)
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	printSystemMessage(out, "%s: %dx%d canvas, %d commands OK", filepath.Base(path), p.Width, p.Height, len(p.Commands))
	return nil
}
