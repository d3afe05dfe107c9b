package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestNewGrid(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantErr       error
	}{
		{name: "Square", width: 3, height: 3},
		{name: "Wide", width: 5, height: 2},
		{name: "Empty", width: 0, height: 0},
		{name: "Negative Width", width: -1, height: 2, wantErr: ErrInvalidDimension},
		{name: "Negative Height", width: 2, height: -4, wantErr: ErrInvalidDimension},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGrid(tt.width, tt.height)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewGrid failed: %v", err)
			}
			if g.Width() != tt.width || g.Height() != tt.height {
				t.Errorf("Expected %dx%d, got %dx%d", tt.width, tt.height, g.Width(), g.Height())
			}
			for row := 0; row < tt.height; row++ {
				for col := 0; col < tt.width; col++ {
					cell, _ := g.CellAt(row, col)
					if cell != TokenUnvisited {
						t.Fatalf("Cell (%d,%d) = %q, want unvisited", row, col, cell)
					}
				}
			}
		})
	}
}

func TestGrid_MarkAndRender(t *testing.T) {
	g, err := NewGrid(3, 2)
	if err != nil {
		t.Fatalf("NewGrid failed: %v", err)
	}

	if err := g.Mark(1, 2); err != nil {
		t.Fatalf("Mark failed: %v", err)
	}
	if err := g.Mark(0, 0); err != nil {
		t.Fatalf("Mark failed: %v", err)
	}

	want := "X . . \n. . X "
	if got := g.Render(); got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
	if got := g.Render(); got != want {
		t.Errorf("Render() is not idempotent: %q", got)
	}

	marks := g.Marked()
	if len(marks) != 2 || marks[0] != (Position{X: 0, Y: 0}) || marks[1] != (Position{X: 2, Y: 1}) {
		t.Errorf("Marked() = %v", marks)
	}
}

func TestGrid_BoundsChecked(t *testing.T) {
	g, _ := NewGrid(2, 2)

	for _, p := range [][2]int{{-1, 0}, {0, -1}, {2, 0}, {0, 2}} {
		if err := g.Mark(p[0], p[1]); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Mark(%d,%d): expected ErrOutOfBounds, got %v", p[0], p[1], err)
		}
		if _, err := g.CellAt(p[0], p[1]); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("CellAt(%d,%d): expected ErrOutOfBounds, got %v", p[0], p[1], err)
		}
	}

	if strings.Contains(g.Render(), TokenVisited) {
		t.Error("Failed marks must not change the grid")
	}
}

func TestGrid_RenderEmpty(t *testing.T) {
	g, _ := NewGrid(0, 0)
	if got := g.Render(); got != "" {
		t.Errorf("Expected empty rendering, got %q", got)
	}
}

func TestCommandError_Unwrap(t *testing.T) {
	err := &CommandError{Command: "FD x", Err: ErrMalformedCommand}
	if !errors.Is(err, ErrMalformedCommand) {
		t.Error("CommandError should unwrap to its cause")
	}
	if ErrorKind(err) != "malformed_command" {
		t.Errorf("ErrorKind = %q", ErrorKind(err))
	}
	if !strings.Contains(err.Error(), `"FD x"`) {
		t.Errorf("Error() should quote the command, got %q", err.Error())
	}
}
