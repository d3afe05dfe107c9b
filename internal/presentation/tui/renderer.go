package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/tracks/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)

	return func(markdown string) (string, error) {
		if err != nil {
			return markdown, err
		}
		return r.Render(markdown)
	}
}

// Report describes the outcome of a run.
type Report struct {
	Source   string
	Snapshot *domain.Snapshot
	Tracks   string
	Err      error
}

// Markdown formats the report: a summary table, then the canvas as a code block.
func (r Report) Markdown() string {
	var b strings.Builder

	title := r.Source
	if title == "" {
		title = "program"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	if s := r.Snapshot; s != nil {
		b.WriteString("| Canvas | Heading | Position | Commands | Marks |\n")
		b.WriteString("|---|---|---|---|---|\n")
		fmt.Fprintf(&b, "| %dx%d | %d° | (%d, %d) | %d | %d |\n\n",
			s.Width, s.Height, s.Angle, s.Position.X, s.Position.Y, s.Commands, len(s.Marks))
	}

	if r.Err != nil {
		fmt.Fprintf(&b, "> **Stopped:** %s (`%s`)\n\n", r.Err, domain.ErrorKind(r.Err))
	}

	b.WriteString("```\n")
	b.WriteString(r.Tracks)
	b.WriteString("\n```\n")
	return b.String()
}
