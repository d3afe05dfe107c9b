package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the ASCII art banner for Tracks, followed by the version.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"  _                  _        ", "#34d399"},
		{" | |_ _ __ __ _  ___| | _____ ", "#2dd4bf"},
		{" | __| '__/ _` |/ __| |/ / __|", "#22d3ee"},
		{" | |_| | | (_| | (__|   <\\__ \\", "#38bdf8"},
		{"  \\__|_|  \\__,_|\\___|_|\\_\\___/", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	if v := strings.TrimSpace(version); v != "" {
		fmt.Fprintln(w, termenv.String("  v"+v).Faint())
	}
	fmt.Fprintln(w)
}

// Colorize highlights the visited cells of a rendered canvas.
func Colorize(tracks string) string {
	p := termenv.ColorProfile()
	visited := termenv.String("X").Foreground(p.Color("#34d399")).Bold().String()
	unvisited := termenv.String(".").Faint().String()

	var b strings.Builder
	for _, r := range tracks {
		switch r {
		case 'X':
			b.WriteString(visited)
		case '.':
			b.WriteString(unvisited)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
