package program

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/tracks/internal/runtime"
	"github.com/aretw0/tracks/pkg/domain"
	"github.com/aretw0/tracks/pkg/grammar"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Program is a canvas declaration plus its top-level commands.
type Program struct {
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	Commands []string `json:"commands"`
}

// Manifest is the structured (YAML/JSON) form of a program.
// Size takes precedence over Width/Height; Program text is run before Commands.
type Manifest struct {
	Width    int      `mapstructure:"width"`
	Height   int      `mapstructure:"height"`
	Size     string   `mapstructure:"size"`
	Program  string   `mapstructure:"program"`
	Commands []string `mapstructure:"commands"`
}

// New builds a program from a canvas size and raw command text.
func New(width, height int, text string) (*Program, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: %dx%d", domain.ErrInvalidDimension, width, height)
	}
	commands, err := grammar.ExtractCommands(text)
	if err != nil {
		return nil, err
	}
	return &Program{Width: width, Height: height, Commands: commands}, nil
}

// Parse reads the .logo text format: a canvas-size header line, then commands.
func Parse(r io.Reader) (*Program, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var header string
	var body strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if header == "" {
			header = strings.TrimSpace(line)
			continue
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read program: %w", err)
	}
	if header == "" {
		return nil, fmt.Errorf("%w: missing canvas size header", domain.ErrInvalidDimension)
	}

	width, height, err := ParseCanvasSize(header)
	if err != nil {
		return nil, err
	}
	return New(width, height, body.String())
}

// Load reads a program file. The format is chosen by extension:
// .yaml/.yml and .json are manifests, anything else is the .logo text format.
func Load(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read program: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		raw := map[string]any{}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
		return FromMap(raw)
	case ".json":
		raw := map[string]any{}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
		return FromMap(raw)
	default:
		return Parse(strings.NewReader(string(data)))
	}
}

// FromMap decodes a loosely typed manifest (numbers may be strings and vice versa).
func FromMap(raw map[string]any) (*Program, error) {
	var m Manifest
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &m,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return m.Build()
}

// Build converts the manifest into a runnable program.
func (m Manifest) Build() (*Program, error) {
	width, height := m.Width, m.Height
	if m.Size != "" {
		var err error
		width, height, err = ParseCanvasSize(m.Size)
		if err != nil {
			return nil, err
		}
	}

	text := m.Program
	if len(m.Commands) > 0 {
		text += "\n" + strings.Join(m.Commands, "\n")
	}
	return New(width, height, text)
}

// Run executes the program on a new turtle placed at the centre of the canvas.
// The turtle is returned even on failure, holding the state reached before the failing command.
func (p *Program) Run(ctx context.Context, opts ...runtime.Option) (*runtime.Turtle, error) {
	opts = append([]runtime.Option{runtime.WithPosition(p.Center())}, opts...)
	turtle, err := runtime.New(p.Width, p.Height, opts...)
	if err != nil {
		return nil, err
	}
	return turtle, turtle.ProcessCommands(ctx, p.Commands)
}

// Center returns the middle cell of the canvas.
func (p *Program) Center() domain.Position {
	return domain.Position{X: p.Width / 2, Y: p.Height / 2}
}

// Validate parses every command, recursing into repeat bodies, without running anything.
func (p *Program) Validate() error {
	return validate(p.Commands)
}

func validate(commands []string) error {
	for _, command := range commands {
		cmd, err := grammar.ParseCommand(command)
		if err != nil {
			return err
		}
		if r, ok := cmd.(domain.Repeat); ok {
			if err := validate(r.Body); err != nil {
				return err
			}
		}
	}
	return nil
}
