package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/tracks"
	"github.com/aretw0/tracks/internal/runtime"
	"github.com/aretw0/tracks/pkg/domain"
	"github.com/aretw0/tracks/pkg/grammar"
	"github.com/aretw0/tracks/pkg/program"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ErrCanvasTooLarge is returned by draw when a dimension exceeds the configured maximum.
var ErrCanvasTooLarge = errors.New("canvas too large")

// DrawArgs are the arguments of the draw tool.
type DrawArgs struct {
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Program string `json:"program"`
}

// DrawResponse is the structured result of the draw tool.
type DrawResponse struct {
	Tracks   string          `json:"tracks" jsonschema_description:"The rendered canvas, one line per row"`
	Angle    int             `json:"angle" jsonschema_description:"Final heading in degrees"`
	Position domain.Position `json:"position" jsonschema_description:"Final turtle position"`
	Error    string          `json:"error,omitempty" jsonschema_description:"The command failure, if the run stopped early"`
}

// ParsedCommand is the tree form of a command, as returned by the parse tool.
type ParsedCommand struct {
	Source   string          `json:"source"`
	Opcode   domain.Opcode   `json:"opcode"`
	Argument int             `json:"argument,omitempty"`
	Body     []ParsedCommand `json:"body,omitempty"`
}

// DefaultMaxCanvas is the canvas limit applied unless WithMaxCanvas overrides it.
const DefaultMaxCanvas = 1024

// Server exposes the interpreter as an MCP Server.
type Server struct {
	mcpServer      *server.MCPServer
	maxProgramSize int
	maxCanvas      int
	turtleOpts     []runtime.Option
}

// Option configures the Server.
type Option func(*Server)

// WithMaxProgramSize limits the program text accepted by the tools. n <= 0 keeps the default.
func WithMaxProgramSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxProgramSize = n
		}
	}
}

// WithMaxCanvas rejects canvases wider or taller than n cells (0 disables the check).
func WithMaxCanvas(n int) Option {
	return func(s *Server) {
		s.maxCanvas = n
	}
}

// WithTurtleOptions applies opts to the turtles the draw tool creates.
func WithTurtleOptions(opts ...runtime.Option) Option {
	return func(s *Server) {
		s.turtleOpts = append(s.turtleOpts, opts...)
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(opts ...Option) *Server {
	s := &Server{
		mcpServer:      server.NewMCPServer("tracks-mcp", strings.TrimSpace(tracks.Version)),
		maxProgramSize: program.DefaultMaxProgramSize,
		maxCanvas:      DefaultMaxCanvas,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE, until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		slog.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: draw
	drawTool := mcp.NewTool("draw",
		mcp.WithDescription("Run a turtle program on a blank canvas and return the tracks it leaves. The turtle starts at the centre, heading north."),
		mcp.WithNumber("width", mcp.Required(), mcp.Description("Canvas width in cells")),
		mcp.WithNumber("height", mcp.Required(), mcp.Description("Canvas height in cells")),
		mcp.WithString("program", mcp.Required(), mcp.Description("Program text, e.g. 'REPEAT 4 [ FD 2 RT 90 ]'")),
		mcp.WithOutputSchema[DrawResponse](),
	)
	s.mcpServer.AddTool(drawTool, mcp.NewStructuredToolHandler(s.handleDraw))

	// TOOL: parse
	s.mcpServer.AddTool(mcp.NewTool("parse",
		mcp.WithDescription("Parse a turtle program and return its command tree as JSON, without running it."),
		mcp.WithString("program", mcp.Required(), mcp.Description("Program text")),
	), s.handleParse)
}

func (s *Server) handleDraw(ctx context.Context, request mcp.CallToolRequest, args DrawArgs) (DrawResponse, error) {
	text, err := program.SanitizeWithLimit(args.Program, s.maxProgramSize)
	if err != nil {
		slog.Warn("MCP Draw: Program rejected", "error", err, "size", len(args.Program))
		return DrawResponse{}, fmt.Errorf("program rejected: %w", err)
	}

	if s.maxCanvas > 0 && (args.Width > s.maxCanvas || args.Height > s.maxCanvas) {
		return DrawResponse{}, fmt.Errorf("%w: %dx%d (max %d)", ErrCanvasTooLarge, args.Width, args.Height, s.maxCanvas)
	}

	p, err := program.New(args.Width, args.Height, text)
	if err != nil {
		return DrawResponse{}, err
	}

	turtle, runErr := p.Run(ctx, s.turtleOpts...)
	if turtle == nil {
		return DrawResponse{}, runErr
	}

	resp := DrawResponse{
		Tracks:   turtle.Tracks(),
		Angle:    turtle.Angle(),
		Position: turtle.Position(),
	}
	if runErr != nil {
		// Out-of-bounds runs still report the canvas reached so far.
		if !errors.Is(runErr, domain.ErrOutOfBounds) {
			return DrawResponse{}, runErr
		}
		resp.Error = runErr.Error()
	}
	return resp, nil
}

func (s *Server) handleParse(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("program")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := program.SanitizeWithLimit(raw, s.maxProgramSize)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("program rejected: %v", err)), nil
	}

	tree, err := ParseTree(text)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("parse failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(tree)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// ParseTree parses program text into nested commands, descending into repeat bodies.
func ParseTree(text string) ([]ParsedCommand, error) {
	commands, err := grammar.ExtractCommands(text)
	if err != nil {
		return nil, err
	}

	tree := make([]ParsedCommand, 0, len(commands))
	for _, source := range commands {
		cmd, err := grammar.ParseCommand(source)
		if err != nil {
			return nil, err
		}

		node := ParsedCommand{Source: source, Opcode: cmd.Opcode()}
		switch c := cmd.(type) {
		case domain.Rotate:
			node.Argument = c.Degrees
		case domain.Move:
			node.Argument = c.Distance
		case domain.Repeat:
			node.Argument = c.Count
			node.Body, err = ParseTree(strings.Join(c.Body, " "))
			if err != nil {
				return nil, err
			}
		}
		tree = append(tree, node)
	}
	return tree, nil
}

func (s *Server) registerResources() {
	// EXPOSE: tracks://opcodes
	s.mcpServer.AddResource(mcp.NewResource("tracks://opcodes", "Accepted opcodes and their aliases",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(grammar.Aliases())
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "tracks://opcodes",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
