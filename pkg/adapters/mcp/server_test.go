package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/tracks/internal/runtime"
	"github.com/aretw0/tracks/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseRequest(program string) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = "parse"
	req.Params.Arguments = map[string]any{"program": program}
	return req
}

func TestHandleDraw(t *testing.T) {
	s := NewServer()

	resp, err := s.handleDraw(context.Background(), mcp.CallToolRequest{}, DrawArgs{
		Width: 5, Height: 5, Program: "RT 90 FD 2",
	})
	require.NoError(t, err)

	assert.Equal(t, 90, resp.Angle)
	assert.Equal(t, domain.Position{X: 4, Y: 2}, resp.Position)
	assert.Empty(t, resp.Error)
	assert.Equal(t, ". . . . . \n. . . . . \n. . . X X \n. . . . . \n. . . . . ", resp.Tracks)
}

func TestHandleDraw_OutOfBoundsReportsPartialCanvas(t *testing.T) {
	s := NewServer()

	resp, err := s.handleDraw(context.Background(), mcp.CallToolRequest{}, DrawArgs{
		Width: 3, Height: 3, Program: "FD 5",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.Position{X: 1, Y: 0}, resp.Position)
	assert.Contains(t, resp.Error, "out of bounds")
}

func TestHandleDraw_Errors(t *testing.T) {
	s := NewServer(WithMaxProgramSize(16))

	tests := []struct {
		name string
		args DrawArgs
		want error
	}{
		{"malformed", DrawArgs{Width: 3, Height: 3, Program: "SPIN 3"}, domain.ErrMalformedCommand},
		{"invalid dimension", DrawArgs{Width: -3, Height: 3, Program: "FD 1"}, domain.ErrInvalidDimension},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.handleDraw(context.Background(), mcp.CallToolRequest{}, tt.args)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("too large", func(t *testing.T) {
		_, err := s.handleDraw(context.Background(), mcp.CallToolRequest{}, DrawArgs{
			Width: 3, Height: 3, Program: "FD 1 FD 1 FD 1 FD 1 FD 1",
		})
		assert.ErrorContains(t, err, "program rejected")
	})
}

func TestHandleParse(t *testing.T) {
	s := NewServer()

	result, err := s.handleParse(context.Background(), parseRequest("lt 90 REPEAT 2 [ FD 1 REPEAT 3 [ BK 2 ] ]"))
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.Len(t, result.Content, 1)

	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)

	var tree []ParsedCommand
	require.NoError(t, json.Unmarshal([]byte(text.Text), &tree))
	require.Len(t, tree, 2)

	assert.Equal(t, domain.OpLeft, tree[0].Opcode)
	assert.Equal(t, 90, tree[0].Argument)

	repeat := tree[1]
	assert.Equal(t, domain.OpRepeat, repeat.Opcode)
	assert.Equal(t, 2, repeat.Argument)
	require.Len(t, repeat.Body, 2)
	assert.Equal(t, domain.OpForward, repeat.Body[0].Opcode)
	require.Len(t, repeat.Body[1].Body, 1)
	assert.Equal(t, domain.OpBack, repeat.Body[1].Body[0].Opcode)
}

func TestHandleParse_Errors(t *testing.T) {
	s := NewServer()

	result, err := s.handleParse(context.Background(), parseRequest("REPEAT 2 [ FD 1"))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = s.handleParse(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleDraw_CanvasLimit(t *testing.T) {
	s := NewServer(WithMaxCanvas(50))

	_, err := s.handleDraw(context.Background(), mcp.CallToolRequest{}, DrawArgs{
		Width: 200000, Height: 200000, Program: "FD 1",
	})
	assert.ErrorIs(t, err, ErrCanvasTooLarge)

	_, err = s.handleDraw(context.Background(), mcp.CallToolRequest{}, DrawArgs{
		Width: 5, Height: 51, Program: "FD 1",
	})
	assert.ErrorIs(t, err, ErrCanvasTooLarge)

	_, err = s.handleDraw(context.Background(), mcp.CallToolRequest{}, DrawArgs{
		Width: 50, Height: 50, Program: "FD 1",
	})
	assert.NoError(t, err)
}

func TestHandleDraw_DefaultCanvasLimit(t *testing.T) {
	s := NewServer()

	_, err := s.handleDraw(context.Background(), mcp.CallToolRequest{}, DrawArgs{
		Width: DefaultMaxCanvas + 1, Height: 1, Program: "",
	})
	assert.ErrorIs(t, err, ErrCanvasTooLarge)
}

func TestHandleDraw_StepBudget(t *testing.T) {
	s := NewServer(WithTurtleOptions(runtime.WithMaxSteps(1000)))

	_, err := s.handleDraw(context.Background(), mcp.CallToolRequest{}, DrawArgs{
		Width: 5, Height: 5, Program: "REPEAT 20000 [ REPEAT 20000 [ RT 1 ] ]",
	})
	assert.ErrorIs(t, err, domain.ErrStepLimit)
}
