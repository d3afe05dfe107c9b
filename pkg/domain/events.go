package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventCommand EventType = "command"
	EventMark    EventType = "mark"
	EventError   EventType = "error"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// CommandEvent is fired after a command has been parsed, before it runs.
type CommandEvent struct {
	EventBase
	Command string `json:"command"`
	Opcode  Opcode `json:"opcode"`
	Depth   int    `json:"depth"` // Nesting level (0 for top-level commands)
}

// MarkEvent is fired every time the turtle marks a cell.
type MarkEvent struct {
	EventBase
	Position Position `json:"position"`
	Angle    int      `json:"angle"`
}

// ErrorEvent is fired when a command fails.
type ErrorEvent struct {
	EventBase
	Command string `json:"command"`
	Err     error  `json:"-"`
}

// LifecycleHooks defines callbacks for runtime observability.
type LifecycleHooks struct {
	OnCommand func(context.Context, *CommandEvent)
	OnMark    func(context.Context, *MarkEvent)
	OnError   func(context.Context, *ErrorEvent)
}
