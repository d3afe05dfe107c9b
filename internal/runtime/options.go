package runtime

import (
	"log/slog"

	"github.com/aretw0/tracks/pkg/domain"
)

// Option configures a Turtle.
type Option func(*Turtle)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Turtle) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(t *Turtle) {
		t.hooks = hooks
	}
}

// WithPosition sets the starting position (default: {0,0}).
func WithPosition(p domain.Position) Option {
	return func(t *Turtle) {
		t.position = p
	}
}

// WithAngle sets the starting heading (default: 0, north).
func WithAngle(angle int) Option {
	return func(t *Turtle) {
		t.angle = normalize(angle)
	}
}

// WithMaxSteps bounds the work a turtle performs over its lifetime: every dispatched
// command, repeat pass and unit step costs one. n <= 0 means unlimited.
func WithMaxSteps(n int) Option {
	return func(t *Turtle) {
		t.maxSteps = n
	}
}
