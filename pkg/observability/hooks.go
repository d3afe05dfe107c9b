package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/tracks/pkg/domain"
)

// LogHooks logs every marked cell at debug level.
// Commands and failures are already logged by the turtle's own logger.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnMark: func(ctx context.Context, e *domain.MarkEvent) {
			logger.Debug("Mark", "x", e.Position.X, "y", e.Position.Y, "angle", e.Angle)
		},
	}
}

// MergeHooks fans every event out to all given hook sets, in order.
func MergeHooks(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCommand: func(ctx context.Context, e *domain.CommandEvent) {
			for _, h := range sets {
				if h.OnCommand != nil {
					h.OnCommand(ctx, e)
				}
			}
		},
		OnMark: func(ctx context.Context, e *domain.MarkEvent) {
			for _, h := range sets {
				if h.OnMark != nil {
					h.OnMark(ctx, e)
				}
			}
		},
		OnError: func(ctx context.Context, e *domain.ErrorEvent) {
			for _, h := range sets {
				if h.OnError != nil {
					h.OnError(ctx, e)
				}
			}
		},
	}
}
