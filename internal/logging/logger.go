// Package logging defines the structured-logging interface used by the
// storage, index and transport layers. The production implementation wraps
// log/slog.
package logging

import "context"

// Logger takes a message plus alternating keys and values:
//
//	log.Warn(ctx, "skipping unreadable object", "key", key, "err", err)
//
// Passing ctx lets handlers pick up request-scoped attributes.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a logger that adds args to every record, typically a
	// "module" name.
	With(args ...any) Logger
}
