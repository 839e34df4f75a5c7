// Package logging is the structured logger used by the server: a small
// interface with a log/slog implementation behind it.
package logging

import "context"

// Logger takes a message plus alternating key/value pairs:
//
//	log.Info(ctx, "user registered", "user_id", id, "email_sent", sent)
//
// The context is passed through to the handler so request-scoped values
// can be picked up there.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a logger that adds args to every record.
	With(args ...any) Logger
}
