package logging

import (
	"context"
	"log/slog"
)

// SlogLogger implements Logger on top of log/slog, forwarding the request
// context to the context-aware slog methods so handler-scoped attributes
// survive into log records.
type SlogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps l. The server passes a JSON-handler logger here; tests
// pass one writing to io.Discard.
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{l: l}
}

func (s *SlogLogger) Debug(ctx context.Context, msg string, args ...any) {
	s.l.DebugContext(ctx, msg, args...)
}

func (s *SlogLogger) Info(ctx context.Context, msg string, args ...any) {
	s.l.InfoContext(ctx, msg, args...)
}

func (s *SlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.l.WarnContext(ctx, msg, args...)
}

func (s *SlogLogger) Error(ctx context.Context, msg string, args ...any) {
	s.l.ErrorContext(ctx, msg, args...)
}

func (s *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{l: s.l.With(args...)}
}
