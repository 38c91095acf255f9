package sender

import (
	"context"
	"log/slog"
)

// ConsoleWriter logs every line and forwards it to the configured sink.
// Without a sink the line is still logged and Write reports
// ErrNotConfigured.
type ConsoleWriter struct {
	echo *LogWriter
	next Writer
}

// NewConsoleWriter wraps next, which may be nil.
func NewConsoleWriter(log *slog.Logger, next Writer) *ConsoleWriter {
	return &ConsoleWriter{
		echo: NewLogWriter(log),
		next: next,
	}
}

func (w *ConsoleWriter) Write(ctx context.Context, line string) error {
	_ = w.echo.Write(ctx, line)
	if w.next == nil {
		return ErrNotConfigured
	}
	return w.next.Write(ctx, line)
}

func (w *ConsoleWriter) Health(ctx context.Context) error {
	if w.next == nil {
		return ErrNotConfigured
	}
	return w.next.Health(ctx)
}

func (w *ConsoleWriter) Name() string {
	if w.next == nil {
		return KindLog
	}
	return KindLog + "+" + w.next.Name()
}

func (w *ConsoleWriter) Close() error {
	if w.next == nil {
		return nil
	}
	return w.next.Close()
}
