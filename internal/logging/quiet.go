package logging

import (
	"context"
	"log/slog"
)

// floorHandler drops records below a fixed level regardless of what the
// wrapped handler accepts. It backs the --quiet flag.
type floorHandler struct {
	inner slog.Handler
	floor slog.Level
}

func (h floorHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.floor && h.inner.Enabled(ctx, level)
}

func (h floorHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level < h.floor {
		return nil
	}
	return h.inner.Handle(ctx, record)
}

func (h floorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return floorHandler{inner: h.inner.WithAttrs(attrs), floor: h.floor}
}

func (h floorHandler) WithGroup(name string) slog.Handler {
	return floorHandler{inner: h.inner.WithGroup(name), floor: h.floor}
}

// Quiet returns a logger that only emits warnings and errors. Skipped
// candidates and category warnings still surface; per-file progress does not.
func Quiet(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	h := logger.Handler()
	if fh, ok := h.(floorHandler); ok {
		h = fh.inner
	}
	return slog.New(floorHandler{inner: h, floor: slog.LevelWarn})
}
