package logbuf

import (
	"context"
	"log/slog"
)

// Handler tees slog records into a Buffer while delegating to an inner
// handler. The buffer captures every level; the inner handler keeps
// its own level filter.
type Handler struct {
	inner  slog.Handler
	buf    *Buffer
	bound  []slog.Attr
	groups []string
}

// NewHandler wraps inner so every record is also captured into buf.
func NewHandler(inner slog.Handler, buf *Buffer) *Handler {
	return &Handler{inner: inner, buf: buf}
}

func (h *Handler) Enabled(context.Context, slog.Level) bool {
	// Capture everything; the inner handler filters on its own.
	return true
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	attrs := make(map[string]any, r.NumAttrs()+len(h.bound))
	for _, a := range h.bound {
		attrs[h.key(a.Key)] = flatten(a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[h.key(a.Key)] = flatten(a.Value)
		return true
	})
	if len(attrs) == 0 {
		attrs = nil
	}

	h.buf.Append(Entry{
		Time:    r.Time,
		Level:   r.Level.String(),
		Message: r.Message,
		Attrs:   attrs,
	})

	if h.inner.Enabled(ctx, r.Level) {
		return h.inner.Handle(ctx, r)
	}
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{
		inner:  h.inner.WithAttrs(attrs),
		buf:    h.buf,
		bound:  append(h.bound[:len(h.bound):len(h.bound)], attrs...),
		groups: h.groups,
	}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{
		inner:  h.inner.WithGroup(name),
		buf:    h.buf,
		bound:  h.bound,
		groups: append(h.groups[:len(h.groups):len(h.groups)], name),
	}
}

func (h *Handler) key(k string) string {
	for i := len(h.groups) - 1; i >= 0; i-- {
		k = h.groups[i] + "." + k
	}
	return k
}

// flatten converts slog values into JSON-friendly ones; errors become
// their message instead of serializing to {}.
func flatten(v slog.Value) any {
	raw := v.Resolve().Any()
	if err, ok := raw.(error); ok {
		return err.Error()
	}
	return raw
}
