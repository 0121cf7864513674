package logger

import (
	"context"
	"log/slog"

	"github.com/gat-college/faqbot/internal/ctxutil"
)

// ContextHandler stamps chat and readiness logs with the request_id and
// client_ip that the HTTP middleware stored in the context, so one /chat
// request can be followed through the pipeline, the assistant and the store.
type ContextHandler struct {
	next slog.Handler
}

// NewContextHandler wraps next.
func NewContextHandler(next slog.Handler) *ContextHandler {
	return &ContextHandler{next: next}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle adds whichever request values ctx carries. Background jobs such as
// the FAQ refresh log without them.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := ctxutil.GetRequestID(ctx); ok && id != "" {
		r.AddAttrs(slog.String("request_id", id))
	}
	if ip := ctxutil.GetClientIP(ctx); ip != "" {
		r.AddAttrs(slog.String("client_ip", ip))
	}
	return h.next.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewContextHandler(h.next.WithAttrs(attrs))
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return NewContextHandler(h.next.WithGroup(name))
}
