package logger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/trace"
)

// Options selects the handler built by New.
type Options struct {
	// Format is "json" or "text". Empty picks json in prod and text elsewhere.
	Format string
	Level  string
	Writer io.Writer
}

// New builds a logger whose records carry trace_id and span_id when the
// context holds a valid span. Errors are colored red in text output.
func New(env string, opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}

	format := strings.ToLower(opts.Format)
	if format == "" {
		_, inK8s := os.LookupEnv("KUBERNETES_SERVICE_HOST")
		format = "text"
		if inK8s || env == "prod" {
			format = "json"
		}
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     ParseLevel(opts.Level, slog.LevelInfo),
			AddSource: true,
		})
	} else {
		handler = newColorTextHandler(w, &slog.HandlerOptions{
			Level: ParseLevel(opts.Level, slog.LevelDebug),
		})
	}
	return slog.New(newTraceContextHandler(handler))
}

func NewWithServiceContext(serviceName, version, env string, opts Options) *slog.Logger {
	return New(env, opts).With(
		slog.String("service", serviceName),
		slog.String("version", version),
		slog.String("environment", env),
	)
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string, fallback slog.Level) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}

const (
	colorRed   = "\x1b[31m"
	colorReset = "\x1b[0m"
)

// colorTextHandler renders each record with a TextHandler into a buffer and
// wraps lines at Error level and above in red before writing them out.
type colorTextHandler struct {
	handler slog.Handler
	out     io.Writer
	buf     *bytes.Buffer
	mu      *sync.Mutex
}

func newColorTextHandler(w io.Writer, opts *slog.HandlerOptions) *colorTextHandler {
	buf := &bytes.Buffer{}
	return &colorTextHandler{
		handler: slog.NewTextHandler(buf, opts),
		out:     w,
		buf:     buf,
		mu:      &sync.Mutex{},
	}
}

func (h *colorTextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *colorTextHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.buf.Reset()
	if err := h.handler.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level < slog.LevelError {
		_, err := h.out.Write(h.buf.Bytes())
		return err
	}

	line := bytes.TrimSuffix(h.buf.Bytes(), []byte("\n"))
	_, err := fmt.Fprintf(h.out, "%s%s%s\n", colorRed, line, colorReset)
	return err
}

func (h *colorTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &colorTextHandler{handler: h.handler.WithAttrs(attrs), out: h.out, buf: h.buf, mu: h.mu}
}

func (h *colorTextHandler) WithGroup(name string) slog.Handler {
	return &colorTextHandler{handler: h.handler.WithGroup(name), out: h.out, buf: h.buf, mu: h.mu}
}

type traceContextHandler struct {
	handler slog.Handler
}

func newTraceContextHandler(h slog.Handler) *traceContextHandler {
	return &traceContextHandler{handler: h}
}

func (h *traceContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *traceContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		)
	}
	return h.handler.Handle(ctx, r)
}

func (h *traceContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceContextHandler{handler: h.handler.WithAttrs(attrs)}
}

func (h *traceContextHandler) WithGroup(name string) slog.Handler {
	return &traceContextHandler{handler: h.handler.WithGroup(name)}
}

// Discard is a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
