package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// redactedKeys contains attribute keys whose values are always masked.
// These cover the credential surface trawl actually handles: bearer
// tokens for Jira and GitHub, and per-site cookies from the config file.
var redactedKeys = map[string]bool{
	"authorization": true,
	"cookie":        true,
	"set-cookie":    true,
	"token":         true,
	"api_key":       true,
	"apikey":        true,
	"access_token":  true,
	"password":      true,
	"secret":        true,
}

// redactedPatterns match values that look like credentials regardless of
// the attribute key they were logged under.
var redactedPatterns = []*regexp.Regexp{
	// Bearer / Basic authorization header values
	regexp.MustCompile(`(?i)^bearer\s+.+`),
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),

	// GitHub personal access tokens
	regexp.MustCompile(`^gh[pousr]_[A-Za-z0-9]{20,}$`),

	// JWTs
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),
}

// Mask is the replacement string for redacted values.
const Mask = "***REDACTED***"

// RedactHandler wraps an slog.Handler and masks credential attributes
// before passing records to the underlying handler. It works with any
// underlying handler, so text and JSON output get the same treatment.
type RedactHandler struct {
	handler slog.Handler
}

// NewRedactHandler creates a RedactHandler wrapping the given handler.
// If handler is nil, slog.Default().Handler() is used.
func NewRedactHandler(handler slog.Handler) *RedactHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &RedactHandler{handler: handler}
}

// Enabled delegates to the underlying handler.
func (h *RedactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle masks the record's attributes and passes it on.
func (h *RedactHandler) Handle(ctx context.Context, r slog.Record) error {
	masked := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(h.redactAttr(a))
		return true
	})
	return h.handler.Handle(ctx, masked)
}

// WithAttrs returns a new handler with the given attributes added,
// masked first.
func (h *RedactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redactAttr(a)
	}
	return &RedactHandler{handler: h.handler.WithAttrs(redacted)}
}

// WithGroup returns a new handler with the given group name.
func (h *RedactHandler) WithGroup(name string) slog.Handler {
	return &RedactHandler{handler: h.handler.WithGroup(name)}
}

// redactAttr masks a single attribute, recursing into groups.
func (h *RedactHandler) redactAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		redacted := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			redacted[i] = h.redactAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	}

	key := strings.ToLower(a.Key)
	if redactedKeys[key] || strings.Contains(key, "token") || strings.Contains(key, "password") {
		return slog.String(a.Key, Mask)
	}

	if a.Value.Kind() == slog.KindString {
		for _, pattern := range redactedPatterns {
			if pattern.MatchString(a.Value.String()) {
				return slog.String(a.Key, Mask)
			}
		}
	}

	return a
}

// NewLogger creates a text slog.Logger with credential masking.
// Verbose selects slog.LevelDebug; otherwise only warnings and errors
// are emitted.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewRedactHandler(handler))
}
