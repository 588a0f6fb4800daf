// Package logging provides structured, JSON-lines logging for the dispatcher.
package logging

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ctxKey is the type for context keys carried by this package.
type ctxKey string

// TraceIDKey is the context key holding the per-request trace id.
const TraceIDKey ctxKey = "trace_id"

// Logger wraps logrus with the service's field and format conventions.
type Logger struct {
	*logrus.Logger
	service string
}

// New builds a logger for the named service. format is "json" or "text";
// level is a logrus level name, defaulting to "info" on parse failure.
func New(service, level, format string) *Logger {
	l := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if strings.EqualFold(format, "text") {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "msg",
			},
		})
	}
	l.SetOutput(os.Stdout)

	return &Logger{Logger: l, service: service}
}

// NewDefault builds a logger with info level and JSON output.
func NewDefault(service string) *Logger {
	return New(service, "info", "json")
}

// WithTrace returns an entry carrying the service name and the trace id
// found on ctx; the trace id is empty when ctx carries none.
func (l *Logger) WithTrace(ctx context.Context) *logrus.Entry {
	return l.WithFields(logrus.Fields{
		"service":  l.service,
		"trace_id": TraceID(ctx),
	})
}

// TraceID extracts the trace id from ctx, or the empty string if absent.
func TraceID(ctx context.Context) string {
	if v, ok := ctx.Value(TraceIDKey).(string); ok {
		return v
	}
	return ""
}

// WithNewTrace attaches a freshly generated trace id to ctx.
func WithNewTrace(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, uuid.NewString())
}
