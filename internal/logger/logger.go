// Package logger wraps log/slog with the structured fields the engine logs
// on every booking path.  Text output is used in development and JSON
// everywhere else so log shippers can index the fields.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Logger wraps slog.Logger with additional functionality
type Logger struct {
	*slog.Logger
}

// New creates a logger writing to stdout.  env "dev" selects the text
// handler; level is one of debug, info, warn, error.
func New(env, level string) *Logger {
	return NewWithWriter(os.Stdout, env, level)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, env, level string) *Logger {
	lvl := getLogLevel(level)
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}
	var handler slog.Handler
	if strings.EqualFold(env, "dev") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return &Logger{Logger: slog.New(handler)}
}

// Discard returns a logger that drops everything.  Used by tests.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// getLogLevel converts string to slog.Level
func getLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithUserID adds user ID to logger context
func (l *Logger) WithUserID(userID string) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("user_id", userID))}
}

// WithError adds error to logger context
func (l *Logger) WithError(err error) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("error", err.Error()))}
}

// LogTicketBooked logs a confirmed booking.
func (l *Logger) LogTicketBooked(ctx context.Context, ticketID, showtime, userID string, seats int, total int64) {
	l.Logger.InfoContext(ctx,
		"Ticket Booked",
		slog.String("ticket_id", ticketID),
		slog.String("showtime", showtime),
		slog.String("user_id", userID),
		slog.Int("seats", seats),
		slog.Int64("total", total),
	)
}

// LogTicketClosed logs a cancellation or refund.
func (l *Logger) LogTicketClosed(ctx context.Context, ticketID, status, reason string) {
	l.Logger.InfoContext(ctx,
		"Ticket Closed",
		slog.String("ticket_id", ticketID),
		slog.String("status", status),
		slog.String("reason", reason),
	)
}

// LogSeatConflict logs a reservation that lost a race for seats.
func (l *Logger) LogSeatConflict(ctx context.Context, showtime, userID string, seats []string) {
	l.Logger.InfoContext(ctx,
		"Seat Conflict",
		slog.String("showtime", showtime),
		slog.String("user_id", userID),
		slog.Any("seats", seats),
	)
}

// LogHoldsSwept logs a sweep that removed expired holds.
func (l *Logger) LogHoldsSwept(ctx context.Context, removed int, took time.Duration) {
	l.Logger.DebugContext(ctx,
		"Expired Holds Swept",
		slog.Int("removed", removed),
		slog.Duration("duration", took),
	)
}

// ErrorWithContext logs an error message with context
func (l *Logger) ErrorWithContext(ctx context.Context, msg string, err error, fields map[string]any) {
	args := make([]any, 0, len(fields)+1)
	args = append(args, slog.String("error", err.Error()))
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.ErrorContext(ctx, msg, args...)
}

// RequestLogger returns echo middleware that logs one line per request.
func (l *Logger) RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("ip", v.RemoteIP),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				l.Logger.LogAttrs(c.Request().Context(), slog.LevelError, "HTTP Error", attrs...)
				return nil
			}
			l.Logger.LogAttrs(c.Request().Context(), slog.LevelInfo, "HTTP Request", attrs...)
			return nil
		},
	})
}
