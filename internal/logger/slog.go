package logger

import (
	"context"
	"log/slog"
	"os"
)

// slogLogger backs the Logger interface with the standard library's slog.
type slogLogger struct {
	logger *slog.Logger
	level  Level
}

// NewSlogLogger builds a Logger writing to stdout. Format "text" is for
// local development; anything else gets the JSON handler.
func NewSlogLogger(cfg Config) Logger {
	opts := &slog.HandlerOptions{
		Level:     slogLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &slogLogger{
		logger: slog.New(handler),
		level:  cfg.Level,
	}
}

func slogLevel(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// slogArgs flattens fields into slog's alternating key/value form.
func slogArgs(fields []Field) []any {
	args := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		args = append(args, f.Key, f.Value)
	}
	return args
}

func (l *slogLogger) Debug(msg string, fields ...Field) {
	l.logger.Debug(msg, slogArgs(fields)...)
}

func (l *slogLogger) Info(msg string, fields ...Field) {
	l.logger.Info(msg, slogArgs(fields)...)
}

func (l *slogLogger) Warn(msg string, fields ...Field) {
	l.logger.Warn(msg, slogArgs(fields)...)
}

func (l *slogLogger) Error(msg string, fields ...Field) {
	l.logger.Error(msg, slogArgs(fields)...)
}

func (l *slogLogger) With(fields ...Field) Logger {
	return &slogLogger{
		logger: l.logger.With(slogArgs(fields)...),
		level:  l.level,
	}
}

// WithContext attaches the request-scoped identifiers carried on ctx
// (request_id, user_id) as fields on a child logger.
func (l *slogLogger) WithContext(ctx context.Context) Logger {
	fields := contextFields(ctx)
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}

func (l *slogLogger) Level() Level {
	return l.level
}
