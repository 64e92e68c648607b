package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field is a structured log field
type Field = zap.Field

// Logger provides structured logging for the pipeline commands. Reports go to
// stdout; log lines go to the logger's own writer (stderr by default).
type Logger struct {
	zl *zap.Logger
}

// Options configures a Logger
type Options struct {
	Level   string    // debug, info, warn, error
	Format  string    // "json" or "text"
	Service string    // service field attached to every entry
	Output  io.Writer // defaults to os.Stderr
}

// New creates a new logger instance
func New(opts Options) (*Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch strings.ToLower(opts.Format) {
	case "json":
		encoder = zapcore.NewJSONEncoder(encCfg)
	case "", "text":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(out), level)
	zl := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	if opts.Service != "" {
		zl = zl.With(zap.String("service", opts.Service))
	}
	return &Logger{zl: zl}, nil
}

// NewNop returns a logger that discards everything
func NewNop() *Logger {
	return &Logger{zl: zap.NewNop()}
}

// ParseLevel maps a level name onto a zap level
func ParseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return l, fmt.Errorf("unknown log level %q", level)
	}
	return l, nil
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...Field) {
	l.zl.Debug(msg, fields...)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...Field) {
	l.zl.Info(msg, fields...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...Field) {
	l.zl.Warn(msg, fields...)
}

// Error logs an error message
func (l *Logger) Error(msg string, err error, fields ...Field) {
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	l.zl.Error(msg, fields...)
}

// WithFields returns a logger with additional fields
func (l *Logger) WithFields(fields ...Field) *Logger {
	return &Logger{zl: l.zl.With(fields...)}
}

// Component returns a logger tagged with a component name
func (l *Logger) Component(name string) *Logger {
	return l.WithFields(zap.String("component", name))
}

// Sync flushes buffered entries
func (l *Logger) Sync() error {
	return l.zl.Sync()
}

// Field constructors

// String creates a string field
func String(key, value string) Field {
	return zap.String(key, value)
}

// Int creates an integer field
func Int(key string, value int) Field {
	return zap.Int(key, value)
}

// Float creates a float field
func Float(key string, value float64) Field {
	return zap.Float64(key, value)
}

// Bool creates a boolean field
func Bool(key string, value bool) Field {
	return zap.Bool(key, value)
}

// Strings creates a string slice field
func Strings(key string, values []string) Field {
	return zap.Strings(key, values)
}

// Seconds creates a float field named <key>_seconds
func Seconds(key string, seconds float64) Field {
	return zap.Float64(key+"_seconds", seconds)
}
