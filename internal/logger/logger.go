package logger

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls optional log outputs.
type Options struct {
	// File enables a daily-rotated log file next to stdout.
	File       string
	MaxAgeDays int
}

var (
	mu            sync.RWMutex
	defaultLogger *zap.SugaredLogger
)

func levelFromString(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Initialize sets up the global logger with the specified level and format
func Initialize(level, format string) {
	if err := InitializeWithOptions(level, format, Options{}); err != nil {
		// stdout-only setup does not fail
		panic(err)
	}
}

// InitializeWithOptions is Initialize with optional file output.
func InitializeWithOptions(level, format string, opts Options) error {
	lvl := levelFromString(level)

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if strings.ToLower(format) == "json" {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	cores := []zapcore.Core{zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), lvl)}

	if opts.File != "" {
		maxAge := opts.MaxAgeDays
		if maxAge <= 0 {
			maxAge = 7
		}
		writer, err := rotatelogs.New(
			opts.File+".%Y%m%d",
			rotatelogs.WithLinkName(opts.File),
			rotatelogs.WithMaxAge(time.Duration(maxAge)*24*time.Hour),
			rotatelogs.WithRotationTime(24*time.Hour),
		)
		if err != nil {
			return err
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(writer), lvl))
	}

	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))

	mu.Lock()
	defaultLogger = l.Sugar()
	mu.Unlock()
	return nil
}

// Get returns the default logger
func Get() *zap.SugaredLogger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l == nil {
		Initialize("info", "text")
		mu.RLock()
		l = defaultLogger
		mu.RUnlock()
	}
	return l
}

// SetForTest swaps the global logger, returning a restore func.
func SetForTest(l *zap.Logger) func() {
	mu.Lock()
	prev := defaultLogger
	defaultLogger = l.Sugar()
	mu.Unlock()
	return func() {
		mu.Lock()
		defaultLogger = prev
		mu.Unlock()
	}
}

// Sync flushes buffered entries.
func Sync() {
	_ = Get().Sync()
}

func Debug(msg string, args ...any) {
	Get().Debugw(msg, args...)
}

func Info(msg string, args ...any) {
	Get().Infow(msg, args...)
}

func Warn(msg string, args ...any) {
	Get().Warnw(msg, args...)
}

func Error(msg string, args ...any) {
	Get().Errorw(msg, args...)
}

type ctxKey struct{}

// WithContextFields attaches key/value pairs that *Context log calls will include.
func WithContextFields(ctx context.Context, args ...any) context.Context {
	prev, _ := ctx.Value(ctxKey{}).([]any)
	merged := append(append([]any{}, prev...), args...)
	return context.WithValue(ctx, ctxKey{}, merged)
}

func fromContext(ctx context.Context) *zap.SugaredLogger {
	if ctx == nil {
		return Get()
	}
	if fields, ok := ctx.Value(ctxKey{}).([]any); ok && len(fields) > 0 {
		return Get().With(fields...)
	}
	return Get()
}

func DebugContext(ctx context.Context, msg string, args ...any) {
	fromContext(ctx).Debugw(msg, args...)
}

func InfoContext(ctx context.Context, msg string, args ...any) {
	fromContext(ctx).Infow(msg, args...)
}

func WarnContext(ctx context.Context, msg string, args ...any) {
	fromContext(ctx).Warnw(msg, args...)
}

func ErrorContext(ctx context.Context, msg string, args ...any) {
	fromContext(ctx).Errorw(msg, args...)
}

// WithMethod returns a logger with method name attached
func WithMethod(methodName string) *zap.SugaredLogger {
	return Get().With("method", methodName)
}

// WithService returns a logger with service name attached
func WithService(serviceName string) *zap.SugaredLogger {
	return Get().With("service", serviceName)
}

// EnterMethod logs method entry (process tracking)
func EnterMethod(methodName string, args ...any) {
	allArgs := append([]any{"method", methodName, "event", "enter"}, args...)
	Get().Debugw("→ Method entered", allArgs...)
}

// ExitMethod logs method exit (process tracking)
func ExitMethod(methodName string, args ...any) {
	allArgs := append([]any{"method", methodName, "event", "exit"}, args...)
	Get().Debugw("← Method exited", allArgs...)
}

// ExitMethodWithError logs method exit with error (process tracking)
func ExitMethodWithError(methodName string, err error, args ...any) {
	allArgs := append([]any{"method", methodName, "event", "exit", "error", err}, args...)
	Get().Errorw("← Method exited with error", allArgs...)
}

// DatabaseCall logs database operation (debug log for external resources)
func DatabaseCall(operation, query string, args ...any) {
	allArgs := append([]any{"operation", operation, "query", query}, args...)
	Get().Debugw("→ Database call", allArgs...)
}

// DatabaseResult logs database operation result (debug log for external resources)
func DatabaseResult(operation string, rowsAffected int64, err error, args ...any) {
	allArgs := append([]any{"operation", operation, "rows_affected", rowsAffected}, args...)
	if err != nil {
		allArgs = append(allArgs, "error", err)
		Get().Errorw("← Database call failed", allArgs...)
	} else {
		Get().Debugw("← Database call succeeded", allArgs...)
	}
}

// ExternalServiceCall logs external service call (debug log for external resources)
func ExternalServiceCall(service, operation string, args ...any) {
	allArgs := append([]any{"service", service, "operation", operation}, args...)
	Get().Debugw("→ External service call", allArgs...)
}

// ExternalServiceResult logs external service result (debug log for external resources)
func ExternalServiceResult(service, operation string, err error, args ...any) {
	allArgs := append([]any{"service", service, "operation", operation}, args...)
	if err != nil {
		allArgs = append(allArgs, "error", err)
		Get().Errorw("← External service call failed", allArgs...)
	} else {
		Get().Debugw("← External service call succeeded", allArgs...)
	}
}
