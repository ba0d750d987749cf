package logger

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey string

const (
	traceIDKey ctxKey = "trace_id"
	orderIDKey ctxKey = "order_id"
)

// Logger wraps zap.Logger with the service name and a level that can be
// changed at runtime.
type Logger struct {
	*zap.Logger
	service string
	level   zap.AtomicLevel
}

// Options configures New
type Options struct {
	Service string
	// Level is one of debug, info, warn, error; anything else means info
	Level string
	// Format is "json" (default) or "console"
	Format string
}

// New creates a JSON logger for service at level
func New(service, level string) *Logger {
	return NewWithOptions(Options{Service: service, Level: level})
}

// NewWithOptions creates a logger writing to stdout
func NewWithOptions(opts Options) *Logger {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(opts.Level)))); err != nil || opts.Level == "" {
		level.SetLevel(zapcore.InfoLevel)
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	encoder := zapcore.NewJSONEncoder(encoderConfig)
	if opts.Format == "console" {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level)
	zapLogger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)).
		With(zap.String("service", opts.Service))

	return &Logger{
		Logger:  zapLogger,
		service: opts.Service,
		level:   level,
	}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop(), level: zap.NewAtomicLevelAt(zapcore.FatalLevel)}
}

// SetLevel changes the minimum level of l and every logger derived from it
func (l *Logger) SetLevel(level string) error {
	return l.level.UnmarshalText([]byte(strings.ToLower(level)))
}

// Level returns the current minimum level
func (l *Logger) Level() string {
	return l.level.Level().String()
}

// WithContext returns a logger carrying the trace and order ids found in ctx
func (l *Logger) WithContext(ctx context.Context) *zap.Logger {
	var fields []zap.Field
	if traceID := GetTraceID(ctx); traceID != "" {
		fields = append(fields, zap.String("trace_id", traceID))
	}
	if orderID := GetOrderID(ctx); orderID != "" {
		fields = append(fields, zap.String("order_id", orderID))
	}
	if len(fields) == 0 {
		return l.Logger
	}
	return l.With(fields...)
}

// Printf adapts l to printf-style logger interfaces such as cron's
func (l *Logger) Printf(format string, args ...interface{}) {
	l.Sugar().Infof(format, args...)
}

// WithTraceIDContext adds a trace ID to the context
func WithTraceIDContext(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from context
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(traceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// WithOrderIDContext tags ctx with the order an operation works on
func WithOrderIDContext(ctx context.Context, orderID string) context.Context {
	return context.WithValue(ctx, orderIDKey, orderID)
}

// GetOrderID retrieves the order ID from context
func GetOrderID(ctx context.Context) string {
	if orderID, ok := ctx.Value(orderIDKey).(string); ok {
		return orderID
	}
	return ""
}

// Sync flushes any buffered log entries
func (l *Logger) Sync() error {
	return l.Logger.Sync()
}
