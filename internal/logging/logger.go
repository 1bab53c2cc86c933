package logging

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/oakline/taskconsole/internal/config"
	"github.com/oakline/taskconsole/internal/consts"
	"github.com/oakline/taskconsole/internal/core"
)

type ctxKey string

// TraceIDKey carries the per-request trace id through context when no otel
// span is recording.
const TraceIDKey ctxKey = "trace_id"

// Logger is the context-aware logging interface. Every log line carries a
// trace_id resolved from the otel span or the request context.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...zap.Field)
	Info(ctx context.Context, msg string, fields ...zap.Field)
	Warn(ctx context.Context, msg string, fields ...zap.Field)
	Error(ctx context.Context, msg string, fields ...zap.Field)
	With(fields ...zap.Field) Logger
	Sync() error
}

// Component wraps a zap logger in the component lifecycle so dependents can
// declare it and rely on it being initialized first.
type Component struct {
	*core.BaseComponent
	cfg *config.LoggingConfig
	zl  *zap.Logger
}

func NewComponent(cfg *config.LoggingConfig) *Component {
	return &Component{
		BaseComponent: core.NewBaseComponent(consts.COMPONENT_LOGGING),
		cfg:           cfg,
	}
}

func (c *Component) Start(ctx context.Context) error {
	if err := c.BaseComponent.Start(ctx); err != nil {
		return err
	}
	ws, err := c.buildWriteSyncer()
	if err != nil {
		return fmt.Errorf("build log writer: %w", err)
	}
	zc := zapcore.NewCore(c.buildEncoder(), ws, parseLevel(c.cfg.Level))
	c.zl = zap.New(zc, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	SetGlobal(c)
	c.zl.Info("logging component started",
		zap.String("level", c.cfg.Level),
		zap.String("format", c.cfg.Format),
		zap.String("output", c.cfg.Output),
	)
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	if c.zl != nil {
		_ = c.zl.Sync()
	}
	return c.BaseComponent.Stop(ctx)
}

func (c *Component) HealthCheck() error {
	if err := c.BaseComponent.HealthCheck(); err != nil {
		return err
	}
	if c.zl == nil {
		return fmt.Errorf("zap logger not initialized")
	}
	return nil
}

func (c *Component) buildEncoder() zapcore.Encoder {
	ec := zapcore.EncoderConfig{
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
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if c.cfg.Format == "console" {
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

func (c *Component) buildWriteSyncer() (zapcore.WriteSyncer, error) {
	switch strings.ToLower(c.cfg.Output) {
	case "stdout", "":
		return zapcore.AddSync(os.Stdout), nil
	case "stderr":
		return zapcore.AddSync(os.Stderr), nil
	}
	// anything else is a file path
	if r := c.cfg.Rotate; r != nil {
		lumber := &lumberjack.Logger{
			Filename:  c.cfg.Output,
			MaxSize:   defaultInt(r.MaxSizeMB, 100),
			MaxAge:    r.MaxAgeDays,
			Compress:  r.Compress,
			LocalTime: true,
		}
		return zapcore.AddSync(lumber), nil
	}
	file, err := os.OpenFile(c.cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return zapcore.AddSync(file), nil
}

func parseLevel(level string) zapcore.Level {
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

func defaultInt(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func (c *Component) Debug(ctx context.Context, msg string, fields ...zap.Field) {
	c.log(ctx, zapcore.DebugLevel, msg, fields...)
}
func (c *Component) Info(ctx context.Context, msg string, fields ...zap.Field) {
	c.log(ctx, zapcore.InfoLevel, msg, fields...)
}
func (c *Component) Warn(ctx context.Context, msg string, fields ...zap.Field) {
	c.log(ctx, zapcore.WarnLevel, msg, fields...)
}
func (c *Component) Error(ctx context.Context, msg string, fields ...zap.Field) {
	c.log(ctx, zapcore.ErrorLevel, msg, fields...)
}

func (c *Component) With(fields ...zap.Field) Logger {
	return &Component{BaseComponent: c.BaseComponent, cfg: c.cfg, zl: c.zl.With(fields...)}
}

func (c *Component) Sync() error {
	if c.zl != nil {
		return c.zl.Sync()
	}
	return nil
}

func (c *Component) log(ctx context.Context, level zapcore.Level, msg string, fields ...zap.Field) {
	if c.zl == nil {
		return
	}
	allFields := append([]zap.Field{zap.String(string(TraceIDKey), traceID(ctx))}, fields...)
	if ce := c.zl.Check(level, msg); ce != nil {
		ce.Write(allFields...)
	}
}

// traceID resolves the request trace id: a recording otel span wins, then a
// context value set by the request id middleware, then a fresh uuid.
func traceID(ctx context.Context) string {
	if ctx != nil {
		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			return sc.TraceID().String()
		}
		if v, ok := ctx.Value(TraceIDKey).(string); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}
