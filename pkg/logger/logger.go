// Package logger holds the process-wide zap logger. Until Init is called
// every helper logs nowhere, so packages and tests can log unconditionally.
package logger

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const service = "potential-simulator"

// Options select the level and the encoding ("json" or "console").
type Options struct {
	Level  string
	Format string
}

var (
	mu    sync.RWMutex
	base  = zap.NewNop()
	level = zap.NewAtomicLevel()
)

// Init replaces the process logger.
func Init(opts Options) error {
	if err := SetLevel(opts.Level); err != nil {
		return err
	}

	enc := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "component",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	encoding := opts.Format
	switch encoding {
	case "", "json":
		encoding = "json"
	case "console":
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return fmt.Errorf("invalid log format %q", opts.Format)
	}

	built, err := zap.Config{
		Level:            level,
		Encoding:         encoding,
		EncoderConfig:    enc,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields:    map[string]interface{}{"service": service},
	}.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	set(built)
	return nil
}

// SetLevel changes the level of the running logger.
func SetLevel(name string) error {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return fmt.Errorf("invalid log level %s: %w", name, err)
	}
	level.SetLevel(l)
	return nil
}

func set(l *zap.Logger) {
	mu.Lock()
	base = l
	mu.Unlock()
}

func Get() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Component returns a logger tagged with the subsystem name.
func Component(name string) *zap.Logger {
	return Get().Named(name)
}

func Info(msg string, fields ...zap.Field)  { Get().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { Get().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { Get().Error(msg, fields...) }
func Debug(msg string, fields ...zap.Field) { Get().Debug(msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { Get().Fatal(msg, fields...) }

func Sync() error {
	return Get().Sync()
}
