package logger

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu          sync.RWMutex
	base        = zap.NewNop()
	serviceName = "default"
)

func SetServiceName(newName string) string {
	mu.Lock()
	defer mu.Unlock()
	oldName := serviceName
	serviceName = newName

	return oldName
}

// Init builds the process logger. Until it is called every helper logs to a no-op core,
// which is what tests get.
func Init(level, service string) error {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return fmt.Errorf("parse log level %q: %w", level, err)
		}
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("build zap logger: %w", err)
	}

	mu.Lock()
	base = l
	if service != "" {
		serviceName = service
	}
	mu.Unlock()
	return nil
}

// Replace swaps the underlying logger, e.g. for zaptest in tests.
func Replace(l *zap.Logger) {
	mu.Lock()
	base = l
	mu.Unlock()
}

func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = base.Sync()
}

func current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base.With(zap.String("service", serviceName))
}

// With returns a sugared logger carrying extra key/value pairs, e.g. the bot id.
func With(keysAndValues ...interface{}) *zap.SugaredLogger {
	return current().WithOptions(zap.AddCallerSkip(-1)).Sugar().With(keysAndValues...)
}

func Debug(format string, args ...interface{}) {
	current().Debug(fmt.Sprintf(format, args...))
}

func Info(format string, args ...interface{}) {
	current().Info(fmt.Sprintf(format, args...))
}

func Warn(format string, args ...interface{}) {
	current().Warn(fmt.Sprintf(format, args...))
}

func Error(format string, args ...interface{}) {
	current().Error(fmt.Sprintf(format, args...))
}

func Fatal(format string, args ...interface{}) {
	current().Fatal(fmt.Sprintf(format, args...))
}
