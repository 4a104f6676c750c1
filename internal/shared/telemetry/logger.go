package telemetry

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the process-wide logger.
type Options struct {
	Level string
	// File enables a rotated JSON log file next to stdout output.
	File string
}

var (
	mu     sync.RWMutex
	logger = newLogger(Options{})
)

// Init replaces the process-wide logger.
func Init(opts Options) {
	l := newLogger(opts)
	mu.Lock()
	old := logger
	logger = l
	mu.Unlock()
	_ = old.Sync()
}

// L returns the underlying zap logger for components that log with typed fields.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Sync flushes buffered entries.
func Sync() error {
	return L().Sync()
}

// Debug writes a debug-level log line with the given fields.
func Debug(msg string, fields map[string]any) {
	L().Debug(msg, toFields(fields)...)
}

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) {
	L().Info(msg, toFields(fields)...)
}

// Warn writes a warn-level log line with the given fields.
func Warn(msg string, fields map[string]any) {
	L().Warn(msg, toFields(fields)...)
}

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) {
	L().Error(msg, toFields(fields)...)
}

// Truncate shortens s to max runes, marking the cut.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	return string(r[:max]) + "...(truncated)"
}

func toFields(fields map[string]any) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		if err, ok := v.(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, v))
	}
	return out
}

func newLogger(opts Options) *zap.Logger {
	level := zap.NewAtomicLevelAt(parseLevel(opts.Level))

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level),
	}
	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotator), level))
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
}

func parseLevel(raw string) zapcore.Level {
	switch raw {
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
