package log

import (
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents the severity of a log message
type Level int

const (
	// LevelDebug is for verbose extraction traces
	LevelDebug Level = iota
	// LevelInfo is for per-file progress
	LevelInfo
	// LevelWarn is for recoverable problems such as dropped tokens
	LevelWarn
	// LevelError is for failed files
	LevelError
)

const prefix = "[flair]"

var (
	mu     sync.Mutex
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	logger = newLogger(os.Stderr)
)

func newLogger(w io.Writer) *zap.Logger {
	if w == nil {
		return zap.NewNop()
	}
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.TimeKey = zapcore.OmitKey
	cfg.CallerKey = zapcore.OmitKey
	cfg.NameKey = "N"
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core)
}

// SetOutput sets the output destination. A nil writer silences logging.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(w)
}

// SetLevel sets the minimum log level to display
func SetLevel(l Level) {
	level.SetLevel(toZap(l))
}

// GetLevel returns the current minimum log level
func GetLevel() Level {
	switch level.Level() {
	case zapcore.DebugLevel:
		return LevelDebug
	case zapcore.InfoLevel:
		return LevelInfo
	case zapcore.WarnLevel:
		return LevelWarn
	default:
		return LevelError
	}
}

// Logger returns the structured logger behind the package-level helpers,
// for components that take a *zap.Logger.
func Logger() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// Named returns a child logger tagged with name.
func Named(name string) *zap.Logger {
	return Logger().Named(name)
}

// Debug logs a debug message
func Debug(format string, args ...any) {
	logf(zapcore.DebugLevel, format, args...)
}

// Info logs an info message
func Info(format string, args ...any) {
	logf(zapcore.InfoLevel, format, args...)
}

// Warn logs a warning message
func Warn(format string, args ...any) {
	logf(zapcore.WarnLevel, format, args...)
}

// Error logs an error message
func Error(format string, args ...any) {
	logf(zapcore.ErrorLevel, format, args...)
}

func logf(lvl zapcore.Level, format string, args ...any) {
	l := Logger()
	if !l.Core().Enabled(lvl) {
		return
	}
	if ce := l.Check(lvl, prefix+" "+fmt.Sprintf(format, args...)); ce != nil {
		ce.Write()
	}
}

func toZap(l Level) zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}
