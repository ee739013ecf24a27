// ABOUTME: Level-gated logging wrapper around zap for verbose mode and diagnostics
// ABOUTME: Global level via SetLevel; writes to stderr or a log file, never to the TUI's stdout

package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level constants matching zap levels.
const (
	LevelDebug = zapcore.DebugLevel
	LevelInfo  = zapcore.InfoLevel
	LevelWarn  = zapcore.WarnLevel
	LevelError = zapcore.ErrorLevel
)

var (
	level  = zap.NewAtomicLevelAt(LevelInfo)
	logger atomic.Pointer[zap.SugaredLogger]

	fileMu sync.Mutex
	file   *os.File
)

func init() {
	SetOutput(os.Stderr)
}

func newCore(w io.Writer) zapcore.Core {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	enc.CallerKey = ""
	enc.StacktraceKey = ""
	return zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(zapcore.AddSync(w)), level)
}

// SetOutput replaces the log sink. All loggers returned by Named after this
// call write to w.
func SetOutput(w io.Writer) {
	logger.Store(zap.New(newCore(w)).Sugar())
}

// SetFile appends log output to path, creating it if needed.
func SetFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}

	fileMu.Lock()
	prev := file
	file = f
	fileMu.Unlock()

	SetOutput(f)
	if prev != nil {
		prev.Close()
	}
	return nil
}

// SetLevel sets the global log level.
func SetLevel(l zapcore.Level) {
	level.SetLevel(l)
}

// GetLevel returns the current log level.
func GetLevel() zapcore.Level {
	return level.Level()
}

// ParseLevel maps "debug", "info", "warn" or "error" to a level.
func ParseLevel(s string) (zapcore.Level, error) {
	return zapcore.ParseLevel(s)
}

// Named returns a structured logger tagged with component.
func Named(component string) *zap.SugaredLogger {
	return logger.Load().Named(component)
}

// Sync flushes buffered output.
func Sync() {
	_ = logger.Load().Sync()
}

// Debug logs a debug message if the level allows it.
func Debug(format string, args ...any) {
	logger.Load().Debugf(format, args...)
}

// Info logs an info message if the level allows it.
func Info(format string, args ...any) {
	logger.Load().Infof(format, args...)
}

// Warn logs a warning message if the level allows it.
func Warn(format string, args ...any) {
	logger.Load().Warnf(format, args...)
}

// Error logs an error message.
func Error(format string, args ...any) {
	logger.Load().Errorf(format, args...)
}
