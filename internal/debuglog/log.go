package debuglog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelOff // Disables all logging
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) slogLevel() slog.Level {
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

// ParseLogLevel parses a string into a LogLevel. Unknown values map to INFO.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "OFF", "NONE":
		return LevelOff
	default:
		return LevelInfo
	}
}

var (
	mu           sync.RWMutex
	currentLevel = LevelOff
	levelVar     = new(slog.LevelVar)
	logger       *slog.Logger
	logFile      *os.File
)

// DefaultPath is the log file used when Setup is given no explicit path.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".newsbox", "newsbox.log")
}

// Setup configures the logging system with the specified level and optional file path.
// If filePath is empty, defaults to ~/.newsbox/newsbox.log. The terminal belongs to
// the TUI, so records only ever go to a file.
func Setup(level LogLevel, filePath ...string) error {
	mu.Lock()
	defer mu.Unlock()

	currentLevel = level
	levelVar.Set(level.slogLevel())

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	if level == LevelOff {
		logger = nil
		return nil
	}

	logPath := DefaultPath()
	if len(filePath) > 0 && filePath[0] != "" {
		logPath = filePath[0]
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}

	logFile = f
	logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: levelVar})).
		With("app", "newsbox")
	return nil
}

// SetLevel changes the current logging level
func SetLevel(level LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	currentLevel = level
	levelVar.Set(level.slogLevel())
}

// GetLevel returns the current logging level
func GetLevel() LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	return currentLevel
}

// Close closes the log file if open
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	logger = nil
	if logFile != nil {
		err := logFile.Close()
		logFile = nil
		return err
	}
	return nil
}

func write(level LogLevel, msg string, args ...any) {
	mu.RLock()
	l, cur := logger, currentLevel
	mu.RUnlock()

	if l == nil || cur == LevelOff || level < cur {
		return
	}
	l.Log(context.Background(), level.slogLevel(), msg, args...)
}

// Debug logs msg with alternating key/value attributes.
func Debug(msg string, args ...any) { write(LevelDebug, msg, args...) }

func Info(msg string, args ...any) { write(LevelInfo, msg, args...) }

func Warn(msg string, args ...any) { write(LevelWarn, msg, args...) }

func Error(msg string, args ...any) { write(LevelError, msg, args...) }

// FieldLogger carries a fixed set of attributes into every record.
type FieldLogger struct {
	attrs []any
}

// With returns a logger that prepends the given key/value pairs to each record.
func With(args ...any) *FieldLogger {
	return &FieldLogger{attrs: args}
}

// With extends the logger with more attributes.
func (fl *FieldLogger) With(args ...any) *FieldLogger {
	attrs := make([]any, 0, len(fl.attrs)+len(args))
	attrs = append(attrs, fl.attrs...)
	attrs = append(attrs, args...)
	return &FieldLogger{attrs: attrs}
}

func (fl *FieldLogger) log(level LogLevel, msg string, args []any) {
	all := make([]any, 0, len(fl.attrs)+len(args))
	all = append(all, fl.attrs...)
	all = append(all, args...)
	write(level, msg, all...)
}

func (fl *FieldLogger) Debug(msg string, args ...any) { fl.log(LevelDebug, msg, args) }

func (fl *FieldLogger) Info(msg string, args ...any) { fl.log(LevelInfo, msg, args) }

func (fl *FieldLogger) Warn(msg string, args ...any) { fl.log(LevelWarn, msg, args) }

func (fl *FieldLogger) Error(msg string, args ...any) { fl.log(LevelError, msg, args) }
