package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents logging verbosity level
type Level int

const (
	// LevelError only logs errors
	LevelError Level = iota
	// LevelWarn logs warnings and errors
	LevelWarn
	// LevelInfo logs info, warnings, and errors (default)
	LevelInfo
	// LevelDebug logs everything including debug messages
	LevelDebug
)

// Format selects how log lines are rendered.
type Format int

const (
	// FormatText writes "2006-01-02 15:04:05 [INFO] message" lines (default)
	FormatText Format = iota
	// FormatJSON writes one {"ts","level","msg"} object per line
	FormatJSON
)

// Logger provides leveled logging
type Logger struct {
	mu     sync.Mutex
	level  Level
	format Format
	output io.Writer
}

var (
	defaultLogger = &Logger{
		level:  LevelInfo,
		format: FormatText,
		output: os.Stderr,
	}
)

// ParseFormat converts "text" or "json" to a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("unknown log format: %s (valid: text, json)", s)
	}
}

// ParseLevel converts a string to a Level
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "error":
		return LevelError, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	default:
		return LevelInfo, fmt.Errorf("unknown verbosity level: %s (valid: debug, info, warn, error)", s)
	}
}

// String returns the string representation of a level
func (l Level) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// SetLevel sets the global log level
func SetLevel(level Level) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.level = level
}

// SetFormat sets the global log format. Unknown names fall back to text.
func SetFormat(name string) {
	f, _ := ParseFormat(name)
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.format = f
}

// SetOutput sets the output destination for logging. nil restores stderr.
func SetOutput(w io.Writer) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	defaultLogger.output = w
}

// GetLevel returns the current log level
func GetLevel() Level {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	return defaultLogger.level
}

// Debug logs a debug message
func Debug(format string, args ...interface{}) {
	defaultLogger.log(LevelDebug, format, args...)
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	defaultLogger.log(LevelInfo, format, args...)
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	defaultLogger.log(LevelWarn, format, args...)
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	defaultLogger.log(LevelError, format, args...)
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level > l.level {
		return
	}

	msg := fmt.Sprintf(format, args...)
	if l.format == FormatJSON {
		l.writeJSON(level, msg)
		return
	}
	if strings.HasPrefix(msg, "\n") {
		// Handle leading newlines (preserve blank line formatting)
		msg = strings.TrimPrefix(msg, "\n")
		fmt.Fprint(l.output, "\n")
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	fmt.Fprintf(l.output, "%s [%s] %s", timestamp, level.String(), msg)
}

func (l *Logger) writeJSON(level Level, msg string) {
	entry := struct {
		TS    string `json:"ts"`
		Level string `json:"level"`
		Msg   string `json:"msg"`
	}{
		TS:    time.Now().UTC().Format(time.RFC3339Nano),
		Level: strings.ToLower(level.String()),
		Msg:   strings.TrimSpace(msg),
	}
	b, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(l.output, "{\"level\":\"error\",\"msg\":%q}\n", err.Error())
		return
	}
	l.output.Write(append(b, '\n'))
}

// IsDebug returns true if debug level is enabled
func IsDebug() bool {
	return GetLevel() >= LevelDebug
}
