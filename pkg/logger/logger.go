// Package logger provides the leveled, structured logger used across licensescan.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents the severity level of log messages
type Level int

const (
	TraceLevel Level = iota
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case TraceLevel:
		return "TRACE"
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a flag value to a Level, falling back to InfoLevel.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return TraceLevel
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Config holds the logger configuration
type Config struct {
	Level     Level
	UseColor  bool
	JSON      bool
	Component string
	// Output defaults to os.Stderr when nil.
	Output io.Writer
}

// Logger writes leveled entries to a single writer.
type Logger struct {
	config Config
	mu     sync.Mutex
	out    io.Writer
}

var defaultLogger *Logger

// New builds a Logger without installing it as the default.
func New(config Config) *Logger {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	return &Logger{config: config, out: out}
}

// Initialize sets up the default logger
func Initialize(config Config) error {
	if config.Level < TraceLevel || config.Level > ErrorLevel {
		return fmt.Errorf("invalid log level: %d", config.Level)
	}
	defaultLogger = New(config)
	return nil
}

// Log writes a log message
func (l *Logger) Log(level Level, message string, fields ...Field) {
	if level < l.config.Level {
		return
	}

	entry := LogEntry{
		Time:      time.Now(),
		Level:     level.String(),
		Message:   message,
		Component: l.config.Component,
	}
	if len(fields) > 0 {
		entry.Fields = make(map[string]interface{}, len(fields))
		for _, field := range fields {
			entry.Fields[field.Key] = field.Value
		}
	}

	if level <= DebugLevel {
		if _, file, line, ok := runtime.Caller(2); ok {
			entry.File = file
			entry.Line = line
		}
	}

	var output string
	if l.config.JSON {
		data, err := json.Marshal(entry)
		if err != nil {
			output = fmt.Sprintf(`{"level":"ERROR","message":"log marshal failed: %v"}`, err)
		} else {
			output = string(data)
		}
	} else {
		output = l.formatPretty(entry)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.out, output+"\n")
}

var levelColors = map[string]string{
	"TRACE": "\033[37m",
	"DEBUG": "\033[36m",
	"INFO":  "\033[32m",
	"WARN":  "\033[33m",
	"ERROR": "\033[31m",
}

func (l *Logger) formatPretty(entry LogEntry) string {
	var b strings.Builder

	b.WriteString(entry.Time.Format("2006-01-02 15:04:05"))

	level := entry.Level
	if l.config.UseColor {
		if color, ok := levelColors[level]; ok {
			level = color + level + "\033[0m"
		}
	}
	fmt.Fprintf(&b, " [%s]", level)

	if entry.Component != "" {
		fmt.Fprintf(&b, " %s:", entry.Component)
	}
	b.WriteString(" ")
	b.WriteString(entry.Message)

	// Keys are sorted so repeated runs produce identical lines.
	if len(entry.Fields) > 0 {
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, entry.Fields[k])
		}
		b.WriteString("}")
	}

	if entry.File != "" {
		fmt.Fprintf(&b, " (%s:%d)", entry.File, entry.Line)
	}

	return b.String()
}

// Field represents a structured field in a log entry
type Field struct {
	Key   string
	Value interface{}
}

// String creates a string field
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an int field
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a bool field
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Duration creates a duration field
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Err creates an error field
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: "<nil>"}
	}
	return Field{Key: "error", Value: err.Error()}
}

// LogEntry represents a log entry
type LogEntry struct {
	Time      time.Time              `json:"time"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Component string                 `json:"component,omitempty"`
	File      string                 `json:"file,omitempty"`
	Line      int                    `json:"line,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Convenience functions for default logger
func Trace(message string, fields ...Field) {
	if defaultLogger != nil {
		defaultLogger.Log(TraceLevel, message, fields...)
	}
}

func Debug(message string, fields ...Field) {
	if defaultLogger != nil {
		defaultLogger.Log(DebugLevel, message, fields...)
	}
}

func Info(message string, fields ...Field) {
	if defaultLogger != nil {
		defaultLogger.Log(InfoLevel, message, fields...)
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "[INFO] licensescan: %s\n", message)
	}
}

func Warn(message string, fields ...Field) {
	if defaultLogger != nil {
		defaultLogger.Log(WarnLevel, message, fields...)
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "[WARN] licensescan: %s\n", message)
	}
}

func Error(message string, fields ...Field) {
	if defaultLogger != nil {
		defaultLogger.Log(ErrorLevel, message, fields...)
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "[ERROR] licensescan: %s\n", message)
	}
}

// SetOutput redirects the default logger.
func SetOutput(w io.Writer) {
	if defaultLogger != nil {
		defaultLogger.mu.Lock()
		defaultLogger.out = w
		defaultLogger.mu.Unlock()
	}
}
