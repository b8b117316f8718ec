// Package util carries the shared logging infrastructure.
package util

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel orders message severities. Messages below the logger's level
// are dropped.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[LogLevel]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

func parseLogLevel(levelStr string) LogLevel {
	switch strings.ToLower(levelStr) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Field is one key-value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// LogFormat selects how entries are serialized.
type LogFormat string

const (
	FormatText LogFormat = "text"
	FormatJSON LogFormat = "json"
)

// Output is a destination log entries get written to.
type Output interface {
	Write(entry LogEntry) error
	Close() error
}

// LogEntry is one serializable log record.
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Logger fans entries out to its outputs, filtered by level.
type Logger struct {
	level   LogLevel
	outputs []Output
	mu      sync.RWMutex
}

// NewLogger creates a logger writing to the given file, plus the console
// when debugToConsole is set. With neither destination available it falls
// back to console output so logging never disables itself.
func NewLogger(levelStr string, logFile string, debugToConsole bool) *Logger {
	logger := &Logger{level: parseLogLevel(levelStr)}

	if debugToConsole {
		logger.AddOutput(NewConsoleOutput(os.Stderr, FormatText))
	}
	if logFile != "" {
		if fileOutput, err := NewFileOutput(logFile, FormatText); err != nil {
			log.Printf("Failed to open log file %s: %v", logFile, err)
		} else {
			logger.AddOutput(fileOutput)
		}
	}
	if len(logger.outputs) == 0 {
		logger.AddOutput(NewConsoleOutput(os.Stderr, FormatText))
	}

	return logger
}

// SetLevel changes the minimum level that gets written.
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// AddOutput attaches another output destination.
func (l *Logger) AddOutput(output Output) {
	l.mu.Lock()
	l.outputs = append(l.outputs, output)
	l.mu.Unlock()
}

func (l *Logger) log(level LogLevel, msg string, fields []Field) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if level < l.level {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     level.String(),
		Message:   msg,
	}
	if len(fields) > 0 {
		entry.Fields = make(map[string]interface{}, len(fields))
		for _, field := range fields {
			entry.Fields[field.Key] = field.Value
		}
	}

	for _, output := range l.outputs {
		if err := output.Write(entry); err != nil {
			log.Printf("Failed to write log entry: %v", err)
		}
	}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.log(LevelDebug, msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.log(LevelInfo, msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.log(LevelWarn, msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.log(LevelError, msg, fields) }

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(LevelDebug, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(LevelInfo, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(LevelWarn, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log(LevelError, fmt.Sprintf(format, args...), nil)
}
