// Package logger internal/infrastructure/logger/logger.go
package logger

import (
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// Level represents the severity level of a log message
type Level string

const (
	// DebugLevel is used for development messages
	DebugLevel Level = "DEBUG"
	// InfoLevel is used for general operational information
	InfoLevel Level = "INFO"
	// WarnLevel is used for warnings and potential issues
	WarnLevel Level = "WARN"
	// ErrorLevel is used for errors and unexpected events
	ErrorLevel Level = "ERROR"
	// FatalLevel is used for critical errors that require termination
	FatalLevel Level = "FATAL"
)

// ParseLevel converts a configuration string such as "warn" into a Level.
// Unknown values fall back to InfoLevel.
func ParseLevel(value string) Level {
	switch Level(strings.ToUpper(strings.TrimSpace(value))) {
	case DebugLevel:
		return DebugLevel
	case WarnLevel, "WARNING":
		return WarnLevel
	case ErrorLevel:
		return ErrorLevel
	case FatalLevel:
		return FatalLevel
	default:
		return InfoLevel
	}
}

func (l Level) logrusLevel() logrus.Level {
	switch l {
	case DebugLevel:
		return logrus.DebugLevel
	case WarnLevel:
		return logrus.WarnLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	case FatalLevel:
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

// Logger defines the interface for the application logger
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	Fatal(msg string, fields map[string]interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

// StructuredLogger writes leveled records with fields, as JSON or text
type StructuredLogger struct {
	entry *logrus.Entry
}

// frames between a caller and log: the exported method and log itself
const callerSkip = 2

// NewJSONLogger creates a new JSON logger
func NewJSONLogger(output io.Writer, level Level) *StructuredLogger {
	return newLogger(output, level, &logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.999999999Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyMsg:   "message",
			logrus.FieldKeyLevel: "level",
		},
	})
}

// NewTextLogger creates a logger with human readable key=value output
func NewTextLogger(output io.Writer, level Level) *StructuredLogger {
	return newLogger(output, level, &logrus.TextFormatter{
		FullTimestamp: true,
	})
}

// New picks the JSON or text logger based on format ("json" or "text")
func New(output io.Writer, level Level, format string) *StructuredLogger {
	if strings.EqualFold(format, "text") {
		return NewTextLogger(output, level)
	}
	return NewJSONLogger(output, level)
}

func newLogger(output io.Writer, level Level, formatter logrus.Formatter) *StructuredLogger {
	if output == nil {
		output = os.Stdout
	}

	base := logrus.New()
	base.SetOutput(output)
	base.SetLevel(level.logrusLevel())
	base.SetFormatter(formatter)

	return &StructuredLogger{entry: logrus.NewEntry(base)}
}

// WithField returns a new logger with the field added to the log context
func (l *StructuredLogger) WithField(key string, value interface{}) Logger {
	return &StructuredLogger{entry: l.entry.WithField(key, value)}
}

// WithFields returns a new logger with the fields added to the log context
func (l *StructuredLogger) WithFields(fields map[string]interface{}) Logger {
	if len(fields) == 0 {
		return l
	}
	return &StructuredLogger{entry: l.entry.WithFields(fields)}
}

// Debug logs a message at debug level
func (l *StructuredLogger) Debug(msg string, fields map[string]interface{}) {
	l.log(callerSkip, logrus.DebugLevel, msg, fields)
}

// Info logs a message at info level
func (l *StructuredLogger) Info(msg string, fields map[string]interface{}) {
	l.log(callerSkip, logrus.InfoLevel, msg, fields)
}

// Warn logs a message at warn level
func (l *StructuredLogger) Warn(msg string, fields map[string]interface{}) {
	l.log(callerSkip, logrus.WarnLevel, msg, fields)
}

// Error logs a message at error level
func (l *StructuredLogger) Error(msg string, fields map[string]interface{}) {
	l.log(callerSkip, logrus.ErrorLevel, msg, fields)
}

// Fatal logs a message at fatal level and then terminates the program
func (l *StructuredLogger) Fatal(msg string, fields map[string]interface{}) {
	l.log(callerSkip, logrus.FatalLevel, msg, fields)
}

func (l *StructuredLogger) log(skip int, level logrus.Level, msg string, fields map[string]interface{}) {
	if !l.entry.Logger.IsLevelEnabled(level) {
		return
	}

	// Get caller info
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		file = "unknown"
		line = 0
	}

	entry := l.entry.WithFields(fields).WithFields(logrus.Fields{
		"file": file,
		"line": line,
	})
	if level == logrus.FatalLevel {
		entry.Fatal(msg)
		return
	}
	entry.Log(level, msg)
}

// Default logger instances
var (
	defaultLogger Logger = NewJSONLogger(os.Stdout, InfoLevel)
)

// GetDefaultLogger returns the default logger
func GetDefaultLogger() Logger {
	return defaultLogger
}

// SetDefaultLogger sets the default logger
func SetDefaultLogger(logger Logger) {
	if logger != nil {
		defaultLogger = logger
	}
}

// Debug Global logger functions
func Debug(msg string, fields map[string]interface{}) {
	logDefault(logrus.DebugLevel, msg, fields, defaultLogger.Debug)
}

func Info(msg string, fields map[string]interface{}) {
	logDefault(logrus.InfoLevel, msg, fields, defaultLogger.Info)
}

func Warn(msg string, fields map[string]interface{}) {
	logDefault(logrus.WarnLevel, msg, fields, defaultLogger.Warn)
}

func Error(msg string, fields map[string]interface{}) {
	logDefault(logrus.ErrorLevel, msg, fields, defaultLogger.Error)
}

func Fatal(msg string, fields map[string]interface{}) {
	logDefault(logrus.FatalLevel, msg, fields, defaultLogger.Fatal)
}

// logDefault keeps the caller of the package functions as the reported site
func logDefault(level logrus.Level, msg string, fields map[string]interface{}, fallback func(string, map[string]interface{})) {
	if l, ok := defaultLogger.(*StructuredLogger); ok {
		l.log(callerSkip+1, level, msg, fields)
		return
	}
	fallback(msg, fields)
}
