// internal/infrastructure/logger/logger_test.go
package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	logger.Debug("Debug message", map[string]interface{}{
		"base": "eur",
	})

	var logEntry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "debug", logEntry["level"])
	assert.Equal(t, "Debug message", logEntry["message"])
	assert.Equal(t, "eur", logEntry["base"])
	assert.Contains(t, logEntry, "timestamp")
	assert.Contains(t, logEntry, "file")

	// Levels below the threshold are dropped
	buf.Reset()
	warnLogger := NewJSONLogger(&buf, WarnLevel)
	warnLogger.Debug("Should not appear", nil)
	warnLogger.Info("Should not appear either", nil)
	assert.Equal(t, "", buf.String())

	warnLogger.Warn("Warning message", nil)
	assert.Contains(t, buf.String(), "Warning message")

	buf.Reset()
	fieldLogger := logger.WithField("component", "snapshot_cache")
	fieldLogger.Info("With field", nil)

	logEntry = map[string]interface{}{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "snapshot_cache", logEntry["component"])
	assert.Equal(t, "With field", logEntry["message"])

	buf.Reset()
	fieldsLogger := logger.WithFields(map[string]interface{}{
		"base":   "usd",
		"target": "try",
	})
	fieldsLogger.Info("With fields", map[string]interface{}{"day": "2024-01-02"})

	logEntry = map[string]interface{}{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "usd", logEntry["base"])
	assert.Equal(t, "try", logEntry["target"])
	assert.Equal(t, "2024-01-02", logEntry["day"])
}

func TestLoggerReportsCallSite(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	logger.WithField("component", "cache").Warn("from the test", nil)

	var logEntry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.True(t, strings.HasSuffix(logEntry["file"].(string), "logger_test.go"), logEntry["file"])
	assert.NotZero(t, logEntry["line"])
	assert.NotContains(t, logEntry, "func")

	// package level functions report their caller too
	buf.Reset()
	previous := GetDefaultLogger()
	SetDefaultLogger(logger)
	defer SetDefaultLogger(previous)

	Info("through the default logger", nil)

	logEntry = map[string]interface{}{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.True(t, strings.HasSuffix(logEntry["file"].(string), "logger_test.go"), logEntry["file"])
}

func TestWithFieldsEmptyReturnsSameLogger(t *testing.T) {
	logger := NewJSONLogger(&bytes.Buffer{}, InfoLevel)
	assert.Same(t, logger, logger.WithFields(nil))
}

func TestTextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, InfoLevel, "text")

	logger.Info("plain output", map[string]interface{}{"base": "gbp"})

	assert.Contains(t, buf.String(), "plain output")
	assert.Contains(t, buf.String(), "base=gbp")
	assert.Contains(t, buf.String(), "logger_test.go")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", DebugLevel},
		{"INFO", InfoLevel},
		{"warn", WarnLevel},
		{"warning", WarnLevel},
		{" error ", ErrorLevel},
		{"fatal", FatalLevel},
		{"verbose", InfoLevel},
		{"", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestSetDefaultLogger(t *testing.T) {
	originalLogger := GetDefaultLogger()
	defer SetDefaultLogger(originalLogger)

	var buf bytes.Buffer
	SetDefaultLogger(NewJSONLogger(&buf, DebugLevel))

	Info("through the package helper", nil)
	assert.Contains(t, buf.String(), "through the package helper")

	// nil is ignored
	SetDefaultLogger(nil)
	assert.NotNil(t, GetDefaultLogger())
}
