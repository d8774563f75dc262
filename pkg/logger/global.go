package logger

import (
	"os"
	"sync"
)

var (
	globalLogger *Logger
	mu           sync.RWMutex
	once         sync.Once
)

// GetLogger returns the global logger instance
func GetLogger() *Logger {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		if globalLogger != nil {
			return
		}

		defaultLevel := "info"
		if os.Getenv("DEBUG") == "true" {
			defaultLevel = "debug"
		} else if os.Getenv("LOG_LEVEL") != "" {
			defaultLevel = os.Getenv("LOG_LEVEL")
		}

		globalLogger = New(Config{
			Level:  defaultLevel,
			Format: "json",
			Output: "stdout",
		})
	})

	mu.RLock()
	defer mu.RUnlock()
	return globalLogger
}

// SetLogger replaces the global logger. Components capture their logger at
// construction time, so call this before wiring the application.
func SetLogger(logger *Logger) {
	once.Do(func() {})
	mu.Lock()
	globalLogger = logger
	mu.Unlock()
	SetGlobalLogger(logger)
}

// Init builds a logger from config and installs it globally.
func Init(config Config) *Logger {
	l := New(config)
	SetLogger(l)
	return l
}

// Debug logs a debug message
func Debug(msg string) {
	GetLogger().Debug(msg)
}

// Info logs an info message
func Info(msg string) {
	GetLogger().Info(msg)
}

// Warn logs a warning message
func Warn(msg string) {
	GetLogger().Warn(msg)
}

// Error logs an error message
func Error(msg string) {
	GetLogger().Error(msg)
}

// WithField adds a field to the logger
func WithField(key string, value interface{}) *Logger {
	return GetLogger().WithField(key, value)
}

// WithFields adds multiple fields to the logger
func WithFields(fields map[string]interface{}) *Logger {
	return GetLogger().WithFields(fields)
}

// WithError adds an error to the logger
func WithError(err error) *Logger {
	return GetLogger().WithError(err)
}
