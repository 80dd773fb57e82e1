package helpers

import (
	"fmt"
	"os"
	"sync"
	"time"

	"sjsage522/foreclosureworker/logger"
)

// LoggerInterface defines the interface for failure journal implementations
type LoggerInterface interface {
	LogError(component string, err error)
	LogInfo(format string, args ...interface{})
}

// Logger appends failures to a plain-text journal alongside the structured log,
// so an operator can review a night's skipped towns and cases in one file.
type Logger struct {
	mu        sync.Mutex
	errorFile string
}

// NewLogger creates a new journal writing to errorFile
func NewLogger(errorFile string) *Logger {
	return &Logger{
		errorFile: errorFile,
	}
}

// LogError logs an error to the journal with component name and timestamp
func (l *Logger) LogError(component string, err error) {
	logger.LogError(component, err, "recorded failure")

	if l.errorFile == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, fileErr := os.OpenFile(l.errorFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if fileErr != nil {
		logger.Error("failed to open error journal %s: %v", l.errorFile, fileErr)
		return
	}
	defer f.Close()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(f, "[%s] [%s] %s\n", timestamp, component, err.Error())
}

// LogInfo logs an informational message
func (l *Logger) LogInfo(format string, args ...interface{}) {
	logger.Info(format, args...)
}
