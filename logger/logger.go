package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger represents a structured logger
type Logger struct {
	logger zerolog.Logger
}

// Fields represents log fields
type Fields map[string]interface{}

var (
	// Default is the default logger instance
	Default *Logger
)

// Init initializes the default logger. Production writes JSON lines to
// stdout, anything else a human-readable console.
func Init() {
	level := getLogLevel()

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(level)

	Default = New(zerolog.New(newWriter(isProduction())).With().Timestamp().Logger())
	Default.Debug().
		Str("level", level.String()).
		Msg("Logger initialized")
}

func newWriter(production bool) io.Writer {
	if production {
		return os.Stdout
	}
	return zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
}

func isProduction() bool {
	return os.Getenv("FORECLOSURE_ENVIRONMENT") == "production"
}

// getLogLevel reads LOG_LEVEL, defaulting to info in production and debug elsewhere
func getLogLevel() zerolog.Level {
	levelStr := os.Getenv("LOG_LEVEL")
	if levelStr == "" {
		if isProduction() {
			return zerolog.InfoLevel
		}
		return zerolog.DebugLevel
	}

	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// New wraps an existing zerolog logger, mostly useful in tests
func New(l zerolog.Logger) *Logger {
	return &Logger{logger: l}
}

// WithFields creates a new logger with fields
func (l *Logger) WithFields(fields Fields) *Logger {
	return &Logger{logger: l.logger.With().Fields(map[string]interface{}(fields)).Logger()}
}

// WithField creates a new logger with a single field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{logger: l.logger.With().Interface(key, value).Logger()}
}

// WithError adds an error to the logger
func (l *Logger) WithError(err error) *Logger {
	return &Logger{logger: l.logger.With().Err(err).Logger()}
}

func (l *Logger) Debug() *zerolog.Event { return l.logger.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.logger.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.logger.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.logger.Error() }

func ensure() *Logger {
	if Default == nil {
		Init()
	}
	return Default
}

// Debug logs a printf-style debug message on the default logger
func Debug(format string, v ...interface{}) {
	ensure().Debug().Msgf(format, v...)
}

// Info logs a printf-style info message on the default logger
func Info(format string, v ...interface{}) {
	ensure().Info().Msgf(format, v...)
}

// Warn logs a printf-style warning on the default logger
func Warn(format string, v ...interface{}) {
	ensure().Warn().Msgf(format, v...)
}

// Error logs a printf-style error on the default logger
func Error(format string, v ...interface{}) {
	ensure().Error().Msgf(format, v...)
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return ensure().logger.GetLevel() <= zerolog.DebugLevel && zerolog.GlobalLevel() <= zerolog.DebugLevel
}

func component(name string) *Logger {
	return ensure().WithField("component", name)
}

// ForCrawler creates a logger for a specific crawler
func ForCrawler(crawlerName string) *Logger {
	return component("crawler").WithField("crawler", crawlerName)
}

// ForPipeline creates a logger for one town's pipeline run
func ForPipeline(town string) *Logger {
	return component("pipeline").WithField("town", town)
}

func ForWorker() *Logger    { return component("worker") }
func ForStore() *Logger     { return component("store") }
func ForPublisher() *Logger { return component("publisher") }
func ForCache() *Logger     { return component("cache") }

// LogError logs err at error level under component
func LogError(component string, err error, format string, v ...interface{}) {
	ensure().Error().
		Str("component", component).
		Err(err).
		Msg(fmt.Sprintf(format, v...))
}
