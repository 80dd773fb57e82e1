package logger

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(zerolog.New(&buf)).WithFields(Fields{"town": "Bethel"})

	l.Info().Str("docket", "DBD-CV23-6045123-S").Msg("case scraped")

	assert.Contains(t, buf.String(), `"town":"Bethel"`)
	assert.Contains(t, buf.String(), `"docket":"DBD-CV23-6045123-S"`)
	assert.Contains(t, buf.String(), `"message":"case scraped"`)
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l := New(zerolog.New(&buf)).WithError(errors.New("boom"))

	l.Warn().Msg("detail failed")

	assert.Contains(t, buf.String(), `"error":"boom"`)
}

func TestGetLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	assert.Equal(t, zerolog.WarnLevel, getLogLevel())

	t.Setenv("LOG_LEVEL", "nonsense")
	assert.Equal(t, zerolog.InfoLevel, getLogLevel())

	t.Setenv("LOG_LEVEL", "")
	t.Setenv("FORECLOSURE_ENVIRONMENT", "production")
	assert.Equal(t, zerolog.InfoLevel, getLogLevel())

	t.Setenv("FORECLOSURE_ENVIRONMENT", "development")
	assert.Equal(t, zerolog.DebugLevel, getLogLevel())
}

func TestComponentLoggers(t *testing.T) {
	Init()
	assert.NotNil(t, ForCrawler("discovery"))
	assert.NotNil(t, ForPipeline("Bethel"))
	assert.NotNil(t, ForWorker())
	assert.NotNil(t, ForStore())
	assert.NotNil(t, ForPublisher())
	assert.NotNil(t, ForCache())
}

func TestNewWriter(t *testing.T) {
	assert.Equal(t, os.Stdout, newWriter(true))
	_, console := newWriter(false).(zerolog.ConsoleWriter)
	assert.True(t, console)
}
