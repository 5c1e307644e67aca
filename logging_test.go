package sightline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger() (*ZapLogger, *observer.ObservedLogs) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	core, logs := observer.New(level)
	return NewZapLoggerWithCore(core, level), logs
}

func TestZapLogger_Levels(t *testing.T) {
	log, logs := newObservedLogger()

	log.Debugf("hidden %d", 1)
	log.Infof("shown %d", 2)
	log.Warnf("warn")
	log.Errorf("error")

	entries := logs.TakeAll()
	require.Len(t, entries, 3)
	assert.Equal(t, "shown 2", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}

func TestZapLogger_SetDebug(t *testing.T) {
	log, logs := newObservedLogger()
	child := log.Named("occlusion")
	assert.False(t, log.DebugEnabled())

	log.SetDebug(true)
	assert.True(t, child.DebugEnabled(), "children share the level")
	child.Debugf("fading %d", 3)
	require.Equal(t, 1, logs.FilterMessage("fading 3").Len())
	assert.Equal(t, "occlusion", logs.All()[0].LoggerName)

	log.SetDebug(false)
	assert.False(t, log.DebugEnabled())
	log.Debugf("dropped")
	assert.Zero(t, logs.FilterMessage("dropped").Len())
}

func TestZapLogger_SetDebugKeepsStricterLevel(t *testing.T) {
	level := zap.NewAtomicLevelAt(zapcore.WarnLevel)
	core, _ := observer.New(level)
	log := NewZapLoggerWithCore(core, level)

	log.SetDebug(false)
	assert.Equal(t, zapcore.WarnLevel, level.Level())
}

func TestNewZapLogger(t *testing.T) {
	log, err := NewZapLogger(LoggingConfig{Level: "debug", Format: "json", Prefix: "test"})
	require.NoError(t, err)
	assert.True(t, log.DebugEnabled())

	log, err = NewZapLogger(LoggingConfig{Level: "bogus"})
	require.NoError(t, err)
	assert.False(t, log.DebugEnabled(), "unknown levels fall back to info")
}

func TestLoggingModule(t *testing.T) {
	app, cmd := newTestApp(LoggingModule{Config: LoggingConfig{Level: "info"}, Debug: true})

	log, ok := app.Logger().(*ZapLogger)
	require.True(t, ok)
	assert.True(t, log.DebugEnabled())
	assert.Same(t, log, cmd.Logger())
}

func TestNopLogger(t *testing.T) {
	app, _ := newTestApp()
	log := app.Logger()

	assert.IsType(t, &nopLogger{}, log)
	assert.NotPanics(t, func() {
		log.SetDebug(true)
		log.Debugf("x")
		log.Errorf("y")
	})
	assert.False(t, log.DebugEnabled())

	var nilApp *App
	assert.NotNil(t, nilApp.Logger())
}
