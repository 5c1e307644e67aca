package sightline

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// ZapLogger adapts a sugared zap logger to Logger. SetDebug flips the
// shared atomic level, so loggers derived with Named follow it too.
type ZapLogger struct {
	level *zap.AtomicLevel
	sugar *zap.SugaredLogger
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // "console" or "json"
	Prefix string `yaml:"prefix" toml:"prefix"`
}

func NewZapLogger(cfg LoggingConfig) (*ZapLogger, error) {
	var zapConfig zap.Config
	if cfg.Format == "json" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	atomic := zap.NewAtomicLevelAt(level)
	zapConfig.Level = atomic
	zapConfig.Sampling = nil

	logger, err := zapConfig.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, err
	}
	if cfg.Prefix != "" {
		logger = logger.Named(cfg.Prefix)
	}

	return &ZapLogger{level: &atomic, sugar: logger.Sugar()}, nil
}

// NewZapLoggerWithCore wraps a prebuilt core. The core should be built with
// level as its enabler for SetDebug to have an effect.
func NewZapLoggerWithCore(core zapcore.Core, level zap.AtomicLevel) *ZapLogger {
	return &ZapLogger{level: &level, sugar: zap.New(core).Sugar()}
}

func (l *ZapLogger) DebugEnabled() bool {
	return l.level.Enabled(zapcore.DebugLevel)
}

func (l *ZapLogger) SetDebug(enabled bool) {
	if enabled {
		l.level.SetLevel(zapcore.DebugLevel)
	} else if l.level.Level() < zapcore.InfoLevel {
		l.level.SetLevel(zapcore.InfoLevel)
	}
}

func (l *ZapLogger) Debugf(format string, args ...any) { l.sugar.Debugf(format, args...) }
func (l *ZapLogger) Infof(format string, args ...any)  { l.sugar.Infof(format, args...) }
func (l *ZapLogger) Warnf(format string, args ...any)  { l.sugar.Warnf(format, args...) }
func (l *ZapLogger) Errorf(format string, args ...any) { l.sugar.Errorf(format, args...) }

// Named returns a child logger sharing this logger's level.
func (l *ZapLogger) Named(name string) *ZapLogger {
	return &ZapLogger{level: l.level, sugar: l.sugar.Named(name)}
}

func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}

// LoggingModule installs a zap backed logger as a resource.
type LoggingModule struct {
	Config LoggingConfig
	Debug  bool
}

func (m LoggingModule) Install(app *App, cmd *Commands) {
	logger, err := NewZapLogger(m.Config)
	if err != nil {
		panic(err)
	}
	if m.Debug {
		logger.SetDebug(true)
	}
	app.addResources(logger)
}

type nopLogger struct{}

func NewNopLogger() Logger { return &nopLogger{} }
func (n *nopLogger) DebugEnabled() bool                { return false }
func (n *nopLogger) SetDebug(enabled bool)             {}
func (n *nopLogger) Debugf(format string, args ...any) {}
func (n *nopLogger) Infof(format string, args ...any)  {}
func (n *nopLogger) Warnf(format string, args ...any)  {}
func (n *nopLogger) Errorf(format string, args ...any) {}

// Logger returns the first Logger resource if present, otherwise a no-op logger.
func (app *App) Logger() Logger {
	if app == nil {
		return NewNopLogger()
	}
	for _, r := range app.resources {
		if l, ok := r.(Logger); ok {
			return l
		}
	}
	return NewNopLogger()
}
