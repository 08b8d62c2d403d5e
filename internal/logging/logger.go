// Package logging wraps zap with the leveling and field conventions used
// across minigit's components.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	*zap.Logger
}

// New builds a console-encoded logger at the given level ("debug", "info",
// "warn", "error"). An empty level defaults to "info".
func New(level string) (*Logger, error) {
	if level == "" {
		level = "info"
	}

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.DisableStacktrace = true

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{logger}, nil
}

// Noop returns a logger that discards everything, used by components that
// are handed no explicit logger (e.g. in tests).
func Noop() *Logger {
	return &Logger{zap.NewNop()}
}

// WithCommand returns a child logger tagged with the CLI command name that's
// currently executing.
func (l *Logger) WithCommand(name string) *zap.Logger {
	return l.With(zap.String("command", name))
}
