// Package zaplogger adapts go.uber.org/zap to the applog.Logger
// interface so the core packages never import zap directly.
package zaplogger

import (
	"github.com/attenditechnology/attendi-capture-core/internal/applog"
	"go.uber.org/zap"
)

// StdLogger wraps a *zap.SugaredLogger.
type StdLogger struct {
	sugar *zap.SugaredLogger
}

// New builds a production zap.Logger (JSON encoding, info level) and
// wraps it.
func New() (*StdLogger, error) {
	z, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return &StdLogger{sugar: z.Sugar()}, nil
}

// Wrap adapts an existing *zap.Logger.
func Wrap(z *zap.Logger) *StdLogger {
	return &StdLogger{sugar: z.Sugar()}
}

var _ applog.Logger = (*StdLogger)(nil)

func (l *StdLogger) Debug(msg string, args ...interface{}) { l.sugar.Debugw(msg, args...) }
func (l *StdLogger) Info(msg string, args ...interface{})  { l.sugar.Infow(msg, args...) }
func (l *StdLogger) Warn(msg string, args ...interface{})  { l.sugar.Warnw(msg, args...) }
func (l *StdLogger) Error(msg string, args ...interface{}) { l.sugar.Errorw(msg, args...) }

// Sync flushes any buffered log entries. Callers should defer Sync at
// process shutdown.
func (l *StdLogger) Sync() error {
	return l.sugar.Sync()
}
