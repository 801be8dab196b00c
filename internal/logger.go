// Package internal carries the logging interface shared by every package in
// this module, so call sites never import zap directly.
package internal

import (
	"go.uber.org/zap"
)

// Logger is the narrow interface every package depends on instead of zap
// directly, so tests can swap in NopLogger() without constructing a real
// zap core.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	With(keysAndValues ...any) Logger
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)     {}
func (nopLogger) Infof(string, ...any)      {}
func (nopLogger) Warnf(string, ...any)      {}
func (nopLogger) Errorf(string, ...any)     {}
func (n nopLogger) With(...any) Logger      { return n }

// NopLogger returns a Logger that discards everything, for tests and for
// callers that haven't wired a real sink yet.
func NopLogger() Logger {
	return nopLogger{}
}

// ZapLogger adapts a *zap.SugaredLogger to Logger.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger wraps a caller-supplied zap logger. Passing nil builds a
// development logger (console encoding, debug level) suitable for local
// runs; production wiring should construct its own zap.Logger and pass it
// in so log shipping/sampling config lives outside this module.
func NewZapLogger(z *zap.Logger) *ZapLogger {
	if z == nil {
		z, _ = zap.NewDevelopment()
	}
	return &ZapLogger{sugar: z.Sugar()}
}

func (l *ZapLogger) Debugf(format string, args ...any) { l.sugar.Debugf(format, args...) }
func (l *ZapLogger) Infof(format string, args ...any)  { l.sugar.Infof(format, args...) }
func (l *ZapLogger) Warnf(format string, args ...any)  { l.sugar.Warnf(format, args...) }
func (l *ZapLogger) Errorf(format string, args ...any) { l.sugar.Errorf(format, args...) }

// With returns a child logger carrying the given structured fields, matching
// zap's "sugared with" convention (alternating key, value).
func (l *ZapLogger) With(keysAndValues ...any) Logger {
	return &ZapLogger{sugar: l.sugar.With(keysAndValues...)}
}
