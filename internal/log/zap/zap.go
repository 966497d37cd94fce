// Package zap adapts a *zap.Logger to the bunlock log.Logger interface.
package zap

import (
	"go.uber.org/zap"

	"github.com/lockscan/bunlock/internal/log"
)

// Logger wraps a *zap.Logger. Use New for a sane production default.
type Logger struct{ L *zap.Logger }

// New builds a Logger backed by zap's production encoder config.
func New() (Logger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return Logger{}, err
	}
	return Logger{L: l}, nil
}

func (z Logger) Debug(msg string, f log.Fields) { z.L.Debug(msg, zf(f)...) }
func (z Logger) Info(msg string, f log.Fields)  { z.L.Info(msg, zf(f)...) }
func (z Logger) Warn(msg string, f log.Fields)  { z.L.Warn(msg, zf(f)...) }
func (z Logger) Error(msg string, f log.Fields) { z.L.Error(msg, zf(f)...) }

func zf(f log.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(f))
	for k, v := range f {
		out = append(out, zap.Any(k, v))
	}
	return out
}
