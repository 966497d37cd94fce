// Package logrus adapts a *logrus.Logger to the bunlock log.Logger
// interface, as an alternate backend to the zap default.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/lockscan/bunlock/internal/log"
)

// Logger wraps a *logrus.Logger.
type Logger struct{ L *logrus.Logger }

// New builds a Logger backed by logrus' default text formatter.
func New() Logger {
	return Logger{L: logrus.StandardLogger()}
}

func (l Logger) Debug(msg string, f log.Fields) { l.entry(f).Debug(msg) }
func (l Logger) Info(msg string, f log.Fields)  { l.entry(f).Info(msg) }
func (l Logger) Warn(msg string, f log.Fields)  { l.entry(f).Warn(msg) }
func (l Logger) Error(msg string, f log.Fields) { l.entry(f).Error(msg) }

func (l Logger) entry(f log.Fields) *logrus.Entry {
	return l.L.WithFields(logrus.Fields(f))
}
