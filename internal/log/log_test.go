package log

import "testing"

func TestNopLoggerNeverPanics(t *testing.T) {
	var l Logger = NopLogger{}
	l.Debug("msg", Fields{"k": "v"})
	l.Info("msg", nil)
	l.Warn("msg", Fields{})
	l.Error("msg", Fields{"n": 1})
}
