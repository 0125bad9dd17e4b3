package logger

import (
	"go.uber.org/zap"
)

var log *zap.Logger

// Init builds the process-wide logger. Call once from main.
func Init() error {
	l, err := zap.NewProduction()
	if err != nil {
		return err
	}
	log = l
	return nil
}

// L returns the process-wide logger; a no-op logger before Init so that
// library code and tests can log unconditionally.
func L() *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
