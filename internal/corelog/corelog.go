// Package corelog is the structured logger shared by bootstrap and by
// the rare write-gated patch operations. Request-scoped logging within
// the facade takes a *zap.Logger explicitly rather than reaching for
// this package-level instance, so that tests can inject an observer.
package corelog

import (
	"sync"

	"go.uber.org/zap"
)

var (
	log *zap.Logger
	mu  sync.Mutex
)

// Init installs the process-wide logger. level is one of zap's
// standard level names ("debug", "info", "warn", "error"); an unknown
// or empty value falls back to "info".
func Init(level string) *zap.Logger {
	mu.Lock()
	defer mu.Unlock()

	cfg := zap.NewProductionConfig()
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		cfg.Level = lvl
	}
	l, err := cfg.Build()
	if err != nil {
		l = zap.NewNop()
	}
	log = l
	log.Info("logger initialized", zap.String("level", level))
	return log
}

// L returns the process-wide logger, falling back to a no-op logger
// if Init was never called (e.g. in unit tests that don't care about
// log output).
func L() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if log == nil {
		return zap.NewNop()
	}
	return log
}
