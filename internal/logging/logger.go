// Package logging builds the ectologger instance shared by every component.
// Log entries are handed to a zap sink so output matches the other services.
package logging

import (
	"github.com/Gobusters/ectologger"
	"go.uber.org/zap"
)

// New returns a logger whose entries are emitted through zap. Pass
// pretty=true for a development console encoder.
func New(level string, pretty bool) (ectologger.Logger, error) {
	cfg := zap.NewProductionConfig()
	if pretty {
		cfg = zap.NewDevelopmentConfig()
	}
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		cfg.Level = lvl
	}

	zlog, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}

	logger := ectologger.NewEctoLogger(func(msg ectologger.EctoLogMessage) {
		zlog.Info("log", zap.Any("entry", msg))
	})
	return logger, nil
}

// NewNop returns a logger that discards everything. Used by tests.
func NewNop() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}
