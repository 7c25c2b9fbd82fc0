// Package telemetry owns logging and metrics construction so the rest
// of the tree only ever receives injected handles.
package telemetry

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger builds the process logger. Level is one of debug, info,
// warn, error; dev switches to the human-readable console encoder.
func NewLogger(level string, dev bool) (*zap.Logger, error) {
	var cfg zap.Config
	if dev {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		cfg.Level = lvl
	}
	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return log, nil
}
