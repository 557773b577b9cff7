// Package shared holds state set by the root command's persistent flags.
package shared

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"upload-ai/internal/app/common"
	"upload-ai/internal/config"
)

var (
	ConfigPath string
	Verbose    bool
)

// Load reads the configuration and builds the logger. A quiet command without --verbose
// only logs warnings and errors, so progress output stays readable.
func Load(quiet bool) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(ConfigPath)
	if err != nil {
		return nil, nil, err
	}

	logger, err := common.NewLogger(cfg.Development())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	if quiet && !Verbose {
		logger = logger.WithOptions(zap.IncreaseLevel(zapcore.WarnLevel))
	}
	return cfg, logger, nil
}
