package shared

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"upload-ai/internal/config"
)

func TestLoad(t *testing.T) {
	t.Setenv(config.EnvEnvironment, "production")
	t.Setenv(config.EnvServiceURL, "")
	path := filepath.Join(t.TempDir(), "uploadai.yaml")
	require.NoError(t, os.WriteFile(path, []byte("service:\n  base_url: https://upload.example.com\n"), 0o644))

	ConfigPath = path
	t.Cleanup(func() { ConfigPath, Verbose = "", false })

	cfg, logger, err := Load(true)
	require.NoError(t, err)
	assert.Equal(t, "https://upload.example.com", cfg.Service.BaseURL)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))

	Verbose = true
	_, logger, err = Load(true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))

	Verbose = false
	_, logger, err = Load(false)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
}

func TestLoadInvalidConfig(t *testing.T) {
	t.Setenv(config.EnvServiceURL, "localhost")
	_, _, err := Load(true)
	assert.Error(t, err)
}
