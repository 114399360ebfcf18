package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("DB_PATH", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("EXPORT_DIR", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "payroll.db", cfg.App.DBPath)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, "./reports", cfg.Export.Dir)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("DB_PATH", "/tmp/test.db")
	t.Setenv("EXPORT_DIR", "/tmp/reports")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.App.Port)
	assert.Equal(t, "/tmp/test.db", cfg.App.DBPath)
	assert.Equal(t, "/tmp/reports", cfg.Export.Dir)
}

func TestLoad_BadPort(t *testing.T) {
	t.Setenv("APP_PORT", "not-a-port")

	_, err := config.Load()
	assert.Error(t, err)
}
