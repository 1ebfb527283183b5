package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 0.5, cfg.ACM.Gamma)
	assert.Equal(t, 25, cfg.ACM.VecSize)
	assert.Equal(t, 3, cfg.LM.Order)
	assert.Equal(t, "wittenbell", cfg.LM.Method)
	assert.Equal(t, "tg_", cfg.TGA.Prefix)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromPath_CreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err, "config file was not created")
	assert.Equal(t, Default(), cfg)

	cfg2, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, cfg2, "config values changed on reload")
}

func TestLoadFromPath_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "logging:\n  level: debug\nacm:\n  gamma: 0.8\nlm:\n  order: 2\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 0.8, cfg.ACM.Gamma)
	assert.Equal(t, 2, cfg.LM.Order)
	// Keys absent from the file keep their default.
	assert.Equal(t, "wittenbell", cfg.LM.Method)
	assert.Equal(t, []string{"#", "+", "sil", "sp"}, cfg.TGA.Silences)
}

func TestLoadFromPath_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	_, err := LoadFromPath(path)
	require.NoError(t, err)

	t.Setenv("SPPAS_ACM_GAMMA", "0.25")
	t.Setenv("SPPAS_LOGGING_LEVEL", "warn")
	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 0.25, cfg.ACM.Gamma)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadFromPath_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("acm:\n  gamma: 2\n"), 0644))
	_, err := LoadFromPath(path)
	assert.ErrorContains(t, err, "acm.gamma")
}

func TestSaveToPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.LM.Order = 4
	require.NoError(t, cfg.SaveToPath(path))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.LM.Order)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"level", func(c *Config) { c.Logging.Level = "trace" }},
		{"gamma", func(c *Config) { c.ACM.Gamma = -0.1 }},
		{"vec_size", func(c *Config) { c.ACM.VecSize = 0 }},
		{"order", func(c *Config) { c.LM.Order = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
