// Package config loads the sppas command-line configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds the configuration of the sppas tools. It is loaded from a
// YAML file and can be overridden by SPPAS_* environment variables.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	ACM     ACMConfig     `mapstructure:"acm" yaml:"acm"`
	LM      LMConfig      `mapstructure:"lm" yaml:"lm"`
	TGA     TGAConfig     `mapstructure:"tga" yaml:"tga"`
}

// LoggingConfig controls the CLI logger.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"` // debug, info, warn, error
}

// ACMConfig holds acoustic model defaults.
type ACMConfig struct {
	Gamma   float64 `mapstructure:"gamma" yaml:"gamma"`
	VecSize int     `mapstructure:"vec_size" yaml:"vec_size"` // prototype vector size
}

// LMConfig holds n-gram estimation defaults.
type LMConfig struct {
	Order    int    `mapstructure:"order" yaml:"order"`
	Method   string `mapstructure:"method" yaml:"method"`
	MinCount int    `mapstructure:"min_count" yaml:"min_count"`
	Markers  bool   `mapstructure:"markers" yaml:"markers"`
}

// TGAConfig holds time-group analysis defaults.
type TGAConfig struct {
	Silences []string `mapstructure:"silences" yaml:"silences"`
	Prefix   string   `mapstructure:"prefix" yaml:"prefix"`
}

// Default returns a Config with the values used when no file overrides them.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		ACM: ACMConfig{
			Gamma:   0.5,
			VecSize: 25,
		},
		LM: LMConfig{
			Order:    3,
			Method:   "wittenbell",
			MinCount: 1,
			Markers:  true,
		},
		TGA: TGAConfig{
			Silences: []string{"#", "+", "sil", "sp"},
			Prefix:   "tg_",
		},
	}
}

// DefaultPath returns ~/.sppas/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".sppas", "config.yaml"), nil
}

// LoadFromPath reads configuration from a specific file path and merges with
// environment variables. If the file doesn't exist, it creates one with default values.
func LoadFromPath(path string) (*Config, error) {
	path = expandPath(path)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeConfigFile(path, Default()); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Example: SPPAS_ACM_GAMMA=0.3
	v.SetEnvPrefix("SPPAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveToPath writes the configuration to a specific file path.
func (c *Config) SaveToPath(path string) error {
	path = expandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return writeConfigFile(path, c)
}

// Validate checks the configuration for values the tools cannot use.
func (c *Config) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level '%s', must be one of: debug, info, warn, error", c.Logging.Level)
	}
	if c.ACM.Gamma < 0 || c.ACM.Gamma > 1 {
		return fmt.Errorf("acm.gamma must be between 0 and 1, got %g", c.ACM.Gamma)
	}
	if c.ACM.VecSize < 1 {
		return fmt.Errorf("acm.vec_size must be positive, got %d", c.ACM.VecSize)
	}
	if c.LM.Order < 1 {
		return fmt.Errorf("lm.order must be at least 1, got %d", c.LM.Order)
	}
	return nil
}

func writeConfigFile(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// expandPath expands ~ to the user's home directory in a path string.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[1:])
	}
	return path
}
