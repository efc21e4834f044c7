/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/ssargent/lmptool/pkg/interchange"
)

// Config is the on-disk lmptool settings file, usually
// ~/.config/lmptool/config.yaml.
type Config struct {
	DataDir    string     `yaml:"data_dir"`
	Port       int        `yaml:"port"`
	Bind       string     `yaml:"bind"`
	Security   Security   `yaml:"security"`
	Logging    Logging    `yaml:"logging"`
	Conversion Conversion `yaml:"conversion"`
}

// Security holds the key the REST API checks in X-API-Key.
type Security struct {
	APIKey string `yaml:"api_key"`
}

// Logging sets the zap level; LMPTOOL_LOG_LEVEL and --log-level override it.
type Logging struct {
	Level string `yaml:"level"`
}

// Conversion holds defaults for the conversion commands and API.
type Conversion struct {
	DefaultFormat string `yaml:"default_format"`
	Strict        bool   `yaml:"strict"`
}

// DefaultConfig serves on localhost:8080, keeps the library under ./data and
// converts to JSON. It has no API key.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Port:    8080,
		Bind:    "127.0.0.1",
		Security: Security{
			APIKey: "",
		},
		Logging: Logging{
			Level: "info",
		},
		Conversion: Conversion{
			DefaultFormat: string(interchange.DefaultFormat),
			Strict:        false,
		},
	}
}

// Validate checks the values that other packages parse.
func (c *Config) Validate() error {
	if _, err := interchange.ParseFormat(c.Conversion.DefaultFormat); err != nil {
		return fmt.Errorf("conversion.default_format: %w", err)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	return nil
}

// LoadConfig reads an lmptool YAML file on top of DefaultConfig, so keys the
// file omits keep their default values, and validates the result.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return config, nil
}

// SaveConfig writes config as YAML, creating parent directories as needed.
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600: the file holds the API key
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey returns length bytes from crypto/rand, hex encoded, for use
// as an API key.
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig backs `lmptool init`: defaults plus a fresh API key, with
// dataDir replacing the library location when set.
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	apiKey, err := GenerateSecureKey(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	config.Security.APIKey = apiKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath is where --config points when unset. Without a home
// directory it falls back to lmptool.yaml in the working directory.
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./lmptool.yaml"
	}

	// ~/.config/lmptool/config.yaml
	configDir := filepath.Join(homeDir, ".config", "lmptool")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists reports whether init would overwrite something at configPath.
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
