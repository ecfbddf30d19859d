package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config represents the curator configuration
type Config struct {
	Model          string `json:"model"`
	APIKey         string `json:"api_key"`         // API key for LLM providers
	BaseURL        string `json:"base_url"`        // Base URL for LLM providers (optional)
	EnableShell    bool   `json:"enable_shell"`    // Allow the RunCommand tool
	AutoChain      bool   `json:"auto_chain"`      // Execute orchestrated steps without per-step confirmation
	CommandTimeout int    `json:"command_timeout"` // Per-command timeout in seconds
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Model:          "openai:gpt-4o",
		EnableShell:    false,
		AutoChain:      false,
		CommandTimeout: 30,
	}
}

// LoadConfig loads configuration from global and local sources
func LoadConfig(workspacePath string) (*Config, error) {
	// Start with default config
	cfg := DefaultConfig()

	// Load global config
	globalCfg, err := loadGlobalConfig()
	if err == nil {
		mergeCfg(cfg, globalCfg)
	}

	// Load local config (takes precedence)
	localCfg, err := loadLocalConfig(workspacePath)
	if err == nil {
		mergeCfg(cfg, localCfg)
	}

	return cfg, nil
}

// Get retrieves a configuration value by key
func (c *Config) Get(key string) (interface{}, error) {
	switch key {
	case "model":
		return c.Model, nil
	case "api_key":
		return c.APIKey, nil
	case "base_url":
		return c.BaseURL, nil
	case "enable_shell":
		return c.EnableShell, nil
	case "auto_chain":
		return c.AutoChain, nil
	case "command_timeout":
		return c.CommandTimeout, nil
	default:
		return nil, fmt.Errorf("unknown config key: %s", key)
	}
}

// Set updates a configuration value by key
func (c *Config) Set(key string, value interface{}) error {
	// Convert value to string (CLI input is always string)
	str, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string value for %s", key)
	}

	switch key {
	case "model":
		c.Model = str
		return nil
	case "api_key":
		c.APIKey = str
		return nil
	case "base_url":
		c.BaseURL = str
		return nil
	case "enable_shell":
		b, err := parseBool(key, str)
		if err != nil {
			return err
		}
		c.EnableShell = b
		return nil
	case "auto_chain":
		b, err := parseBool(key, str)
		if err != nil {
			return err
		}
		c.AutoChain = b
		return nil
	case "command_timeout":
		val, err := strconv.Atoi(str)
		if err != nil {
			return fmt.Errorf("expected numeric value for command_timeout, got: %s", str)
		}
		c.CommandTimeout = val
		return nil
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
}

func parseBool(key, str string) (bool, error) {
	switch str {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("expected 'true' or 'false' for %s, got: %s", key, str)
	}
}

// loadGlobalConfig loads configuration from ~/.curator/config.json
func loadGlobalConfig() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(homeDir, ".curator", "config.json")
	return loadConfigFromFile(configPath)
}

// loadLocalConfig loads configuration from <workspace>/.curator/config.json
func loadLocalConfig(workspacePath string) (*Config, error) {
	configPath := filepath.Join(workspacePath, ".curator", "config.json")
	return loadConfigFromFile(configPath)
}

// loadConfigFromFile loads a config from a JSON file
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return &cfg, nil
}

// mergeCfg overlays non-zero values from src onto dst. Boolean flags merge
// only when the source file actually carried them, which JSON cannot tell us
// here, so booleans from any loaded file always win.
func mergeCfg(dst, src *Config) {
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.APIKey != "" {
		dst.APIKey = src.APIKey
	}
	if src.BaseURL != "" {
		dst.BaseURL = src.BaseURL
	}
	if src.CommandTimeout != 0 {
		dst.CommandTimeout = src.CommandTimeout
	}
	dst.EnableShell = src.EnableShell
	dst.AutoChain = src.AutoChain
}

// SaveLocal writes the config to <workspace>/.curator/config.json
func (c *Config) SaveLocal(workspacePath string) error {
	dir := filepath.Join(workspacePath, ".curator")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return saveConfigToFile(c, filepath.Join(dir, "config.json"))
}

// SaveGlobal writes the config to ~/.curator/config.json
func (c *Config) SaveGlobal() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	dir := filepath.Join(homeDir, ".curator")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return saveConfigToFile(c, filepath.Join(dir, "config.json"))
}

func saveConfigToFile(c *Config, path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
