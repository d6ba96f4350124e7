// Package config loads the flowd daemon configuration from a YAML file with
// sensible defaults for everything but the model credentials.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Web    WebConfig    `yaml:"web"`
	Model  ModelConfig  `yaml:"model"`
	Engine EngineConfig `yaml:"engine"`
}

type WebConfig struct {
	Addr string `yaml:"addr"`
}

type ModelConfig struct {
	// Name is the chat model identifier passed to the provider.
	Name string `yaml:"name"`
	// APIKeyEnv names the environment variable holding the provider key.
	// The key itself never lives in the config file.
	APIKeyEnv string `yaml:"api_key_env"`
}

type EngineConfig struct {
	// MaxLevels caps propagation depth per run; 0 derives the cap from the
	// node count at run start.
	MaxLevels int `yaml:"max_levels"`
}

func defaults() Config {
	return Config{
		Web:   WebConfig{Addr: ":8080"},
		Model: ModelConfig{Name: "gpt-4o-mini", APIKeyEnv: "OPENAI_API_KEY"},
	}
}

// Load reads the file named by FLOWD_CONFIG, or returns defaults when the
// variable is unset.
func Load() (*Config, error) {
	cfg := defaults()

	path := os.Getenv("FLOWD_CONFIG")
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Web.Addr == "" {
		return fmt.Errorf("web.addr must not be empty")
	}
	if c.Model.Name == "" {
		return fmt.Errorf("model.name must not be empty")
	}
	if c.Engine.MaxLevels < 0 {
		return fmt.Errorf("engine.max_levels must not be negative")
	}
	return nil
}

// APIKey resolves the provider key from the configured environment variable.
func (c *Config) APIKey() (string, error) {
	key := os.Getenv(c.Model.APIKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%s is not set", c.Model.APIKeyEnv)
	}
	return key, nil
}
