// Package config handles toolbridge configuration loading. Values come from
// three layers, later layers winning: built-in defaults, an optional YAML
// file, and environment variables (with an optional .env file for local
// development).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all toolbridge configuration.
type Config struct {
	// Host and Port define the REST facade listen address.
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// ToolManagerURL is the base URL of the tool manager service.
	ToolManagerURL string `yaml:"tool_manager_url"`

	// Provider selects the generation backend: ollama, openai or anthropic.
	Provider string `yaml:"provider"`
	// OllamaBaseURL is the Ollama API root used by the ollama provider.
	OllamaBaseURL string `yaml:"ollama_base_url"`
	// Model is the generation model name.
	Model string `yaml:"model"`
	// GenerateTimeout bounds each generation round trip.
	GenerateTimeout time.Duration `yaml:"generate_timeout"`
	// ToolTimeout bounds discovery and execution round trips.
	ToolTimeout time.Duration `yaml:"tool_timeout"`

	// TopK caps the number of tools requested from discovery per request.
	TopK int `yaml:"top_k"`
	// MaxHistoryLength caps the message history per conversation.
	MaxHistoryLength int `yaml:"max_history_length"`

	// StoreBackend selects the conversation store: memory or redis.
	StoreBackend string `yaml:"store_backend"`
	// RedisAddr is the Redis address used by the redis backend.
	RedisAddr string `yaml:"redis_addr"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// LogFormat is json or text.
	LogFormat string `yaml:"log_format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Host:             "0.0.0.0",
		Port:             8080,
		ToolManagerURL:   "http://localhost:8000",
		Provider:         "ollama",
		OllamaBaseURL:    "http://localhost:11434",
		Model:            "gemma3",
		GenerateTimeout:  120 * time.Second,
		ToolTimeout:      30 * time.Second,
		TopK:             3,
		MaxHistoryLength: 10,
		StoreBackend:     "memory",
		LogLevel:         "info",
		LogFormat:        "json",
	}
}

// Load builds the effective configuration. A .env file is honored when
// present; configFile may be empty to skip the YAML layer.
func Load(configFile string) (*Config, error) {
	// .env is a local development convenience; deployed environments supply
	// real environment variables.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	switch cfg.Provider {
	case "ollama", "openai", "anthropic":
	default:
		return nil, fmt.Errorf("unknown provider: %q", cfg.Provider)
	}
	switch cfg.StoreBackend {
	case "memory":
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis store backend requires REDIS_ADDR")
		}
	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.StoreBackend)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Host, "HOST")
	setInt(&c.Port, "PORT")
	setString(&c.ToolManagerURL, "TOOL_MANAGER_URL")
	setString(&c.Provider, "LLM_PROVIDER")
	setString(&c.OllamaBaseURL, "OLLAMA_BASE_URL")
	setString(&c.Model, "DEFAULT_MODEL")
	setDuration(&c.GenerateTimeout, "GENERATE_TIMEOUT")
	setDuration(&c.ToolTimeout, "TOOL_TIMEOUT")
	setInt(&c.TopK, "TOOL_TOP_K")
	setInt(&c.MaxHistoryLength, "MAX_HISTORY_LENGTH")
	setString(&c.StoreBackend, "CONVERSATION_STORE")
	setString(&c.RedisAddr, "REDIS_ADDR")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")
}

// Addr returns the facade listen address.
func (c *Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
