// Package config loads engine configuration from ~/.sortme/config.yaml.
// Every key can be overridden through SORTME_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all engine configuration.
type Config struct {
	Root    string        `mapstructure:"root" yaml:"root"`
	Model   ModelConfig   `mapstructure:"model" yaml:"model"`
	Scan    ScanConfig    `mapstructure:"scan" yaml:"scan"`
	Execute ExecuteConfig `mapstructure:"execute" yaml:"execute"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// ModelConfig describes the local model endpoint and its budgets.
type ModelConfig struct {
	// Endpoint is the base URL of the local Ollama-compatible server.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	// Name is the model identifier sent with every request.
	Name string `mapstructure:"name" yaml:"name"`
	// ContextTokens caps the prompt size per model call.
	ContextTokens int `mapstructure:"context_tokens" yaml:"context_tokens"`
	// MaxAttempts bounds transient-failure retries per model call.
	MaxAttempts int `mapstructure:"max_attempts" yaml:"max_attempts"`
	// RequestTimeoutSec is the per-request timeout. Local models can be
	// slow on cold start, so the default is generous.
	RequestTimeoutSec int `mapstructure:"request_timeout_sec" yaml:"request_timeout_sec"`
}

// ScanConfig controls the profiler's content analysis.
type ScanConfig struct {
	ContentReading bool     `mapstructure:"content_reading" yaml:"content_reading"`
	ContentKinds   []string `mapstructure:"content_kinds" yaml:"content_kinds"`
	MaxFileSize    int64    `mapstructure:"max_file_size" yaml:"max_file_size"`
	Workers        int      `mapstructure:"workers" yaml:"workers"`
}

// ExecuteConfig controls executor policy.
type ExecuteConfig struct {
	// Overwrite allows MoveFile/RenameFile to replace an existing
	// destination. Default is false: collisions are skipped and reported.
	Overwrite bool `mapstructure:"overwrite" yaml:"overwrite"`
	// Preview renders a dry-run diff instead of mutating the filesystem.
	Preview bool `mapstructure:"preview" yaml:"preview"`
}

// LoggingConfig controls the zerolog setup.
type LoggingConfig struct {
	Debug   bool `mapstructure:"debug" yaml:"debug"`
	Console bool `mapstructure:"console" yaml:"console"`
}

func (m ModelConfig) RequestTimeout() time.Duration {
	return time.Duration(m.RequestTimeoutSec) * time.Second
}

// DataDir returns the engine's data directory (~/.sortme), creating it if
// needed.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".sortme")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return dir, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Endpoint:          "http://localhost:11434",
			Name:              "llama3.1:8b",
			ContextTokens:     4096,
			MaxAttempts:       3,
			RequestTimeoutSec: 120,
		},
		Scan: ScanConfig{
			ContentReading: false,
			ContentKinds:   []string{"text"},
			MaxFileSize:    5 * 1024 * 1024,
			Workers:        4,
		},
		Execute: ExecuteConfig{},
		Logging: LoggingConfig{Console: true},
	}
}

// Load reads configuration from dir/config.yaml, layering environment
// overrides on the defaults. A missing file is not an error.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix("SORTME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, Default())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration back as YAML.
func Save(dir string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0o600)
}

// Validate checks ranges and fills defaults for zero values.
func (c *Config) Validate() error {
	def := Default()
	if c.Model.Endpoint == "" {
		c.Model.Endpoint = def.Model.Endpoint
	}
	if c.Model.Name == "" {
		c.Model.Name = def.Model.Name
	}
	if c.Model.ContextTokens <= 0 {
		c.Model.ContextTokens = def.Model.ContextTokens
	}
	if c.Model.MaxAttempts <= 0 {
		c.Model.MaxAttempts = def.Model.MaxAttempts
	}
	if c.Model.RequestTimeoutSec <= 0 {
		c.Model.RequestTimeoutSec = def.Model.RequestTimeoutSec
	}
	if c.Scan.MaxFileSize <= 0 {
		c.Scan.MaxFileSize = def.Scan.MaxFileSize
	}
	if c.Scan.Workers <= 0 {
		c.Scan.Workers = def.Scan.Workers
	}
	if c.Root != "" {
		root, err := filepath.Abs(c.Root)
		if err != nil {
			return fmt.Errorf("resolve root %q: %w", c.Root, err)
		}
		c.Root = root
	}
	return nil
}

func setDefaults(v *viper.Viper, def *Config) {
	v.SetDefault("root", def.Root)
	v.SetDefault("model.endpoint", def.Model.Endpoint)
	v.SetDefault("model.name", def.Model.Name)
	v.SetDefault("model.context_tokens", def.Model.ContextTokens)
	v.SetDefault("model.max_attempts", def.Model.MaxAttempts)
	v.SetDefault("model.request_timeout_sec", def.Model.RequestTimeoutSec)
	v.SetDefault("scan.content_reading", def.Scan.ContentReading)
	v.SetDefault("scan.content_kinds", def.Scan.ContentKinds)
	v.SetDefault("scan.max_file_size", def.Scan.MaxFileSize)
	v.SetDefault("scan.workers", def.Scan.Workers)
	v.SetDefault("execute.overwrite", def.Execute.Overwrite)
	v.SetDefault("execute.preview", def.Execute.Preview)
	v.SetDefault("logging.debug", def.Logging.Debug)
	v.SetDefault("logging.console", def.Logging.Console)
}
