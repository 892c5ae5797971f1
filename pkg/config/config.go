// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads and validates the EchoVector configuration.
//
// Configuration is YAML with ${VAR} / ${VAR:-default} environment
// expansion; a .env file next to the process is loaded first when
// present.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kadirpekel/echovector/pkg/chunker"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Embedder EmbedderConfig `yaml:"embedder"`
	Chunker  chunker.Config `yaml:"chunker"`
}

// ServerConfig configures the HTTP request boundary.
type ServerConfig struct {
	// Host to bind. Default: "0.0.0.0"
	Host string `yaml:"host,omitempty"`

	// Port to listen on. Default: 8080
	Port int `yaml:"port,omitempty"`

	// DefaultTopK is used when a query omits top_k. Default: 3
	DefaultTopK int `yaml:"default_top_k,omitempty"`

	// MaxUploadBytes caps ingested document size. Default: 32 MiB
	MaxUploadBytes int64 `yaml:"max_upload_bytes,omitempty"`
}

// SetDefaults applies default values.
func (c *ServerConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.DefaultTopK <= 0 {
		c.DefaultTopK = 3
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 32 << 20
	}
}

// Validate checks the configuration for errors.
func (c *ServerConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be in 1..65535, got %d", c.Port)
	}
	return nil
}

// Address returns the host:port to bind.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StorageConfig selects and configures the artifact store backend.
type StorageConfig struct {
	// Backend is "fs" or "badger". Default: "fs"
	Backend string `yaml:"backend,omitempty"`

	// Path is the backend's root directory. Default: "./data"
	Path string `yaml:"path,omitempty"`
}

// SetDefaults applies default values.
func (c *StorageConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "fs"
	}
	if c.Path == "" {
		c.Path = "./data"
	}
}

// Validate checks the configuration for errors.
func (c *StorageConfig) Validate() error {
	switch c.Backend {
	case "fs", "badger":
	default:
		return fmt.Errorf("unknown storage backend %q (want fs or badger)", c.Backend)
	}
	return nil
}

// EmbedderConfig configures the embedding backend.
type EmbedderConfig struct {
	// Provider is "openai", "ollama" or "hash". Default: "openai"
	Provider string `yaml:"provider,omitempty"`

	// Model is the embedding model name.
	Model string `yaml:"model,omitempty"`

	// Host overrides the provider's base URL.
	Host string `yaml:"host,omitempty"`

	// APIKey authenticates against hosted providers.
	APIKey string `yaml:"api_key,omitempty"`

	// Dimension is the embedding vector dimension. Defaults follow the
	// model where known.
	Dimension int `yaml:"dimension,omitempty"`

	// BatchSize caps how many texts one embedding request carries.
	// Default: 100
	BatchSize int `yaml:"batch_size,omitempty"`

	// Timeout is the per-request timeout in seconds. Default: 30
	Timeout int `yaml:"timeout,omitempty"`

	// MaxRetries for transient backend failures. Default: 3
	MaxRetries int `yaml:"max_retries,omitempty"`
}

// SetDefaults applies default values.
func (c *EmbedderConfig) SetDefaults() {
	if c.Provider == "" {
		c.Provider = "openai"
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.Timeout <= 0 {
		c.Timeout = 30
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
}

// Validate checks the configuration for errors.
func (c *EmbedderConfig) Validate() error {
	switch c.Provider {
	case "openai", "ollama", "hash":
	default:
		return fmt.Errorf("unknown embedder provider %q", c.Provider)
	}
	if c.Dimension < 0 {
		return fmt.Errorf("dimension must be non-negative, got %d", c.Dimension)
	}
	return nil
}

// SetDefaults applies defaults to every section.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Storage.SetDefaults()
	c.Embedder.SetDefaults()
	c.Chunker.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Embedder.Validate(); err != nil {
		return fmt.Errorf("embedder: %w", err)
	}
	if err := c.Chunker.Validate(); err != nil {
		return fmt.Errorf("chunker: %w", err)
	}
	return nil
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// Load reads, expands and validates a YAML configuration file. An empty
// path yields the defaults.
func Load(path string) (*Config, error) {
	loadDotEnv()

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		expanded := expandEnvVars(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
