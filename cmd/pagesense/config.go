package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the full pagesense process configuration. Values come from
// an optional YAML file (PAGESENSE_CONFIG) with environment overrides on
// top, so container deployments need no file at all.
type Config struct {
	SessionID string `yaml:"session_id"`
	LogLevel  string `yaml:"log_level"`
	HTTPAddr  string `yaml:"http_addr"`

	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`

	BrowserEnabled bool `yaml:"browser_enabled"`
}

// EmbeddingConfig configures the embedding backend.
type EmbeddingConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"`
	Dimension int    `yaml:"dimension"`
}

// IndexConfig configures the vector index backend.
type IndexConfig struct {
	Backend    string `yaml:"backend"` // memory | sqlite | qdrant
	Path       string `yaml:"path"`
	QdrantHost string `yaml:"qdrant_host"`
	QdrantPort int    `yaml:"qdrant_port"`
	QdrantKey  string `yaml:"qdrant_api_key"`
	QdrantTLS  bool   `yaml:"qdrant_tls"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Embedding: EmbeddingConfig{
			Model: "nomic-embed-text",
		},
		Index: IndexConfig{
			Backend:    "memory",
			Path:       "db/index.db",
			QdrantHost: "localhost",
			QdrantPort: 6334,
		},
		BrowserEnabled: true,
	}
}

// LoadConfig reads and parses a YAML config file on top of DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that values are sane.
func (c *Config) Validate() error {
	switch c.Index.Backend {
	case "memory", "sqlite", "qdrant":
	default:
		return fmt.Errorf("unsupported index backend %q (use memory, sqlite or qdrant)", c.Index.Backend)
	}
	if c.Index.Backend == "sqlite" && c.Index.Path == "" {
		return fmt.Errorf("index path is required for the sqlite backend")
	}
	if c.Embedding.Dimension < 0 {
		return fmt.Errorf("embedding dimension must be >= 0")
	}
	return nil
}

// applyEnv overlays environment variables on the config. Env wins over file.
func (c *Config) applyEnv() {
	setString(&c.SessionID, "SESSION_ID")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.HTTPAddr, "HTTP_ADDR")

	setString(&c.Embedding.Endpoint, "EMBEDDING_ENDPOINT")
	setString(&c.Embedding.Model, "EMBEDDING_MODEL")
	setString(&c.Embedding.APIKey, "EMBEDDING_API_KEY")
	setInt(&c.Embedding.Dimension, "EMBEDDING_DIMENSION")

	setString(&c.Index.Backend, "INDEX_BACKEND")
	setString(&c.Index.Path, "INDEX_PATH")
	setString(&c.Index.QdrantHost, "QDRANT_HOST")
	setInt(&c.Index.QdrantPort, "QDRANT_PORT")
	setString(&c.Index.QdrantKey, "QDRANT_API_KEY")
	if v := os.Getenv("QDRANT_TLS"); v != "" {
		c.Index.QdrantTLS = v == "true"
	}
	if v := os.Getenv("BROWSER_ENABLED"); v != "" {
		c.BrowserEnabled = v == "true"
	}
}

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
