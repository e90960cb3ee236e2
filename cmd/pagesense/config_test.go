package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if cfg.Index.Backend != "memory" {
		t.Errorf("backend = %q, want memory", cfg.Index.Backend)
	}
	if !cfg.BrowserEnabled {
		t.Error("browser should default to enabled")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
session_id: sess_fixed
log_level: debug
http_addr: ":8099"
embedding:
  endpoint: http://localhost:11434
  model: custom-model
  dimension: 384
index:
  backend: sqlite
  path: /tmp/test-index.db
browser_enabled: false
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.SessionID != "sess_fixed" {
		t.Errorf("session_id = %q", cfg.SessionID)
	}
	if cfg.Embedding.Model != "custom-model" || cfg.Embedding.Dimension != 384 {
		t.Errorf("embedding = %+v", cfg.Embedding)
	}
	if cfg.Index.Backend != "sqlite" || cfg.Index.Path != "/tmp/test-index.db" {
		t.Errorf("index = %+v", cfg.Index)
	}
	if cfg.BrowserEnabled {
		t.Error("browser_enabled should be false")
	}
	// Untouched fields keep their defaults.
	if cfg.Index.QdrantPort != 6334 {
		t.Errorf("qdrant_port = %d, want default", cfg.Index.QdrantPort)
	}
}

func TestLoadConfig_BadBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("index:\n  backend: redis\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for unsupported backend")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("SESSION_ID", "sess_env")
	t.Setenv("INDEX_BACKEND", "qdrant")
	t.Setenv("QDRANT_PORT", "7000")
	t.Setenv("QDRANT_TLS", "true")
	t.Setenv("EMBEDDING_DIMENSION", "768")
	t.Setenv("BROWSER_ENABLED", "false")

	cfg := DefaultConfig()
	cfg.applyEnv()

	if cfg.SessionID != "sess_env" {
		t.Errorf("session_id = %q", cfg.SessionID)
	}
	if cfg.Index.Backend != "qdrant" || cfg.Index.QdrantPort != 7000 || !cfg.Index.QdrantTLS {
		t.Errorf("index = %+v", cfg.Index)
	}
	if cfg.Embedding.Dimension != 768 {
		t.Errorf("dimension = %d", cfg.Embedding.Dimension)
	}
	if cfg.BrowserEnabled {
		t.Error("browser_enabled should be false")
	}
}
