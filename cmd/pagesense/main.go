// Command pagesense runs the page-understanding MCP server: browser tools
// plus the session engine, over stdio, with an optional HTTP status API.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/agentmem/pagesense/browse"
	"github.com/agentmem/pagesense/embed"
	"github.com/agentmem/pagesense/pagemem"
	"github.com/agentmem/pagesense/vecstore"
)

func main() {
	cfg := DefaultConfig()
	if path := os.Getenv("PAGESENSE_CONFIG"); path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			slog.Error("config", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	// Logging goes to stderr: stdout carries the MCP stdio transport.
	var lvl slog.Level
	switch cfg.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Embedder. No endpoint means zero-vector embeddings, which keeps the
	// server functional for extraction and tracking without a model.
	embedder := embed.New(embed.Config{
		Endpoint:  cfg.Embedding.Endpoint,
		Model:     cfg.Embedding.Model,
		APIKey:    cfg.Embedding.APIKey,
		Dimension: cfg.Embedding.Dimension,
		Logger:    logger,
	})

	store, err := buildStore(cfg.Index, logger)
	if err != nil {
		slog.Error("vector store", "error", err)
		os.Exit(1)
	}

	session, err := pagemem.New(pagemem.Config{
		ID:       cfg.SessionID,
		Embedder: embedder,
		Store:    store,
		Logger:   logger,
	})
	if err != nil {
		slog.Error("session", "error", err)
		os.Exit(1)
	}

	// Browser driver. Chrome launches lazily on first tool call.
	browserCfg := browse.ConfigFromEnv()
	browserCfg.Logger = logger
	driver := browse.NewDriver(browserCfg)
	defer driver.Close()

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "pagesense",
		Version: "1.0.0",
	}, nil)
	session.RegisterMCP(srv, driver)
	if cfg.BrowserEnabled {
		driver.RegisterMCP(srv)
	}

	// Optional HTTP status API.
	if cfg.HTTPAddr != "" {
		startHTTP(ctx, cfg.HTTPAddr, session)
	}

	slog.Info("pagesense starting", "session_id", session.ID(), "index_backend", cfg.Index.Backend)
	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		slog.Error("mcp server", "error", err)
		os.Exit(1)
	}
	slog.Info("pagesense stopped")
}

func buildStore(cfg IndexConfig, logger *slog.Logger) (vecstore.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		return vecstore.NewLocal(vecstore.LocalConfig{
			Path:   cfg.Path,
			Logger: logger,
		})
	case "qdrant":
		return vecstore.NewQdrant(vecstore.QdrantConfig{
			Host:   cfg.QdrantHost,
			Port:   cfg.QdrantPort,
			APIKey: cfg.QdrantKey,
			UseTLS: cfg.QdrantTLS,
			Logger: logger,
		})
	default:
		return vecstore.NewLocal(vecstore.LocalConfig{Logger: logger})
	}
}

func startHTTP(ctx context.Context, addr string, session *pagemem.Session) {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok", "session_id": session.ID()})
	})
	session.RegisterHTTP(r)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("http api starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http api", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown", "error", err)
		}
	}()
}
