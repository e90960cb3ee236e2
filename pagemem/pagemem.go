// Package pagemem is the session-scoped page-understanding and retrieval
// engine. It turns rendered markup into typed, embedded chunks held in a
// per-session vector collection, answers relevance queries against them,
// and tracks navigation and action history for progress reporting.
//
// A Session is explicitly constructed and passed by the caller — never a
// package singleton — so multiple sessions can coexist safely. Session
// memory is ephemeral: nothing outlives the backing collection.
package pagemem

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/agentmem/pagesense/chunk"
	"github.com/agentmem/pagesense/embed"
	"github.com/agentmem/pagesense/extract"
	"github.com/agentmem/pagesense/idgen"
	"github.com/agentmem/pagesense/vecstore"
)

// Metadata keys attached to every stored chunk.
const (
	metaPageID    = "page_id"
	metaURL       = "url"
	metaDomain    = "domain"
	metaTask      = "task_context"
	metaTimestamp = "timestamp"
	metaChunkIdx  = "chunk_index"
	metaChunkType = "chunk_type"
	metaSnapshot  = "snapshot_data"
)

// Config configures a Session.
type Config struct {
	// ID identifies the session. Generated when empty.
	ID string `json:"id" yaml:"id"`

	// Embedder computes chunk and query vectors. Defaults to the
	// zero-vector embedder.
	Embedder embed.Embedder `json:"-" yaml:"-"`

	// Store is the vector index. Defaults to an ephemeral local store.
	Store vecstore.Store `json:"-" yaml:"-"`

	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.ID == "" {
		c.ID = idgen.Prefixed("sess_", idgen.UUIDv7())()
	}
	if c.Embedder == nil {
		c.Embedder = embed.New(embed.Config{})
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Session holds one automation run's page memory: the vector collection,
// navigation history and current-page chunk identity set.
type Session struct {
	id         string
	collection string
	embedder   embed.Embedder
	store      vecstore.Store
	logger     *slog.Logger

	mu              sync.Mutex
	nav             []NavigationEntry
	currentChunks   []string
	collectionReady bool
}

// New creates a Session. The backing collection is created eagerly when the
// embedding dimension is already known, otherwise on first analysis.
func New(cfg Config) (*Session, error) {
	cfg.defaults()

	if cfg.Store == nil {
		store, err := vecstore.NewLocal(vecstore.LocalConfig{Logger: cfg.Logger})
		if err != nil {
			return nil, fmt.Errorf("pagemem: default store: %w", err)
		}
		cfg.Store = store
	}

	s := &Session{
		id:         cfg.ID,
		collection: "session_" + cfg.ID,
		embedder:   cfg.Embedder,
		store:      cfg.Store,
		logger:     cfg.Logger,
	}

	if dim := s.embedder.Dimension(); dim > 0 {
		if err := s.store.EnsureCollection(context.Background(), s.collection, dim); err != nil {
			return nil, fmt.Errorf("pagemem: create collection: %w", err)
		}
		s.collectionReady = true
	}

	s.logger.Info("session created", "session_id", s.id)
	return s, nil
}

// ID returns the session identity.
func (s *Session) ID() string { return s.id }

// AnalyzePage extracts the page, chunks it, embeds the chunks and replaces
// the session's current-page chunk set wholesale. Collaborator faults come
// back as an error-status result, never a panic or a raised error.
func (s *Session) AnalyzePage(ctx context.Context, markup, pageURL, taskContext string, actionHistory []ActionRecord) *AnalyzeResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	timestamp := time.Now().UTC().Format(time.RFC3339)
	pageID := idgen.Snapshot(pageURL, timestamp)

	s.nav = append(s.nav, NavigationEntry{
		URL:       pageURL,
		Timestamp: timestamp,
		Task:      taskContext,
	})

	record := extract.Extract(markup, pageURL)

	snap := &PageSnapshot{
		ID:            pageID,
		PageURL:       pageURL,
		Timestamp:     timestamp,
		TaskContext:   taskContext,
		Page:          record,
		ActionHistory: actionHistory,
	}

	chunks := chunk.Build(snap)
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		s.logger.Error("analyze: embedding failed", "url", pageURL, "error", err)
		return &AnalyzeResult{Status: "error", Message: fmt.Sprintf("embed chunks: %v", err)}
	}
	if len(vectors) != len(chunks) {
		return &AnalyzeResult{Status: "error", Message: "embedder returned wrong vector count"}
	}

	if !s.collectionReady {
		if err := s.store.EnsureCollection(ctx, s.collection, len(vectors[0])); err != nil {
			s.logger.Error("analyze: create collection failed", "error", err)
			return &AnalyzeResult{Status: "error", Message: fmt.Sprintf("create collection: %v", err)}
		}
		s.collectionReady = true
	}

	snapJSON, err := json.Marshal(snap)
	if err != nil {
		return &AnalyzeResult{Status: "error", Message: fmt.Sprintf("serialize snapshot: %v", err)}
	}

	points := make([]vecstore.Point, len(chunks))
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		id := fmt.Sprintf("%s_chunk_%d", pageID, i)
		ids[i] = id
		points[i] = vecstore.Point{
			ID:     id,
			Vector: vectors[i],
			Text:   c.Text,
			Payload: map[string]string{
				metaPageID:    pageID,
				metaURL:       pageURL,
				metaDomain:    domainOf(pageURL),
				metaTask:      taskContext,
				metaTimestamp: timestamp,
				metaChunkIdx:  strconv.Itoa(i),
				metaChunkType: string(c.Type),
				metaSnapshot:  string(snapJSON),
			},
		}
	}

	if err := s.store.Upsert(ctx, s.collection, points); err != nil {
		s.logger.Error("analyze: index write failed", "url", pageURL, "error", err)
		return &AnalyzeResult{Status: "error", Message: fmt.Sprintf("store chunks: %v", err)}
	}

	s.currentChunks = ids

	s.logger.Info("page analyzed", "url", pageURL, "chunks", len(chunks),
		"interactive", len(record.Interactive), "forms", len(record.Forms))

	return &AnalyzeResult{
		Status:              "analyzed",
		PageID:              pageID,
		Chunks:              len(chunks),
		InteractiveElements: len(record.Interactive),
		Forms:               len(record.Forms),
		URL:                 pageURL,
		SessionID:           s.id,
	}
}

func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}

func truncatePreview(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
