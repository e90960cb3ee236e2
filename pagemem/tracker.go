package pagemem

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agentmem/pagesense/vecstore"
)

// TrackAction records a browser action. The record attaches to navigation
// history only when pageURL matches the most recent navigation entry;
// a stale URL is acknowledged but not attached, and the result says so.
func (s *Session) TrackAction(ctx context.Context, pageURL, selector, action string, success bool, elementType, actionContext string) *TrackResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := ActionRecord{
		Action:      action,
		Selector:    selector,
		Success:     success,
		ElementType: elementType,
		Context:     actionContext,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		URL:         pageURL,
	}

	attached := false
	if n := len(s.nav); n > 0 && s.nav[n-1].URL == pageURL {
		s.nav[n-1].Actions = append(s.nav[n-1].Actions, record)
		attached = true
	}

	s.logger.Info("action tracked", "action", action, "selector", selector,
		"success", success, "attached", attached)

	return &TrackResult{
		Status:    "tracked",
		Action:    action,
		Selector:  selector,
		Success:   success,
		Attached:  attached,
		SessionID: s.id,
	}
}

// Progress aggregates action counts, success rate (0 when no actions
// recorded) and the last five navigation entries.
func (s *Session) Progress(ctx context.Context) *ProgressResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total, successful int
	for _, nav := range s.nav {
		for _, a := range nav.Actions {
			total++
			if a.Success {
				successful++
			}
		}
	}

	rate := 0.0
	if total > 0 {
		rate = float64(successful) / float64(total)
	}

	chunkCount, err := s.store.Count(ctx, s.collection)
	if err != nil && !errors.Is(err, vecstore.ErrCollectionNotFound) {
		s.logger.Error("progress: count failed", "error", err)
		return &ProgressResult{
			Status:    "error",
			Message:   fmt.Sprintf("count chunks: %v", err),
			SessionID: s.id,
		}
	}

	recent := s.nav
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	history := make([]NavigationEntry, len(recent))
	copy(history, recent)

	return &ProgressResult{
		SessionID:          s.id,
		PagesVisited:       len(s.nav),
		CurrentPageChunks:  len(s.currentChunks),
		TotalChunks:        chunkCount,
		ActionsTaken:       total,
		SuccessfulActions:  successful,
		SuccessRate:        rate,
		NavigationHistory:  history,
		EmbeddingModel:     s.embedder.Model(),
		EmbeddingDimension: s.embedder.Dimension(),
	}
}

// Clear discards all chunks and history and recreates the backing
// collection under the same session identity. Idempotent.
func (s *Session) Clear(ctx context.Context) *ClearResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteCollection(ctx, s.collection); err != nil && !errors.Is(err, vecstore.ErrCollectionNotFound) {
		s.logger.Error("clear: delete collection failed", "error", err)
		return &ClearResult{
			Status:    "error",
			Message:   fmt.Sprintf("delete collection: %v", err),
			SessionID: s.id,
		}
	}

	s.nav = nil
	s.currentChunks = nil
	s.collectionReady = false

	if dim := s.embedder.Dimension(); dim > 0 {
		if err := s.store.EnsureCollection(ctx, s.collection, dim); err != nil {
			s.logger.Error("clear: recreate collection failed", "error", err)
			return &ClearResult{
				Status:    "error",
				Message:   fmt.Sprintf("recreate collection: %v", err),
				SessionID: s.id,
			}
		}
		s.collectionReady = true
	}

	s.logger.Info("session cleared", "session_id", s.id)

	return &ClearResult{Status: "cleared", SessionID: s.id}
}
