package pagemem

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterHTTP mounts the session API under /api/session. The HTTP surface
// mirrors the MCP tools one-to-one so the engine can be driven without an
// MCP client.
func (s *Session) RegisterHTTP(r chi.Router) {
	r.Route("/api/session", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/context", s.handleContext)
		r.Post("/elements", s.handleElements)
		r.Post("/actions", s.handleTrackAction)
		r.Get("/progress", s.handleProgress)
		r.Get("/popups", s.handlePopups)
		r.Post("/clear", s.handleClear)
	})
}

func (s *Session) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzePageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Markup == "" {
		http.Error(w, "markup required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.AnalyzePage(r.Context(), req.Markup, req.URL, req.TaskContext, req.ActionHistory))
}

func (s *Session) handleContext(w http.ResponseWriter, r *http.Request) {
	var req findContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.TaskDescription == "" {
		http.Error(w, "task_description required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.FindRelevantContext(r.Context(), req.TaskDescription, req.ElementType, req.TopK))
}

func (s *Session) handleElements(w http.ResponseWriter, r *http.Request) {
	var req getElementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ElementType == "" || req.TaskContext == "" {
		http.Error(w, "element_type and task_context required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.GetElementWithContext(r.Context(), req.ElementType, req.TaskContext, req.TopK))
}

func (s *Session) handleTrackAction(w http.ResponseWriter, r *http.Request) {
	var req trackActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Selector == "" || req.Action == "" {
		http.Error(w, "selector and action required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.TrackAction(r.Context(), req.URL, req.Selector, req.Action, req.Success, req.ElementType, req.Context))
}

func (s *Session) handleProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Progress(r.Context()))
}

func (s *Session) handlePopups(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.GetDetectedPopups(r.Context()))
}

func (s *Session) handleClear(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Clear(r.Context()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
