package pagemem

import (
	"github.com/agentmem/pagesense/chunk"
	"github.com/agentmem/pagesense/extract"
)

// PageSnapshot and ActionRecord are the chunk package's types; re-exported
// so callers only import pagemem.
type (
	PageSnapshot = chunk.Snapshot
	ActionRecord = chunk.Action
)

// NavigationEntry is one visited page plus the actions taken on it.
type NavigationEntry struct {
	URL       string         `json:"url"`
	Timestamp string         `json:"timestamp"`
	Task      string         `json:"task"`
	Actions   []ActionRecord `json:"actions,omitempty"`
}

// AnalyzeResult reports one page analysis.
type AnalyzeResult struct {
	Status              string `json:"status"`
	Message             string `json:"message,omitempty"`
	PageID              string `json:"page_id,omitempty"`
	Chunks              int    `json:"chunks"`
	InteractiveElements int    `json:"interactive_elements"`
	Forms               int    `json:"forms"`
	URL                 string `json:"url,omitempty"`
	SessionID           string `json:"session_id,omitempty"`
}

// Section is one ranked retrieval hit.
type Section struct {
	ChunkID          string                `json:"chunk_id"`
	SectionType      string                `json:"section_type"`
	RelevanceScore   float64               `json:"relevance_score"`
	ContentPreview   string                `json:"content_preview"`
	RelevantElements []extract.Interactive `json:"relevant_elements"`
	URL              string                `json:"url"`
	Timestamp        string                `json:"timestamp"`
}

// ContextResult is the outcome of a find-relevant-context query.
type ContextResult struct {
	Status            string    `json:"status"`
	Message           string    `json:"message,omitempty"`
	RelevantSections  []Section `json:"relevant_sections"`
	SectionCount      int       `json:"section_count"`
	Query             string    `json:"query,omitempty"`
	ElementTypeFilter string    `json:"element_type_filter,omitempty"`
}

// ElementMatch is one element flattened out of a retrieval section, tagged
// with that section's relevance as its confidence.
type ElementMatch struct {
	Selector           string  `json:"selector"`
	Label              string  `json:"label"`
	Type               string  `json:"type"`
	Href               string  `json:"href,omitempty"`
	SectionRelevance   float64 `json:"section_relevance"`
	SectionType        string  `json:"section_type"`
	SurroundingContext string  `json:"surrounding_context"`
	Confidence         float64 `json:"confidence"`
}

// ElementsResult is the outcome of a get-element-with-context query.
type ElementsResult struct {
	Status      string         `json:"status"`
	Message     string         `json:"message,omitempty"`
	ElementType string         `json:"element_type,omitempty"`
	Elements    []ElementMatch `json:"elements"`
	TotalFound  int            `json:"total_found"`
	TaskContext string         `json:"task_context,omitempty"`
}

// PopupsResult is the outcome of a detected-popups lookup.
type PopupsResult struct {
	Status       string                      `json:"status"`
	Message      string                      `json:"message,omitempty"`
	Popups       []extract.PopupInfo         `json:"popups"`
	PopupButtons []extract.PopupActionButton `json:"popup_buttons,omitempty"`
	TotalPopups  int                         `json:"total_popups"`
	HasPopups    bool                        `json:"has_popups"`
}

// TrackResult acknowledges one tracked action. Attached reports whether the
// action landed on the latest navigation entry or referred to a stale URL.
type TrackResult struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	Action    string `json:"action,omitempty"`
	Selector  string `json:"selector,omitempty"`
	Success   bool   `json:"success"`
	Attached  bool   `json:"attached"`
	SessionID string `json:"session_id,omitempty"`
}

// ProgressResult summarizes the session.
type ProgressResult struct {
	Status             string            `json:"status,omitempty"`
	Message            string            `json:"message,omitempty"`
	SessionID          string            `json:"session_id"`
	PagesVisited       int               `json:"pages_visited"`
	CurrentPageChunks  int               `json:"current_page_chunks"`
	TotalChunks        int               `json:"total_chunks_analyzed"`
	ActionsTaken       int               `json:"actions_taken"`
	SuccessfulActions  int               `json:"successful_actions"`
	SuccessRate        float64           `json:"success_rate"`
	NavigationHistory  []NavigationEntry `json:"navigation_history"`
	EmbeddingModel     string            `json:"embedding_model"`
	EmbeddingDimension int               `json:"embedding_dimension"`
}

// ClearResult acknowledges a session reset.
type ClearResult struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	SessionID string `json:"session_id"`
}
