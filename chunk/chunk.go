// Package chunk converts a page snapshot into an ordered sequence of typed
// text chunks suitable for embedding. Rendering is deterministic: identical
// snapshots produce identical chunks.
package chunk

import (
	"fmt"
	"strings"

	"github.com/agentmem/pagesense/extract"
)

// Type tags a chunk by the page category it renders.
type Type string

const (
	TypeHeader      Type = "header"
	TypeInteractive Type = "interactive"
	TypeForms       Type = "forms"
	TypePopups      Type = "popups"
	TypeContent     Type = "content"
	TypeHistory     Type = "history"
)

// Per-type render bounds. The extractor stores more; chunks preview less.
const (
	maxInteractiveLines = 20
	maxFormFieldNames   = 10
	maxPopupButtonLines = 10
	maxContentLines     = 10
	maxHistoryLines     = 5
)

// Chunk is the atomic retrieval unit derived from one snapshot.
type Chunk struct {
	Type Type
	Text string
}

// Action is one tracked browser action, embedded in snapshots so history
// chunks can render it.
type Action struct {
	Action      string `json:"action"`
	Selector    string `json:"selector"`
	Success     bool   `json:"success"`
	ElementType string `json:"element_type,omitempty"`
	Context     string `json:"context,omitempty"`
	Timestamp   string `json:"timestamp"`
	URL         string `json:"url"`
}

// Snapshot is one extraction result for one page view at one point in time.
// Immutable once built; serialized into every derived chunk's metadata so
// retrieval can recover full page context without a second lookup.
type Snapshot struct {
	ID            string                  `json:"id"`
	PageURL       string                  `json:"page_url"`
	Timestamp     string                  `json:"timestamp"`
	TaskContext   string                  `json:"task_context"`
	Page          *extract.SemanticRecord `json:"page_data"`
	ActionHistory []Action                `json:"action_history"`
}

// Build renders the snapshot into typed chunks in the fixed order
// header → interactive → forms → popups → content → history.
// Categories with no data are omitted entirely.
func Build(snap *Snapshot) []Chunk {
	page := snap.Page
	if page == nil {
		page = &extract.SemanticRecord{Title: "Untitled"}
	}

	chunks := []Chunk{{
		Type: TypeHeader,
		Text: fmt.Sprintf("Page: %s\nURL: %s\nTask Context: %s",
			page.Title, snap.PageURL, snap.TaskContext),
	}}

	if len(page.Interactive) > 0 {
		var sb strings.Builder
		sb.WriteString("Interactive Elements:\n")
		for _, elem := range head(page.Interactive, maxInteractiveLines) {
			fmt.Fprintf(&sb, "- %s (%s): %s\n", elem.Label, elem.Type, elem.Selector)
		}
		chunks = append(chunks, Chunk{TypeInteractive, strings.TrimSpace(sb.String())})
	}

	if len(page.Forms) > 0 {
		var sb strings.Builder
		sb.WriteString("Forms:\n")
		for _, form := range page.Forms {
			names := make([]string, 0, maxFormFieldNames)
			for _, f := range head(form.Fields, maxFormFieldNames) {
				names = append(names, f.Name)
			}
			fmt.Fprintf(&sb, "- %s: %s\n", form.ID, strings.Join(names, ", "))
		}
		chunks = append(chunks, Chunk{TypeForms, strings.TrimSpace(sb.String())})
	}

	if len(page.Popups) > 0 || len(page.PopupButtons) > 0 {
		var sb strings.Builder
		sb.WriteString("Popups/Modals Detected:\n")
		for _, p := range page.Popups {
			fmt.Fprintf(&sb, "- %s: role=%s, class=%s\n", p.Type, p.Role, clip(p.Class, 50))
			if p.CloseButton != nil {
				fmt.Fprintf(&sb, "  Close: %s ('%s')\n", p.CloseButton.Selector, p.CloseButton.Text)
			}
		}
		if len(page.PopupButtons) > 0 {
			sb.WriteString("Popup Action Buttons:\n")
			for _, b := range head(page.PopupButtons, maxPopupButtonLines) {
				fmt.Fprintf(&sb, "- %s: '%s' → %s\n", b.Tag, b.Text, b.Selector)
			}
		}
		chunks = append(chunks, Chunk{TypePopups, strings.TrimSpace(sb.String())})
	}

	if len(page.ContentSections) > 0 {
		var sb strings.Builder
		sb.WriteString("Content Sections:\n")
		for _, s := range head(page.ContentSections, maxContentLines) {
			fmt.Fprintf(&sb, "- %s.%s: %s\n", s.Type, s.Class, s.Preview)
		}
		chunks = append(chunks, Chunk{TypeContent, strings.TrimSpace(sb.String())})
	}

	if len(snap.ActionHistory) > 0 {
		var sb strings.Builder
		fmt.Fprintf(&sb, "Actions Taken: %d interactions\n", len(snap.ActionHistory))
		for _, a := range head(snap.ActionHistory, maxHistoryLines) {
			name, sel := a.Action, a.Selector
			if name == "" {
				name = "unknown"
			}
			if sel == "" {
				sel = "N/A"
			}
			fmt.Fprintf(&sb, "- %s: %s\n", name, sel)
		}
		chunks = append(chunks, Chunk{TypeHistory, strings.TrimSpace(sb.String())})
	}

	return chunks
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
