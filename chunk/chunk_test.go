package chunk

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/agentmem/pagesense/extract"
)

func testSnapshot() *Snapshot {
	return &Snapshot{
		ID:          "abc123",
		PageURL:     "https://example.com/login",
		Timestamp:   "2026-01-02T15:04:05Z",
		TaskContext: "log in",
		Page: &extract.SemanticRecord{
			Title: "Example Login",
			Interactive: []extract.Interactive{
				{Type: "input", Label: "Username", Selector: "#username"},
				{Type: "button", Label: "Sign In", Selector: "#login-btn"},
			},
			Forms: []extract.FormDescriptor{
				{ID: "login-form", Fields: []extract.FormField{
					{Name: "username", Type: "text"},
					{Name: "password", Type: "password"},
				}, FieldCount: 2},
			},
			ContentSections: []extract.ContentSection{
				{Type: "div", Class: "main", Preview: "Welcome back"},
			},
			Popups: []extract.PopupInfo{
				{Type: "cookie_consent", Role: "dialog", Class: "cookie-banner",
					CloseButton: &extract.DismissControl{Selector: ".reject", Text: "Reject"}},
			},
			PopupButtons: []extract.PopupActionButton{
				{Tag: "button", Text: "accept all", Selector: ".accept"},
			},
		},
		ActionHistory: []Action{
			{Action: "click", Selector: "#cookie-reject", Success: true},
		},
	}
}

func TestBuild_TypeOrder(t *testing.T) {
	chunks := Build(testSnapshot())

	want := []Type{TypeHeader, TypeInteractive, TypeForms, TypePopups, TypeContent, TypeHistory}
	if len(chunks) != len(want) {
		t.Fatalf("chunks: got %d, want %d", len(chunks), len(want))
	}
	for i, w := range want {
		if chunks[i].Type != w {
			t.Errorf("chunk[%d].Type: got %q, want %q", i, chunks[i].Type, w)
		}
	}
}

func TestBuild_Header(t *testing.T) {
	chunks := Build(testSnapshot())
	h := chunks[0].Text
	for _, want := range []string{"Page: Example Login", "URL: https://example.com/login", "Task Context: log in"} {
		if !strings.Contains(h, want) {
			t.Errorf("header missing %q:\n%s", want, h)
		}
	}
}

func TestBuild_InteractiveRender(t *testing.T) {
	chunks := Build(testSnapshot())
	text := chunks[1].Text
	if !strings.Contains(text, "- Sign In (button): #login-btn") {
		t.Fatalf("interactive render:\n%s", text)
	}
}

func TestBuild_FormsRender(t *testing.T) {
	chunks := Build(testSnapshot())
	if !strings.Contains(chunks[2].Text, "- login-form: username, password") {
		t.Fatalf("forms render:\n%s", chunks[2].Text)
	}
}

func TestBuild_PopupsRender(t *testing.T) {
	chunks := Build(testSnapshot())
	text := chunks[3].Text
	if !strings.Contains(text, "- cookie_consent: role=dialog, class=cookie-banner") {
		t.Fatalf("popup line:\n%s", text)
	}
	if !strings.Contains(text, "Close: .reject ('Reject')") {
		t.Fatalf("close line:\n%s", text)
	}
	if !strings.Contains(text, "- button: 'accept all' → .accept") {
		t.Fatalf("action button line:\n%s", text)
	}
}

func TestBuild_HistoryRender(t *testing.T) {
	chunks := Build(testSnapshot())
	text := chunks[5].Text
	if !strings.Contains(text, "Actions Taken: 1 interactions") {
		t.Fatalf("history header:\n%s", text)
	}
	if !strings.Contains(text, "- click: #cookie-reject") {
		t.Fatalf("history line:\n%s", text)
	}
}

func TestBuild_OmitsEmptyCategories(t *testing.T) {
	snap := &Snapshot{
		ID:          "x",
		PageURL:     "https://example.com",
		TaskContext: "browse",
		Page:        &extract.SemanticRecord{Title: "Empty"},
	}
	chunks := Build(snap)
	if len(chunks) != 1 {
		t.Fatalf("chunks: got %d, want 1 (header only)", len(chunks))
	}
	if chunks[0].Type != TypeHeader {
		t.Fatalf("chunk type: got %q", chunks[0].Type)
	}
}

func TestBuild_PopupButtonsAloneProducePopupChunk(t *testing.T) {
	snap := &Snapshot{
		PageURL: "https://example.com",
		Page: &extract.SemanticRecord{
			Title:        "T",
			PopupButtons: []extract.PopupActionButton{{Tag: "a", Text: "no thanks"}},
		},
	}
	chunks := Build(snap)
	if len(chunks) != 2 || chunks[1].Type != TypePopups {
		t.Fatalf("chunks: %+v", chunks)
	}
}

func TestBuild_LineCaps(t *testing.T) {
	snap := testSnapshot()
	snap.Page.Interactive = nil
	for i := 0; i < 30; i++ {
		snap.Page.Interactive = append(snap.Page.Interactive, extract.Interactive{
			Type: "button", Label: fmt.Sprintf("B%d", i), Selector: fmt.Sprintf("#b%d", i),
		})
	}
	snap.ActionHistory = nil
	for i := 0; i < 9; i++ {
		snap.ActionHistory = append(snap.ActionHistory, Action{Action: "click", Selector: fmt.Sprintf("#a%d", i)})
	}

	chunks := Build(snap)
	var interactive, history string
	for _, c := range chunks {
		switch c.Type {
		case TypeInteractive:
			interactive = c.Text
		case TypeHistory:
			history = c.Text
		}
	}

	if got := strings.Count(interactive, "\n"); got != 20 {
		t.Errorf("interactive lines: got %d, want 20", got)
	}
	if !strings.Contains(history, "Actions Taken: 9 interactions") {
		t.Errorf("history header:\n%s", history)
	}
	if got := strings.Count(history, "- click:"); got != 5 {
		t.Errorf("history lines: got %d, want 5", got)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	a := Build(testSnapshot())
	b := Build(testSnapshot())
	if !reflect.DeepEqual(a, b) {
		t.Fatal("two builds of the same snapshot differ")
	}
}

func TestBuild_NilPage(t *testing.T) {
	chunks := Build(&Snapshot{PageURL: "https://example.com"})
	if len(chunks) != 1 {
		t.Fatalf("chunks: got %d, want 1", len(chunks))
	}
	if !strings.Contains(chunks[0].Text, "Untitled") {
		t.Fatalf("header: %s", chunks[0].Text)
	}
}
