package pagemem

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func httpServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := newTestSession(t)
	r := chi.NewRouter()
	s.RegisterHTTP(r)
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHTTP_AnalyzeAndProgress(t *testing.T) {
	ts := httpServer(t)

	body, err := json.Marshal(map[string]any{
		"markup":       loginPage,
		"url":          "https://example.com/login",
		"task_context": "log in",
	})
	if err != nil {
		t.Fatal(err)
	}

	resp := postJSON(t, ts.URL+"/api/session/analyze", string(body))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("analyze status = %d", resp.StatusCode)
	}
	var analyzed AnalyzeResult
	if err := json.NewDecoder(resp.Body).Decode(&analyzed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if analyzed.Status != "analyzed" {
		t.Fatalf("status = %q (%s)", analyzed.Status, analyzed.Message)
	}

	resp2, err := http.Get(ts.URL + "/api/session/progress")
	if err != nil {
		t.Fatalf("GET progress: %v", err)
	}
	defer resp2.Body.Close()
	var prog ProgressResult
	if err := json.NewDecoder(resp2.Body).Decode(&prog); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if prog.PagesVisited != 1 {
		t.Errorf("pages = %d, want 1", prog.PagesVisited)
	}
}

func TestHTTP_AnalyzeRequiresMarkup(t *testing.T) {
	ts := httpServer(t)
	resp := postJSON(t, ts.URL+"/api/session/analyze", `{"task_context":"x"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHTTP_Clear(t *testing.T) {
	ts := httpServer(t)
	resp := postJSON(t, ts.URL+"/api/session/clear", "{}")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("clear status = %d", resp.StatusCode)
	}
	var cleared ClearResult
	if err := json.NewDecoder(resp.Body).Decode(&cleared); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cleared.Status != "cleared" {
		t.Errorf("status = %q", cleared.Status)
	}
}
