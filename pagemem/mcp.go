package pagemem

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/agentmem/pagesense/kit"
)

// SnapshotProvider supplies the current page's rendered markup when a
// caller omits it, typically backed by the live browser.
type SnapshotProvider interface {
	PageSource(ctx context.Context) (markup, pageURL string, err error)
}

// RegisterMCP registers the engine's tools on an MCP server. provider may
// be nil, in which case analyze_page requires explicit markup.
func (s *Session) RegisterMCP(srv *mcp.Server, provider SnapshotProvider) {
	mw := s.toolMiddleware()
	s.registerAnalyzePage(srv, mw, provider)
	s.registerFindRelevantContext(srv, mw)
	s.registerGetElementWithContext(srv, mw)
	s.registerTrackAction(srv, mw)
	s.registerGetSessionProgress(srv, mw)
	s.registerGetDetectedPopups(srv, mw)
	s.registerClearSession(srv, mw)
}

// inputSchema builds a JSON Schema object with type "object".
func inputSchema(properties map[string]any, required []string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func (s *Session) toolMiddleware() kit.Middleware {
	return kit.Chain(func(next kit.Endpoint) kit.Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			ctx = kit.WithSessionID(ctx, s.id)
			resp, err := next(ctx, req)
			s.logger.Debug("tool handled",
				"tool", kit.GetToolName(ctx),
				"duration_ms", time.Since(start).Milliseconds())
			return resp, err
		}
	})
}

func decodeInto[T any](req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	r := new(T)
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, r); err != nil {
			return nil, err
		}
	}
	return &kit.MCPDecodeResult{Request: r}, nil
}

// --- analyze_page ---

type analyzePageRequest struct {
	Markup        string         `json:"markup,omitempty"`
	URL           string         `json:"url,omitempty"`
	TaskContext   string         `json:"task_context"`
	ActionHistory []ActionRecord `json:"action_history,omitempty"`
}

func (s *Session) registerAnalyzePage(srv *mcp.Server, mw kit.Middleware, provider SnapshotProvider) {
	tool := &mcp.Tool{
		Name:        "analyze_page",
		Description: "Analyze a rendered page and index it for retrieval. Omit markup to analyze the browser's current page.",
		InputSchema: inputSchema(map[string]any{
			"markup":       map[string]any{"type": "string", "description": "Rendered page HTML; omitted means read from the live browser"},
			"url":          map[string]any{"type": "string", "description": "Page URL; required when markup is given"},
			"task_context": map[string]any{"type": "string", "description": "What the caller is trying to accomplish on this page"},
		}, []string{"task_context"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*analyzePageRequest)
		markup, pageURL := r.Markup, r.URL
		if markup == "" {
			if provider == nil {
				return nil, errors.New("markup is required when no browser is attached")
			}
			var err error
			markup, pageURL, err = provider.PageSource(ctx)
			if err != nil {
				return nil, err
			}
			if r.URL != "" {
				pageURL = r.URL
			}
		}
		return s.AnalyzePage(ctx, markup, pageURL, r.TaskContext, r.ActionHistory), nil
	}

	kit.RegisterMCPTool(srv, tool, mw(endpoint), decodeInto[analyzePageRequest])
}

// --- find_relevant_context ---

type findContextRequest struct {
	TaskDescription string `json:"task_description"`
	ElementType     string `json:"element_type,omitempty"`
	TopK            int    `json:"top_k,omitempty"`
}

func (s *Session) registerFindRelevantContext(srv *mcp.Server, mw kit.Middleware) {
	tool := &mcp.Tool{
		Name:        "find_relevant_context",
		Description: "Find page sections relevant to a task, ranked by similarity.",
		InputSchema: inputSchema(map[string]any{
			"task_description": map[string]any{"type": "string", "description": "The task to find context for"},
			"element_type":     map[string]any{"type": "string", "description": "Optional element type filter (button, input, link, ...)"},
			"top_k":            map[string]any{"type": "integer", "description": "Max sections to return (default 5)"},
		}, []string{"task_description"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*findContextRequest)
		return s.FindRelevantContext(ctx, r.TaskDescription, r.ElementType, r.TopK), nil
	}

	kit.RegisterMCPTool(srv, tool, mw(endpoint), decodeInto[findContextRequest])
}

// --- get_element_with_context ---

type getElementRequest struct {
	ElementType string `json:"element_type"`
	TaskContext string `json:"task_context"`
	TopK        int    `json:"top_k,omitempty"`
}

func (s *Session) registerGetElementWithContext(srv *mcp.Server, mw kit.Middleware) {
	tool := &mcp.Tool{
		Name:        "get_element_with_context",
		Description: "Find individual elements of a given type ranked by relevance to the task, with surrounding page context.",
		InputSchema: inputSchema(map[string]any{
			"element_type": map[string]any{"type": "string", "description": "Element type to search for (button, input, link, ...)"},
			"task_context": map[string]any{"type": "string", "description": "The task the element should serve"},
			"top_k":        map[string]any{"type": "integer", "description": "Max elements to return (default 5)"},
		}, []string{"element_type", "task_context"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*getElementRequest)
		return s.GetElementWithContext(ctx, r.ElementType, r.TaskContext, r.TopK), nil
	}

	kit.RegisterMCPTool(srv, tool, mw(endpoint), decodeInto[getElementRequest])
}

// --- track_action ---

type trackActionRequest struct {
	URL         string `json:"url"`
	Selector    string `json:"selector"`
	Action      string `json:"action"`
	Success     bool   `json:"success"`
	ElementType string `json:"element_type,omitempty"`
	Context     string `json:"context,omitempty"`
}

func (s *Session) registerTrackAction(srv *mcp.Server, mw kit.Middleware) {
	tool := &mcp.Tool{
		Name:        "track_action",
		Description: "Record a browser action taken on the current page for progress tracking.",
		InputSchema: inputSchema(map[string]any{
			"url":          map[string]any{"type": "string", "description": "URL the action was taken on"},
			"selector":     map[string]any{"type": "string", "description": "Selector acted on"},
			"action":       map[string]any{"type": "string", "description": "Action name (click, type, ...)"},
			"success":      map[string]any{"type": "boolean", "description": "Whether the action succeeded"},
			"element_type": map[string]any{"type": "string", "description": "Optional element kind"},
			"context":      map[string]any{"type": "string", "description": "Optional free-text context"},
		}, []string{"url", "selector", "action", "success"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*trackActionRequest)
		return s.TrackAction(ctx, r.URL, r.Selector, r.Action, r.Success, r.ElementType, r.Context), nil
	}

	kit.RegisterMCPTool(srv, tool, mw(endpoint), decodeInto[trackActionRequest])
}

// --- get_session_progress ---

type emptyRequest struct{}

func (s *Session) registerGetSessionProgress(srv *mcp.Server, mw kit.Middleware) {
	tool := &mcp.Tool{
		Name:        "get_session_progress",
		Description: "Session statistics: pages visited, actions taken, success rate, recent navigation.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return s.Progress(ctx), nil
	}

	kit.RegisterMCPTool(srv, tool, mw(endpoint), decodeInto[emptyRequest])
}

// --- get_detected_popups ---

func (s *Session) registerGetDetectedPopups(srv *mcp.Server, mw kit.Middleware) {
	tool := &mcp.Tool{
		Name:        "get_detected_popups",
		Description: "Popups and overlays detected on the most recently analyzed page, with dismiss controls.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return s.GetDetectedPopups(ctx), nil
	}

	kit.RegisterMCPTool(srv, tool, mw(endpoint), decodeInto[emptyRequest])
}

// --- clear_session ---

func (s *Session) registerClearSession(srv *mcp.Server, mw kit.Middleware) {
	tool := &mcp.Tool{
		Name:        "clear_session",
		Description: "Discard all indexed chunks and history; the session keeps its identity with empty state.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return s.Clear(ctx), nil
	}

	kit.RegisterMCPTool(srv, tool, mw(endpoint), decodeInto[emptyRequest])
}
