package browse

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/agentmem/pagesense/kit"
)

// RegisterMCP registers the browser tools on an MCP server.
func (d *Driver) RegisterMCP(srv *mcp.Server) {
	d.registerNavigateToURL(srv)
	d.registerClickElement(srv)
	d.registerTypeText(srv)
	d.registerGetElementText(srv)
	d.registerGetPageSource(srv)
	d.registerGetPageMarkdown(srv)
	d.registerTakeScreenshot(srv)
	d.registerExecuteJavascript(srv)
	d.registerWaitForElement(srv)
	d.registerGetCookies(srv)
	d.registerSetCookie(srv)
	d.registerScrollPage(srv)
	d.registerExtractLinks(srv)
	d.registerFillForm(srv)
	d.registerGetCurrentURL(srv)
	d.registerRefreshPage(srv)
	d.registerGoBack(srv)
	d.registerGoForward(srv)
	d.registerIsElementPresent(srv)
	d.registerGetElementAttribute(srv)
	d.registerClearField(srv)
	d.registerSelectDropdownOption(srv)
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

func decodeInto[T any](req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	r := new(T)
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, r); err != nil {
			return nil, err
		}
	}
	return &kit.MCPDecodeResult{Request: r}, nil
}

type selectorRequest struct {
	Selector string `json:"selector"`
}

type emptyRequest struct{}

func selectorSchema(description string) map[string]any {
	return inputSchema(map[string]any{
		"selector": map[string]any{"type": "string", "description": description},
	}, []string{"selector"})
}

func (d *Driver) registerNavigateToURL(srv *mcp.Server) {
	type request struct {
		URL string `json:"url"`
	}
	tool := &mcp.Tool{
		Name:        "navigate_to_url",
		Description: "Navigate the browser to a URL and wait for the page to load.",
		InputSchema: inputSchema(map[string]any{
			"url": map[string]any{"type": "string", "description": "Absolute URL to load"},
		}, []string{"url"}),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		return d.Navigate(ctx, req.(*request).URL), nil
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[request])
}

func (d *Driver) registerClickElement(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "click_element",
		Description: "Click the element matching a CSS selector.",
		InputSchema: selectorSchema("CSS selector of the element to click"),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		return d.Click(ctx, req.(*selectorRequest).Selector), nil
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[selectorRequest])
}

func (d *Driver) registerTypeText(srv *mcp.Server) {
	type request struct {
		Selector   string `json:"selector"`
		Text       string `json:"text"`
		ClearFirst *bool  `json:"clear_first,omitempty"`
	}
	tool := &mcp.Tool{
		Name:        "type_text",
		Description: "Type text into an input, clearing existing content first by default.",
		InputSchema: inputSchema(map[string]any{
			"selector":    map[string]any{"type": "string", "description": "CSS selector of the input"},
			"text":        map[string]any{"type": "string", "description": "Text to type"},
			"clear_first": map[string]any{"type": "boolean", "description": "Clear the field before typing (default true)"},
		}, []string{"selector", "text"}),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*request)
		clear := true
		if r.ClearFirst != nil {
			clear = *r.ClearFirst
		}
		return d.TypeText(ctx, r.Selector, r.Text, clear), nil
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[request])
}

func (d *Driver) registerGetElementText(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "get_element_text",
		Description: "Read the visible text of an element.",
		InputSchema: selectorSchema("CSS selector of the element"),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		return d.ElementText(ctx, req.(*selectorRequest).Selector), nil
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[selectorRequest])
}

func (d *Driver) registerGetPageSource(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "get_page_source",
		Description: "Return the rendered DOM of the current page, after JavaScript execution.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	endpoint := func(ctx context.Context, _ any) (any, error) {
		return d.Source(ctx), nil
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[emptyRequest])
}

func (d *Driver) registerGetPageMarkdown(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "get_page_markdown",
		Description: "Return the current page sanitized and converted to Markdown.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	endpoint := func(ctx context.Context, _ any) (any, error) {
		return d.SourceMarkdown(ctx), nil
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[emptyRequest])
}

func (d *Driver) registerTakeScreenshot(srv *mcp.Server) {
	type request struct {
		ElementSelector string `json:"element_selector,omitempty"`
	}
	tool := &mcp.Tool{
		Name:        "take_screenshot",
		Description: "Capture the page, or a single element, as base64 PNG.",
		InputSchema: inputSchema(map[string]any{
			"element_selector": map[string]any{"type": "string", "description": "Optional CSS selector to capture a single element"},
		}, nil),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		return d.Screenshot(ctx, req.(*request).ElementSelector), nil
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[request])
}

func (d *Driver) registerExecuteJavascript(srv *mcp.Server) {
	type request struct {
		Script string `json:"script"`
	}
	tool := &mcp.Tool{
		Name:        "execute_javascript",
		Description: "Run JavaScript in the page and return its value. The script may use return.",
		InputSchema: inputSchema(map[string]any{
			"script": map[string]any{"type": "string", "description": "JavaScript statements to execute"},
		}, []string{"script"}),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		return d.ExecuteJS(ctx, req.(*request).Script), nil
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[request])
}

func (d *Driver) registerWaitForElement(srv *mcp.Server) {
	type request struct {
		Selector string `json:"selector"`
		Timeout  int    `json:"timeout,omitempty"`
	}
	tool := &mcp.Tool{
		Name:        "wait_for_element",
		Description: "Wait for an element to appear, up to a timeout in seconds.",
		InputSchema: inputSchema(map[string]any{
			"selector": map[string]any{"type": "string", "description": "CSS selector to wait for"},
			"timeout":  map[string]any{"type": "integer", "description": "Timeout in seconds (default: driver timeout)"},
		}, []string{"selector"}),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*request)
		return d.WaitForElement(ctx, r.Selector, r.Timeout), nil
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[request])
}

func (d *Driver) registerGetCookies(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "get_cookies",
		Description: "List the cookies visible to the current page.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	endpoint := func(ctx context.Context, _ any) (any, error) {
		return d.Cookies(ctx), nil
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[emptyRequest])
}

func (d *Driver) registerSetCookie(srv *mcp.Server) {
	type request struct {
		Name   string `json:"name"`
		Value  string `json:"value"`
		Domain string `json:"domain,omitempty"`
		Path   string `json:"path,omitempty"`
	}
	tool := &mcp.Tool{
		Name:        "set_cookie",
		Description: "Set a cookie. Domain defaults to the current page, path to /.",
		InputSchema: inputSchema(map[string]any{
			"name":   map[string]any{"type": "string", "description": "Cookie name"},
			"value":  map[string]any{"type": "string", "description": "Cookie value"},
			"domain": map[string]any{"type": "string", "description": "Cookie domain (default: current page)"},
			"path":   map[string]any{"type": "string", "description": "Cookie path (default /)"},
		}, []string{"name", "value"}),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*request)
		return d.SetCookie(ctx, r.Name, r.Value, r.Domain, r.Path), nil
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[request])
}

func (d *Driver) registerScrollPage(srv *mcp.Server) {
	type request struct {
		Direction string `json:"direction,omitempty"`
		Pixels    int    `json:"pixels,omitempty"`
	}
	tool := &mcp.Tool{
		Name:        "scroll_page",
		Description: "Scroll the page by direction (down, up, left, right, top, bottom), optionally by a pixel amount.",
		InputSchema: inputSchema(map[string]any{
			"direction": map[string]any{"type": "string", "description": "Scroll direction (default down)"},
			"pixels":    map[string]any{"type": "integer", "description": "Pixel amount; omitted scrolls a full page"},
		}, nil),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*request)
		direction := r.Direction
		if direction == "" {
			direction = "down"
		}
		return d.Scroll(ctx, direction, r.Pixels), nil
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[request])
}

func (d *Driver) registerExtractLinks(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "extract_links",
		Description: "List every link on the current page with its text and title.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	endpoint := func(ctx context.Context, _ any) (any, error) {
		return d.ExtractLinks(ctx), nil
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[emptyRequest])
}

func (d *Driver) registerFillForm(srv *mcp.Server) {
	type request struct {
		FormData map[string]string `json:"form_data"`
	}
	tool := &mcp.Tool{
		Name:        "fill_form",
		Description: "Fill several form fields in one call, keyed by CSS selector.",
		InputSchema: inputSchema(map[string]any{
			"form_data": map[string]any{
				"type":        "object",
				"description": "Map of CSS selector to value; booleans for checkboxes, visible text for selects",
			},
		}, []string{"form_data"}),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		return d.FillForm(ctx, req.(*request).FormData), nil
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[request])
}

func (d *Driver) registerGetCurrentURL(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "get_current_url",
		Description: "Return the current page URL and title.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	endpoint := func(ctx context.Context, _ any) (any, error) {
		return d.CurrentURL(ctx), nil
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[emptyRequest])
}

func (d *Driver) registerRefreshPage(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "refresh_page",
		Description: "Reload the current page.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	endpoint := func(ctx context.Context, _ any) (any, error) {
		return d.Refresh(ctx), nil
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[emptyRequest])
}

func (d *Driver) registerGoBack(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "go_back",
		Description: "Navigate one entry back in browser history.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	endpoint := func(ctx context.Context, _ any) (any, error) {
		return d.Back(ctx), nil
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[emptyRequest])
}

func (d *Driver) registerGoForward(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "go_forward",
		Description: "Navigate one entry forward in browser history.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	endpoint := func(ctx context.Context, _ any) (any, error) {
		return d.Forward(ctx), nil
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[emptyRequest])
}

func (d *Driver) registerIsElementPresent(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "is_element_present",
		Description: "Check whether an element exists on the page, without waiting.",
		InputSchema: selectorSchema("CSS selector to check"),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		return d.IsElementPresent(ctx, req.(*selectorRequest).Selector), nil
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[selectorRequest])
}

func (d *Driver) registerGetElementAttribute(srv *mcp.Server) {
	type request struct {
		Selector  string `json:"selector"`
		Attribute string `json:"attribute"`
	}
	tool := &mcp.Tool{
		Name:        "get_element_attribute",
		Description: "Read one attribute from an element.",
		InputSchema: inputSchema(map[string]any{
			"selector":  map[string]any{"type": "string", "description": "CSS selector of the element"},
			"attribute": map[string]any{"type": "string", "description": "Attribute name to read"},
		}, []string{"selector", "attribute"}),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*request)
		return d.ElementAttribute(ctx, r.Selector, r.Attribute), nil
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[request])
}

func (d *Driver) registerClearField(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "clear_field",
		Description: "Empty an input or textarea.",
		InputSchema: selectorSchema("CSS selector of the field to clear"),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		return d.ClearField(ctx, req.(*selectorRequest).Selector), nil
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[selectorRequest])
}

func (d *Driver) registerSelectDropdownOption(srv *mcp.Server) {
	type request struct {
		Selector    string `json:"selector"`
		OptionText  string `json:"option_text,omitempty"`
		OptionValue string `json:"option_value,omitempty"`
	}
	tool := &mcp.Tool{
		Name:        "select_dropdown_option",
		Description: "Select a dropdown option by visible text or by value attribute.",
		InputSchema: inputSchema(map[string]any{
			"selector":     map[string]any{"type": "string", "description": "CSS selector of the select element"},
			"option_text":  map[string]any{"type": "string", "description": "Visible text of the option"},
			"option_value": map[string]any{"type": "string", "description": "Value attribute of the option"},
		}, []string{"selector"}),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*request)
		return d.SelectDropdown(ctx, r.Selector, r.OptionText, r.OptionValue), nil
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[request])
}
