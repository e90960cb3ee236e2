package browse

// Every operation returns a result carrying a Success flag and, on failure,
// the error message. Browser faults are reported to the caller rather than
// raised, so a driving agent can always inspect what went wrong.

// NavResult reports a navigation-class operation.
type NavResult struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Title   string `json:"title,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OpResult reports a fire-and-forget operation.
type OpResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TextResult carries text read from an element.
type TextResult struct {
	Success bool   `json:"success"`
	Text    string `json:"text,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SourceResult carries the rendered page markup.
type SourceResult struct {
	Success bool   `json:"success"`
	Source  string `json:"source,omitempty"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

// MarkdownResult carries the page rendered as Markdown.
type MarkdownResult struct {
	Success  bool   `json:"success"`
	Markdown string `json:"markdown,omitempty"`
	URL      string `json:"url,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ScreenshotResult carries a base64-encoded PNG.
type ScreenshotResult struct {
	Success    bool   `json:"success"`
	Screenshot string `json:"screenshot,omitempty"`
	Format     string `json:"format,omitempty"`
	Error      string `json:"error,omitempty"`
}

// EvalResult carries the value produced by injected JavaScript.
type EvalResult struct {
	Success bool   `json:"success"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Cookie is one browser cookie.
type Cookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain,omitempty"`
	Path   string `json:"path,omitempty"`
}

// CookiesResult carries the current page's cookies.
type CookiesResult struct {
	Success bool     `json:"success"`
	Cookies []Cookie `json:"cookies"`
	Error   string   `json:"error,omitempty"`
}

// Link is one anchor extracted from the page.
type Link struct {
	URL   string `json:"url"`
	Text  string `json:"text"`
	Title string `json:"title,omitempty"`
}

// LinksResult carries all links on the current page.
type LinksResult struct {
	Success bool   `json:"success"`
	Links   []Link `json:"links"`
	Count   int    `json:"count"`
	Error   string `json:"error,omitempty"`
}

// FieldResult is the per-field outcome of a form fill.
type FieldResult struct {
	Field   string `json:"field"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// FormResult aggregates a form fill. Success means every field succeeded.
type FormResult struct {
	Success      bool          `json:"success"`
	Results      []FieldResult `json:"results"`
	FilledFields int           `json:"filled_fields"`
	TotalFields  int           `json:"total_fields"`
	Error        string        `json:"error,omitempty"`
}

// PresenceResult reports whether an element exists, without waiting.
type PresenceResult struct {
	Success bool   `json:"success"`
	Present bool   `json:"present"`
	Error   string `json:"error,omitempty"`
}

// AttrResult carries one element attribute. A present attribute with an
// empty value and a missing attribute are distinguished by Found.
type AttrResult struct {
	Success   bool   `json:"success"`
	Attribute string `json:"attribute,omitempty"`
	Value     string `json:"value,omitempty"`
	Found     bool   `json:"found"`
	Error     string `json:"error,omitempty"`
}
