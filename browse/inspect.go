package browse

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-rod/rod/lib/proto"

	"github.com/agentmem/pagesense/extract"
)

// Source returns the rendered DOM of the current page. The DOM is read
// after JavaScript execution, not the raw server response.
func (d *Driver) Source(ctx context.Context) *SourceResult {
	markup, url, err := d.PageSource(ctx)
	if err != nil {
		return &SourceResult{Error: err.Error()}
	}
	return &SourceResult{Success: true, Source: markup, URL: url}
}

// SourceMarkdown returns the current page sanitized and rendered as
// Markdown, a compact form for feeding page content to a model.
func (d *Driver) SourceMarkdown(ctx context.Context) *MarkdownResult {
	markup, url, err := d.PageSource(ctx)
	if err != nil {
		return &MarkdownResult{Error: err.Error()}
	}
	md, err := extract.Markdown(markup, url)
	if err != nil {
		return &MarkdownResult{Error: err.Error()}
	}
	return &MarkdownResult{Success: true, Markdown: md, URL: url}
}

// ElementText reads the visible text of an element.
func (d *Driver) ElementText(ctx context.Context, selector string) *TextResult {
	el, err := d.element(ctx, selector)
	if err != nil {
		return &TextResult{Error: err.Error()}
	}
	text, err := el.Text()
	if err != nil {
		return &TextResult{Error: err.Error()}
	}
	return &TextResult{Success: true, Text: text}
}

// ElementAttribute reads one attribute from an element.
func (d *Driver) ElementAttribute(ctx context.Context, selector, attribute string) *AttrResult {
	el, err := d.element(ctx, selector)
	if err != nil {
		return &AttrResult{Error: err.Error()}
	}
	val, err := el.Attribute(attribute)
	if err != nil {
		return &AttrResult{Error: err.Error()}
	}
	res := &AttrResult{Success: true, Attribute: attribute}
	if val != nil {
		res.Found = true
		res.Value = *val
	}
	return res
}

// IsElementPresent checks for a selector without waiting.
func (d *Driver) IsElementPresent(ctx context.Context, selector string) *PresenceResult {
	page, err := d.activePage(ctx)
	if err != nil {
		return &PresenceResult{Error: err.Error()}
	}
	has, _, err := page.Context(ctx).Has(selector)
	if err != nil {
		return &PresenceResult{Error: err.Error()}
	}
	return &PresenceResult{Success: true, Present: has}
}

// Screenshot captures the page, or a single element when selector is given,
// as base64 PNG.
func (d *Driver) Screenshot(ctx context.Context, selector string) *ScreenshotResult {
	var png []byte
	if selector != "" {
		el, err := d.element(ctx, selector)
		if err != nil {
			return &ScreenshotResult{Error: err.Error()}
		}
		png, err = el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
		if err != nil {
			return &ScreenshotResult{Error: err.Error()}
		}
	} else {
		page, err := d.activePage(ctx)
		if err != nil {
			return &ScreenshotResult{Error: err.Error()}
		}
		png, err = page.Context(ctx).Screenshot(false, nil)
		if err != nil {
			return &ScreenshotResult{Error: err.Error()}
		}
	}
	return &ScreenshotResult{
		Success:    true,
		Screenshot: base64.StdEncoding.EncodeToString(png),
		Format:     "png",
	}
}

// ExecuteJS runs a JavaScript statement block in the page and returns its
// value. The script body may use return.
func (d *Driver) ExecuteJS(ctx context.Context, script string) *EvalResult {
	page, err := d.activePage(ctx)
	if err != nil {
		return &EvalResult{Error: err.Error()}
	}
	res, err := page.Context(ctx).Eval(wrapScript(script))
	if err != nil {
		return &EvalResult{Error: err.Error()}
	}
	return &EvalResult{Success: true, Result: res.Value.Val()}
}

// wrapScript turns a raw statement block into the function form Rod
// evaluates. Scripts already written as functions pass through.
func wrapScript(script string) string {
	trimmed := strings.TrimSpace(script)
	if strings.HasPrefix(trimmed, "()") || strings.HasPrefix(trimmed, "function") {
		return trimmed
	}
	return fmt.Sprintf("() => { %s }", trimmed)
}

// Cookies returns the cookies visible to the current page.
func (d *Driver) Cookies(ctx context.Context) *CookiesResult {
	page, err := d.activePage(ctx)
	if err != nil {
		return &CookiesResult{Error: err.Error()}
	}
	raw, err := page.Context(ctx).Cookies(nil)
	if err != nil {
		return &CookiesResult{Error: err.Error()}
	}
	cookies := make([]Cookie, 0, len(raw))
	for _, c := range raw {
		cookies = append(cookies, Cookie{Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path})
	}
	return &CookiesResult{Success: true, Cookies: cookies}
}

// SetCookie sets one cookie. Domain defaults to the current page's domain
// and path to "/".
func (d *Driver) SetCookie(ctx context.Context, name, value, domain, path string) *OpResult {
	page, err := d.activePage(ctx)
	if err != nil {
		return &OpResult{Error: err.Error()}
	}
	if path == "" {
		path = "/"
	}
	param := &proto.NetworkCookieParam{Name: name, Value: value, Path: path}
	if domain != "" {
		param.Domain = domain
	} else {
		info, err := page.Context(ctx).Info()
		if err != nil {
			return &OpResult{Error: err.Error()}
		}
		param.URL = info.URL
	}
	if err := page.Context(ctx).SetCookies([]*proto.NetworkCookieParam{param}); err != nil {
		return &OpResult{Error: err.Error()}
	}
	return &OpResult{Success: true, Message: fmt.Sprintf("cookie %q set", name)}
}

// ExtractLinks lists every anchor with an href on the current page.
func (d *Driver) ExtractLinks(ctx context.Context) *LinksResult {
	page, err := d.activePage(ctx)
	if err != nil {
		return &LinksResult{Error: err.Error()}
	}
	res, err := page.Context(ctx).Eval(`() =>
		Array.from(document.querySelectorAll('a[href]')).map(a => ({
			url: a.href,
			text: a.textContent.trim(),
			title: a.title || '',
		}))`)
	if err != nil {
		return &LinksResult{Error: err.Error()}
	}
	raw, err := json.Marshal(res.Value.Val())
	if err != nil {
		return &LinksResult{Error: err.Error()}
	}
	var links []Link
	if err := json.Unmarshal(raw, &links); err != nil {
		return &LinksResult{Error: err.Error()}
	}
	return &LinksResult{Success: true, Links: links, Count: len(links)}
}
