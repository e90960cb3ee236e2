package browse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Navigate loads a URL in the active page and waits for the load event.
func (d *Driver) Navigate(ctx context.Context, url string) *NavResult {
	page, err := d.activePage(ctx)
	if err != nil {
		return &NavResult{Error: err.Error()}
	}
	p := page.Context(ctx).Timeout(d.cfg.Timeout)
	if err := p.Navigate(url); err != nil {
		d.cfg.Logger.Error("navigation failed", "url", url, "error", err)
		return &NavResult{Error: err.Error()}
	}
	if err := p.WaitLoad(); err != nil {
		d.cfg.Logger.Warn("wait load timed out", "url", url, "error", err)
	}
	return d.navState(ctx, page)
}

// Refresh reloads the current page.
func (d *Driver) Refresh(ctx context.Context) *NavResult {
	page, err := d.activePage(ctx)
	if err != nil {
		return &NavResult{Error: err.Error()}
	}
	if err := page.Context(ctx).Timeout(d.cfg.Timeout).Reload(); err != nil {
		return &NavResult{Error: err.Error()}
	}
	return d.navState(ctx, page)
}

// Back navigates one entry back in session history.
func (d *Driver) Back(ctx context.Context) *NavResult {
	page, err := d.activePage(ctx)
	if err != nil {
		return &NavResult{Error: err.Error()}
	}
	if err := page.Context(ctx).Timeout(d.cfg.Timeout).NavigateBack(); err != nil {
		return &NavResult{Error: err.Error()}
	}
	return d.navState(ctx, page)
}

// Forward navigates one entry forward in session history.
func (d *Driver) Forward(ctx context.Context) *NavResult {
	page, err := d.activePage(ctx)
	if err != nil {
		return &NavResult{Error: err.Error()}
	}
	if err := page.Context(ctx).Timeout(d.cfg.Timeout).NavigateForward(); err != nil {
		return &NavResult{Error: err.Error()}
	}
	return d.navState(ctx, page)
}

// CurrentURL reports the active page's URL and title.
func (d *Driver) CurrentURL(ctx context.Context) *NavResult {
	page, err := d.activePage(ctx)
	if err != nil {
		return &NavResult{Error: err.Error()}
	}
	return d.navState(ctx, page)
}

func (d *Driver) navState(ctx context.Context, page *rod.Page) *NavResult {
	info, err := page.Context(ctx).Info()
	if err != nil {
		return &NavResult{Error: err.Error()}
	}
	return &NavResult{Success: true, URL: info.URL, Title: info.Title}
}

// Click scrolls an element into view and clicks it.
func (d *Driver) Click(ctx context.Context, selector string) *OpResult {
	el, err := d.element(ctx, selector)
	if err != nil {
		return &OpResult{Error: err.Error()}
	}
	if err := el.ScrollIntoView(); err != nil {
		d.cfg.Logger.Warn("scroll into view failed", "selector", selector, "error", err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return &OpResult{Error: err.Error()}
	}
	return &OpResult{Success: true, Message: fmt.Sprintf("clicked %s", selector)}
}

// TypeText types into an element, clearing existing content first unless
// told otherwise.
func (d *Driver) TypeText(ctx context.Context, selector, text string, clearFirst bool) *OpResult {
	el, err := d.element(ctx, selector)
	if err != nil {
		return &OpResult{Error: err.Error()}
	}
	if clearFirst {
		if err := clearElement(el); err != nil {
			return &OpResult{Error: err.Error()}
		}
	}
	if err := el.Input(text); err != nil {
		return &OpResult{Error: err.Error()}
	}
	return &OpResult{Success: true, Message: fmt.Sprintf("typed into %s", selector)}
}

// ClearField empties an input or textarea.
func (d *Driver) ClearField(ctx context.Context, selector string) *OpResult {
	el, err := d.element(ctx, selector)
	if err != nil {
		return &OpResult{Error: err.Error()}
	}
	if err := clearElement(el); err != nil {
		return &OpResult{Error: err.Error()}
	}
	return &OpResult{Success: true, Message: fmt.Sprintf("cleared %s", selector)}
}

func clearElement(el *rod.Element) error {
	if err := el.SelectAllText(); err != nil {
		return err
	}
	return el.Input("")
}

// WaitForElement blocks until the selector matches or the timeout elapses.
func (d *Driver) WaitForElement(ctx context.Context, selector string, timeoutSec int) *OpResult {
	page, err := d.activePage(ctx)
	if err != nil {
		return &OpResult{Error: err.Error()}
	}
	timeout := d.cfg.Timeout
	if timeoutSec > 0 {
		timeout = time.Duration(timeoutSec) * time.Second
	}
	if _, err := page.Context(ctx).Timeout(timeout).Element(selector); err != nil {
		return &OpResult{Error: fmt.Sprintf("element not found within %v: %s", timeout, selector)}
	}
	return &OpResult{Success: true, Message: fmt.Sprintf("element found: %s", selector)}
}

// SelectDropdown selects an option by visible text or by value attribute.
// Exactly one of optionText and optionValue should be set; text wins.
func (d *Driver) SelectDropdown(ctx context.Context, selector, optionText, optionValue string) *OpResult {
	el, err := d.element(ctx, selector)
	if err != nil {
		return &OpResult{Error: err.Error()}
	}
	switch {
	case optionText != "":
		if err := el.Select([]string{optionText}, true, rod.SelectorTypeText); err != nil {
			return &OpResult{Error: err.Error()}
		}
	case optionValue != "":
		if err := el.Select([]string{fmt.Sprintf(`[value=%q]`, optionValue)}, true, rod.SelectorTypeCSSSector); err != nil {
			return &OpResult{Error: err.Error()}
		}
	default:
		return &OpResult{Error: "option_text or option_value required"}
	}
	return &OpResult{Success: true, Message: fmt.Sprintf("selected option in %s", selector)}
}

// Scroll scrolls the page. Without pixels, down/up move a full page height
// and top/bottom jump to the document edges.
func (d *Driver) Scroll(ctx context.Context, direction string, pixels int) *OpResult {
	script, err := scrollScript(direction, pixels)
	if err != nil {
		return &OpResult{Error: err.Error()}
	}
	page, err := d.activePage(ctx)
	if err != nil {
		return &OpResult{Error: err.Error()}
	}
	if _, err := page.Context(ctx).Eval(script); err != nil {
		return &OpResult{Error: err.Error()}
	}
	return &OpResult{Success: true, Message: fmt.Sprintf("scrolled %s", direction)}
}

func scrollScript(direction string, pixels int) (string, error) {
	dir := strings.ToLower(direction)
	if pixels > 0 {
		switch dir {
		case "down":
			return fmt.Sprintf(`() => window.scrollBy(0, %d)`, pixels), nil
		case "up":
			return fmt.Sprintf(`() => window.scrollBy(0, -%d)`, pixels), nil
		case "left":
			return fmt.Sprintf(`() => window.scrollBy(-%d, 0)`, pixels), nil
		case "right":
			return fmt.Sprintf(`() => window.scrollBy(%d, 0)`, pixels), nil
		}
		return "", fmt.Errorf("browse: invalid scroll direction %q", direction)
	}
	switch dir {
	case "down":
		return `() => window.scrollBy(0, document.body.scrollHeight)`, nil
	case "up":
		return `() => window.scrollBy(0, -document.body.scrollHeight)`, nil
	case "top":
		return `() => window.scrollTo(0, 0)`, nil
	case "bottom":
		return `() => window.scrollTo(0, document.body.scrollHeight)`, nil
	}
	return "", fmt.Errorf("browse: invalid scroll direction %q", direction)
}

// FillForm fills several fields keyed by selector. Checkboxes and radios
// interpret the value as a boolean, selects match by visible text, and
// everything else is cleared and typed.
func (d *Driver) FillForm(ctx context.Context, fields map[string]string) *FormResult {
	res := &FormResult{TotalFields: len(fields)}
	for selector, value := range fields {
		if err := d.fillField(ctx, selector, value); err != nil {
			res.Results = append(res.Results, FieldResult{Field: selector, Error: err.Error()})
			continue
		}
		res.Results = append(res.Results, FieldResult{
			Field:   selector,
			Success: true,
			Message: fmt.Sprintf("filled %s", selector),
		})
		res.FilledFields++
	}
	res.Success = res.FilledFields == res.TotalFields
	return res
}

func (d *Driver) fillField(ctx context.Context, selector, value string) error {
	el, err := d.element(ctx, selector)
	if err != nil {
		return err
	}

	tag, err := elementTag(el)
	if err != nil {
		return err
	}
	inputType := ""
	if t, err := el.Attribute("type"); err == nil && t != nil {
		inputType = strings.ToLower(*t)
	}

	switch {
	case tag == "select":
		return el.Select([]string{value}, true, rod.SelectorTypeText)
	case inputType == "checkbox" || inputType == "radio":
		if !truthy(value) {
			return nil
		}
		selected, err := checked(el)
		if err != nil {
			return err
		}
		if !selected {
			return el.Click(proto.InputMouseButtonLeft, 1)
		}
		return nil
	default:
		if err := clearElement(el); err != nil {
			return err
		}
		return el.Input(value)
	}
}

func elementTag(el *rod.Element) (string, error) {
	res, err := el.Eval(`() => this.tagName.toLowerCase()`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func checked(el *rod.Element) (bool, error) {
	res, err := el.Eval(`() => this.checked === true`)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}
