// Package browse drives a Chrome instance through Rod and exposes the
// browsing operations the agent needs: navigation, interaction, inspection
// and page capture. A Driver owns one browser and one active page; the
// page-understanding engine consumes it only through the narrow
// SnapshotProvider contract.
package browse

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Config configures the browser driver.
type Config struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome via launcher.
	RemoteURL string `json:"remote_url" yaml:"remote_url"`

	// Headless controls local Chrome launch mode. Default: true.
	Headless bool `json:"headless" yaml:"headless"`

	// Stealth applies anti-automation-detection page setup. Default: true.
	Stealth bool `json:"stealth" yaml:"stealth"`

	// Timeout bounds navigation and element waits. Default: 30s.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// WindowWidth and WindowHeight set the viewport. Default: 1920x1080.
	WindowWidth  int `json:"window_width" yaml:"window_width"`
	WindowHeight int `json:"window_height" yaml:"window_height"`

	// UserAgent overrides the browser user agent when non-empty.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.WindowWidth <= 0 {
		c.WindowWidth = 1920
	}
	if c.WindowHeight <= 0 {
		c.WindowHeight = 1080
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// ConfigFromEnv reads the BROWSER_* environment variables.
func ConfigFromEnv() Config {
	cfg := Config{
		RemoteURL: os.Getenv("BROWSER_REMOTE_URL"),
		Headless:  envBool("BROWSER_HEADLESS", true),
		Stealth:   envBool("BROWSER_STEALTH", true),
		UserAgent: os.Getenv("BROWSER_USER_AGENT"),
	}
	if sec, err := strconv.Atoi(os.Getenv("BROWSER_TIMEOUT")); err == nil && sec > 0 {
		cfg.Timeout = time.Duration(sec) * time.Second
	}
	cfg.WindowWidth, cfg.WindowHeight = parseWindowSize(os.Getenv("BROWSER_WINDOW_SIZE"))
	return cfg
}

func envBool(key string, def bool) bool {
	v := strings.ToLower(os.Getenv(key))
	if v == "" {
		return def
	}
	return v == "true" || v == "1" || v == "yes"
}

// parseWindowSize parses "1920x1080". Zero values mean "use defaults".
func parseWindowSize(s string) (w, h int) {
	parts := strings.SplitN(s, "x", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	w, _ = strconv.Atoi(parts[0])
	h, _ = strconv.Atoi(parts[1])
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	return w, h
}

// Driver owns one Chrome instance and its active page. The browser launches
// lazily on first use so constructing a Driver is cheap and never fails.
type Driver struct {
	cfg Config

	mu      sync.Mutex
	lnch    *launcher.Launcher
	browser *rod.Browser
	page    *rod.Page
	closed  bool
}

// NewDriver creates a Driver. The browser starts on first operation.
func NewDriver(cfg Config) *Driver {
	cfg.defaults()
	return &Driver{cfg: cfg}
}

// Start launches Chrome (or connects to a remote instance) and opens the
// driver's page. Safe to call more than once.
func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.ensurePageLocked(ctx)
	return err
}

// Close shuts down the page and the browser. The Driver cannot be reused.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	if d.page != nil {
		_ = d.page.Close()
		d.page = nil
	}
	if d.browser != nil {
		_ = d.browser.Close()
		d.browser = nil
	}
	if d.lnch != nil {
		d.lnch.Cleanup()
		d.lnch = nil
	}
	return nil
}

// activePage returns the driver's page, launching the browser if needed.
func (d *Driver) activePage(ctx context.Context) (*rod.Page, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ensurePageLocked(ctx)
}

func (d *Driver) ensurePageLocked(ctx context.Context) (*rod.Page, error) {
	if d.closed {
		return nil, fmt.Errorf("browse: driver is closed")
	}
	if d.page != nil {
		return d.page, nil
	}

	log := d.cfg.Logger

	wsURL := d.cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().
			Headless(d.cfg.Headless).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browse: launch chrome: %w", err)
		}
		d.lnch = l
		wsURL = u
		log.Info("browser launched", "headless", d.cfg.Headless)
	} else {
		log.Info("connecting to remote browser", "url", wsURL)
	}

	b := rod.New().ControlURL(wsURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("browse: connect: %w", err)
	}
	d.browser = b

	var page *rod.Page
	var err error
	if d.cfg.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("browse: open page: %w", err)
	}

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             d.cfg.WindowWidth,
		Height:            d.cfg.WindowHeight,
		DeviceScaleFactor: 1,
		Mobile:            false,
	}).Call(page); err != nil {
		log.Warn("viewport override failed", "error", err)
	}

	if d.cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: d.cfg.UserAgent}); err != nil {
			log.Warn("user agent override failed", "error", err)
		}
	}

	d.page = page
	return page, nil
}

// element resolves a selector on the active page within the driver timeout.
func (d *Driver) element(ctx context.Context, selector string) (*rod.Element, error) {
	page, err := d.activePage(ctx)
	if err != nil {
		return nil, err
	}
	el, err := page.Context(ctx).Timeout(d.cfg.Timeout).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("browse: element %s: %w", selector, err)
	}
	return el, nil
}

// PageSource returns the rendered DOM and current URL. This is the
// SnapshotProvider contract the page-understanding engine consumes.
func (d *Driver) PageSource(ctx context.Context) (string, string, error) {
	page, err := d.activePage(ctx)
	if err != nil {
		return "", "", err
	}
	res, err := page.Context(ctx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return "", "", fmt.Errorf("browse: read DOM: %w", err)
	}
	info, err := page.Context(ctx).Info()
	if err != nil {
		return "", "", fmt.Errorf("browse: page info: %w", err)
	}
	return res.Value.Str(), info.URL, nil
}
