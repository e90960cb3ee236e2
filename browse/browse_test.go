package browse

import (
	"testing"
	"time"
)

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.defaults()

	if cfg.Timeout != 30*time.Second {
		t.Errorf("timeout = %v, want 30s", cfg.Timeout)
	}
	if cfg.WindowWidth != 1920 || cfg.WindowHeight != 1080 {
		t.Errorf("window = %dx%d, want 1920x1080", cfg.WindowWidth, cfg.WindowHeight)
	}
	if cfg.Logger == nil {
		t.Error("logger not defaulted")
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("BROWSER_HEADLESS", "false")
	t.Setenv("BROWSER_STEALTH", "1")
	t.Setenv("BROWSER_TIMEOUT", "45")
	t.Setenv("BROWSER_WINDOW_SIZE", "1280x720")
	t.Setenv("BROWSER_USER_AGENT", "test-agent")
	t.Setenv("BROWSER_REMOTE_URL", "ws://chrome:9222")

	cfg := ConfigFromEnv()
	if cfg.Headless {
		t.Error("headless should be false")
	}
	if !cfg.Stealth {
		t.Error("stealth should be true")
	}
	if cfg.Timeout != 45*time.Second {
		t.Errorf("timeout = %v", cfg.Timeout)
	}
	if cfg.WindowWidth != 1280 || cfg.WindowHeight != 720 {
		t.Errorf("window = %dx%d", cfg.WindowWidth, cfg.WindowHeight)
	}
	if cfg.UserAgent != "test-agent" {
		t.Errorf("user agent = %q", cfg.UserAgent)
	}
	if cfg.RemoteURL != "ws://chrome:9222" {
		t.Errorf("remote url = %q", cfg.RemoteURL)
	}
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("BROWSER_HEADLESS", "")
	t.Setenv("BROWSER_STEALTH", "")
	t.Setenv("BROWSER_TIMEOUT", "")
	t.Setenv("BROWSER_WINDOW_SIZE", "")

	cfg := ConfigFromEnv()
	if !cfg.Headless {
		t.Error("headless should default to true")
	}
	if !cfg.Stealth {
		t.Error("stealth should default to true")
	}
	cfg.defaults()
	if cfg.Timeout != 30*time.Second {
		t.Errorf("timeout = %v", cfg.Timeout)
	}
}

func TestParseWindowSize(t *testing.T) {
	tests := []struct {
		in   string
		w, h int
	}{
		{"1920x1080", 1920, 1080},
		{"800x600", 800, 600},
		{"", 0, 0},
		{"bogus", 0, 0},
		{"1920x", 0, 0},
		{"-1x100", 0, 0},
	}
	for _, tc := range tests {
		w, h := parseWindowSize(tc.in)
		if w != tc.w || h != tc.h {
			t.Errorf("parseWindowSize(%q) = %dx%d, want %dx%d", tc.in, w, h, tc.w, tc.h)
		}
	}
}

func TestScrollScript(t *testing.T) {
	tests := []struct {
		direction string
		pixels    int
		want      string
		wantErr   bool
	}{
		{"down", 0, `() => window.scrollBy(0, document.body.scrollHeight)`, false},
		{"up", 0, `() => window.scrollBy(0, -document.body.scrollHeight)`, false},
		{"top", 0, `() => window.scrollTo(0, 0)`, false},
		{"bottom", 0, `() => window.scrollTo(0, document.body.scrollHeight)`, false},
		{"down", 250, `() => window.scrollBy(0, 250)`, false},
		{"up", 250, `() => window.scrollBy(0, -250)`, false},
		{"left", 100, `() => window.scrollBy(-100, 0)`, false},
		{"right", 100, `() => window.scrollBy(100, 0)`, false},
		{"DOWN", 0, `() => window.scrollBy(0, document.body.scrollHeight)`, false},
		{"sideways", 0, "", true},
		{"top", 100, "", true},
	}
	for _, tc := range tests {
		got, err := scrollScript(tc.direction, tc.pixels)
		if tc.wantErr {
			if err == nil {
				t.Errorf("scrollScript(%q, %d): expected error", tc.direction, tc.pixels)
			}
			continue
		}
		if err != nil {
			t.Errorf("scrollScript(%q, %d): %v", tc.direction, tc.pixels, err)
			continue
		}
		if got != tc.want {
			t.Errorf("scrollScript(%q, %d) = %q, want %q", tc.direction, tc.pixels, got, tc.want)
		}
	}
}

func TestWrapScript(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"return 1 + 1;", "() => { return 1 + 1; }"},
		{"() => document.title", "() => document.title"},
		{"function() { return 2 }", "function() { return 2 }"},
		{"  return document.title  ", "() => { return document.title }"},
	}
	for _, tc := range tests {
		if got := wrapScript(tc.in); got != tc.want {
			t.Errorf("wrapScript(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTruthy(t *testing.T) {
	for _, v := range []string{"true", "TRUE", "1", "yes", "on"} {
		if !truthy(v) {
			t.Errorf("truthy(%q) = false", v)
		}
	}
	for _, v := range []string{"false", "0", "no", "off", ""} {
		if truthy(v) {
			t.Errorf("truthy(%q) = true", v)
		}
	}
}

func TestDriverClosed(t *testing.T) {
	d := NewDriver(Config{})
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	res := d.CurrentURL(t.Context())
	if res.Success {
		t.Error("operation on closed driver should fail")
	}
	if res.Error == "" {
		t.Error("closed driver error message missing")
	}
}
