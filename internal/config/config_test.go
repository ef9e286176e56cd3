package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Database.Timeout != 1*time.Second {
		t.Errorf("Database.Timeout = %v, want 1s", cfg.Database.Timeout)
	}
	if cfg.Feed.HTTPTimeout != 15*time.Second {
		t.Errorf("Feed.HTTPTimeout = %v, want 15s", cfg.Feed.HTTPTimeout)
	}
	if cfg.Feed.RefreshInterval != 10*time.Minute {
		t.Errorf("Feed.RefreshInterval = %v, want 10m", cfg.Feed.RefreshInterval)
	}
	if cfg.Feed.MaxConcurrency != 4 {
		t.Errorf("Feed.MaxConcurrency = %d, want 4", cfg.Feed.MaxConcurrency)
	}
	if cfg.UI.Layout.InboxPercent != 75 || cfg.UI.Layout.ChromeRows != 2 || cfg.UI.Layout.BorderRows != 2 {
		t.Errorf("UI.Layout = %+v, want {75 2 2}", cfg.UI.Layout)
	}
	if cfg.UI.PreviewLength != 700 {
		t.Errorf("UI.PreviewLength = %d, want 700", cfg.UI.PreviewLength)
	}
	if len(cfg.Feeds) != 6 || cfg.Feeds[0].Name != "BBC" {
		t.Errorf("Feeds = %+v, want the six default feeds starting with BBC", cfg.Feeds)
	}
	if !reflect.DeepEqual(cfg.Keys.Bindings.Down, []string{"j", "down"}) {
		t.Errorf("Keys.Bindings.Down = %v", cfg.Keys.Bindings.Down)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_DefaultConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Feeds) != len(DefaultFeeds()) {
		t.Errorf("len(Feeds) = %d, want %d", len(cfg.Feeds), len(DefaultFeeds()))
	}
	if !filepath.IsAbs(cfg.Database.Path) {
		t.Errorf("Database.Path = %q, want an absolute path", cfg.Database.Path)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	configPath := writeFile(t, dir, "config.toml", `
[[feeds]]
name = "Hacker News"
url = "https://hnrss.org/frontpage"

[[feeds]]
name = "Lobsters"
url = "https://lobste.rs/rss"

[database]
path = "/tmp/newsbox-test.db"
timeout = "10s"

[feed]
http_timeout = "60s"
refresh_interval = "1h"
user_agent = "test-agent"

[ui.colors]
primary = "#FF0000"

[ui.layout]
inbox_percent = 60

[keys.bindings]
quit = ["x", "ctrl+q"]
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := []FeedEntry{
		{Name: "Hacker News", URL: "https://hnrss.org/frontpage"},
		{Name: "Lobsters", URL: "https://lobste.rs/rss"},
	}
	if !reflect.DeepEqual(cfg.Feeds, want) {
		t.Errorf("Feeds = %+v, want %+v", cfg.Feeds, want)
	}
	if cfg.Database.Path != "/tmp/newsbox-test.db" {
		t.Errorf("Database.Path = %s, want '/tmp/newsbox-test.db'", cfg.Database.Path)
	}
	if cfg.Database.Timeout != 10*time.Second {
		t.Errorf("Database.Timeout = %v, want 10s", cfg.Database.Timeout)
	}
	if cfg.Feed.HTTPTimeout != 60*time.Second {
		t.Errorf("Feed.HTTPTimeout = %v, want 60s", cfg.Feed.HTTPTimeout)
	}
	if cfg.Feed.RefreshInterval != time.Hour {
		t.Errorf("Feed.RefreshInterval = %v, want 1h", cfg.Feed.RefreshInterval)
	}
	if cfg.Feed.MaxConcurrency != 4 {
		t.Errorf("Feed.MaxConcurrency = %d, want default 4", cfg.Feed.MaxConcurrency)
	}
	if cfg.UI.Colors.Primary != "#FF0000" {
		t.Errorf("UI.Colors.Primary = %s, want '#FF0000'", cfg.UI.Colors.Primary)
	}
	if cfg.UI.Colors.Secondary != "#4ECDC4" {
		t.Errorf("UI.Colors.Secondary = %s, want default", cfg.UI.Colors.Secondary)
	}
	if cfg.UI.Layout.InboxPercent != 60 || cfg.UI.Layout.ChromeRows != 2 {
		t.Errorf("UI.Layout = %+v, want inbox_percent overridden only", cfg.UI.Layout)
	}
	if !reflect.DeepEqual(cfg.Keys.Bindings.Quit, []string{"x", "ctrl+q"}) {
		t.Errorf("Keys.Bindings.Quit = %v", cfg.Keys.Bindings.Quit)
	}
	if !reflect.DeepEqual(cfg.Keys.Bindings.Refresh, []string{"r"}) {
		t.Errorf("Keys.Bindings.Refresh = %v, want default", cfg.Keys.Bindings.Refresh)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	configPath := writeFile(t, t.TempDir(), "config.toml", "[feed\nbroken")

	if _, err := Load(configPath); err == nil {
		t.Fatal("expected an error for malformed TOML")
	}
}

func TestLoad_FeedsFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NEWSBOX_TEST_HOST", "lobste.rs")
	feedsPath := writeFile(t, dir, "feeds.yaml", `
- name: Lobsters
  url: https://${NEWSBOX_TEST_HOST}/rss
- name: Go Blog
  url: https://go.dev/blog/feed.atom
`)

	t.Run("replaces defaults", func(t *testing.T) {
		configPath := writeFile(t, dir, "only-file.toml", "feeds_file = \""+feedsPath+"\"\n")
		cfg, err := Load(configPath)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		want := []FeedEntry{
			{Name: "Lobsters", URL: "https://lobste.rs/rss"},
			{Name: "Go Blog", URL: "https://go.dev/blog/feed.atom"},
		}
		if !reflect.DeepEqual(cfg.Feeds, want) {
			t.Errorf("Feeds = %+v, want %+v", cfg.Feeds, want)
		}
	})

	t.Run("appends to configured feeds", func(t *testing.T) {
		configPath := writeFile(t, dir, "both.toml", "feeds_file = \""+feedsPath+"\"\n\n[[feeds]]\nname = \"BBC\"\nurl = \"https://feeds.bbci.co.uk/news/rss.xml\"\n")
		cfg, err := Load(configPath)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(cfg.Feeds) != 3 || cfg.Feeds[0].Name != "BBC" || cfg.Feeds[2].Name != "Go Blog" {
			t.Errorf("Feeds = %+v, want BBC followed by the file's feeds", cfg.Feeds)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		configPath := writeFile(t, dir, "missing.toml", "feeds_file = \""+filepath.Join(dir, "nope.yaml")+"\"\n")
		if _, err := Load(configPath); err == nil {
			t.Fatal("expected an error for a missing feeds file")
		}
	})
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("NEWSBOX_FEED_USER_AGENT", "env-agent")
	t.Setenv("NEWSBOX_UI_PREVIEW_LENGTH", "120")

	configPath := writeFile(t, t.TempDir(), "config.toml", "[feed]\nuser_agent = \"file-agent\"\n")
	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Feed.UserAgent != "env-agent" {
		t.Errorf("Feed.UserAgent = %q, want env-agent", cfg.Feed.UserAgent)
	}
	if cfg.UI.PreviewLength != 120 {
		t.Errorf("UI.PreviewLength = %d, want 120", cfg.UI.PreviewLength)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "no feeds", mutate: func(c *Config) { c.Feeds = nil }, wantErr: "no feeds configured"},
		{name: "blank name", mutate: func(c *Config) { c.Feeds[0].Name = "  " }, wantErr: "name is empty"},
		{name: "duplicate name", mutate: func(c *Config) { c.Feeds[1].Name = c.Feeds[0].Name }, wantErr: "duplicate name"},
		{name: "bad scheme", mutate: func(c *Config) { c.Feeds[0].URL = "ftp://feeds.test/rss" }, wantErr: "http or https"},
		{name: "private host blocked", mutate: func(c *Config) { c.Feeds[0].URL = "http://localhost:8080/rss" }, wantErr: "private"},
		{name: "private host allowed", mutate: func(c *Config) {
			c.Feeds[0].URL = "http://localhost:8080/rss"
			c.Feed.AllowPrivateHosts = true
		}},
		{name: "layout percent", mutate: func(c *Config) { c.UI.Layout.InboxPercent = 0 }, wantErr: "inbox_percent"},
		{name: "negative rows", mutate: func(c *Config) { c.UI.Layout.BorderRows = -1 }, wantErr: "must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestSources(t *testing.T) {
	cfg := &Config{Feeds: []FeedEntry{
		{Name: " BBC ", URL: " https://feeds.bbci.co.uk/news/rss.xml "},
		{Name: "Guardian", URL: "www.theguardian.com/world/rss"},
		{Name: "Local", URL: "http://localhost:9000/rss"},
	}}

	sources := cfg.Sources()
	if len(sources) != 3 {
		t.Fatalf("len(Sources()) = %d, want 3", len(sources))
	}
	if sources[0].Name != "BBC" || sources[0].URL != "https://feeds.bbci.co.uk/news/rss.xml" {
		t.Errorf("Sources()[0] = %+v", sources[0])
	}
	if sources[1].URL != "https://www.theguardian.com/world/rss" {
		t.Errorf("Sources()[1].URL = %q, want https scheme added", sources[1].URL)
	}
	if sources[2].URL != "http://localhost:9000/rss" {
		t.Errorf("Sources()[2].URL = %q", sources[2].URL)
	}
}

func TestSave(t *testing.T) {
	cfg := defaultConfig()
	cfg.Feeds = []FeedEntry{{Name: "Lobsters", URL: "https://lobste.rs/rss"}}
	cfg.Database.Path = "/test/path.db"
	cfg.Feed.UserAgent = "test-save-agent"
	cfg.Feed.RefreshInterval = 20 * time.Minute
	cfg.UI.Layout.InboxPercent = 50
	cfg.Keys.Bindings.Quit = []string{"x"}
	cfg.Launch.Viewer = "w3m"

	savePath := filepath.Join(t.TempDir(), "nested", "saved-config.toml")
	if err := Save(cfg, savePath); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(savePath)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}

	if !reflect.DeepEqual(loaded.Feeds, cfg.Feeds) {
		t.Errorf("Loaded Feeds = %+v, want %+v", loaded.Feeds, cfg.Feeds)
	}
	if loaded.Database.Path != cfg.Database.Path {
		t.Errorf("Loaded Database.Path = %s, want %s", loaded.Database.Path, cfg.Database.Path)
	}
	if loaded.Feed.UserAgent != cfg.Feed.UserAgent {
		t.Errorf("Loaded Feed.UserAgent = %s, want %s", loaded.Feed.UserAgent, cfg.Feed.UserAgent)
	}
	if loaded.Feed.RefreshInterval != cfg.Feed.RefreshInterval {
		t.Errorf("Loaded Feed.RefreshInterval = %v, want %v", loaded.Feed.RefreshInterval, cfg.Feed.RefreshInterval)
	}
	if loaded.UI.Layout.InboxPercent != 50 {
		t.Errorf("Loaded UI.Layout.InboxPercent = %d, want 50", loaded.UI.Layout.InboxPercent)
	}
	if !reflect.DeepEqual(loaded.Keys.Bindings.Quit, []string{"x"}) {
		t.Errorf("Loaded Keys.Bindings.Quit = %v, want [x]", loaded.Keys.Bindings.Quit)
	}
	if loaded.Launch.Viewer != "w3m" {
		t.Errorf("Loaded Launch.Viewer = %q, want w3m", loaded.Launch.Viewer)
	}
}

func TestGenerateDefaultConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "generated.toml")
	if err := GenerateDefaultConfig(configPath); err != nil {
		t.Fatalf("GenerateDefaultConfig() error = %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load generated config: %v", err)
	}
	if !reflect.DeepEqual(cfg.Keys.Bindings, DefaultKeyBindings()) {
		t.Errorf("Generated Keys.Bindings = %+v, want defaults", cfg.Keys.Bindings)
	}
	if len(cfg.Feeds) != len(DefaultFeeds()) {
		t.Errorf("Generated feeds = %d, want %d", len(cfg.Feeds), len(DefaultFeeds()))
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if got := expandPath(""); got != "" {
		t.Errorf("expandPath(\"\") = %q", got)
	}
	if got := expandPath("~/x/cache.db"); got != filepath.Join(home, "x", "cache.db") {
		t.Errorf("expandPath(~/x/cache.db) = %q", got)
	}
	if got := expandPath("rel.db"); !filepath.IsAbs(got) {
		t.Errorf("expandPath(rel.db) = %q, want absolute", got)
	}
}

func TestTestConfig(t *testing.T) {
	cfg := TestConfig()

	if cfg.Feed.UserAgent != "newsbox-test/1.0" {
		t.Errorf("Feed.UserAgent = %s, want newsbox-test/1.0", cfg.Feed.UserAgent)
	}
	if cfg.Feed.RefreshInterval != 0 {
		t.Errorf("Feed.RefreshInterval = %v, want auto-refresh disabled", cfg.Feed.RefreshInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("TestConfig() should validate: %v", err)
	}
}
