package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/pders01/newsbox/internal/feed"
	"github.com/pders01/newsbox/internal/validation"
)

const (
	AppName   = "newsbox"
	EnvPrefix = "NEWSBOX"
)

type Config struct {
	Feeds     []FeedEntry    `mapstructure:"feeds"`
	FeedsFile string         `mapstructure:"feeds_file"`
	Database  DatabaseConfig `mapstructure:"database"`
	Feed      FeedConfig     `mapstructure:"feed"`
	UI        UIConfig       `mapstructure:"ui"`
	Launch    LaunchConfig   `mapstructure:"launch"`
	Keys      KeyConfig      `mapstructure:"keys"`
	Log       LogConfig      `mapstructure:"log"`
}

// FeedEntry is one configured feed. Order is preserved through to the inbox.
type FeedEntry struct {
	Name string `mapstructure:"name" yaml:"name"`
	URL  string `mapstructure:"url" yaml:"url"`
}

type DatabaseConfig struct {
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type FeedConfig struct {
	HTTPTimeout       time.Duration `mapstructure:"http_timeout"`
	RefreshInterval   time.Duration `mapstructure:"refresh_interval"`
	RefreshOnStart    bool          `mapstructure:"refresh_on_start"`
	MaxConcurrency    int           `mapstructure:"max_concurrency"`
	UserAgent         string        `mapstructure:"user_agent"`
	AllowPrivateHosts bool          `mapstructure:"allow_private_hosts"`
}

type UIConfig struct {
	Colors        UIColors     `mapstructure:"colors"`
	Layout        LayoutConfig `mapstructure:"layout"`
	PreviewLength int          `mapstructure:"preview_length"`
	GlamourStyle  string       `mapstructure:"glamour_style"`
}

type UIColors struct {
	Primary   string `mapstructure:"primary"`
	Secondary string `mapstructure:"secondary"`
	Accent    string `mapstructure:"accent"`
	Text      string `mapstructure:"text"`
	Muted     string `mapstructure:"muted"`
	Error     string `mapstructure:"error"`
	Success   string `mapstructure:"success"`
}

type LayoutConfig struct {
	InboxPercent int `mapstructure:"inbox_percent"`
	ChromeRows   int `mapstructure:"chrome_rows"`
	BorderRows   int `mapstructure:"border_rows"`
}

type LaunchConfig struct {
	// Viewer is the terminal program the inbox hands the screen to. Empty
	// picks the first installed program from the built-in registry.
	Viewer string `mapstructure:"viewer"`
	// Browser overrides the platform's default URL opener.
	Browser string `mapstructure:"browser"`
	// DetachBrowser stops waiting for Browser to exit. Set it when Browser
	// is the browser itself rather than an opener that returns at once.
	DetachBrowser bool `mapstructure:"detach_browser"`
}

type KeyConfig struct {
	Bindings KeyBindings `mapstructure:"bindings"`
}

// KeyBindings lists bubbletea key names per action.
type KeyBindings struct {
	Quit        []string `mapstructure:"quit"`
	Down        []string `mapstructure:"down"`
	Up          []string `mapstructure:"up"`
	PageDown    []string `mapstructure:"page_down"`
	PageUp      []string `mapstructure:"page_up"`
	ToggleFull  []string `mapstructure:"toggle_full"`
	Refresh     []string `mapstructure:"refresh"`
	OpenBrowser []string `mapstructure:"open_browser"`
	OpenViewer  []string `mapstructure:"open_viewer"`
	Filter      []string `mapstructure:"filter"`
	CopyLink    []string `mapstructure:"copy_link"`
	Help        []string `mapstructure:"help"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

// DefaultFeeds is the out-of-the-box world news line-up.
func DefaultFeeds() []FeedEntry {
	return []FeedEntry{
		{Name: "BBC", URL: "https://feeds.bbci.co.uk/news/rss.xml"},
		{Name: "Sky", URL: "https://feeds.skynews.com/feeds/rss/home.xml"},
		{Name: "FT", URL: "https://www.ft.com/world?format=rss"},
		{Name: "New York Times", URL: "https://www.nytimes.com/svc/collections/v1/publish/https://www.nytimes.com/section/world/rss.xml"},
		{Name: "Independent", URL: "http://www.independent.co.uk/news/world/rss"},
		{Name: "Guardian", URL: "https://www.theguardian.com/world/rss"},
	}
}

func DefaultKeyBindings() KeyBindings {
	return KeyBindings{
		Quit:        []string{"q"},
		Down:        []string{"j", "down"},
		Up:          []string{"k", "up"},
		PageDown:    []string{"pgdown", "f"},
		PageUp:      []string{"pgup", "b"},
		ToggleFull:  []string{"enter"},
		Refresh:     []string{"r"},
		OpenBrowser: []string{"o"},
		OpenViewer:  []string{"p"},
		Filter:      []string{"/"},
		CopyLink:    []string{"y"},
		Help:        []string{"?"},
	}
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Feeds: DefaultFeeds(),
		Database: DatabaseConfig{
			Path:    filepath.Join(homeDir, "."+AppName, "cache.db"),
			Timeout: 1 * time.Second,
		},
		Feed: FeedConfig{
			HTTPTimeout:     feed.DefaultTimeout,
			RefreshInterval: 10 * time.Minute,
			RefreshOnStart:  true,
			MaxConcurrency:  feed.DefaultConcurrency,
			UserAgent:       feed.DefaultUserAgent,
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:   "#FF6B6B",
				Secondary: "#4ECDC4",
				Accent:    "#95E1D3",
				Text:      "#EAEAEA",
				Muted:     "#94A3B8",
				Error:     "#EF4444",
				Success:   "#10B981",
			},
			Layout: LayoutConfig{
				InboxPercent: 75,
				ChromeRows:   2,
				BorderRows:   2,
			},
			PreviewLength: 700,
			GlamourStyle:  "dark",
		},
		Keys: KeyConfig{
			Bindings: DefaultKeyBindings(),
		},
		Log: LogConfig{
			Level: "off",
		},
	}
}

// DefaultPath is where Load looks for config.toml when no path is given.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", AppName, "config.toml")
}

// Load reads configuration from configPath, or from the default search
// path when empty. A missing file is not an error; defaults apply.
// Environment variables prefixed NEWSBOX_ override file values, and a
// .env file in the working directory is read first.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v, defaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Dir(DefaultPath()))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	config.FeedsFile = expandPath(config.FeedsFile)
	if config.FeedsFile != "" {
		extra, err := LoadFeedsFile(config.FeedsFile)
		if err != nil {
			return nil, err
		}
		// A feeds file replaces the built-in line-up unless the config
		// file lists feeds of its own.
		if !v.InConfig("feeds") {
			config.Feeds = nil
		}
		config.Feeds = append(config.Feeds, extra...)
	}

	expandPaths(&config)

	return &config, nil
}

// setDefaults registers every leaf key so partial sections in the file
// only override what they name.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("feeds", cfg.Feeds)
	v.SetDefault("feeds_file", cfg.FeedsFile)

	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("database.timeout", cfg.Database.Timeout)

	v.SetDefault("feed.http_timeout", cfg.Feed.HTTPTimeout)
	v.SetDefault("feed.refresh_interval", cfg.Feed.RefreshInterval)
	v.SetDefault("feed.refresh_on_start", cfg.Feed.RefreshOnStart)
	v.SetDefault("feed.max_concurrency", cfg.Feed.MaxConcurrency)
	v.SetDefault("feed.user_agent", cfg.Feed.UserAgent)
	v.SetDefault("feed.allow_private_hosts", cfg.Feed.AllowPrivateHosts)

	c := cfg.UI.Colors
	v.SetDefault("ui.colors.primary", c.Primary)
	v.SetDefault("ui.colors.secondary", c.Secondary)
	v.SetDefault("ui.colors.accent", c.Accent)
	v.SetDefault("ui.colors.text", c.Text)
	v.SetDefault("ui.colors.muted", c.Muted)
	v.SetDefault("ui.colors.error", c.Error)
	v.SetDefault("ui.colors.success", c.Success)
	v.SetDefault("ui.layout.inbox_percent", cfg.UI.Layout.InboxPercent)
	v.SetDefault("ui.layout.chrome_rows", cfg.UI.Layout.ChromeRows)
	v.SetDefault("ui.layout.border_rows", cfg.UI.Layout.BorderRows)
	v.SetDefault("ui.preview_length", cfg.UI.PreviewLength)
	v.SetDefault("ui.glamour_style", cfg.UI.GlamourStyle)

	v.SetDefault("launch.viewer", cfg.Launch.Viewer)
	v.SetDefault("launch.browser", cfg.Launch.Browser)
	v.SetDefault("launch.detach_browser", cfg.Launch.DetachBrowser)

	b := cfg.Keys.Bindings
	v.SetDefault("keys.bindings.quit", b.Quit)
	v.SetDefault("keys.bindings.down", b.Down)
	v.SetDefault("keys.bindings.up", b.Up)
	v.SetDefault("keys.bindings.page_down", b.PageDown)
	v.SetDefault("keys.bindings.page_up", b.PageUp)
	v.SetDefault("keys.bindings.toggle_full", b.ToggleFull)
	v.SetDefault("keys.bindings.refresh", b.Refresh)
	v.SetDefault("keys.bindings.open_browser", b.OpenBrowser)
	v.SetDefault("keys.bindings.open_viewer", b.OpenViewer)
	v.SetDefault("keys.bindings.filter", b.Filter)
	v.SetDefault("keys.bindings.copy_link", b.CopyLink)
	v.SetDefault("keys.bindings.help", b.Help)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.path", cfg.Log.Path)
}

// LoadFeedsFile reads a YAML list of {name, url} entries.
func LoadFeedsFile(path string) ([]FeedEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading feeds file: %w", err)
	}

	var entries []FeedEntry
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &entries); err != nil {
		return nil, fmt.Errorf("parsing feeds file %s: %w", path, err)
	}
	return entries, nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Log.Path = expandPath(cfg.Log.Path)
}

// Validate checks everything the program cannot start without: a
// non-empty feed list with usable names and URLs, and a sane layout.
func (c *Config) Validate() error {
	if len(c.Feeds) == 0 {
		return errors.New("no feeds configured")
	}

	validator := validation.NewFeedURLValidator()
	if c.Feed.AllowPrivateHosts {
		validator = validation.NewPermissiveFeedURLValidator()
	}

	var errs []error
	seen := make(map[string]bool, len(c.Feeds))
	for i, f := range c.Feeds {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("feed %d: name is empty", i+1))
			continue
		}
		if seen[name] {
			errs = append(errs, fmt.Errorf("feed %q: duplicate name", name))
		}
		seen[name] = true
		if _, err := validator.ValidateAndNormalize(f.URL); err != nil {
			errs = append(errs, fmt.Errorf("feed %q: %w", name, err))
		}
	}

	l := c.UI.Layout
	if l.InboxPercent <= 0 || l.InboxPercent > 100 {
		errs = append(errs, fmt.Errorf("ui.layout.inbox_percent must be within 1..100, got %d", l.InboxPercent))
	}
	if l.ChromeRows < 0 || l.BorderRows < 0 {
		errs = append(errs, errors.New("ui.layout rows must not be negative"))
	}

	return errors.Join(errs...)
}

// Sources returns the validated feed list in configured order, with names
// trimmed and URLs normalised.
func (c *Config) Sources() []feed.Source {
	validator := validation.NewPermissiveFeedURLValidator()
	out := make([]feed.Source, 0, len(c.Feeds))
	for _, f := range c.Feeds {
		u := strings.TrimSpace(f.URL)
		if normalized, err := validator.ValidateAndNormalize(u); err == nil {
			u = normalized
		}
		out = append(out, feed.Source{Name: strings.TrimSpace(f.Name), URL: u})
	}
	return out
}

func Save(config *Config, path string) error {
	v := viper.New()

	feeds := make([]map[string]interface{}, len(config.Feeds))
	for i, f := range config.Feeds {
		feeds[i] = map[string]interface{}{"name": f.Name, "url": f.URL}
	}

	// Durations are written as strings for TOML readability
	dbCfg := map[string]interface{}{
		"path":    config.Database.Path,
		"timeout": config.Database.Timeout.String(),
	}

	feedCfg := map[string]interface{}{
		"http_timeout":        config.Feed.HTTPTimeout.String(),
		"refresh_interval":    config.Feed.RefreshInterval.String(),
		"refresh_on_start":    config.Feed.RefreshOnStart,
		"max_concurrency":     config.Feed.MaxConcurrency,
		"user_agent":          config.Feed.UserAgent,
		"allow_private_hosts": config.Feed.AllowPrivateHosts,
	}

	c := config.UI.Colors
	uiCfg := map[string]interface{}{
		"colors": map[string]interface{}{
			"primary":   c.Primary,
			"secondary": c.Secondary,
			"accent":    c.Accent,
			"text":      c.Text,
			"muted":     c.Muted,
			"error":     c.Error,
			"success":   c.Success,
		},
		"layout": map[string]interface{}{
			"inbox_percent": config.UI.Layout.InboxPercent,
			"chrome_rows":   config.UI.Layout.ChromeRows,
			"border_rows":   config.UI.Layout.BorderRows,
		},
		"preview_length": config.UI.PreviewLength,
		"glamour_style":  config.UI.GlamourStyle,
	}

	b := config.Keys.Bindings
	bindings := map[string]interface{}{
		"quit":         b.Quit,
		"down":         b.Down,
		"up":           b.Up,
		"page_down":    b.PageDown,
		"page_up":      b.PageUp,
		"toggle_full":  b.ToggleFull,
		"refresh":      b.Refresh,
		"open_browser": b.OpenBrowser,
		"open_viewer":  b.OpenViewer,
		"filter":       b.Filter,
		"copy_link":    b.CopyLink,
		"help":         b.Help,
	}

	v.Set("feeds", feeds)
	v.Set("feeds_file", config.FeedsFile)
	v.Set("database", dbCfg)
	v.Set("feed", feedCfg)
	v.Set("ui", uiCfg)
	v.Set("launch", map[string]interface{}{
		"viewer":         config.Launch.Viewer,
		"browser":        config.Launch.Browser,
		"detach_browser": config.Launch.DetachBrowser,
	})
	v.Set("keys", map[string]interface{}{"bindings": bindings})
	v.Set("log", map[string]interface{}{
		"level": config.Log.Level,
		"path":  config.Log.Path,
	})

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
