package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	cfg := defaultConfig()
	cfg.Feeds = []FeedEntry{
		{Name: "Local", URL: "http://127.0.0.1/rss.xml"},
	}
	cfg.Database = DatabaseConfig{
		Path:    "",
		Timeout: 100 * time.Millisecond,
	}
	cfg.Feed = FeedConfig{
		HTTPTimeout:       5 * time.Second,
		RefreshInterval:   0,
		MaxConcurrency:    2,
		UserAgent:         "newsbox-test/1.0",
		AllowPrivateHosts: true,
	}
	cfg.UI.GlamourStyle = "notty"
	cfg.Launch = LaunchConfig{Viewer: "cat", Browser: "true"}
	return cfg
}
