package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/newsbox/internal/config"
	"github.com/pders01/newsbox/internal/debuglog"
	"github.com/pders01/newsbox/internal/feed"
	"github.com/pders01/newsbox/internal/launch"
	"github.com/pders01/newsbox/internal/refresh"
	"github.com/pders01/newsbox/internal/storage"
	"github.com/pders01/newsbox/internal/tui"
)

type options struct {
	configPath string
	dbPath     string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "newsbox",
		Short:         "Terminal news inbox",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		Example: strings.TrimSpace(`
  # Start the inbox
  newsbox

  # Print the merged inbox once and exit
  newsbox fetch --limit 10

  # Write a starter config
  newsbox config generate
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInbox(opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to configuration file")
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "Path to cache database (overrides config)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newFeedsCmd(opts))
	cmd.AddCommand(newFetchCmd(opts))
	cmd.AddCommand(newViewersCmd(opts))

	return cmd
}

// loadConfig reads and validates configuration. Any failure here is fatal
// for every command.
func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.dbPath != "" {
		cfg.Database.Path = opts.dbPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config) error {
	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.Path); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	return nil
}

// openStore opens the conditional-GET cache. The inbox works without it, so
// failures only cost a warning.
func openStore(cfg *config.Config, sources []feed.Source) *storage.Store {
	if cfg.Database.Path == "" {
		return nil
	}
	store, err := storage.NewStore(cfg.Database.Path, cfg.Database.Timeout)
	if err != nil {
		debuglog.Warn("cache unavailable", "path", cfg.Database.Path, "error", err)
		fmt.Fprintf(os.Stderr, "warning: feed cache disabled: %v\n", err)
		return nil
	}

	keep := make([]string, len(sources))
	for i, src := range sources {
		keep[i] = src.URL
	}
	if removed, err := store.Prune(keep); err != nil {
		debuglog.Warn("pruning cache", "error", err)
	} else if removed > 0 {
		debuglog.Info("pruned cached feeds", "removed", removed)
	}
	return store
}

func newAggregator(cfg *config.Config, store *storage.Store) *feed.Aggregator {
	fetcher := feed.NewFetcher(cfg.Feed.HTTPTimeout, cfg.Feed.UserAgent)
	var cache feed.Cache
	if store != nil {
		cache = store
	}
	return feed.NewAggregator(fetcher, cache, cfg.Feed.MaxConcurrency)
}

func runInbox(opts *options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}
	defer debuglog.Close()

	sources := cfg.Sources()
	store := openStore(cfg, sources)
	if store != nil {
		defer store.Close()
	}

	refreshOpts := []refresh.Option{refresh.WithInterval(cfg.Feed.RefreshInterval)}
	if store != nil {
		refreshOpts = append(refreshOpts, refresh.WithRecorder(store))
		if at, err := store.LastRefresh(); err == nil {
			refreshOpts = append(refreshOpts, refresh.WithLastRefresh(at))
		} else if !errors.Is(err, storage.ErrNotFound) {
			debuglog.Warn("reading last refresh time", "error", err)
		}
	}
	orch := refresh.New(newAggregator(cfg, store), sources, refreshOpts...)

	debuglog.Info("starting inbox", "feeds", len(sources), "version", Version)
	app := tui.NewApp(cfg, orch, launch.NewLauncher(cfg.Launch))
	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running inbox: %w", err)
	}
	return nil
}
