package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pders01/newsbox/internal/config"
	"github.com/pders01/newsbox/internal/debuglog"
	"github.com/pders01/newsbox/internal/feed"
	"github.com/pders01/newsbox/internal/launch"
	"github.com/pders01/newsbox/internal/storage"
	"github.com/pders01/newsbox/internal/tui"
)

func newVersionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if short {
				fmt.Fprintf(out, "%s %s\n", tui.AppName, Version)
				return nil
			}
			fmt.Fprintln(out, tui.Banner(Version))
			fmt.Fprintf(out, "%s %s\n", tui.AppName, Version)
			fmt.Fprintln(out, "github.com/pders01/newsbox")
			return nil
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print only the version")
	return cmd
}

func newConfigCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(newConfigGenerateCmd(opts))
	cmd.AddCommand(newConfigPathCmd(opts))
	return cmd
}

func configPath(opts *options) string {
	if opts.configPath != "" {
		return opts.configPath
	}
	return config.DefaultPath()
}

func newConfigGenerateCmd(opts *options) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the default configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath(opts)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.GenerateDefaultConfig(path); err != nil {
				return fmt.Errorf("failed to generate config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated default configuration at: %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func newConfigPathCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), configPath(opts))
			return nil
		},
	}
}

func newFeedsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "feeds",
		Short: "List the configured feeds and their cache state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			sources := cfg.Sources()
			snaps := map[string]feed.Snapshot{}
			var lastRefresh time.Time
			if store := openStore(cfg, sources); store != nil {
				defer store.Close()
				if snaps, err = store.Snapshots(); err != nil {
					return fmt.Errorf("reading cache: %w", err)
				}
				if lastRefresh, err = store.LastRefresh(); err != nil && !errors.Is(err, storage.ErrNotFound) {
					return fmt.Errorf("reading cache: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tURL\tFETCHED\tITEMS")
			for _, src := range sources {
				fetched, count := "never", "-"
				if snap, ok := snaps[src.URL]; ok {
					fetched = formatTime(snap.FetchedAt)
					count = strconv.Itoa(len(snap.Items))
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", src.Name, src.URL, fetched, count)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if !lastRefresh.IsZero() {
				fmt.Fprintf(out, "\nLast refresh: %s\n", formatTime(lastRefresh))
			}
			return nil
		},
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func newViewersCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "viewers",
		Short: "List the terminal viewers the inbox can hand articles to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			registry, err := launch.NewRegistry(launch.UserViewersPath())
			if err != nil {
				return fmt.Errorf("loading viewer definitions: %w", err)
			}
			return printViewers(cmd.OutOrStdout(), registry, cfg.Launch.Viewer)
		},
	}
}

func printViewers(out io.Writer, registry *launch.Registry, preferred string) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATUS\tDESCRIPTION")
	for _, name := range registry.Names() {
		def, _ := registry.Definition(name)
		status := "missing"
		switch {
		case registry.Installed(name):
			status = "installed"
		case !registry.Supported(name):
			status = "unsupported"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, status, def.Description)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	name, _, err := registry.Resolve(preferred)
	if err != nil {
		_, err = fmt.Fprintf(out, "\nNo viewer available: %v\n", err)
		return err
	}
	_, err = fmt.Fprintf(out, "\nUsing: %s\n", name)
	return err
}

func newFetchCmd(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Run one refresh and print the merged inbox",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			batch, err := newAggregator(cfg, store).FetchAll(cmd.Context(), sources)
			if err != nil {
				return fmt.Errorf("fetch failed: %w", err)
			}
			if store != nil {
				if err := store.MarkRefreshed(time.Now()); err != nil {
					debuglog.Warn("recording refresh time", "error", err)
				}
			}

			for _, f := range batch.Failures {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", f)
			}
			return printItems(cmd.OutOrStdout(), batch.Items, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of articles to print (0 for all)")
	return cmd
}

func printItems(out io.Writer, items []feed.Item, limit int) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(out, "No articles.")
		return err
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, it := range items {
		date := "—"
		if it.HasPublished() {
			date = formatTime(it.Published)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", date, it.Source, it.Title)
		fmt.Fprintf(w, "\t\t%s\n", it.Link)
	}
	return w.Flush()
}
