// Package launch hands article links to programs outside the inbox: a
// terminal viewer that takes over the screen, the desktop browser and the
// clipboard.
package launch

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/atotto/clipboard"

	"github.com/pders01/newsbox/internal/config"
	"github.com/pders01/newsbox/internal/debuglog"
	"github.com/pders01/newsbox/internal/validation"
)

type Launcher struct {
	viewer         string
	registry       *Registry
	browser        *Browser
	validator      *validation.FeedURLValidator
	writeClipboard func(string) error
}

func NewLauncher(cfg config.LaunchConfig) *Launcher {
	registry, err := NewRegistry(UserViewersPath())
	if err != nil {
		// Continue with only a configured viewer if definitions can't be loaded
		debuglog.Warn("loading viewer definitions", "error", err)
		registry = &Registry{
			viewers:  map[string]ViewerDefinition{},
			goos:     runtime.GOOS,
			lookPath: exec.LookPath,
		}
	}

	var browserOpts []BrowserOption
	if cfg.DetachBrowser {
		browserOpts = append(browserOpts, Detached())
	}

	return &Launcher{
		viewer:         cfg.Viewer,
		registry:       registry,
		browser:        NewBrowser(cfg.Browser, browserOpts...),
		validator:      validation.NewFeedURLValidator(),
		writeClipboard: clipboard.WriteAll,
	}
}

// ViewerCommand validates link and builds the viewer process. The caller
// runs it with the terminal released.
func (l *Launcher) ViewerCommand(link string) (*exec.Cmd, error) {
	clean, err := l.validator.ValidateLink(link)
	if err != nil {
		return nil, fmt.Errorf("invalid link: %w", err)
	}
	cmd, err := l.registry.Command(l.viewer, clean)
	if err != nil {
		return nil, err
	}
	debuglog.Debug("viewer command", "path", cmd.Path, "args", cmd.Args)
	return cmd, nil
}

func (l *Launcher) OpenInBrowser(link string) error {
	clean, err := l.validator.ValidateLink(link)
	if err != nil {
		return fmt.Errorf("invalid link: %w", err)
	}
	return l.browser.Open(clean)
}

func (l *Launcher) CopyLink(link string) error {
	clean, err := l.validator.ValidateLink(link)
	if err != nil {
		return fmt.Errorf("invalid link: %w", err)
	}
	if err := l.writeClipboard(clean); err != nil {
		return fmt.Errorf("copying to clipboard: %w", err)
	}
	return nil
}
