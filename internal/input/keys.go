package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/pders01/newsbox/internal/config"
)

// KeyMap holds the Normal mode bindings. Filter mode keys are fixed.
type KeyMap struct {
	Quit        key.Binding
	Down        key.Binding
	Up          key.Binding
	PageDown    key.Binding
	PageUp      key.Binding
	ToggleFull  key.Binding
	Refresh     key.Binding
	OpenBrowser key.Binding
	OpenViewer  key.Binding
	Filter      key.Binding
	CopyLink    key.Binding
	Help        key.Binding

	// Filter mode, shown in help only.
	Apply  key.Binding
	Cancel key.Binding
	Clear  key.Binding
}

// NewKeyMap builds bindings from configuration. An action left without
// keys falls back to its default so nothing becomes unreachable.
func NewKeyMap(b config.KeyBindings) KeyMap {
	def := config.DefaultKeyBindings()
	pick := func(keys, fallback []string) []string {
		if len(keys) == 0 {
			return fallback
		}
		return keys
	}
	bind := func(keys, fallback []string, desc string) key.Binding {
		keys = pick(keys, fallback)
		return key.NewBinding(
			key.WithKeys(keys...),
			key.WithHelp(helpKeys(keys), desc),
		)
	}

	return KeyMap{
		Quit:        bind(b.Quit, def.Quit, "quit"),
		Down:        bind(b.Down, def.Down, "down"),
		Up:          bind(b.Up, def.Up, "up"),
		PageDown:    bind(b.PageDown, def.PageDown, "page down"),
		PageUp:      bind(b.PageUp, def.PageUp, "page up"),
		ToggleFull:  bind(b.ToggleFull, def.ToggleFull, "full view"),
		Refresh:     bind(b.Refresh, def.Refresh, "refresh"),
		OpenBrowser: bind(b.OpenBrowser, def.OpenBrowser, "browser"),
		OpenViewer:  bind(b.OpenViewer, def.OpenViewer, "viewer"),
		Filter:      bind(b.Filter, def.Filter, "filter"),
		CopyLink:    bind(b.CopyLink, def.CopyLink, "copy link"),
		Help:        bind(b.Help, def.Help, "help"),

		Apply: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear & exit"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "clear text"),
		),
	}
}

func helpKeys(keys []string) string {
	return strings.Join(keys, "/")
}

// ShortHelp returns bindings for the status line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Up, k.ToggleFull, k.Filter, k.Refresh, k.Help, k.Quit}
}

// FullHelp returns bindings for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Down, k.Up, k.PageDown, k.PageUp},
		{k.ToggleFull, k.Filter, k.Refresh},
		{k.OpenViewer, k.OpenBrowser, k.CopyLink},
		{k.Help, k.Quit},
	}
}

// filterHelp adapts KeyMap to help.KeyMap for Filter mode.
type filterHelp struct{ k KeyMap }

func (f filterHelp) ShortHelp() []key.Binding {
	return []key.Binding{f.k.Apply, f.k.Cancel, f.k.Clear}
}

func (f filterHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{f.ShortHelp()}
}
