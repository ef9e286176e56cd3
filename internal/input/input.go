// Package input maps key presses to inbox actions. Resolution is pure:
// the caller owns the mode and applies the returned Action.
package input

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type Mode int

const (
	ModeNormal Mode = iota
	ModeFilter
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeFilter:
		return "filter"
	default:
		return "unknown"
	}
}

type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionQuit
	ActionLineDown
	ActionLineUp
	ActionPageDown
	ActionPageUp
	ActionToggleFull
	ActionRefresh
	ActionOpenBrowser
	ActionOpenViewer
	ActionCopyLink
	ActionToggleHelp
	ActionStartFilter

	ActionFilterInput
	ActionFilterBackspace
	ActionFilterClear
	ActionCommitFilter
	ActionCancelFilter
)

var actionNames = map[ActionKind]string{
	ActionNone:            "none",
	ActionQuit:            "quit",
	ActionLineDown:        "line-down",
	ActionLineUp:          "line-up",
	ActionPageDown:        "page-down",
	ActionPageUp:          "page-up",
	ActionToggleFull:      "toggle-full",
	ActionRefresh:         "refresh",
	ActionOpenBrowser:     "open-browser",
	ActionOpenViewer:      "open-viewer",
	ActionCopyLink:        "copy-link",
	ActionToggleHelp:      "toggle-help",
	ActionStartFilter:     "start-filter",
	ActionFilterInput:     "filter-input",
	ActionFilterBackspace: "filter-backspace",
	ActionFilterClear:     "filter-clear",
	ActionCommitFilter:    "commit-filter",
	ActionCancelFilter:    "cancel-filter",
}

func (k ActionKind) String() string {
	if name, ok := actionNames[k]; ok {
		return name
	}
	return "unknown"
}

// Action is the outcome of one key press. Text is set for FilterInput.
type Action struct {
	Kind ActionKind
	Text string
}

// Next returns the mode after a applies in mode m.
func (a Action) Next(m Mode) Mode {
	switch a.Kind {
	case ActionStartFilter:
		return ModeFilter
	case ActionCommitFilter, ActionCancelFilter:
		return ModeNormal
	default:
		return m
	}
}

// Resolve classifies msg. ctrl+c quits from either mode.
func (k KeyMap) Resolve(msg tea.KeyMsg, mode Mode) Action {
	if msg.Type == tea.KeyCtrlC {
		return Action{Kind: ActionQuit}
	}
	if mode == ModeFilter {
		return resolveFilter(msg)
	}
	return k.resolveNormal(msg)
}

func resolveFilter(msg tea.KeyMsg) Action {
	switch msg.Type {
	case tea.KeyEsc:
		return Action{Kind: ActionCancelFilter}
	case tea.KeyEnter:
		return Action{Kind: ActionCommitFilter}
	case tea.KeyBackspace, tea.KeyCtrlH:
		return Action{Kind: ActionFilterBackspace}
	case tea.KeyCtrlU:
		return Action{Kind: ActionFilterClear}
	case tea.KeySpace:
		return Action{Kind: ActionFilterInput, Text: " "}
	case tea.KeyRunes:
		if msg.Alt {
			return Action{Kind: ActionNone}
		}
		return Action{Kind: ActionFilterInput, Text: string(msg.Runes)}
	default:
		return Action{Kind: ActionNone}
	}
}

func (k KeyMap) resolveNormal(msg tea.KeyMsg) Action {
	bindings := []struct {
		binding key.Binding
		kind    ActionKind
	}{
		{k.Quit, ActionQuit},
		{k.Down, ActionLineDown},
		{k.Up, ActionLineUp},
		{k.PageDown, ActionPageDown},
		{k.PageUp, ActionPageUp},
		{k.ToggleFull, ActionToggleFull},
		{k.Refresh, ActionRefresh},
		{k.OpenBrowser, ActionOpenBrowser},
		{k.OpenViewer, ActionOpenViewer},
		{k.CopyLink, ActionCopyLink},
		{k.Filter, ActionStartFilter},
		{k.Help, ActionToggleHelp},
	}
	for _, b := range bindings {
		if key.Matches(msg, b.binding) {
			return Action{Kind: b.kind}
		}
	}
	return Action{Kind: ActionNone}
}

// HelpFor returns the bindings to show for mode.
func (k KeyMap) HelpFor(mode Mode) help.KeyMap {
	if mode == ModeFilter {
		return filterHelp{k}
	}
	return k
}
