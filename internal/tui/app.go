package tui

import (
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/newsbox/internal/config"
	"github.com/pders01/newsbox/internal/debuglog"
	"github.com/pders01/newsbox/internal/feed"
	"github.com/pders01/newsbox/internal/inbox"
	"github.com/pders01/newsbox/internal/input"
	"github.com/pders01/newsbox/internal/refresh"
)

// Launcher hands the selected article's link to programs outside the inbox.
type Launcher interface {
	ViewerCommand(link string) (*exec.Cmd, error)
	OpenInBrowser(link string) error
	CopyLink(link string) error
}

type viewerDoneMsg struct{ err error }

type browserDoneMsg struct{ err error }

type clipboardDoneMsg struct{ err error }

const dateLayout = "2006-01-02 15:04"

type App struct {
	config   *config.Config
	state    *inbox.State
	mode     input.Mode
	keys     input.KeyMap
	layout   inbox.Layout
	orch     *refresh.Orchestrator
	launcher Launcher

	help            help.Model
	spinner         spinner.Model
	preview         viewport.Model
	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
	previewKey      string // what the preview currently shows

	previewLength int
	width         int
	height        int
	showHelp      bool
}

func NewApp(cfg *config.Config, orch *refresh.Orchestrator, launcher Launcher) *App {
	ApplyColors(cfg.UI.Colors)

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(AccentColor)),
	)

	return &App{
		config:   cfg,
		state:    inbox.New(),
		mode:     input.ModeNormal,
		keys:     input.NewKeyMap(cfg.Keys.Bindings),
		layout:   layoutFromConfig(cfg.UI.Layout),
		orch:     orch,
		launcher: launcher,
		help:     help.New(),
		spinner:  sp,
		preview:  viewport.New(0, 0),

		previewLength: cfg.UI.PreviewLength,
	}
}

func layoutFromConfig(c config.LayoutConfig) inbox.Layout {
	l := inbox.DefaultLayout()
	if c.InboxPercent > 0 {
		l.InboxPercent = c.InboxPercent
	}
	if c.ChromeRows >= 0 {
		l.ChromeRows = c.ChromeRows
	}
	if c.BorderRows >= 0 {
		l.BorderRows = c.BorderRows
	}
	return l
}

// State exposes the inbox for callers that run the app headless.
func (a *App) State() *inbox.State {
	return a.state
}

func (a *App) Mode() input.Mode {
	return a.mode
}

func (a *App) Init() tea.Cmd {
	var cmds []tea.Cmd
	if a.config.Feed.RefreshOnStart {
		cmds = append(cmds, a.startRefresh())
	}
	cmds = append(cmds, a.orch.Tick())
	return tea.Batch(cmds...)
}

// Update drains any finished refresh before looking at msg, so every
// message observes the latest outcome.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	a.orch.Drain(a.state)

	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		cmds = append(cmds, a.handleKey(msg))

	case refresh.ReadyMsg:
		// Already drained.

	case refresh.TickMsg:
		cmds = append(cmds, a.startRefresh(), a.orch.Tick())

	case spinner.TickMsg:
		if a.state.Refreshing() {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case viewerDoneMsg:
		if msg.err != nil {
			debuglog.Warn("viewer exited with error", "error", msg.err)
			a.state.SetStatus(MsgViewerFailed(msg.err))
		}

	case browserDoneMsg:
		if msg.err != nil {
			debuglog.Warn("browser handoff failed", "error", msg.err)
			a.state.SetStatus(MsgBrowserFailed(msg.err))
		} else {
			a.state.SetStatus(MsgOpenedInBrowser)
		}

	case clipboardDoneMsg:
		if msg.err != nil {
			debuglog.Warn("clipboard write failed", "error", msg.err)
			a.state.SetStatus(MsgCopyFailed(msg.err))
		} else {
			a.state.SetStatus(MsgCopiedLink)
		}
	}

	a.syncPreview()
	return a, tea.Batch(cmds...)
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height
	a.state.SetPageSize(a.layout.PageSize(height))

	a.preview.Width = max(0, width-2)
	a.preview.Height = max(0, a.previewRows()-2)
	a.help.Width = width
	a.previewKey = ""
}

func (a *App) previewRows() int {
	return a.layout.BodyRows(a.height) - a.layout.InboxRows(a.height)
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	action := a.keys.Resolve(msg, a.mode)
	cmd := a.apply(action)
	next := action.Next(a.mode)
	if next != a.mode {
		debuglog.Debug("mode change", "from", a.mode, "to", next, "action", action.Kind)
	}
	a.mode = next
	return cmd
}

func (a *App) apply(action input.Action) tea.Cmd {
	switch action.Kind {
	case input.ActionQuit:
		return tea.Quit

	case input.ActionLineDown:
		a.state.MoveSelection(1)
		a.state.Reveal()
	case input.ActionLineUp:
		a.state.MoveSelection(-1)
		a.state.Reveal()
	case input.ActionPageDown:
		a.state.PageDown()
	case input.ActionPageUp:
		a.state.PageUp()
	case input.ActionToggleFull:
		a.state.ToggleExpanded()

	case input.ActionRefresh:
		return a.startRefresh()
	case input.ActionOpenViewer:
		return a.openViewer()
	case input.ActionOpenBrowser:
		return a.openBrowser()
	case input.ActionCopyLink:
		return a.copyLink()

	case input.ActionToggleHelp:
		a.showHelp = !a.showHelp

	case input.ActionStartFilter:
		a.state.BeginFilter()
	case input.ActionFilterInput:
		a.state.AppendFilter(action.Text)
	case input.ActionFilterBackspace:
		a.state.BackspaceFilter()
	case input.ActionFilterClear:
		a.state.ClearFilterText()
	case input.ActionCommitFilter:
		a.state.CommitFilter()
	case input.ActionCancelFilter:
		a.state.CancelFilter()
	}
	return nil
}

func (a *App) startRefresh() tea.Cmd {
	cmd := a.orch.Start(a.state)
	if cmd == nil {
		return nil
	}
	return tea.Batch(cmd, a.spinner.Tick)
}

func (a *App) selectedLink() (string, bool) {
	item, ok := a.state.SelectedItem()
	if !ok {
		a.state.SetStatus(MsgNoSelection)
		return "", false
	}
	return item.Link, true
}

// openViewer suspends the inbox and gives the terminal to the viewer until
// it exits.
func (a *App) openViewer() tea.Cmd {
	link, ok := a.selectedLink()
	if !ok {
		return nil
	}
	cmd, err := a.launcher.ViewerCommand(link)
	if err != nil {
		debuglog.Warn("no viewer command", "link", link, "error", err)
		a.state.SetStatus(MsgViewerFailed(err))
		return nil
	}
	name := cmd.Args[0]
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return viewerDoneMsg{err: viewerExitErr(name, err)}
	})
}

// viewerExitErr names the viewer in a failed exit ("w3m: exit status 1").
func viewerExitErr(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}

func (a *App) openBrowser() tea.Cmd {
	link, ok := a.selectedLink()
	if !ok {
		return nil
	}
	launcher := a.launcher
	return func() tea.Msg {
		return browserDoneMsg{err: launcher.OpenInBrowser(link)}
	}
}

func (a *App) copyLink() tea.Cmd {
	link, ok := a.selectedLink()
	if !ok {
		return nil
	}
	launcher := a.launcher
	return func() tea.Msg {
		return clipboardDoneMsg{err: launcher.CopyLink(link)}
	}
}

func (a *App) View() string {
	if a.width == 0 || a.height == 0 {
		return ""
	}

	inboxRows := a.layout.InboxRows(a.height)
	panes := []string{
		renderPane(a.renderInbox(a.width-2), a.width, inboxRows, a.mode == input.ModeNormal),
		renderPane(a.preview.View(), a.width, a.previewRows(), false),
	}

	rows := []string{a.renderTopBar()}
	for _, p := range panes {
		if p != "" {
			rows = append(rows, p)
		}
	}
	rows = append(rows, a.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (a *App) renderTopBar() string {
	title := HeaderStyle.Render(CompactLogo)

	var info string
	switch {
	case a.mode == input.ModeFilter:
		info = FilterPromptStyle.Render(MsgFilterPrompt(a.state.FilterText()) + "▏")
	case a.state.FilterText() != "":
		info = renderMuted(fmt.Sprintf("filter %q • %d/%d articles",
			a.state.FilterText(), a.state.VisibleCount(), len(a.state.Items())))
	default:
		text := fmt.Sprintf("%d articles", len(a.state.Items()))
		if at := a.orch.LastRefresh(); !at.IsZero() {
			text += " • updated " + refreshedAt(at, time.Now())
		}
		info = renderMuted(text)
	}
	return TopBarStyle.Render(truncateEnd(title+" "+info, max(0, a.width-2)))
}

func (a *App) renderInbox(width int) string {
	if a.state.VisibleCount() == 0 {
		msg := MsgEmptyInbox
		if len(a.state.Items()) > 0 {
			msg = MsgNoMatches
		} else if a.state.PageSize() > len(LogoLines)+2 && width > lipgloss.Width(LogoLines[0]) {
			return renderCentered(width, a.state.PageSize(), GetCompactBanner(msg))
		}
		return renderCentered(width, max(1, a.state.PageSize()), renderHelp(truncateEnd(msg, width)))
	}

	start := a.state.ScrollOffset()
	end := min(start+a.state.PageSize(), a.state.VisibleCount())
	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		item, _ := a.state.VisibleItem(i)
		rows = append(rows, formatRow(item, i == a.state.Selected(), width))
	}
	return strings.Join(rows, "\n")
}

// formatRow lays out one inbox line: cursor, date, source, title.
func formatRow(item feed.Item, selected bool, width int) string {
	prefix := "  "
	if selected {
		prefix = "▶ "
	}
	row := prefix + padRight(itemDate(item), 16) + " " + padRight(item.Source, 16) + " " + item.Title
	row = truncateEnd(row, width)
	if selected {
		return SelectedItemStyle.Render(row)
	}
	return ItemStyle.Render(row)
}

func (a *App) renderStatusBar() string {
	status := a.state.Status()
	left := classifyStatus(status).style().Render(status)
	if a.state.Refreshing() {
		left = a.spinner.View() + " " + left
	}

	h := a.help
	h.ShowAll = false
	right := h.View(a.keys.HelpFor(a.mode))

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return truncateEnd(left, a.width)
	}
	return left + strings.Repeat(" ", gap) + right
}

// syncPreview re-renders the preview pane when what it should show has
// changed.
func (a *App) syncPreview() {
	if a.preview.Width == 0 {
		return
	}

	item, ok := a.state.SelectedItem()
	key := fmt.Sprintf("%s|%t|%t|%t|%s", a.mode, a.showHelp, a.state.Expanded(), ok, item.ID)
	if key == a.previewKey {
		return
	}
	a.previewKey = key

	var content string
	switch {
	case a.showHelp:
		h := a.help
		h.ShowAll = true
		content = h.View(a.keys.HelpFor(a.mode))
	case !ok:
		content = ""
	default:
		content = a.renderArticle(item)
	}
	a.preview.SetContent(content)
	a.preview.GotoTop()
}

// refreshedAt shows only the clock for refreshes made today.
func refreshedAt(at, now time.Time) string {
	at, now = at.Local(), now.Local()
	if y, m, d := at.Date(); y == now.Year() && m == now.Month() && d == now.Day() {
		return at.Format("15:04")
	}
	return at.Format("Jan 2 15:04")
}

func itemDate(item feed.Item) string {
	if !item.HasPublished() {
		return "—"
	}
	return item.Published.Local().Format(dateLayout)
}

func previewSummary(item feed.Item, expanded bool, limit int) string {
	summary := strings.TrimSpace(item.Summary)
	if expanded {
		return summary
	}
	return truncatePreview(summary, limit)
}

func previewMarkdown(item feed.Item, expanded bool, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", item.Title)
	fmt.Fprintf(&b, "**From:** %s    **Date:** %s\n\n", item.Source, itemDate(item))
	fmt.Fprintf(&b, "**Link:** %s\n\n", item.Link)
	b.WriteString(previewSummary(item, expanded, limit))
	return b.String()
}

func (a *App) renderArticle(item feed.Item) string {
	md := previewMarkdown(item, a.state.Expanded(), a.previewLength)

	renderer, err := a.getRenderer()
	if err == nil {
		out, rerr := renderer.Render(md)
		if rerr == nil {
			return out
		}
		err = rerr
	}
	debuglog.Debug("preview markdown render failed", "error", err)
	return plainArticle(item, a.state.Expanded(), a.previewLength, a.preview.Width)
}

func plainArticle(item feed.Item, expanded bool, limit, width int) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		HeaderStyle.Render(item.Title),
		SourceStyle.Render("From: "+item.Source)+"    "+TimeStyle.Render("Date: "+itemDate(item)),
		"Link: "+truncateMiddle(item.Link, max(1, width-6)),
		"",
		lipgloss.NewStyle().Width(max(1, width)).Render(previewSummary(item, expanded, limit)),
	)
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	wordWrapWidth := a.preview.Width - 4
	if wordWrapWidth > 120 {
		wordWrapWidth = 120 // maximum for readability
	}
	if wordWrapWidth < 20 {
		wordWrapWidth = 20
	}

	if a.glamourRenderer == nil || a.rendererWidth != wordWrapWidth {
		style := glamour.WithAutoStyle()
		if s := a.config.UI.GlamourStyle; s != "" && s != "auto" {
			style = glamour.WithStandardStyle(s)
		}
		r, err := glamour.NewTermRenderer(
			style,
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
	}

	return a.glamourRenderer, nil
}
