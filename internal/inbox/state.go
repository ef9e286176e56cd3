package inbox

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pders01/newsbox/internal/feed"
)

const (
	DefaultStatus    = "Press r to refresh. q to quit."
	FilterModeHint   = "Filter mode: type to filter, Enter/Esc to exit, Ctrl+U clears"
	StatusRefreshing = "Refreshing…"
)

// State is the single mutable session aggregate behind the inbox screen.
// It is owned by the event loop goroutine and must not be shared.
//
// Invariants kept by every method:
//   - selected indexes visible, or is 0 when visible is empty
//   - scrollOffset stays within [0, max(0, len(visible)-pageSize)]
//   - visible lists indices of items that match filterText, in items order
type State struct {
	items      []feed.Item
	haystacks  []string
	visible    []int
	filterText string

	selected     int
	scrollOffset int
	pageSize     int

	expanded   bool
	refreshing bool
	status     string
}

func New() *State {
	return &State{status: DefaultStatus}
}

// SetItems replaces the loaded items wholesale, resets the cursor and
// reapplies the current filter.
func (s *State) SetItems(items []feed.Item) {
	s.items = items
	s.haystacks = make([]string, len(items))
	for i, it := range items {
		s.haystacks[i] = strings.ToLower(it.Source + " " + it.Title + " " + it.Summary)
	}
	s.selected = 0
	s.scrollOffset = 0
	s.RecomputeVisible()
	s.status = loadedStatus(len(s.items), len(s.visible), s.filterText != "")
}

func loadedStatus(total, shown int, filtered bool) string {
	msg := fmt.Sprintf("Loaded %d articles", total)
	if filtered && shown != total {
		msg += fmt.Sprintf(" (%d shown)", shown)
	}
	return msg
}

// RecomputeVisible re-derives the visible subset from filterText. Matching
// is a case-insensitive substring test against "source title summary";
// a query straddling a field boundary only matches across the single
// joining space.
func (s *State) RecomputeVisible() {
	needle := strings.ToLower(s.filterText)
	visible := make([]int, 0, len(s.items))
	for i := range s.items {
		if needle == "" || strings.Contains(s.haystacks[i], needle) {
			visible = append(visible, i)
		}
	}
	s.visible = visible

	if s.selected >= len(s.visible) {
		s.selected = max(0, len(s.visible)-1)
	}
	s.scrollOffset = ClampOffset(s.scrollOffset, len(s.visible), s.pageSize)
}

// SelectedItem returns the item under the cursor, if any.
func (s *State) SelectedItem() (feed.Item, bool) {
	if len(s.visible) == 0 {
		return feed.Item{}, false
	}
	return s.items[s.visible[s.selected]], true
}

// MoveSelection shifts the cursor by delta, clamped to the visible range.
func (s *State) MoveSelection(delta int) {
	if len(s.visible) == 0 {
		return
	}
	s.selected = min(max(0, s.selected+delta), len(s.visible)-1)
}

// Reveal scrolls the minimum amount needed to bring the cursor on screen.
func (s *State) Reveal() {
	if s.pageSize <= 0 || len(s.visible) == 0 {
		return
	}
	if s.selected < s.scrollOffset {
		s.scrollOffset = s.selected
	} else if s.selected >= s.scrollOffset+s.pageSize {
		s.scrollOffset = s.selected - s.pageSize + 1
	}
	s.scrollOffset = ClampOffset(s.scrollOffset, len(s.visible), s.pageSize)
}

// SetPageSize records how many rows the inbox pane shows and re-clamps the
// scroll offset.
func (s *State) SetPageSize(size int) {
	s.pageSize = max(0, size)
	s.scrollOffset = ClampOffset(s.scrollOffset, len(s.visible), s.pageSize)
}

// PageDown scrolls one page forward. The cursor is left where it is.
func (s *State) PageDown() {
	s.scrollOffset = PageDown(s.scrollOffset, len(s.visible), s.pageSize)
}

// PageUp scrolls one page back. The cursor is left where it is.
func (s *State) PageUp() {
	s.scrollOffset = PageUp(s.scrollOffset, s.pageSize)
}

// BeginFilter is called on entering filter entry.
func (s *State) BeginFilter() {
	s.status = FilterModeHint
}

// AppendFilter adds typed text to the filter without recomputing.
func (s *State) AppendFilter(text string) {
	s.filterText += text
}

// BackspaceFilter drops the last rune of the filter text.
func (s *State) BackspaceFilter() {
	if s.filterText == "" {
		return
	}
	_, size := utf8.DecodeLastRuneInString(s.filterText)
	s.filterText = s.filterText[:len(s.filterText)-size]
}

// ClearFilterText empties the filter text without leaving filter entry.
func (s *State) ClearFilterText() {
	s.filterText = ""
}

// CommitFilter keeps the typed text and applies it.
func (s *State) CommitFilter() {
	s.RecomputeVisible()
	s.status = fmt.Sprintf("Filter applied (%d results)", len(s.visible))
}

// CancelFilter discards the filter text and shows everything again.
func (s *State) CancelFilter() {
	s.filterText = ""
	s.RecomputeVisible()
	s.status = fmt.Sprintf("Filter cleared (%d results)", len(s.visible))
}

func (s *State) ToggleExpanded() {
	s.expanded = !s.expanded
}

func (s *State) SetRefreshing(refreshing bool) {
	s.refreshing = refreshing
}

func (s *State) SetStatus(status string) {
	s.status = status
}

func (s *State) Items() []feed.Item { return s.items }

func (s *State) VisibleCount() int { return len(s.visible) }

// VisibleItem returns the i-th visible item.
func (s *State) VisibleItem(i int) (feed.Item, bool) {
	if i < 0 || i >= len(s.visible) {
		return feed.Item{}, false
	}
	return s.items[s.visible[i]], true
}

// visibleItems materialises the visible subset in order.
func (s *State) visibleItems() []feed.Item {
	out := make([]feed.Item, len(s.visible))
	for i, idx := range s.visible {
		out[i] = s.items[idx]
	}
	return out
}

func (s *State) Selected() int      { return s.selected }
func (s *State) ScrollOffset() int  { return s.scrollOffset }
func (s *State) PageSize() int      { return s.pageSize }
func (s *State) FilterText() string { return s.filterText }
func (s *State) Expanded() bool     { return s.expanded }
func (s *State) Refreshing() bool   { return s.refreshing }
func (s *State) Status() string     { return s.status }
