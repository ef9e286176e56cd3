package inbox

// Layout holds the proportions the renderer uses to split the screen. The
// page size derived from it must match what the inbox pane can show.
type Layout struct {
	// InboxPercent is the share of the body rows given to the inbox pane.
	InboxPercent int
	// ChromeRows are rows outside the panes (top bar, status bar).
	ChromeRows int
	// BorderRows are rows the inbox pane's own border consumes.
	BorderRows int
}

func DefaultLayout() Layout {
	return Layout{InboxPercent: 75, ChromeRows: 2, BorderRows: 2}
}

// BodyRows is the height left for both panes once chrome is removed.
func (l Layout) BodyRows(height int) int {
	return max(0, height-l.ChromeRows)
}

// InboxRows is the outer height of the inbox pane, border included.
func (l Layout) InboxRows(height int) int {
	return l.BodyRows(height) * l.InboxPercent / 100
}

// PageSize is how many items fit inside the inbox pane at the given
// terminal height. Never negative.
func (l Layout) PageSize(height int) int {
	return max(0, l.InboxRows(height)-l.BorderRows)
}

// PageDown advances offset by one page without running past the last
// full page. A zero page size leaves offset unchanged.
func PageDown(offset, count, size int) int {
	if size <= 0 {
		return offset
	}
	return min(offset+size, max(0, count-size))
}

// PageUp moves offset back one page, stopping at zero.
func PageUp(offset, size int) int {
	if size <= 0 {
		return offset
	}
	return max(0, offset-size)
}

// ClampOffset bounds offset to [0, max(0, count-size)].
func ClampOffset(offset, count, size int) int {
	return min(max(0, offset), max(0, count-size))
}
