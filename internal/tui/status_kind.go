package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// StatusKind indicates severity for status messages/spinners.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarn
	StatusError
)

// classifyStatus infers severity from the wording of a status line, since
// the inbox state only keeps the text.
func classifyStatus(status string) StatusKind {
	lower := strings.ToLower(status)
	switch {
	case strings.HasPrefix(lower, "refresh failed"),
		strings.HasPrefix(lower, "could not"),
		strings.HasPrefix(lower, "viewer failed"):
		return StatusError
	case strings.Contains(lower, "feeds failed"),
		strings.HasPrefix(lower, "no article"):
		return StatusWarn
	case strings.HasPrefix(lower, "loaded"),
		strings.HasPrefix(lower, "opened"),
		strings.HasPrefix(lower, "link copied"):
		return StatusSuccess
	default:
		return StatusInfo
	}
}

func (k StatusKind) style() lipgloss.Style {
	switch k {
	case StatusSuccess:
		return StatusSuccessStyle
	case StatusWarn:
		return StatusWarnStyle
	case StatusError:
		return StatusErrorStyle
	default:
		return StatusInfoStyle
	}
}
