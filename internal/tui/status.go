package tui

import "fmt"

// Canonical short status messages used across the app.
const (
	MsgOpenedInBrowser = "Opened in browser."
	MsgCopiedLink      = "Link copied to clipboard."
	MsgNoSelection     = "No article selected."
	MsgEmptyInbox      = "No articles loaded. Press r to refresh."
	MsgNoMatches       = "No articles match the filter."
)

func MsgBrowserFailed(err error) string {
	return fmt.Sprintf("Could not open browser: %v", err)
}

func MsgViewerFailed(err error) string {
	return fmt.Sprintf("Viewer failed: %v", err)
}

func MsgCopyFailed(err error) string {
	return fmt.Sprintf("Could not copy link: %v", err)
}

func MsgFilterPrompt(text string) string {
	return "Filter: " + text
}
