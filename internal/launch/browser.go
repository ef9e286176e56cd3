package launch

import (
	"bytes"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Browser opens links in the desktop browser without taking over the
// terminal.
type Browser struct {
	command []string
	start   func(*exec.Cmd) error
}

type BrowserOption func(*Browser)

// Detached returns as soon as the browser process has started and ignores
// its exit status. Use it for browser commands that stay in the foreground
// until the window is closed.
func Detached() BrowserOption {
	return func(b *Browser) { b.start = startDetached }
}

// NewBrowser uses command when set ("firefox --new-tab"), otherwise the
// platform's URL opener. Open waits for the command to exit.
func NewBrowser(command string, opts ...BrowserOption) *Browser {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		fields = DefaultOpener(runtime.GOOS)
	}
	b := &Browser{command: fields, start: runOpener}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// DefaultOpener returns the URL opener command for goos.
func DefaultOpener(goos string) []string {
	switch goos {
	case "darwin":
		return []string{"open"}
	case "windows":
		return []string{"rundll32", "url.dll,FileProtocolHandler"}
	default:
		return []string{"xdg-open"}
	}
}

func (b *Browser) Command(link string) *exec.Cmd {
	args := append(append([]string(nil), b.command[1:]...), link)
	return exec.Command(b.command[0], args...)
}

// Open hands link to the browser command. A missing program or a non-zero
// exit is returned as an error.
func (b *Browser) Open(link string) error {
	cmd := b.Command(link)
	if err := b.start(cmd); err != nil {
		return fmt.Errorf("opening with %s: %w", b.command[0], err)
	}
	return nil
}

// runOpener waits for the opener and keeps its stderr out of the
// alternate screen, reporting it with the exit error instead.
func runOpener(cmd *exec.Cmd) error {
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
