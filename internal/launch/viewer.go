package launch

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed viewers.toml
var viewersTOML []byte

var ErrNoViewer = errors.New("no terminal viewer available")

// ViewerDefinition describes how to hand a URL to a terminal program.
type ViewerDefinition struct {
	Description string   `toml:"description"`
	Platforms   []string `toml:"platforms"`
	Args        []string `toml:"args,omitempty"`
	ArgsDarwin  []string `toml:"args_darwin,omitempty"`
	ArgsLinux   []string `toml:"args_linux,omitempty"`
	ArgsWindows []string `toml:"args_windows,omitempty"`
}

type viewersFile struct {
	Order   []string                    `toml:"order"`
	Viewers map[string]ViewerDefinition `toml:"viewers"`
}

// Registry knows the built-in viewers plus any the user defines.
type Registry struct {
	order   []string
	viewers map[string]ViewerDefinition

	goos     string
	lookPath func(string) (string, error)
}

// NewRegistry parses the embedded definitions and merges user overrides
// from userFiles that exist.
func NewRegistry(userFiles ...string) (*Registry, error) {
	var builtin viewersFile
	if err := toml.Unmarshal(viewersTOML, &builtin); err != nil {
		return nil, fmt.Errorf("parsing viewers.toml: %w", err)
	}

	r := &Registry{
		order:    builtin.Order,
		viewers:  builtin.Viewers,
		goos:     runtime.GOOS,
		lookPath: exec.LookPath,
	}
	if r.viewers == nil {
		r.viewers = make(map[string]ViewerDefinition)
	}
	for _, path := range userFiles {
		r.merge(path)
	}
	return r, nil
}

// UserViewersPath is where a user's own viewer definitions live.
func UserViewersPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "newsbox", "viewers.toml")
}

func (r *Registry) merge(path string) {
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var user viewersFile
	if err := toml.Unmarshal(data, &user); err != nil {
		return
	}
	for name, def := range user.Viewers {
		r.viewers[name] = def
		if !slices.Contains(r.order, name) {
			r.order = append(r.order, name)
		}
	}
	if len(user.Order) > 0 {
		r.order = user.Order
	}
}

// Names lists registered viewers in preference order.
func (r *Registry) Names() []string {
	return slices.Clone(r.order)
}

func (r *Registry) Definition(name string) (ViewerDefinition, bool) {
	def, ok := r.viewers[name]
	return def, ok
}

// Resolve picks the viewer to run. A non-empty preferred value is used as
// given, and may carry extra arguments ("w3m -no-mouse"). Otherwise the
// first installed viewer supported on this platform wins.
func (r *Registry) Resolve(preferred string) (name string, extra []string, err error) {
	if fields := strings.Fields(preferred); len(fields) > 0 {
		if _, err := r.lookPath(fields[0]); err != nil {
			return "", nil, fmt.Errorf("%w: %s not found", ErrNoViewer, fields[0])
		}
		return fields[0], fields[1:], nil
	}

	for _, candidate := range r.order {
		if r.Installed(candidate) {
			return candidate, nil, nil
		}
	}
	return "", nil, fmt.Errorf("%w: install one of %s", ErrNoViewer, strings.Join(r.order, ", "))
}

// Installed reports whether name is registered, supported on this platform
// and found on PATH.
func (r *Registry) Installed(name string) bool {
	def, ok := r.viewers[name]
	if !ok || !r.supported(def) {
		return false
	}
	_, err := r.lookPath(name)
	return err == nil
}

func (r *Registry) Supported(name string) bool {
	def, ok := r.viewers[name]
	return ok && r.supported(def)
}

func (r *Registry) supported(def ViewerDefinition) bool {
	return len(def.Platforms) == 0 || slices.Contains(def.Platforms, r.goos)
}

// Args returns the registered arguments for name on this platform, before
// the URL. Unknown viewers get none.
func (r *Registry) Args(name string) []string {
	def, ok := r.viewers[name]
	if !ok {
		return nil
	}

	var args []string
	switch r.goos {
	case "darwin":
		args = def.ArgsDarwin
	case "linux":
		args = def.ArgsLinux
	case "windows":
		args = def.ArgsWindows
	}
	if len(args) == 0 {
		args = def.Args
	}
	return slices.Clone(args)
}

// Command builds the process that shows link in the preferred viewer.
func (r *Registry) Command(preferred, link string) (*exec.Cmd, error) {
	name, extra, err := r.Resolve(preferred)
	if err != nil {
		return nil, err
	}
	args := append(r.Args(name), extra...)
	args = append(args, link)
	return exec.Command(name, args...), nil
}
