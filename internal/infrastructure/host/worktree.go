package host

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	hostp "sftpls.dev/cli/internal/core/ports/host"
)

// LocalWorktree is a project directory on the local machine
type LocalWorktree struct {
	root     string
	env      map[string]string
	lookPath func(string) (string, error)
}

// WorktreeOption configures a LocalWorktree
type WorktreeOption func(*LocalWorktree)

// WithShellEnv replaces the captured environment snapshot
func WithShellEnv(env map[string]string) WorktreeOption {
	return func(w *LocalWorktree) {
		w.env = env
	}
}

// WithLookPathFunc replaces the executable search
func WithLookPathFunc(lookPath func(string) (string, error)) WorktreeOption {
	return func(w *LocalWorktree) {
		w.lookPath = lookPath
	}
}

// NewLocalWorktree creates a worktree rooted at root, capturing the current
// process environment
func NewLocalWorktree(root string, opts ...WorktreeOption) *LocalWorktree {
	if root != "" && !filepath.IsAbs(root) {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}

	w := &LocalWorktree{
		root:     root,
		env:      EnvironMap(os.Environ()),
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *LocalWorktree) RootPath() string {
	return w.root
}

// ShellEnv returns a copy of the environment snapshot
func (w *LocalWorktree) ShellEnv() map[string]string {
	env := make(map[string]string, len(w.env))
	for k, v := range w.env {
		env[k] = v
	}
	return env
}

func (w *LocalWorktree) Which(name string) (string, bool) {
	path, err := w.lookPath(name)
	if err != nil || path == "" {
		return "", false
	}
	return path, true
}

// EnvironMap converts KEY=value pairs into a map. Later duplicates win.
func EnvironMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

var _ hostp.Worktree = (*LocalWorktree)(nil)
