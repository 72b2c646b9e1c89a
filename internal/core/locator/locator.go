// Package locator resolves the absolute path of the bundled language server.
//
// Three strategies are supported and exactly one is used per locator. There is
// no fallback between them: the chosen strategy either produces a path or the
// start-up request fails.
package locator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"sftpls.dev/cli/internal/core/domain/server"
)

// ResolutionContext carries the per-request inputs supplied by the host
type ResolutionContext struct {
	// Root is the worktree root, used by the root-relative strategy
	Root string

	// Env is the host's shell environment snapshot. When nil the
	// locator falls back to its own environment lookup.
	Env map[string]string
}

// Locator resolves the server entry point using a single strategy
type Locator struct {
	strategy   server.Strategy
	fs         FileSystem
	lookupEnv  func(string) (string, bool)
	getwd      func() (string, error)
	homeVar    string
	installDir string
}

// Option configures a Locator
type Option func(*Locator)

// WithFileSystem replaces the filesystem used for existence checks
func WithFileSystem(fsys FileSystem) Option {
	return func(l *Locator) {
		l.fs = fsys
	}
}

// WithLookupEnv replaces the process environment lookup
func WithLookupEnv(lookup func(string) (string, bool)) Option {
	return func(l *Locator) {
		l.lookupEnv = lookup
	}
}

// WithGetwd replaces the working directory lookup
func WithGetwd(getwd func() (string, error)) Option {
	return func(l *Locator) {
		l.getwd = getwd
	}
}

// WithHomeVar sets the environment variable holding the home directory
func WithHomeVar(name string) Option {
	return func(l *Locator) {
		if name != "" {
			l.homeVar = name
		}
	}
}

// WithInstallDir sets the installed extension path relative to the home directory
func WithInstallDir(dir string) Option {
	return func(l *Locator) {
		if dir != "" {
			l.installDir = dir
		}
	}
}

// New creates a locator for the given strategy
func New(strategy server.Strategy, opts ...Option) (*Locator, error) {
	if _, err := server.ParseStrategy(string(strategy)); err != nil {
		return nil, err
	}

	l := &Locator{
		strategy:   strategy,
		fs:         OSFileSystem{},
		lookupEnv:  os.LookupEnv,
		getwd:      os.Getwd,
		homeVar:    DefaultHomeVar(),
		installDir: DefaultInstallDir(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Strategy returns the configured discovery strategy
func (l *Locator) Strategy() server.Strategy {
	return l.strategy
}

// Locate resolves the server entry point for the given context
func (l *Locator) Locate(ctx context.Context, rc ResolutionContext) (server.Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return server.Descriptor{}, err
	}

	switch l.strategy {
	case server.StrategyRootRelative:
		return l.locateRootRelative(rc)
	case server.StrategyInstallDirectory:
		return l.locateInstallDirectory(rc)
	case server.StrategyWorkingDirectory:
		return l.locateWorkingDirectory()
	default:
		return server.Descriptor{}, fmt.Errorf("unknown discovery strategy: %q", l.strategy)
	}
}

// locateRootRelative appends the suffix to the root as given, without
// cleaning it and without touching the filesystem
func (l *Locator) locateRootRelative(rc ResolutionContext) (server.Descriptor, error) {
	if rc.Root == "" {
		return server.Descriptor{}, fmt.Errorf("worktree root cannot be empty")
	}
	resolved := rc.Root + string(filepath.Separator) + filepath.FromSlash(server.RelativeSuffix)
	return server.NewDescriptor(server.StrategyRootRelative, rc.Root, resolved), nil
}

func (l *Locator) locateInstallDirectory(rc ResolutionContext) (server.Descriptor, error) {
	home, ok := l.lookup(rc, l.homeVar)
	if !ok || home == "" {
		return server.Descriptor{}, server.MissingEnvironmentValue(l.homeVar)
	}

	installPath := filepath.Join(home, l.installDir)
	base := installPath

	info, err := l.fs.Lstat(installPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return server.Descriptor{}, server.SymlinkResolutionFailure(installPath, err)
	}
	if err == nil && info.Mode()&fs.ModeSymlink != 0 {
		target, err := l.fs.EvalSymlinks(installPath)
		if err != nil {
			return server.Descriptor{}, server.SymlinkResolutionFailure(installPath, err)
		}
		base = target
	}

	resolved := filepath.Join(base, filepath.FromSlash(server.RelativeSuffix))
	if err := l.verifyFile(resolved); err != nil {
		return server.Descriptor{}, server.FileNotFound(resolved, "", err)
	}
	return server.NewDescriptor(server.StrategyInstallDirectory, base, resolved), nil
}

func (l *Locator) locateWorkingDirectory() (server.Descriptor, error) {
	cwd, err := l.getwd()
	if err != nil {
		return server.Descriptor{}, fmt.Errorf("failed to determine working directory: %w", err)
	}

	resolved := filepath.Join(cwd, filepath.FromSlash(server.RelativeSuffix))
	if err := l.verifyFile(resolved); err != nil {
		return server.Descriptor{}, server.FileNotFound(resolved, cwd, err)
	}
	return server.NewDescriptor(server.StrategyWorkingDirectory, cwd, resolved), nil
}

// Verify checks that a descriptor names an existing regular file
func (l *Locator) Verify(d server.Descriptor) error {
	if err := l.verifyFile(d.ResolvedPath); err != nil {
		return server.FileNotFound(d.ResolvedPath, d.Base, err)
	}
	return nil
}

func (l *Locator) verifyFile(path string) error {
	info, err := l.fs.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}
	return nil
}

func (l *Locator) lookup(rc ResolutionContext, name string) (string, bool) {
	if rc.Env != nil {
		value, ok := rc.Env[name]
		return value, ok
	}
	return l.lookupEnv(name)
}

// DefaultHomeVar returns the variable holding the user's home directory
func DefaultHomeVar() string {
	if runtime.GOOS == "windows" {
		return "USERPROFILE"
	}
	return "HOME"
}

// DefaultInstallDir returns where the editor keeps installed extensions,
// relative to the home directory
func DefaultInstallDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join("Library", "Application Support", "Zed", "extensions", "installed", "sftp")
	case "windows":
		return filepath.Join("AppData", "Local", "Zed", "extensions", "installed", "sftp")
	default:
		return filepath.Join(".local", "share", "zed", "extensions", "installed", "sftp")
	}
}
