package locator

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"sftpls.dev/cli/internal/core/domain/server"
)

// countingFS records every filesystem call made by the locator
type countingFS struct {
	OSFileSystem
	calls int
}

func (c *countingFS) Stat(name string) (fs.FileInfo, error) {
	c.calls++
	return c.OSFileSystem.Stat(name)
}

func (c *countingFS) Lstat(name string) (fs.FileInfo, error) {
	c.calls++
	return c.OSFileSystem.Lstat(name)
}

func (c *countingFS) EvalSymlinks(path string) (string, error) {
	c.calls++
	return c.OSFileSystem.EvalSymlinks(path)
}

func writeServer(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "server", "dist", "index.js")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("// server\n"), 0o644))
	return path
}

func envWithHome(home string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		if name == "HOME" {
			return home, true
		}
		return "", false
	}
}

func TestNew_RejectsUnknownStrategy(t *testing.T) {
	_, err := New(server.Strategy("download"))
	assert.Error(t, err)

	l, err := New(server.StrategyWorkingDirectory)
	require.NoError(t, err)
	assert.Equal(t, server.StrategyWorkingDirectory, l.Strategy())
}

func TestLocate_RootRelative_DoesNotTouchFilesystem(t *testing.T) {
	fsys := &countingFS{}
	l, err := New(server.StrategyRootRelative, WithFileSystem(fsys))
	require.NoError(t, err)

	d, err := l.Locate(context.Background(), ResolutionContext{Root: "/does/not/exist"})
	require.NoError(t, err)

	assert.Equal(t, "/does/not/exist/server/dist/index.js", d.ResolvedPath)
	assert.Equal(t, server.RelativeSuffix, d.RelativeSuffix)
	assert.Equal(t, server.StrategyRootRelative, d.Strategy)
	assert.Zero(t, fsys.calls, "root-relative resolution must not check existence")
}

func TestLocate_RootRelative_EmptyRoot(t *testing.T) {
	l, err := New(server.StrategyRootRelative)
	require.NoError(t, err)

	_, err = l.Locate(context.Background(), ResolutionContext{})
	assert.Error(t, err)
}

func TestLocate_RootRelative_PropertyBased(t *testing.T) {
	segment := rapid.StringMatching(`[a-zA-Z0-9_-]{1,12}`)

	rapid.Check(t, func(t *rapid.T) {
		parts := rapid.SliceOfN(segment, 1, 6).Draw(t, "parts")
		root := "/" + strings.Join(parts, "/")

		fsys := &countingFS{}
		l, err := New(server.StrategyRootRelative, WithFileSystem(fsys))
		require.NoError(t, err)

		d, err := l.Locate(context.Background(), ResolutionContext{Root: root})
		require.NoError(t, err)
		assert.Equal(t, root+"/server/dist/index.js", d.ResolvedPath)
		assert.Equal(t, root, d.Base)
		assert.Zero(t, fsys.calls)
	})
}

func TestLocate_RootRelative_KeepsRootAsGiven(t *testing.T) {
	tests := []struct {
		name     string
		root     string
		expected string
	}{
		{name: "trailing_slash", root: "/ext/", expected: "/ext//server/dist/index.js"},
		{name: "relative_dot", root: ".", expected: "./server/dist/index.js"},
		{name: "dot_segments", root: "/ext/a/../b", expected: "/ext/a/../b/server/dist/index.js"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(server.StrategyRootRelative, WithFileSystem(&countingFS{}))
			require.NoError(t, err)

			d, err := l.Locate(context.Background(), ResolutionContext{Root: tt.root})
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.expected), d.ResolvedPath)
		})
	}
}

func TestLocate_RootRelative_PropertyBased_AnyRoot(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		root := rapid.StringMatching(`[a-zA-Z0-9_./-]{1,40}`).Draw(t, "root")

		l, err := New(server.StrategyRootRelative, WithFileSystem(&countingFS{}))
		require.NoError(t, err)

		d, err := l.Locate(context.Background(), ResolutionContext{Root: root})
		require.NoError(t, err)
		assert.Equal(t, root+"/server/dist/index.js", d.ResolvedPath)
	})
}

// deniedFS fails every Lstat with a permission error
type deniedFS struct {
	OSFileSystem
}

func (deniedFS) Lstat(name string) (fs.FileInfo, error) {
	return nil, &fs.PathError{Op: "lstat", Path: name, Err: fs.ErrPermission}
}

func TestLocate_InstallDirectory_UnreadableInstallPath(t *testing.T) {
	l, err := New(server.StrategyInstallDirectory,
		WithFileSystem(deniedFS{}),
		WithLookupEnv(envWithHome("/home/dev")),
		WithInstallDir("sftp"),
	)
	require.NoError(t, err)

	_, err = l.Locate(context.Background(), ResolutionContext{})
	require.Error(t, err)

	assert.ErrorIs(t, err, server.ErrSymlinkResolutionFailure)
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.NotErrorIs(t, err, server.ErrFileNotFound)
	assert.Contains(t, err.Error(), filepath.Join("/home/dev", "sftp"))
}

func TestLocate_InstallDirectory_MissingHome(t *testing.T) {
	tests := []struct {
		name string
		rc   ResolutionContext
		env  func(string) (string, bool)
	}{
		{
			name: "unset_in_process_env",
			env:  func(string) (string, bool) { return "", false },
		},
		{
			name: "empty_in_process_env",
			env:  func(string) (string, bool) { return "", true },
		},
		{
			name: "absent_from_shell_env",
			rc:   ResolutionContext{Env: map[string]string{"PATH": "/usr/bin"}},
			env:  envWithHome("/home/ignored"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := &countingFS{}
			l, err := New(server.StrategyInstallDirectory, WithFileSystem(fsys), WithLookupEnv(tt.env))
			require.NoError(t, err)

			_, err = l.Locate(context.Background(), tt.rc)
			require.Error(t, err)

			assert.ErrorIs(t, err, server.ErrMissingEnvironmentValue)
			assert.NotErrorIs(t, err, server.ErrFileNotFound)
			assert.Contains(t, err.Error(), "HOME")
			assert.Zero(t, fsys.calls, "must fail before touching the filesystem")
		})
	}
}

func TestLocate_InstallDirectory_FollowsSymlink(t *testing.T) {
	home := t.TempDir()
	target := t.TempDir()
	writeServer(t, target)

	installDir := filepath.Join("extensions", "installed", "sftp")
	link := filepath.Join(home, installDir)
	require.NoError(t, os.MkdirAll(filepath.Dir(link), 0o755))
	require.NoError(t, os.Symlink(target, link))

	l, err := New(server.StrategyInstallDirectory,
		WithLookupEnv(envWithHome(home)),
		WithInstallDir(installDir),
	)
	require.NoError(t, err)

	d, err := l.Locate(context.Background(), ResolutionContext{})
	require.NoError(t, err)

	resolvedTarget, err := filepath.EvalSymlinks(target)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(resolvedTarget, "server", "dist", "index.js"), d.ResolvedPath)
	assert.Equal(t, resolvedTarget, d.Base)
}

func TestLocate_InstallDirectory_DanglingSymlink(t *testing.T) {
	home := t.TempDir()
	installDir := "sftp"
	link := filepath.Join(home, installDir)
	require.NoError(t, os.Symlink(filepath.Join(home, "gone"), link))

	l, err := New(server.StrategyInstallDirectory,
		WithLookupEnv(envWithHome(home)),
		WithInstallDir(installDir),
	)
	require.NoError(t, err)

	_, err = l.Locate(context.Background(), ResolutionContext{})
	require.Error(t, err)

	assert.ErrorIs(t, err, server.ErrSymlinkResolutionFailure)
	assert.NotErrorIs(t, err, server.ErrFileNotFound, "dangling link must not look like a missing file")
	assert.Contains(t, err.Error(), link)

	kind, ok := server.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, server.KindSymlinkResolutionFailure, kind)
}

func TestLocate_InstallDirectory_PlainDirectory(t *testing.T) {
	home := t.TempDir()
	expected := writeServer(t, filepath.Join(home, "sftp"))

	l, err := New(server.StrategyInstallDirectory,
		WithInstallDir("sftp"),
	)
	require.NoError(t, err)

	d, err := l.Locate(context.Background(), ResolutionContext{Env: map[string]string{"HOME": home}})
	require.NoError(t, err)
	assert.Equal(t, expected, d.ResolvedPath)
}

func TestLocate_InstallDirectory_MissingFile(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, "sftp"), 0o755))

	l, err := New(server.StrategyInstallDirectory,
		WithLookupEnv(envWithHome(home)),
		WithInstallDir("sftp"),
	)
	require.NoError(t, err)

	_, err = l.Locate(context.Background(), ResolutionContext{})
	require.Error(t, err)

	assert.ErrorIs(t, err, server.ErrFileNotFound)
	assert.Contains(t, err.Error(), filepath.Join(home, "sftp", "server", "dist", "index.js"))
}

func TestLocate_WorkingDirectory_FollowsSimulatedCwd(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	firstPath := writeServer(t, first)
	secondPath := writeServer(t, second)

	cwd := first
	l, err := New(server.StrategyWorkingDirectory, WithGetwd(func() (string, error) { return cwd, nil }))
	require.NoError(t, err)

	d, err := l.Locate(context.Background(), ResolutionContext{})
	require.NoError(t, err)
	assert.Equal(t, firstPath, d.ResolvedPath)

	cwd = second
	d, err = l.Locate(context.Background(), ResolutionContext{})
	require.NoError(t, err)
	assert.Equal(t, secondPath, d.ResolvedPath)
	assert.Equal(t, second, d.Base)
}

func TestLocate_WorkingDirectory_MissingFileReportsPathAndBase(t *testing.T) {
	cwd := t.TempDir()
	l, err := New(server.StrategyWorkingDirectory, WithGetwd(func() (string, error) { return cwd, nil }))
	require.NoError(t, err)

	_, err = l.Locate(context.Background(), ResolutionContext{})
	require.Error(t, err)

	assert.ErrorIs(t, err, server.ErrFileNotFound)
	assert.Contains(t, err.Error(), filepath.Join(cwd, "server", "dist", "index.js"))
	assert.Contains(t, err.Error(), "base directory: "+cwd)
}

func TestLocate_WorkingDirectory_DirectoryIsNotAServer(t *testing.T) {
	cwd := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(cwd, "server", "dist", "index.js"), 0o755))

	l, err := New(server.StrategyWorkingDirectory, WithGetwd(func() (string, error) { return cwd, nil }))
	require.NoError(t, err)

	_, err = l.Locate(context.Background(), ResolutionContext{})
	assert.ErrorIs(t, err, server.ErrFileNotFound)
}

func TestLocate_CancelledContext(t *testing.T) {
	l, err := New(server.StrategyRootRelative)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = l.Locate(ctx, ResolutionContext{Root: "/ext"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVerify(t *testing.T) {
	root := t.TempDir()
	l, err := New(server.StrategyRootRelative)
	require.NoError(t, err)

	d, err := l.Locate(context.Background(), ResolutionContext{Root: root})
	require.NoError(t, err)
	assert.ErrorIs(t, l.Verify(d), server.ErrFileNotFound)

	writeServer(t, root)
	assert.NoError(t, l.Verify(d))
}
