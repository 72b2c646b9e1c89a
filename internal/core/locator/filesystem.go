package locator

import (
	"io/fs"
	"os"
	"path/filepath"
)

// FileSystem is the subset of filesystem access the locator needs
type FileSystem interface {
	Stat(name string) (fs.FileInfo, error)
	Lstat(name string) (fs.FileInfo, error)
	EvalSymlinks(path string) (string, error)
}

// OSFileSystem reads the real filesystem
type OSFileSystem struct{}

func (OSFileSystem) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}

func (OSFileSystem) Lstat(name string) (fs.FileInfo, error) {
	return os.Lstat(name)
}

func (OSFileSystem) EvalSymlinks(path string) (string, error) {
	return filepath.EvalSymlinks(path)
}
