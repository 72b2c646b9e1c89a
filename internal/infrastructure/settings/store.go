// Package settings reads language server settings from the editor's
// settings.json files.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
	"github.com/tidwall/jsonc"

	"sftpls.dev/cli/internal/core/ports/host"
)

// ProjectSettingsPath is the per-project settings file relative to the worktree root
const ProjectSettingsPath = ".zed/settings.json"

// Store looks up "lsp.<server>.settings" in the project settings file first
// and the user settings file second. The first file that defines the key wins;
// objects are not merged.
type Store struct {
	userPath string
	logger   *slog.Logger
}

// NewStore creates a store backed by the user settings file at userPath
func NewStore(userPath string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{userPath: userPath, logger: logger}
}

// Paths returns the settings files consulted for a worktree, highest precedence first
func (s *Store) Paths(worktree host.Worktree) []string {
	var paths []string
	if worktree != nil && worktree.RootPath() != "" {
		paths = append(paths, filepath.Join(worktree.RootPath(), filepath.FromSlash(ProjectSettingsPath)))
	}
	if s.userPath != "" {
		paths = append(paths, s.userPath)
	}
	return paths
}

// LanguageServerSettings returns the raw settings object, or nil when none is configured
func (s *Store) LanguageServerSettings(serverID string, worktree host.Worktree) (json.RawMessage, error) {
	for _, path := range s.Paths(worktree) {
		raw, err := lookup(path, serverID)
		if err != nil {
			return nil, err
		}
		if raw != nil {
			s.logger.Debug("loaded language server settings", "server", serverID, "path", path)
			return raw, nil
		}
	}
	return nil, nil
}

func lookup(path, serverID string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	// Settings files allow comments and trailing commas
	data = jsonc.ToJSON(data)
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON in settings file %s", path)
	}

	result := gjson.GetBytes(data, "lsp."+gjson.Escape(serverID)+".settings")
	if !result.Exists() || result.Type == gjson.Null {
		return nil, nil
	}
	return json.RawMessage(result.Raw), nil
}

var _ host.SettingsSource = (*Store)(nil)
