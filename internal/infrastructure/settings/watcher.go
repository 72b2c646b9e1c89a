package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"sftpls.dev/cli/internal/core/ports/host"
)

// Watch calls onChange with the current settings and again whenever one of
// the settings files changes the value. It blocks until ctx is done.
func (s *Store) Watch(ctx context.Context, serverID string, worktree host.Worktree, onChange func(json.RawMessage)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create settings watcher: %w", err)
	}
	defer watcher.Close()

	// Editors save by renaming over the file, so watch the directories
	watched := make(map[string]bool)
	targets := make(map[string]bool)
	for _, path := range s.Paths(worktree) {
		targets[filepath.Clean(path)] = true
		dir := filepath.Dir(path)
		if watched[dir] {
			continue
		}
		if _, err := os.Stat(dir); err != nil {
			s.logger.Debug("settings directory not present, not watching", "dir", dir)
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		watched[dir] = true
	}

	current, err := s.LanguageServerSettings(serverID, worktree)
	if err != nil {
		return err
	}
	onChange(current)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !targets[filepath.Clean(event.Name)] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}

			next, err := s.LanguageServerSettings(serverID, worktree)
			if err != nil {
				// Half-written files are common while saving
				s.logger.Warn("failed to reload settings", "error", err)
				continue
			}
			if bytes.Equal(next, current) {
				continue
			}
			current = next
			onChange(current)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("settings watcher error", "error", err)
		}
	}
}
