// Package host declares what the launcher consumes from the editor host.
package host

import (
	"context"
	"encoding/json"

	"sftpls.dev/cli/internal/core/domain/server"
)

// Worktree is the host's view of a project: its root and shell environment
type Worktree interface {
	RootPath() string
	ShellEnv() map[string]string

	// Which looks up an executable on the worktree's search path
	Which(name string) (string, bool)
}

// RuntimeLocator finds the node binary used to run the server
type RuntimeLocator interface {
	NodeBinaryPath(ctx context.Context) (string, error)
}

// SettingsSource returns host-managed LSP settings for a server identifier.
// A nil message with a nil error means no settings are configured.
type SettingsSource interface {
	LanguageServerSettings(serverID string, worktree Worktree) (json.RawMessage, error)
}

// StatusReporter receives installation status notifications
type StatusReporter interface {
	SetInstallationStatus(serverID string, status server.InstallationStatus, detail string)
}
