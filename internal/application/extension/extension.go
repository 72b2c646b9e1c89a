package extension

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"sftpls.dev/cli/internal/core/domain/process"
	"sftpls.dev/cli/internal/core/domain/server"
	"sftpls.dev/cli/internal/core/locator"
	"sftpls.dev/cli/internal/core/ports/host"
)

// Extension answers the host's requests for the SFTP language server
type Extension struct {
	locator  *locator.Locator
	runtime  host.RuntimeLocator
	settings host.SettingsSource
	status   host.StatusReporter
	logger   *slog.Logger

	state server.DiscoveryState
}

// New creates an extension. status may be nil.
func New(
	l *locator.Locator,
	runtime host.RuntimeLocator,
	settings host.SettingsSource,
	status host.StatusReporter,
	logger *slog.Logger,
) *Extension {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extension{
		locator:  l,
		runtime:  runtime,
		settings: settings,
		status:   status,
		logger:   logger,
	}
}

// Found reports whether a previous request confirmed the server exists
func (e *Extension) Found() bool {
	return e.state.Found
}

// LanguageServerCommand resolves the server and returns the command that starts it
func (e *Extension) LanguageServerCommand(ctx context.Context, serverID string, worktree host.Worktree) (process.Command, error) {
	if serverID != server.ServerID {
		return process.Command{}, fmt.Errorf("unknown language server: %q", serverID)
	}

	if !e.state.Found {
		e.report(server.StatusCheckingForUpdate, "")
	}

	cmd, err := e.buildCommand(ctx, worktree)
	if err != nil {
		e.report(server.StatusFailed, err.Error())
		return process.Command{}, err
	}

	if !e.state.Found {
		e.report(server.StatusNone, "")
	}
	e.state.MarkFound()
	return cmd, nil
}

func (e *Extension) buildCommand(ctx context.Context, worktree host.Worktree) (process.Command, error) {
	shellEnv := worktree.ShellEnv()
	rc := locator.ResolutionContext{Root: worktree.RootPath(), Env: shellEnv}

	d, err := e.locator.Locate(ctx, rc)
	if err != nil {
		return process.Command{}, err
	}

	// Root-relative resolution skips the existence check, the plan may not
	if !d.Strategy.ChecksExistence() {
		if err := e.locator.Verify(d); err != nil {
			return process.Command{}, err
		}
	}

	nodePath, err := e.runtime.NodeBinaryPath(ctx)
	if err != nil {
		return process.Command{}, err
	}

	e.logger.Debug("resolved language server",
		"strategy", d.Strategy,
		"path", d.ResolvedPath,
		"node", nodePath,
	)
	return process.BuildServerCommand(d.ResolvedPath, nodePath, shellEnv), nil
}

// WorkspaceConfiguration returns the host settings for the server unchanged.
// Missing settings produce an empty object.
func (e *Extension) WorkspaceConfiguration(serverID string, worktree host.Worktree) (json.RawMessage, error) {
	if serverID != server.ServerID {
		return nil, fmt.Errorf("unknown language server: %q", serverID)
	}

	settings, err := e.settings.LanguageServerSettings(serverID, worktree)
	if err != nil {
		e.logger.Warn("failed to read language server settings", "error", err)
		settings = nil
	}
	if len(settings) == 0 {
		return json.RawMessage("{}"), nil
	}
	return settings, nil
}

func (e *Extension) report(status server.InstallationStatus, detail string) {
	if e.status != nil {
		e.status.SetInstallationStatus(server.ServerID, status, detail)
	}
}
