package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"sftpls.dev/cli/internal/core/domain/server"
)

// NewWorkspaceConfigCommand creates the workspace-config subcommand
func NewWorkspaceConfigCommand(container *CLIContainer) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "workspace-config",
		Short: "Print the settings passed to the language server",
		Long: `Print the "lsp.sftp-server.settings" value from the editor settings.

Project settings (.zed/settings.json in the worktree) take precedence over
the user settings file. Missing settings print as {}. With --watch, the
value is printed again each time it changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := container.Services
			out := cmd.OutOrStdout()

			if watch {
				return s.Settings.Watch(cmd.Context(), server.ServerID, s.Worktree, func(raw json.RawMessage) {
					if len(raw) == 0 {
						raw = json.RawMessage("{}")
					}
					if err := writeCompact(out, raw); err != nil {
						s.Logger.Warn("failed to print settings", "error", err)
					}
				})
			}

			raw, err := s.Extension.WorkspaceConfiguration(server.ServerID, s.Worktree)
			if err != nil {
				return err
			}
			return writeCompact(out, raw)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Print the settings again whenever they change")
	return cmd
}

// writeCompact prints raw on a single line
func writeCompact(w io.Writer, raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return fmt.Errorf("invalid settings JSON: %w", err)
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}
