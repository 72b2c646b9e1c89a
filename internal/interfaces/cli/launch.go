package cli

import (
	"os"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"sftpls.dev/cli/internal/core/domain/server"
	"sftpls.dev/cli/internal/infrastructure/logging"
	"sftpls.dev/cli/internal/monitoring"
)

// NewLaunchCommand creates the launch subcommand
func NewLaunchCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "launch",
		Short: "Start the language server and bridge it over stdio",
		Long: `Resolve the language server, start it with Node.js and bridge the
launcher's stdin and stdout to it.

This is the command an editor should be configured to spawn. Logs go to
stderr; stdout carries only LSP messages. On SIGINT or SIGTERM the server
is asked to exit and killed if it does not within the shutdown grace.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := container.Services
			ctx := cmd.Context()

			if isTerminal(cmd.InOrStdin()) {
				s.Logger.Warn("stdin is a terminal; launch expects an editor speaking LSP on stdio")
			}

			plan, err := s.Extension.LanguageServerCommand(ctx, server.ServerID, s.Worktree)
			if err != nil {
				return err
			}
			// The server resolves relative workspace paths against its cwd
			plan = plan.WithWorkingDir(s.Worktree.RootPath())

			sessionID := uuid.NewString()
			service := monitoring.NewService(
				s.Executor,
				logging.NewConsoleLogger(s.Logger, sessionID),
				s.Logger,
				monitoring.Streams{
					In:          cmd.InOrStdin(),
					Out:         cmd.OutOrStdout(),
					Diagnostics: cmd.ErrOrStderr(),
				},
				s.Config.ShutdownGrace,
			)
			return service.Run(ctx, plan, sessionID)
		},
	}
}

// isTerminal reports whether v is a file attached to a terminal
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
