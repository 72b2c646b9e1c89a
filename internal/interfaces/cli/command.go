package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"sftpls.dev/cli/internal/core/domain/server"
)

// commandPlan is the --json form of the invocation plan. The environment is
// the caller's own shell environment and is left out.
type commandPlan struct {
	ServerID string   `json:"server_id"`
	Command  string   `json:"command"`
	Args     []string `json:"args"`
}

// NewCommandCommand creates the command subcommand
func NewCommandCommand(container *CLIContainer) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "command",
		Short: "Print the command that starts the language server",
		Long: `Resolve the language server and print the command an editor would run.

Nothing is started. The command fails with the same error an editor would
report when the server or the Node.js runtime cannot be found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := container.Services

			plan, err := s.Extension.LanguageServerCommand(cmd.Context(), server.ServerID, s.Worktree)
			if err != nil {
				return err
			}

			if !asJSON {
				fmt.Fprintln(cmd.OutOrStdout(), plan.String())
				return nil
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(commandPlan{
				ServerID: server.ServerID,
				Command:  plan.Executable(),
				Args:     plan.Args(),
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the command as JSON")
	return cmd
}
