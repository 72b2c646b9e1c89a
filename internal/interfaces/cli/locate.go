package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLocateCommand creates the locate subcommand
func NewLocateCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "locate",
		Short: "Print the resolved language server path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := container.Services

			report, err := s.Prober.Probe(cmd.Context(), s.Worktree)
			if err != nil {
				return err
			}
			if !report.Installed {
				return report.LocateErr
			}

			fmt.Fprintln(cmd.OutOrStdout(), report.Descriptor.ResolvedPath)
			return nil
		},
	}
}
