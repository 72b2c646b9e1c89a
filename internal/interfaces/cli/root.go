package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"sftpls.dev/cli/internal/application/extension"
	"sftpls.dev/cli/internal/core/install"
	"sftpls.dev/cli/internal/core/ports/host"
	procp "sftpls.dev/cli/internal/core/ports/process"
	"sftpls.dev/cli/internal/infrastructure/config"
	"sftpls.dev/cli/internal/infrastructure/settings"
)

var (
	Version   = "dev"     // Overridden by ldflags
	BuildTime = "unknown" // Overridden by ldflags
)

// Overrides carries the persistent flags that were set on the command line
type Overrides struct {
	ConfigPath string
	Strategy   string
	Root       string
	Debug      *bool
}

// Services are the dependencies a command runs against
type Services struct {
	Config    *config.Config
	Logger    *slog.Logger
	Worktree  host.Worktree
	Runtime   host.RuntimeLocator
	Extension *extension.Extension
	Prober    *install.Prober
	Settings  *settings.Store
	Executor  procp.Executor
}

// CLIContainer holds all the dependencies for CLI commands. Services is
// built once the persistent flags are parsed.
type CLIContainer struct {
	Build    func(Overrides) (*Services, error)
	Services *Services
}

// NewRootCommand represents the base command when called without any subcommands
func NewRootCommand(container *CLIContainer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sftpls",
		Short: "Launcher for the SFTP language server",
		Long: `sftpls locates the bundled SFTP language server and starts it with Node.js.

Editors spawn "sftpls launch" as their language server command. The other
subcommands show what the launcher resolves without starting anything.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := readOverrides(cmd)
			if err != nil {
				return err
			}

			services, err := container.Build(overrides)
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			container.Services = services
			return nil
		},
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} version {{.Version}}\nBuild time: %s\nGo version: %s\nPlatform: %s/%s\n",
		BuildTime, goVersion(), runtime.GOOS, runtime.GOARCH))

	rootCmd.PersistentFlags().String("config", "", "Config file path (default is $XDG_CONFIG_HOME/sftpls/config.yaml)")
	rootCmd.PersistentFlags().String("strategy", "", "Discovery strategy: root-relative, install-directory or working-directory")
	rootCmd.PersistentFlags().String("root", "", "Worktree root (default is the current directory)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	rootCmd.AddCommand(NewCommandCommand(container))
	rootCmd.AddCommand(NewLocateCommand(container))
	rootCmd.AddCommand(NewWorkspaceConfigCommand(container))
	rootCmd.AddCommand(NewLaunchCommand(container))
	rootCmd.AddCommand(NewDoctorCommand(container))

	return rootCmd
}

// readOverrides collects only the flags that were explicitly set
func readOverrides(cmd *cobra.Command) (Overrides, error) {
	var o Overrides
	flags := cmd.Flags()

	var err error
	if o.ConfigPath, err = flags.GetString("config"); err != nil {
		return o, err
	}
	if o.Strategy, err = flags.GetString("strategy"); err != nil {
		return o, err
	}
	if o.Root, err = flags.GetString("root"); err != nil {
		return o, err
	}
	if flags.Changed("debug") {
		enabled, err := flags.GetBool("debug")
		if err != nil {
			return o, err
		}
		o.Debug = &enabled
	}
	return o, nil
}

// goVersion returns the Go version used to build the binary
func goVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.GoVersion
	}
	return "unknown"
}

// Execute adds all child commands to the root command and runs it. Cancelling
// ctx stops a running launch session.
func Execute(ctx context.Context, container *CLIContainer) {
	rootCmd := NewRootCommand(container)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
