package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"sftpls.dev/cli/internal/core/install"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Width(10)
	titleStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// ErrNotReady is returned by doctor when the server can neither start nor be installed
var ErrNotReady = errors.New("language server is not ready")

type checkState int

const (
	checkOK checkState = iota
	checkWarn
	checkFail
)

type check struct {
	label  string
	state  checkState
	detail string
}

// NewDoctorCommand creates the doctor subcommand
func NewDoctorCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Report whether the language server can be started",
		Long: `Check the discovery strategy, the server entry point, the Node.js
runtime and the settings files, and print a report.

When the server is not installed, doctor checks that npm is available to
install it. It never installs anything itself.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := container.Services
			ctx := cmd.Context()

			report, err := s.Prober.Probe(ctx, s.Worktree)
			if err != nil {
				return err
			}

			checks := []check{{label: "strategy", state: checkOK, detail: s.Config.Strategy}}
			checks = append(checks, serverChecks(report)...)

			ready := report.Ready()
			if node, err := s.Runtime.NodeBinaryPath(ctx); err != nil {
				checks = append(checks, check{label: "node", state: checkFail, detail: err.Error()})
				ready = false
			} else {
				checks = append(checks, check{label: "node", state: checkOK, detail: node})
			}

			configDetail := "defaults"
			if s.Config.Path != "" {
				configDetail = s.Config.Path
			}
			checks = append(checks, check{label: "config", state: checkOK, detail: configDetail})
			checks = append(checks, check{label: "settings", state: checkOK, detail: strings.Join(s.Settings.Paths(s.Worktree), ", ")})

			out := cmd.OutOrStdout()
			renderChecks(out, checks, isTerminal(out))

			if !ready {
				return ErrNotReady
			}
			return nil
		},
	}
}

func serverChecks(report install.Report) []check {
	if report.Installed {
		return []check{{label: "server", state: checkOK, detail: report.Descriptor.ResolvedPath}}
	}

	checks := []check{{label: "server", state: checkWarn, detail: "not installed: " + report.LocateErr.Error()}}
	if report.PackageManagerErr != nil {
		return append(checks, check{label: install.PackageManager, state: checkFail, detail: report.PackageManagerErr.Error()})
	}
	return append(checks, check{label: install.PackageManager, state: checkOK, detail: report.PackageManagerPath})
}

// renderChecks prints one line per check, styled only on a terminal
func renderChecks(w io.Writer, checks []check, styled bool) {
	render := func(style lipgloss.Style, s string) string {
		if !styled {
			return s
		}
		return style.Render(s)
	}

	fmt.Fprintln(w, render(titleStyle, "sftpls doctor"))
	for _, c := range checks {
		var mark string
		switch c.state {
		case checkOK:
			mark = render(okStyle, "ok  ")
		case checkWarn:
			mark = render(warnStyle, "warn")
		default:
			mark = render(failStyle, "fail")
		}

		label := fmt.Sprintf("%-10s", c.label)
		if styled {
			label = labelStyle.Render(c.label)
		}
		fmt.Fprintf(w, "%s %s %s\n", mark, label, c.detail)
	}
}
