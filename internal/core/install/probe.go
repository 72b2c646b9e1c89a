// Package install reports whether the language server is installed.
//
// It draws the boundary between "resolved" and "not installed" explicitly and
// never performs an installation itself. When the server is missing it only
// checks that the package manager needed to install it is available.
package install

import (
	"context"
	"fmt"

	"sftpls.dev/cli/internal/core/domain/server"
	"sftpls.dev/cli/internal/core/locator"
	"sftpls.dev/cli/internal/core/ports/host"
)

// PackageManager is the executable required to install the server dependencies
const PackageManager = "npm"

// Report is the outcome of a probe
type Report struct {
	Installed  bool
	Descriptor server.Descriptor

	// LocateErr explains why the server is not installed
	LocateErr error

	// PackageManagerPath is set when the server is missing and npm was found
	PackageManagerPath string

	// PackageManagerErr is set when the server is missing and npm was not found
	PackageManagerErr error
}

// Ready reports whether the server can be started or installed by hand
func (r Report) Ready() bool {
	return r.Installed || r.PackageManagerErr == nil
}

// Prober checks installation state through a locator
type Prober struct {
	locator *locator.Locator
}

// NewProber creates a prober
func NewProber(l *locator.Locator) *Prober {
	return &Prober{locator: l}
}

// Probe resolves the server and, when it is missing, checks for npm
func (p *Prober) Probe(ctx context.Context, worktree host.Worktree) (Report, error) {
	rc := locator.ResolutionContext{Root: worktree.RootPath(), Env: worktree.ShellEnv()}

	d, err := p.locator.Locate(ctx, rc)
	if err == nil {
		err = p.locator.Verify(d)
	}
	if err == nil {
		return Report{Installed: true, Descriptor: d}, nil
	}
	if ctx.Err() != nil {
		return Report{}, ctx.Err()
	}

	// Only a missing file counts as "not installed"; anything else is a
	// configuration problem the caller has to see.
	if kind, ok := server.KindOf(err); !ok || kind != server.KindFileNotFound {
		return Report{}, err
	}

	report := Report{Descriptor: d, LocateErr: err}
	if path, ok := worktree.Which(PackageManager); ok {
		report.PackageManagerPath = path
	} else {
		report.PackageManagerErr = fmt.Errorf("%s not found in PATH", PackageManager)
	}
	return report, nil
}
