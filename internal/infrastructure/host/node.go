package host

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"sftpls.dev/cli/internal/core/domain/server"
	hostp "sftpls.dev/cli/internal/core/ports/host"
)

// NodeLocator resolves the node runtime binary
type NodeLocator struct {
	configured string
	lookPath   func(string) (string, error)
}

// NewNodeLocator creates a locator. A non-empty configured path is used
// as-is after an existence check; otherwise node is looked up on PATH.
func NewNodeLocator(configured string) *NodeLocator {
	return &NodeLocator{configured: configured, lookPath: exec.LookPath}
}

// NewNodeLocatorWithLookPath creates a locator with a custom search function
func NewNodeLocatorWithLookPath(configured string, lookPath func(string) (string, error)) *NodeLocator {
	return &NodeLocator{configured: configured, lookPath: lookPath}
}

func (n *NodeLocator) NodeBinaryPath(ctx context.Context) (string, error) {
	if n.configured != "" {
		info, err := os.Stat(n.configured)
		if err != nil {
			return "", server.RuntimeBinaryNotFound(err)
		}
		if info.IsDir() {
			return "", server.RuntimeBinaryNotFound(fmt.Errorf("%s is a directory", n.configured))
		}
		return n.configured, nil
	}

	path, err := n.lookPath("node")
	if err != nil {
		return "", server.RuntimeBinaryNotFound(err)
	}
	return path, nil
}

var _ hostp.RuntimeLocator = (*NodeLocator)(nil)
