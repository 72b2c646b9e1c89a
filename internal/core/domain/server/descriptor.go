package server

import (
	"fmt"
	"strings"
)

const (
	// ServerID identifies the language server to the editor host
	ServerID = "sftp-server"

	// RelativeSuffix is the server entry point relative to the extension root
	RelativeSuffix = "server/dist/index.js"

	// StdioFlag tells the server to speak LSP framing on stdin/stdout
	StdioFlag = "--stdio"
)

// Strategy selects how the server entry point is discovered
type Strategy string

const (
	StrategyRootRelative     Strategy = "root-relative"
	StrategyInstallDirectory Strategy = "install-directory"
	StrategyWorkingDirectory Strategy = "working-directory"
)

// Strategies lists every supported discovery strategy
func Strategies() []Strategy {
	return []Strategy{StrategyRootRelative, StrategyInstallDirectory, StrategyWorkingDirectory}
}

// ParseStrategy converts a configuration value into a Strategy
func ParseStrategy(value string) (Strategy, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch Strategy(normalized) {
	case StrategyRootRelative, StrategyInstallDirectory, StrategyWorkingDirectory:
		return Strategy(normalized), nil
	case "":
		return "", fmt.Errorf("discovery strategy cannot be empty")
	default:
		return "", fmt.Errorf("unknown discovery strategy: %q", value)
	}
}

// String returns the configuration name of the strategy
func (s Strategy) String() string {
	return string(s)
}

// ChecksExistence reports whether the strategy verifies the file before returning
func (s Strategy) ChecksExistence() bool {
	return s != StrategyRootRelative
}

// Descriptor describes a resolved server entry point
type Descriptor struct {
	RelativeSuffix string
	ResolvedPath   string
	Strategy       Strategy

	// Base is the directory the suffix was appended to
	Base string
}

// NewDescriptor creates a descriptor for a path resolved under base
func NewDescriptor(strategy Strategy, base, resolved string) Descriptor {
	return Descriptor{
		RelativeSuffix: RelativeSuffix,
		ResolvedPath:   resolved,
		Strategy:       strategy,
		Base:           base,
	}
}

// String returns the resolved path
func (d Descriptor) String() string {
	return d.ResolvedPath
}
