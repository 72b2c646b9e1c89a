package process

import (
	"context"
	"io"

	"sftpls.dev/cli/internal/core/domain/process"
)

// Process is a running language server
type Process interface {
	// PID returns the process ID
	PID() int

	// Stdin returns the writer feeding the server's standard input
	Stdin() io.WriteCloser

	// Stdout returns the reader for the server's LSP output
	Stdout() io.ReadCloser

	// Stderr returns the reader for the server's diagnostics
	Stderr() io.ReadCloser

	// Wait waits for the process to complete and returns its error, if any
	Wait() error

	// Signal sends a signal to the process
	Signal(signal process.ProcessSignal) error

	// Kill forcefully terminates the process
	Kill() error

	// IsRunning returns true if the process is still running
	IsRunning() bool

	// ExitCode returns the exit code if the process has finished
	ExitCode() int
}

// Executor starts commands
type Executor interface {
	Execute(ctx context.Context, cmd process.Command) (Process, error)
}
