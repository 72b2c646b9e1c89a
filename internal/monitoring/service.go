// Package monitoring runs one language server session: it starts the server,
// bridges its streams and shuts it down when the launcher is asked to stop.
package monitoring

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"sftpls.dev/cli/internal/core/domain/process"
	procp "sftpls.dev/cli/internal/core/ports/process"
	streamp "sftpls.dev/cli/internal/core/ports/streaming"
	"sftpls.dev/cli/internal/streaming"
)

// DefaultShutdownGrace is how long a server gets to exit after SIGTERM
const DefaultShutdownGrace = 5 * time.Second

// ExitError reports a server that exited on its own with a non-zero status
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("language server exited with code %d", e.Code)
}

// Streams are the launcher's own standard streams
type Streams struct {
	In          io.Reader
	Out         io.Writer
	Diagnostics io.Writer
}

// Service implements the launch session
type Service struct {
	executor      procp.Executor
	handler       streamp.MessageHandler
	logger        *slog.Logger
	streams       Streams
	shutdownGrace time.Duration
}

// NewService creates a session service. A zero grace uses DefaultShutdownGrace.
func NewService(
	executor procp.Executor,
	handler streamp.MessageHandler,
	logger *slog.Logger,
	streams Streams,
	shutdownGrace time.Duration,
) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if shutdownGrace <= 0 {
		shutdownGrace = DefaultShutdownGrace
	}
	return &Service{
		executor:      executor,
		handler:       handler,
		logger:        logger,
		streams:       streams,
		shutdownGrace: shutdownGrace,
	}
}

// Run starts cmd and bridges it until the server exits or ctx is cancelled.
// Cancellation is a normal shutdown and returns nil once the server is gone.
// A server still running one grace period after the editor's exit
// notification is terminated the same way.
func (s *Service) Run(ctx context.Context, cmd process.Command, sessionID string) error {
	logger := s.logger.With("session", sessionID)

	proc, err := s.executor.Execute(ctx, cmd)
	if err != nil {
		return fmt.Errorf("failed to start server process: %w", err)
	}
	logger.Info("language server started", "pid", proc.PID(), "command", cmd.String())

	proxy := streaming.NewStreamProxy(proc, s.streams.In, s.streams.Out, s.streams.Diagnostics, s.handler)

	proxyCtx, proxyCancel := context.WithCancel(context.Background())
	defer proxyCancel()

	go func() {
		if err := proxy.Start(proxyCtx); err != nil && proxyCtx.Err() == nil {
			logger.Warn("proxy error", "error", err)
		}
	}()
	defer proxy.Stop()

	exited := waitForProcess(proc)
	exitRequested := proxy.ExitRequested()
	var exitDeadline <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping language server", "reason", context.Cause(ctx))
			s.terminate(logger, proc, exited)
			return nil

		case <-exitRequested:
			// The server gets the grace period to honour the exit notification
			logger.Debug("exit notification forwarded")
			exitRequested = nil
			exitDeadline = time.After(s.shutdownGrace)

		case <-exitDeadline:
			logger.Warn("language server ignored exit notification", "grace", s.shutdownGrace)
			s.terminate(logger, proc, exited)
			return nil

		case <-exited:
			// Let the proxy drain what the server wrote before exiting
			select {
			case <-proxy.Done():
			case <-time.After(s.shutdownGrace):
				logger.Warn("server output not drained before shutdown")
			}

			if code := proc.ExitCode(); code != 0 {
				return &ExitError{Code: code}
			}
			logger.Info("language server exited")
			return nil
		}
	}
}

// terminate asks the server to exit and kills it after the grace period
func (s *Service) terminate(logger *slog.Logger, proc procp.Process, exited <-chan struct{}) {
	if err := proc.Signal(process.SignalTerminate); err != nil {
		logger.Debug("terminate signal failed", "error", err)
	}

	select {
	case <-exited:
		return
	case <-time.After(s.shutdownGrace):
	}

	logger.Warn("language server did not exit in time, killing", "grace", s.shutdownGrace)
	if err := proc.Kill(); err != nil {
		logger.Error("failed to kill language server", "error", err)
		return
	}

	select {
	case <-exited:
	case <-time.After(s.shutdownGrace):
		logger.Error("language server still running after kill")
	}
}

// waitForProcess returns a channel that closes when the process completes
func waitForProcess(proc procp.Process) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = proc.Wait()
	}()
	return done
}
