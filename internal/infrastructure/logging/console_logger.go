package logging

import (
	"context"
	"io"
	"log/slog"

	"sftpls.dev/cli/internal/core/domain/server"
	"sftpls.dev/cli/internal/core/ports/host"
	streamp "sftpls.dev/cli/internal/core/ports/streaming"
	"sftpls.dev/cli/internal/jsonrpc"
)

// NewLogger creates the launcher's logger. It must never write to stdout,
// which carries LSP frames while the server is running.
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})).With("app", "sftpls")
}

// StatusLogger reports installation status changes through the logger
type StatusLogger struct {
	logger *slog.Logger
}

func NewStatusLogger(logger *slog.Logger) *StatusLogger {
	return &StatusLogger{logger: logger}
}

func (s *StatusLogger) SetInstallationStatus(serverID string, status server.InstallationStatus, detail string) {
	if status == server.StatusFailed {
		s.logger.Error("language server unavailable", "server", serverID, "status", status, "detail", detail)
		return
	}
	s.logger.Info("language server status", "server", serverID, "status", status)
}

// ConsoleLogger logs bridged LSP messages at debug level
type ConsoleLogger struct {
	logger *slog.Logger
}

// NewConsoleLogger creates a message logger for one launch session
func NewConsoleLogger(logger *slog.Logger, sessionID string) *ConsoleLogger {
	return &ConsoleLogger{logger: logger.With("session", sessionID)}
}

// HandleMessage logs a framed message
func (l *ConsoleLogger) HandleMessage(ctx context.Context, data []byte, direction jsonrpc.Direction) error {
	if !l.logger.Enabled(ctx, slog.LevelDebug) {
		return nil
	}

	msg, err := jsonrpc.NewJSONRPCMessageFromRaw(data)
	if err != nil {
		l.logger.DebugContext(ctx, "unparsed message", "direction", direction, "bytes", len(data), "error", err)
		return nil
	}

	attrs := []any{"direction", direction, "type", msg.Type(), "bytes", msg.Size()}
	if msg.Method() != "" {
		attrs = append(attrs, "method", msg.Method())
	}
	if id := msg.RequestID(); id != nil {
		attrs = append(attrs, "id", string(*id))
	}
	if info := msg.ErrorInfo(); info != nil {
		attrs = append(attrs, "code", info.Code, "error", info.Message)
	}
	l.logger.DebugContext(ctx, "lsp message", attrs...)
	return nil
}

// HandleError logs a bridging error
func (l *ConsoleLogger) HandleError(ctx context.Context, err error) {
	l.logger.WarnContext(ctx, "stream error", "error", err)
}

var (
	_ host.StatusReporter    = (*StatusLogger)(nil)
	_ streamp.MessageHandler = (*ConsoleLogger)(nil)
)
