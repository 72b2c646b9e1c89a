package streaming

import (
	"context"

	"sftpls.dev/cli/internal/jsonrpc"
)

// MessageHandler observes LSP messages bridged between editor and server
type MessageHandler interface {
	// HandleMessage processes one framed message body
	HandleMessage(ctx context.Context, data []byte, direction jsonrpc.Direction) error

	// HandleError processes an error that occurred while bridging
	HandleError(ctx context.Context, err error)
}

// Proxy defines the contract for a stream proxy.
type Proxy interface {
	Start(ctx context.Context) error
	Stop() error
}
