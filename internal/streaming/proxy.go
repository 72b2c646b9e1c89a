package streaming

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	procp "sftpls.dev/cli/internal/core/ports/process"
	streamp "sftpls.dev/cli/internal/core/ports/streaming"
	"sftpls.dev/cli/internal/jsonrpc"
	"sftpls.dev/cli/internal/lsp"
)

// StreamProxy bridges LSP frames between the editor and the server process.
// Frames are forwarded byte for byte; the handler only observes them.
type StreamProxy struct {
	process        procp.Process
	editorIn       io.Reader
	editorOut      io.Writer
	diagnostics    io.Writer
	messageHandler streamp.MessageHandler
	maxMessageSize int

	mu       sync.Mutex
	active   bool
	done     chan struct{}
	exitOnce sync.Once
	exitSeen chan struct{}
}

// NewStreamProxy creates a proxy. editorIn and editorOut are the launcher's
// own stdin and stdout; diagnostics receives the server's stderr.
func NewStreamProxy(
	process procp.Process,
	editorIn io.Reader,
	editorOut io.Writer,
	diagnostics io.Writer,
	messageHandler streamp.MessageHandler,
) *StreamProxy {
	return &StreamProxy{
		process:        process,
		editorIn:       editorIn,
		editorOut:      editorOut,
		diagnostics:    diagnostics,
		messageHandler: messageHandler,
		maxMessageSize: lsp.DefaultMaxMessageSize,
		done:           make(chan struct{}),
		exitSeen:       make(chan struct{}),
	}
}

// Start proxies until the server closes its output streams or ctx is done.
// Editor input is forwarded in the background and not waited for, since a
// read from the launcher's stdin cannot be interrupted.
func (p *StreamProxy) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.active {
		p.mu.Unlock()
		return fmt.Errorf("proxy already active")
	}
	p.active = true
	p.mu.Unlock()

	go p.forwardInbound(ctx)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		p.forwardOutbound(ctx)
	}()
	go func() {
		defer wg.Done()
		p.forwardDiagnostics(ctx)
	}()

	go func() {
		wg.Wait()
		close(p.done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return nil
	}
}

// Stop marks the proxy inactive
func (p *StreamProxy) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = false
	return nil
}

// Done is closed once the server's output streams have been drained
func (p *StreamProxy) Done() <-chan struct{} {
	return p.done
}

// ExitRequested is closed once the editor's exit notification has been
// forwarded to the server
func (p *StreamProxy) ExitRequested() <-chan struct{} {
	return p.exitSeen
}

// forwardInbound copies editor frames to the server's stdin
func (p *StreamProxy) forwardInbound(ctx context.Context) {
	defer p.process.Stdin().Close()

	err := p.forward(ctx, lsp.NewReaderSize(p.editorIn, p.maxMessageSize), p.process.Stdin(), jsonrpc.DirectionInbound)
	if err != nil {
		p.handleError(ctx, fmt.Errorf("editor to server: %w", err))
	}
}

// forwardOutbound copies server frames to the editor
func (p *StreamProxy) forwardOutbound(ctx context.Context) {
	err := p.forward(ctx, lsp.NewReaderSize(p.process.Stdout(), p.maxMessageSize), p.editorOut, jsonrpc.DirectionOutbound)
	if err != nil {
		p.handleError(ctx, fmt.Errorf("server to editor: %w", err))
	}
}

// forward copies frames from r to w. Input that stops being framed is
// reported once and then passed through as raw bytes.
func (p *StreamProxy) forward(ctx context.Context, r *lsp.Reader, w io.Writer, direction jsonrpc.Direction) error {
	for {
		frame, err := r.ReadFrame()
		if errors.Is(err, io.EOF) {
			return nil
		}
		var framingErr *lsp.FramingError
		if errors.As(err, &framingErr) {
			p.handleError(ctx, fmt.Errorf("%s stream is not LSP framed, forwarding raw bytes: %w", direction, err))
			return p.passThrough(framingErr.Raw, r, w)
		}
		if err != nil {
			return err
		}

		if p.messageHandler != nil {
			if err := p.messageHandler.HandleMessage(ctx, frame.Body, direction); err != nil {
				p.handleError(ctx, fmt.Errorf("failed to handle %s message: %w", direction, err))
			}
		}

		if _, err := w.Write(frame.Bytes()); err != nil {
			return fmt.Errorf("write failed: %w", err)
		}

		if direction == jsonrpc.DirectionInbound && isExitNotification(frame.Body) {
			p.exitOnce.Do(func() { close(p.exitSeen) })
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

func (p *StreamProxy) passThrough(consumed []byte, r *lsp.Reader, w io.Writer) error {
	if _, err := w.Write(consumed); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	if _, err := io.Copy(w, r.Remaining()); err != nil {
		return fmt.Errorf("copy failed: %w", err)
	}
	return nil
}

func isExitNotification(body []byte) bool {
	msg, err := jsonrpc.NewJSONRPCMessageFromRaw(body)
	return err == nil && msg.IsExit()
}

// forwardDiagnostics copies server stderr without parsing it
func (p *StreamProxy) forwardDiagnostics(ctx context.Context) {
	if _, err := io.Copy(p.diagnostics, p.process.Stderr()); err != nil {
		p.handleError(ctx, fmt.Errorf("stderr copy error: %w", err))
	}
}

func (p *StreamProxy) handleError(ctx context.Context, err error) {
	if p.messageHandler != nil {
		p.messageHandler.HandleError(ctx, err)
	}
}

var _ streamp.Proxy = (*StreamProxy)(nil)
