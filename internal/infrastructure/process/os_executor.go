package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"sftpls.dev/cli/internal/core/domain/process"
	procp "sftpls.dev/cli/internal/core/ports/process"
)

// Executor implements the process Executor port with os/exec. Commands run
// with exactly the environment they carry, or the launcher's when it is empty.
type Executor struct{}

// NewExecutor creates an executor
func NewExecutor() *Executor {
	return &Executor{}
}

// Execute starts a new process and returns a Process handle
func (e *Executor) Execute(ctx context.Context, cmd process.Command) (procp.Process, error) {
	if err := cmd.IsValid(); err != nil {
		return nil, fmt.Errorf("invalid command: %w", err)
	}

	// The process lifetime is managed through Signal/Kill, not ctx, so that
	// shutdown can be graceful.
	execCmd := exec.Command(cmd.Executable(), cmd.Args()...)

	execCmd.Dir = cmd.WorkingDir()
	// An empty environment inherits the launcher's
	if environ := cmd.Environ(); len(environ) > 0 {
		execCmd.Env = environ
	}

	stdin, err := execCmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	// Output pipes are created here rather than with StdoutPipe so that
	// Wait does not close them before the proxy has drained them.
	stdout, stdoutW, err := os.Pipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	stderr, stderrW, err := os.Pipe()
	if err != nil {
		stdin.Close()
		closeAll(stdout, stdoutW)
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}
	execCmd.Stdout = stdoutW
	execCmd.Stderr = stderrW

	if err := ctx.Err(); err != nil {
		stdin.Close()
		closeAll(stdout, stdoutW, stderr, stderrW)
		return nil, err
	}

	if err := execCmd.Start(); err != nil {
		stdin.Close()
		closeAll(stdout, stdoutW, stderr, stderrW)
		return nil, fmt.Errorf("failed to start process: %w", err)
	}

	// The child holds its own copies of the write ends
	closeAll(stdoutW, stderrW)

	p := &processImpl{
		cmd:     execCmd,
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
		running: true,
		done:    make(chan struct{}),
	}
	go p.monitor()

	return p, nil
}

func closeAll(closers ...io.Closer) {
	for _, c := range closers {
		c.Close()
	}
}

// processImpl implements the Process interface
type processImpl struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser

	mu       sync.RWMutex
	running  bool
	exitCode int
	done     chan struct{}
	waitErr  error
}

func (p *processImpl) PID() int {
	if p.cmd == nil || p.cmd.Process == nil {
		return -1
	}
	return p.cmd.Process.Pid
}

func (p *processImpl) Stdin() io.WriteCloser {
	return p.stdin
}

func (p *processImpl) Stdout() io.ReadCloser {
	return p.stdout
}

func (p *processImpl) Stderr() io.ReadCloser {
	return p.stderr
}

// Wait blocks until the process exits
func (p *processImpl) Wait() error {
	<-p.done
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.waitErr
}

func (p *processImpl) Signal(signal process.ProcessSignal) error {
	if p.cmd == nil || p.cmd.Process == nil {
		return fmt.Errorf("process not running")
	}
	return p.cmd.Process.Signal(ConvertSignal(signal))
}

func (p *processImpl) Kill() error {
	if p.cmd == nil || p.cmd.Process == nil {
		return fmt.Errorf("process not running")
	}

	if p.stdin != nil {
		p.stdin.Close()
	}

	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

func (p *processImpl) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

func (p *processImpl) ExitCode() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.exitCode
}

// ConvertSignal converts domain signal to OS signal
func ConvertSignal(signal process.ProcessSignal) os.Signal {
	switch signal {
	case process.SignalTerminate:
		return syscall.SIGTERM
	case process.SignalInterrupt:
		return syscall.SIGINT
	case process.SignalKill:
		return syscall.SIGKILL
	default:
		return syscall.SIGTERM
	}
}

// monitor waits for the process and records its exit status
func (p *processImpl) monitor() {
	err := p.cmd.Wait()

	p.mu.Lock()
	p.running = false
	p.waitErr = err

	var exitError *exec.ExitError
	switch {
	case err == nil:
		p.exitCode = 0
	case errors.As(err, &exitError):
		p.exitCode = exitError.ExitCode()
	default:
		p.exitCode = -1
	}
	p.mu.Unlock()

	close(p.done)
}

var _ procp.Executor = (*Executor)(nil)
