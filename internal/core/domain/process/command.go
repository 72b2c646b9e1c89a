package process

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sftpls.dev/cli/internal/core/domain/server"
)

// Command is the invocation plan for the language server: a runtime binary,
// its ordered arguments and the environment it inherits.
type Command struct {
	executable string
	args       []string
	workingDir string
	env        map[string]string
}

// BuildServerCommand pairs a resolved server path with the node runtime.
// The server path is always the first argument and --stdio the second.
func BuildServerCommand(serverPath, runtimeBinary string, shellEnv map[string]string) Command {
	return Command{
		executable: runtimeBinary,
		args:       []string{serverPath, server.StdioFlag},
		env:        copyEnv(shellEnv),
	}
}

// Executable returns the command executable
func (c Command) Executable() string {
	return c.executable
}

// Args returns a copy of the command arguments
func (c Command) Args() []string {
	return append([]string(nil), c.args...)
}

// WorkingDir returns the working directory, empty for the caller's own
func (c Command) WorkingDir() string {
	return c.workingDir
}

// Env returns a copy of the environment variables
func (c Command) Env() map[string]string {
	return copyEnv(c.env)
}

// Environ returns the environment as sorted KEY=value pairs
func (c Command) Environ() []string {
	environ := make([]string, 0, len(c.env))
	for k, v := range c.env {
		environ = append(environ, k+"="+v)
	}
	sort.Strings(environ)
	return environ
}

func (c Command) String() string {
	if len(c.args) == 0 {
		return c.executable
	}
	return fmt.Sprintf("%s %s", c.executable, strings.Join(c.args, " "))
}

// FullCommandLine returns the executable followed by its arguments
func (c Command) FullCommandLine() []string {
	result := make([]string, 0, len(c.args)+1)
	result = append(result, c.executable)
	result = append(result, c.args...)
	return result
}

// WithWorkingDir returns a new Command running in workingDir
func (c Command) WithWorkingDir(workingDir string) Command {
	if workingDir != "" && !filepath.IsAbs(workingDir) {
		if absDir, err := filepath.Abs(workingDir); err == nil {
			workingDir = absDir
		}
	}

	return Command{
		executable: c.executable,
		args:       c.Args(),
		workingDir: workingDir,
		env:        c.Env(),
	}
}

// IsValid validates the command structure
func (c Command) IsValid() error {
	if c.executable == "" {
		return fmt.Errorf("executable cannot be empty")
	}

	if c.workingDir != "" {
		if stat, err := os.Stat(c.workingDir); err != nil || !stat.IsDir() {
			return fmt.Errorf("working directory does not exist: %s", c.workingDir)
		}
	}

	return nil
}

func copyEnv(env map[string]string) map[string]string {
	envCopy := make(map[string]string, len(env))
	for k, v := range env {
		envCopy[k] = v
	}
	return envCopy
}
