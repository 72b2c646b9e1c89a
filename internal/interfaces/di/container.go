package di

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"sftpls.dev/cli/internal/application/extension"
	"sftpls.dev/cli/internal/core/install"
	"sftpls.dev/cli/internal/core/locator"
	"sftpls.dev/cli/internal/infrastructure/config"
	"sftpls.dev/cli/internal/infrastructure/host"
	"sftpls.dev/cli/internal/infrastructure/logging"
	infraproc "sftpls.dev/cli/internal/infrastructure/process"
	"sftpls.dev/cli/internal/infrastructure/settings"
	"sftpls.dev/cli/internal/interfaces/cli"
)

// Container holds all application dependencies
type Container struct {
	// Logger is replaced once the configuration is known
	Logger *slog.Logger

	stderr      io.Writer
	environment map[string]string
	getwd       func() (string, error)

	// CLI
	CLIContainer *cli.CLIContainer
}

// Option configures a Container
type Option func(*Container)

// WithStderr sets where logs are written
func WithStderr(w io.Writer) Option {
	return func(c *Container) {
		c.stderr = w
	}
}

// WithEnvironment replaces the process environment for configuration and
// server discovery
func WithEnvironment(environment map[string]string) Option {
	return func(c *Container) {
		c.environment = environment
	}
}

// WithGetwd replaces the working directory lookup
func WithGetwd(getwd func() (string, error)) Option {
	return func(c *Container) {
		c.getwd = getwd
	}
}

// NewContainer creates the dependency injection container. Services are
// built by the CLI after flag parsing.
func NewContainer(opts ...Option) *Container {
	c := &Container{
		stderr: os.Stderr,
		getwd:  os.Getwd,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Logger = logging.NewLogger(c.stderr, false)

	c.CLIContainer = &cli.CLIContainer{Build: c.Build}
	return c
}

// GetCLIContainer returns the CLI container for command execution
func (c *Container) GetCLIContainer() *cli.CLIContainer {
	return c.CLIContainer
}

// Build loads the configuration, applies flag overrides and wires the services
func (c *Container) Build(o cli.Overrides) (*cli.Services, error) {
	cfg, err := c.loadConfig(o)
	if err != nil {
		return nil, err
	}

	c.Logger = logging.NewLogger(c.stderr, cfg.Debug)
	if cfg.Path != "" {
		c.Logger.Debug("loaded configuration", "path", cfg.Path)
	}

	strategy, err := cfg.DiscoveryStrategy()
	if err != nil {
		return nil, err
	}

	locatorOpts := append(cfg.LocatorOptions(), locator.WithGetwd(c.getwd))
	if c.environment != nil {
		locatorOpts = append(locatorOpts, locator.WithLookupEnv(mapLookup(c.environment)))
	}
	loc, err := locator.New(strategy, locatorOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create locator: %w", err)
	}

	root := cfg.Root
	if root == "" {
		if root, err = c.getwd(); err != nil {
			return nil, fmt.Errorf("failed to determine worktree root: %w", err)
		}
	}

	var worktreeOpts []host.WorktreeOption
	if c.environment != nil {
		worktreeOpts = append(worktreeOpts, host.WithShellEnv(c.environment))
	}
	worktree := host.NewLocalWorktree(root, worktreeOpts...)

	runtime := host.NewNodeLocator(cfg.NodePath)
	store := settings.NewStore(cfg.SettingsPath, c.Logger)

	return &cli.Services{
		Config:    cfg,
		Logger:    c.Logger,
		Worktree:  worktree,
		Runtime:   runtime,
		Extension: extension.New(loc, runtime, store, logging.NewStatusLogger(c.Logger), c.Logger),
		Prober:    install.NewProber(loc),
		Settings:  store,
		Executor:  infraproc.NewExecutor(),
	}, nil
}

// loadConfig layers flags over the file and environment configuration
func (c *Container) loadConfig(o cli.Overrides) (*config.Config, error) {
	loader := config.NewLoader()
	if c.environment != nil {
		loader = config.NewLoaderWithEnvironment(c.environment)
	}

	cfg, err := loader.Load(o.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if o.Strategy != "" {
		cfg.Strategy = o.Strategy
	}
	if o.Root != "" {
		cfg.Root = o.Root
	}
	if o.Debug != nil {
		cfg.Debug = *o.Debug
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func mapLookup(environment map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := environment[key]
		return v, ok
	}
}
