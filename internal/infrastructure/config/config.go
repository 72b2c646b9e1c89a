package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"sftpls.dev/cli/internal/core/domain/server"
	"sftpls.dev/cli/internal/core/locator"
)

// Config holds the launcher configuration. Values are layered: defaults,
// then the YAML file, then SFTPLS_* environment variables, then flags.
type Config struct {
	Strategy      string        `yaml:"strategy" env:"SFTPLS_STRATEGY"`
	Root          string        `yaml:"root" env:"SFTPLS_ROOT"`
	HomeVar       string        `yaml:"home_var" env:"SFTPLS_HOME_VAR"`
	InstallDir    string        `yaml:"install_dir" env:"SFTPLS_INSTALL_DIR"`
	NodePath      string        `yaml:"node_path" env:"SFTPLS_NODE_PATH"`
	SettingsPath  string        `yaml:"settings_path" env:"SFTPLS_SETTINGS_PATH"`
	Debug         bool          `yaml:"debug" env:"SFTPLS_DEBUG"`
	ShutdownGrace time.Duration `yaml:"shutdown_grace" env:"SFTPLS_SHUTDOWN_GRACE"`

	// Path is the config file that was read, empty if none existed
	Path string `yaml:"-"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Strategy:      string(server.StrategyWorkingDirectory),
		HomeVar:       locator.DefaultHomeVar(),
		InstallDir:    locator.DefaultInstallDir(),
		SettingsPath:  DefaultSettingsPath(),
		ShutdownGrace: 5 * time.Second,
	}
}

// Loader reads configuration from a file and the environment
type Loader struct {
	environment map[string]string
}

// NewLoader creates a loader reading the process environment
func NewLoader() *Loader {
	return &Loader{}
}

// NewLoaderWithEnvironment creates a loader reading a fixed environment
func NewLoaderWithEnvironment(environment map[string]string) *Loader {
	return &Loader{environment: environment}
}

// Load reads configPath (or the default location when empty) and applies
// environment overrides. A missing file is not an error.
func (l *Loader) Load(configPath string) (*Config, error) {
	cfg := Default()

	explicit := configPath != ""
	if !explicit {
		configPath = l.lookup("SFTPLS_CONFIG")
		explicit = configPath != ""
	}
	if configPath == "" {
		configPath = DefaultConfigPath()
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
			}
			cfg.Path = configPath
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	opts := env.Options{}
	if l.environment != nil {
		opts.Environment = l.environment
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

func (l *Loader) lookup(key string) string {
	if l.environment != nil {
		return l.environment[key]
	}
	return os.Getenv(key)
}

// DiscoveryStrategy returns the parsed strategy
func (c *Config) DiscoveryStrategy() (server.Strategy, error) {
	return server.ParseStrategy(c.Strategy)
}

// LocatorOptions converts the configuration into locator options
func (c *Config) LocatorOptions() []locator.Option {
	return []locator.Option{
		locator.WithHomeVar(c.HomeVar),
		locator.WithInstallDir(c.InstallDir),
	}
}

// DefaultConfigPath returns the default config file location
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "sftpls", "config.yaml")
}

// DefaultSettingsPath returns where the editor keeps its user settings
func DefaultSettingsPath() string {
	if runtime.GOOS == "windows" {
		if dir, err := os.UserConfigDir(); err == nil {
			return filepath.Join(dir, "Zed", "settings.json")
		}
		return ""
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "zed", "settings.json")
}
