package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// Validate checks the configuration for values the launcher cannot use
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.DiscoveryStrategy(); err != nil {
		errs = append(errs, err)
	}

	if c.HomeVar == "" {
		errs = append(errs, fmt.Errorf("home_var cannot be empty"))
	}

	if c.InstallDir == "" {
		errs = append(errs, fmt.Errorf("install_dir cannot be empty"))
	} else if filepath.IsAbs(c.InstallDir) {
		errs = append(errs, fmt.Errorf("install_dir must be relative to the home directory: %s", c.InstallDir))
	}

	if c.NodePath != "" && !filepath.IsAbs(c.NodePath) {
		errs = append(errs, fmt.Errorf("node_path must be absolute: %s", c.NodePath))
	}

	if c.ShutdownGrace < 0 {
		errs = append(errs, fmt.Errorf("shutdown_grace cannot be negative"))
	} else if c.ShutdownGrace > time.Minute {
		errs = append(errs, fmt.Errorf("shutdown_grace too long (maximum 1m): %s", c.ShutdownGrace))
	}

	return errors.Join(errs...)
}
