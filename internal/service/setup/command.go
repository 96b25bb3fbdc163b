package setup

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/magic-mount/releaser/internal/config"
	"github.com/magic-mount/releaser/internal/logger"
)

// Options contains inputs for the init command.
type Options struct {
	// ConfigPath is where the settings are written; mm-release.yaml when empty.
	ConfigPath string
	// Force overwrites an existing file.
	Force bool
}

// ErrConfigExists is returned when the settings file exists and Force is not set.
var ErrConfigExists = errors.New("settings file already exists")

// Run writes the default settings.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "init")

	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultConfigFilename
	}

	if _, err := os.Stat(path); err == nil && !opts.Force {
		return fmt.Errorf("%s: %w", path, ErrConfigExists)
	}

	if err := config.Save(path, config.Default()); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Settings written", "path", path)

	return nil
}
