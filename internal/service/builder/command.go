package builder

import (
	"context"
	"fmt"

	"github.com/magic-mount/releaser/internal/logger"
	"github.com/magic-mount/releaser/internal/service/common"
)

// Options controls the build command.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// Variant selects the variant to build; empty or "all" builds every variant.
	Variant string
}

// Run triggers the native build for the selected variants in configuration order.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "build")

	w, err := common.OpenWorkspace(ctx, opts.ConfigPath)
	if err != nil {
		return err
	}

	defer func() {
		_ = w.Close()
	}()

	variants, err := w.Variants(opts.Variant)
	if err != nil {
		return err
	}

	trigger := w.Trigger()
	archs := w.Config.Archs()

	for _, variant := range variants {
		if err = trigger.Build(ctx, variant, archs); err != nil {
			return fmt.Errorf("build %s: %w", variant.Name, err)
		}
	}

	logger.InfoKV(ctx, "Build completed", "variants", len(variants))

	return nil
}
