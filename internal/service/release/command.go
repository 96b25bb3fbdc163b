package release

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/magic-mount/releaser/internal/logger"
	"github.com/magic-mount/releaser/internal/service/common"
	"github.com/magic-mount/releaser/internal/service/packager"
)

// Options contains inputs for the release command.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// SkipBuild packages outputs of builds that already ran.
	SkipBuild bool
	// Output receives one archive path per line; os.Stdout when nil.
	Output io.Writer
}

// Run builds and packages every variant. The revision is derived once so all
// archives of a release carry the same name fragment.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "release")

	w, err := common.OpenWorkspace(ctx, opts.ConfigPath)
	if err != nil {
		return err
	}

	defer func() {
		_ = w.Close()
	}()

	rev, err := w.Revision(ctx)
	if err != nil {
		return err
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	for _, variant := range w.Config.Variants {
		archive, err := packager.PackageVariant(logger.WithKV(ctx, "variant", variant.Lower()), w, variant, rev, opts.SkipBuild)
		if err != nil {
			return err
		}

		if _, err = fmt.Fprintln(out, archive.Path); err != nil {
			return err
		}
	}

	logger.InfoKV(ctx, "Release completed", "revision", rev.String(), "variants", len(w.Config.Variants))

	return nil
}
