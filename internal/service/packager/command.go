package packager

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/magic-mount/releaser/internal/domain/release"
	"github.com/magic-mount/releaser/internal/logger"
	"github.com/magic-mount/releaser/internal/service/common"
)

// Options contains inputs for the package command.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// Variant is the variant to package.
	Variant string
	// SkipBuild packages outputs of a build that already ran.
	SkipBuild bool
	// Output receives the archive path; os.Stdout when nil.
	Output io.Writer
}

// Run derives the revision, builds the variant and writes its archive.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "package")

	w, err := common.OpenWorkspace(ctx, opts.ConfigPath)
	if err != nil {
		return err
	}

	defer func() {
		_ = w.Close()
	}()

	variant, err := w.Config.Variant(opts.Variant)
	if err != nil {
		return err
	}

	rev, err := w.Revision(ctx)
	if err != nil {
		return err
	}

	archive, err := PackageVariant(ctx, w, variant, rev, opts.SkipBuild)
	if err != nil {
		return err
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	_, err = fmt.Fprintln(out, archive.Path)

	return err
}

// PackageVariant runs the build unless skipBuild, then packages the variant and records it.
// Packaging never starts when the build fails.
func PackageVariant(
	ctx context.Context,
	w *common.Workspace,
	variant release.BuildVariant,
	rev release.RevisionInfo,
	skipBuild bool,
) (*release.PackagedArchive, error) {
	if skipBuild {
		logger.InfoKV(ctx, "Skipping native build", "variant", variant.Name)
	} else if err := w.Trigger().Build(ctx, variant, w.Config.Archs()); err != nil {
		return nil, fmt.Errorf("build %s: %w", variant.Name, err)
	}

	archive, err := w.Packager().PackageVariant(ctx, variant, rev)
	if err != nil {
		return nil, err
	}

	w.RecordArchive(ctx, archive)

	logger.InfoKV(ctx, "Archive written",
		"archive", archive.Path,
		"revision", rev.String(),
		"members", len(archive.Members),
	)

	return archive, nil
}
