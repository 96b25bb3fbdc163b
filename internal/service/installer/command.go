package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/magic-mount/releaser/internal/deploy"
	"github.com/magic-mount/releaser/internal/logger"
	"github.com/magic-mount/releaser/internal/service/common"
)

// Options contains inputs for the install command.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// Variant is the variant to install.
	Variant string
	// SkipBuild installs outputs of a build that already ran.
	SkipBuild bool
	// StrictABI rejects devices listing unsupported ABIs, in addition to the setting.
	StrictABI bool
	// RequirePrimary fails when the primary ABI was not installed, in addition to the setting.
	RequirePrimary bool
	// FailIfNothingDeployed turns a deployment without any installed architecture into an error.
	FailIfNothingDeployed bool
	// Format selects the report rendering: text or yaml.
	Format string
	// Output receives the report; os.Stdout when nil.
	Output io.Writer
}

// ErrNothingDeployed is returned, with FailIfNothingDeployed, when the device accepted no architecture.
var ErrNothingDeployed = errors.New("nothing deployed")

// Run builds the variant, deploys it and renders the report.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "install")

	if err := ValidateFormat(opts.Format); err != nil {
		return err
	}

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

	lock, err := common.AcquireLock(ctx, w.InstallLockPath())
	if err != nil {
		return err
	}

	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil {
			logger.WarnKV(ctx, "Unable to release install lock", "error", releaseErr)
		}
	}()

	if opts.SkipBuild {
		logger.InfoKV(ctx, "Skipping native build", "variant", variant.Name)
	} else if err = w.Trigger().Build(ctx, variant, w.Config.Archs()); err != nil {
		return fmt.Errorf("build %s: %w", variant.Name, err)
	}

	channel, closeChannel, err := common.NewChannel(ctx, w.Config)
	if err != nil {
		return err
	}

	defer func() {
		_ = closeChannel()
	}()

	deployer := deploy.New(channel, w.Config.Layout(), deploy.WithOptions(deploy.Options{
		StrictABI:      opts.StrictABI || w.Config.Device.StrictABI,
		RequirePrimary: opts.RequirePrimary || w.Config.Device.RequirePrimary,
	}))

	report, deployErr := deployer.DeployVariant(ctx, variant)
	if report == nil {
		return deployErr
	}

	w.RecordDeployment(ctx, report)

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	if err = Render(out, report, opts.Format); err != nil {
		return err
	}

	if deployErr != nil {
		return deployErr
	}

	if !report.Succeeded() {
		logger.WarnKV(ctx, "No architecture deployed", "summary", report.Summary())
	}

	if opts.FailIfNothingDeployed && !report.Succeeded() {
		return fmt.Errorf("%s: %w", report.Summary(), ErrNothingDeployed)
	}

	return nil
}
