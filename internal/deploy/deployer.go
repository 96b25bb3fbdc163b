package deploy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/magic-mount/releaser/internal/device"
	"github.com/magic-mount/releaser/internal/domain/release"
	"github.com/magic-mount/releaser/internal/logger"
)

// ExecutableMode is applied to every transferred binary.
const ExecutableMode os.FileMode = 0o755

// Options tune the deployment policy.
type Options struct {
	// StrictABI fails the deployment, before cleanup, when the device lists an ABI outside the allow-list.
	StrictABI bool
	// RequirePrimary returns release.ErrPrimaryTransferFailed with the report when the primary ABI was not installed.
	RequirePrimary bool
}

// RemovalStrategy is one attempt at deleting the previous installation.
type RemovalStrategy struct {
	// Name identifies the strategy in logs.
	Name string
	// Escalate runs the removal through a privilege-escalation shell.
	Escalate bool
}

// DefaultRemovalStrategies tries the invoking user first, then a root shell.
func DefaultRemovalStrategies() []RemovalStrategy {
	return []RemovalStrategy{
		{Name: "user"},
		{Name: "su", Escalate: true},
	}
}

// Deployer installs binaries through a device channel.
type Deployer struct {
	channel    device.Channel
	layout     release.Layout
	options    Options
	strategies []RemovalStrategy
	now        func() time.Time
}

// Option configures a Deployer.
type Option func(*Deployer)

// WithOptions sets the deployment policy.
func WithOptions(options Options) Option {
	return func(d *Deployer) {
		d.options = options
	}
}

// WithRemovalStrategies replaces the cleanup strategies.
func WithRemovalStrategies(strategies ...RemovalStrategy) Option {
	return func(d *Deployer) {
		d.strategies = strategies
	}
}

// WithClock overrides the report timestamps source.
func WithClock(now func() time.Time) Option {
	return func(d *Deployer) {
		if now != nil {
			d.now = now
		}
	}
}

// New returns a Deployer sending files from layout through channel.
func New(channel device.Channel, layout release.Layout, opts ...Option) *Deployer {
	d := &Deployer{
		channel:    channel,
		layout:     layout,
		strategies: DefaultRemovalStrategies(),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Discover reads the device ABI profile. Any failure wraps release.ErrDeviceUnreachable.
func (d *Deployer) Discover(ctx context.Context) (release.DeviceProfile, error) {
	primary, err := d.channel.GetProperty(ctx, release.PropertyPrimaryABI)
	if err != nil {
		return release.DeviceProfile{}, fmt.Errorf("%w: %w", release.ErrDeviceUnreachable, err)
	}

	list, err := d.channel.GetProperty(ctx, release.PropertyABIList)
	if err != nil {
		return release.DeviceProfile{}, fmt.Errorf("%w: %w", release.ErrDeviceUnreachable, err)
	}

	return release.NewDeviceProfile(primary, list), nil
}

// DeployVariant installs the binaries of variant on the device.
//
// The build of variant must have completed. A nil report is returned only
// when discovery fails or strict ABI checking rejects the device; otherwise
// the report lists every ABI entry, also when the error is non-nil
// (cancellation or a required primary ABI that failed).
func (d *Deployer) DeployVariant(ctx context.Context, variant release.BuildVariant) (*release.DeploymentReport, error) {
	ctx = logger.WithKV(ctx, "variant", variant.Lower())

	report := &release.DeploymentReport{
		ID:        uuid.NewString(),
		Variant:   variant.Lower(),
		StartedAt: d.now(),
	}

	logger.Info(ctx, "Discovering device ABIs")

	profile, err := d.Discover(ctx)
	if err != nil {
		return nil, err
	}

	report.Profile = profile

	logger.InfoKV(ctx, "Discovered device", "primary_abi", profile.PrimaryABI, "abi_list", profile.SupportedABIs)

	if d.options.StrictABI {
		if unsupported := profile.Unsupported(); len(unsupported) > 0 {
			return nil, fmt.Errorf("%w: device lists %v", release.ErrUnsupportedArchitecture, unsupported)
		}
	}

	if err = d.cleanup(ctx); err != nil {
		report.CleanupError = err.Error()
	}

	for _, entry := range profile.SupportedABIs {
		if err = ctx.Err(); err != nil {
			report.FinishedAt = d.now()

			return report, err
		}

		report.Add(d.deployEntry(ctx, variant, profile.PrimaryABI, entry))
	}

	report.FinishedAt = d.now()

	logger.Info(ctx, report.Summary())

	if d.options.RequirePrimary {
		primary, ok := report.Primary()
		if !ok {
			return report, fmt.Errorf("%w: %s is not in the device ABI list", release.ErrPrimaryTransferFailed, profile.PrimaryABI)
		}

		if primary.Outcome != release.OutcomeDeployed {
			return report, fmt.Errorf("%w: %s: %s", release.ErrPrimaryTransferFailed, primary.Entry, primary.Reason)
		}
	}

	return report, nil
}

// cleanup removes the canonical install path, trying each strategy in order.
// The returned error is informational only: a missing file is the common case.
func (d *Deployer) cleanup(ctx context.Context) error {
	target := d.layout.CanonicalDevicePath()

	var errs []error

	for _, strategy := range d.strategies {
		err := d.channel.RemoveFile(ctx, target, strategy.Escalate)
		if err == nil {
			logger.InfoKV(ctx, "Removed previous installation", "path", target, "strategy", strategy.Name)

			return nil
		}

		errs = append(errs, fmt.Errorf("%s: %w", strategy.Name, err))
	}

	err := fmt.Errorf("%w: %s: %w", release.ErrCleanupFailed, target, errors.Join(errs...))

	logger.InfoKV(ctx, "No previous installation removed", "path", target, "reason", err)

	return err
}

// deployEntry resolves one ABI list entry and transfers its binary.
func (d *Deployer) deployEntry(
	ctx context.Context,
	variant release.BuildVariant,
	primary release.Architecture,
	entry string,
) release.ArchitectureResult {
	arch := release.Architecture(entry)
	result := release.ArchitectureResult{
		Entry:   entry,
		Primary: arch == primary,
	}

	if !arch.IsSupported() {
		logger.InfoKV(ctx, "Ignoring unknown ABI", "abi", entry)

		result.Outcome = release.OutcomeSkippedUnsupported
		result.Reason = release.ErrUnsupportedArchitecture.Error()

		return result
	}

	result.DevicePath = d.layout.DevicePath(entry, primary)

	if err := d.transfer(ctx, d.layout.BinaryPath(variant, arch), result.DevicePath); err != nil {
		logger.WarnKV(ctx, "Transfer failed", "abi", entry, "path", result.DevicePath, "error", err)

		result.Outcome = release.OutcomeTransferFailed
		result.Reason = err.Error()

		return result
	}

	logger.InfoKV(ctx, "Installed binary", "abi", entry, "path", result.DevicePath)

	result.Outcome = release.OutcomeDeployed

	return result
}

// transfer pushes a binary and marks it executable.
func (d *Deployer) transfer(ctx context.Context, localPath, devicePath string) error {
	if err := d.channel.PushFile(ctx, localPath, devicePath); err != nil {
		return fmt.Errorf("%w: push: %w", release.ErrTransferFailed, err)
	}

	if err := d.channel.Chmod(ctx, devicePath, ExecutableMode); err != nil {
		return fmt.Errorf("%w: chmod: %w", release.ErrTransferFailed, err)
	}

	return nil
}
