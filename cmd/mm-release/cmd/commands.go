package cmd

import (
	"github.com/spf13/cobra"

	"github.com/magic-mount/releaser/internal/service/builder"
	"github.com/magic-mount/releaser/internal/service/history"
	"github.com/magic-mount/releaser/internal/service/installer"
	"github.com/magic-mount/releaser/internal/service/packager"
	"github.com/magic-mount/releaser/internal/service/relay"
	releasesvc "github.com/magic-mount/releaser/internal/service/release"
	"github.com/magic-mount/releaser/internal/service/setup"
)

func newBuildCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "build [variant]",
		Short: "Run the native build for one variant, or all of them.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			options := &builder.Options{ConfigPath: configPath}
			if len(args) > 0 {
				options.Variant = args[0]
			}

			return builder.Run(ctx, options)
		},
	}
}

func newPackageCommand() *cobra.Command {
	options := new(packager.Options)

	command := &cobra.Command{
		Use:   "package <variant>",
		Short: "Build a variant and zip its binaries and debug symbols.",
		Long: `Builds the variant, then writes release/<exe>-<hash>-<count>-<variant>.zip
containing obj/<arch>/ of every configured architecture and the variant's
symbols directory. The archive path is printed on stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			options.ConfigPath = configPath
			options.Variant = args[0]
			options.Output = cmd.OutOrStdout()

			return packager.Run(ctx, options)
		},
	}

	command.Flags().BoolVar(&options.SkipBuild, "skip-build", false, "package outputs of a build that already ran")

	return command
}

func newInstallCommand() *cobra.Command {
	options := new(installer.Options)

	command := &cobra.Command{
		Use:   "install <variant>",
		Short: "Build a variant and install it on the connected device.",
		Long: `Builds the variant, removes the previous installation and pushes the binary
of every ABI the device lists. The primary ABI gets the plain executable name,
other ABIs get an _<abi> suffix; unsupported ABIs are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			options.ConfigPath = configPath
			options.Variant = args[0]
			options.Output = cmd.OutOrStdout()

			return installer.Run(ctx, options)
		},
	}

	command.Flags().BoolVar(&options.SkipBuild, "skip-build", false, "install outputs of a build that already ran")
	command.Flags().BoolVar(&options.StrictABI, "strict-abi", false, "fail when the device lists an unsupported ABI")
	command.Flags().
		BoolVar(&options.RequirePrimary, "require-primary", false, "fail when the primary ABI could not be installed")
	command.Flags().
		BoolVar(&options.FailIfNothingDeployed, "fail-if-empty", false, "exit non-zero when no architecture was installed")
	command.Flags().StringVarP(&options.Format, "output", "o", installer.FormatText, "report format (text, yaml)")

	return command
}

func newReleaseCommand() *cobra.Command {
	options := new(releasesvc.Options)

	command := &cobra.Command{
		Use:   "release",
		Short: "Build and package every configured variant against one revision.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			options.ConfigPath = configPath
			options.Output = cmd.OutOrStdout()

			return releasesvc.Run(ctx, options)
		},
	}

	command.Flags().BoolVar(&options.SkipBuild, "skip-build", false, "package outputs of builds that already ran")

	return command
}

func newRelayCommand() *cobra.Command {
	options := new(relay.Options)

	command := &cobra.Command{
		Use:   "relay [listen-address]",
		Short: "Expose the locally attached device to remote mm-release runs.",
		Long: `Starts a gRPC device relay serving the device channel configured on this host
(adb or dir). Remote runs reach it with device.transport: relay and
device.relay_address pointing here. The listen address argument overrides relay.listen.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			options.ConfigPath = configPath
			if len(args) > 0 {
				options.ListenAddress = args[0]
			}

			return relay.Run(ctx, options)
		},
	}

	command.Flags().StringVar(&options.SpoolDir, "spool-dir", "", "directory for pushed files in transit")

	return command
}

func newHistoryCommand() *cobra.Command {
	options := new(history.Options)

	command := &cobra.Command{
		Use:   "history [report-id]",
		Short: "List produced archives and deployments, or show one deployment report.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			options.ConfigPath = configPath
			options.Output = cmd.OutOrStdout()

			if len(args) > 0 {
				options.ReportID = args[0]
			}

			return history.Run(ctx, options)
		},
	}

	command.Flags().IntVarP(&options.Limit, "limit", "n", 20, "maximum number of entries, 0 for all") //nolint:mnd // Default page.
	command.Flags().StringVarP(&options.Format, "output", "o", installer.FormatText, "report format (text, yaml)")

	return command
}

func newInitCommand() *cobra.Command {
	options := new(setup.Options)

	command := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default settings.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			options.ConfigPath = configPath

			return setup.Run(ctx, options)
		},
	}

	command.Flags().BoolVarP(&options.Force, "force", "f", false, "overwrite an existing file")

	return command
}
