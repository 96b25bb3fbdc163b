package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/magic-mount/releaser/internal/config"
	"github.com/magic-mount/releaser/internal/logger"
	"github.com/magic-mount/releaser/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel overrides the configured log level.
	logLevel string

	// rootCmd represents the base command when called without any subcommands.
	rootCmd = &cobra.Command{
		Use:   "mm-release",
		Short: "Build, package and install the magic_mount native executable.",
		Long: `Orchestrates the magic_mount release pipeline.

The native build is triggered per variant, its binaries and debug symbols are
zipped into release/<exe>-<hash>-<count>-<variant>.zip, and the binary matching
each ABI of a connected device is installed through adb, a local directory or
a remote device relay. Settings are read from mm-release.yaml; the defaults
match the Android project layout when the file is absent.`,
		SilenceUsage:      true,
		PersistentPreRunE: setupLogging,
	}
)

// Execute runs the mm-release CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "", "path to configuration file (defaults to "+config.DefaultConfigFilename+" when present)")
	rootCmd.PersistentFlags().
		StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides log_level from the configuration")

	rootCmd.AddCommand(
		newBuildCommand(),
		newPackageCommand(),
		newInstallCommand(),
		newReleaseCommand(),
		newRelayCommand(),
		newHistoryCommand(),
		newInitCommand(),
	)
}

// setupLogging applies the log level from the flag, falling back to the settings file.
func setupLogging(cmd *cobra.Command, _ []string) error {
	level := logLevel

	if level == "" && cmd.Name() != "init" {
		// Settings errors are reported by the command itself.
		if settings, err := config.Load(configPath); err == nil {
			level = settings.LogLevel
		}
	}

	if level == "" {
		return nil
	}

	parsed, ok := logger.ParseLogLevel(level)
	if !ok {
		return fmt.Errorf("unknown log level %q", level)
	}

	logger.SetLevel(parsed)

	return nil
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
}
