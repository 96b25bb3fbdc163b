package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/magic-mount/releaser/internal/domain/release"
)

// Config holds the release pipeline settings.
type Config struct {
	// Executable is the file name of the native binary.
	Executable string `yaml:"executable"`
	// Architectures lists the ABIs the native build targets.
	Architectures []string `yaml:"architectures"`
	// Variants lists the build profiles that can be packaged and installed.
	Variants []release.BuildVariant `yaml:"variants"`
	// Paths locates toolchain outputs and the release directory.
	Paths Paths `yaml:"paths"`
	// Build configures the native build trigger.
	Build Build `yaml:"build"`
	// Git configures the revision source.
	Git Git `yaml:"git"`
	// Device configures the device channel and deployment policy.
	Device Device `yaml:"device"`
	// Relay configures the device relay server.
	Relay Relay `yaml:"relay"`
	// HistoryFile is the SQLite release history; "off" disables it, empty keeps it in the release directory.
	HistoryFile string `yaml:"history_file"`
	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
}

// Paths locates build inputs and outputs on the host.
type Paths struct {
	Intermediates string `yaml:"intermediates"`
	Symbols       string `yaml:"symbols"`
	Release       string `yaml:"release"`
}

// Build configures the external toolchain invocation.
type Build struct {
	// Command is the argv template; an empty command means outputs are produced externally.
	Command []string `yaml:"command"`
	// Dir is the working directory of the toolchain command.
	Dir string `yaml:"dir"`
	// Verbose forwards toolchain output regardless of the log level.
	Verbose bool `yaml:"verbose"`
}

// Git configures how revision metadata is queried.
type Git struct {
	Binary string `yaml:"binary"`
	Dir    string `yaml:"dir"`
}

// Device configures the channel to the target device.
type Device struct {
	// Transport selects the channel: adb, dir or relay.
	Transport string `yaml:"transport"`
	// ADBPath is the adb executable.
	ADBPath string `yaml:"adb_path"`
	// Serial selects a device when several are attached.
	Serial string `yaml:"serial"`
	// Root is the directory that stands in for the device filesystem (dir transport).
	Root string `yaml:"root"`
	// Properties are the device properties reported by the dir transport.
	Properties map[string]string `yaml:"properties,omitempty"`
	// RelayAddress is the gRPC address of a device relay (relay transport).
	RelayAddress string `yaml:"relay_address"`
	// InstallDir is the device directory binaries are installed to.
	InstallDir string `yaml:"install_dir"`
	// StrictABI fails deployment when the device lists an ABI outside the allow-list.
	StrictABI bool `yaml:"strict_abi"`
	// RequirePrimary fails deployment when the primary ABI could not be installed.
	RequirePrimary bool `yaml:"require_primary"`
	// Timeout bounds each relay call.
	Timeout time.Duration `yaml:"timeout"`
}

// Relay configures the device relay server.
type Relay struct {
	// Listen is the gRPC listen address.
	Listen string `yaml:"listen"`
}

// Device transports.
const (
	TransportADB   = "adb"
	TransportDir   = "dir"
	TransportRelay = "relay"
)

const (
	// DefaultConfigFilename is the default filename for pipeline settings.
	DefaultConfigFilename = "mm-release.yaml"

	// DefaultHistoryFilename is the default SQLite history file inside the release directory.
	DefaultHistoryFilename = "history.db"

	// DefaultTimeout is the default duration of a relay call; pushes of large binaries need room.
	DefaultTimeout = 2 * time.Minute

	// DefaultRelayListen is the default relay listen address.
	DefaultRelayListen = ":50061"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errInvalidExecutable is returned when the executable name is not a plain file name.
	errInvalidExecutable = errors.New("executable must be a plain file name")
	// errNoVariants is returned when no build variant is configured.
	errNoVariants = errors.New("at least one variant must be configured")
	// errDuplicateVariant is returned when two variants share a name.
	errDuplicateVariant = errors.New("duplicate variant")
	// errUnknownTransport is returned for an unsupported device transport.
	errUnknownTransport = errors.New("unknown device transport")
	// errRootRequired is returned when the dir transport has no root.
	errRootRequired = errors.New("device root must be provided for the dir transport")
	// errRelayAddressRequired is returned when the relay transport has no address.
	errRelayAddressRequired = errors.New("relay address must be provided for the relay transport")
)

// Default returns settings mirroring the native project's build conventions.
func Default() *Config {
	cfg := new(Config)

	// Validate only fills defaults here and cannot fail.
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from the provided path and validates it.
// A missing file at the default location yields Default.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills defaults for omitted fields.
//
//nolint:cyclop // A flat list of defaults reads better than helpers.
func Validate(settings *Config) error {
	if settings.Executable == "" {
		settings.Executable = release.DefaultExecutableName
	}

	if strings.ContainsAny(settings.Executable, `/\`) {
		return fmt.Errorf("%q: %w", settings.Executable, errInvalidExecutable)
	}

	if len(settings.Architectures) == 0 {
		for _, a := range release.Supported() {
			settings.Architectures = append(settings.Architectures, a.String())
		}
	}

	if _, err := release.ParseList(settings.Architectures); err != nil {
		return fmt.Errorf("architectures: %w", err)
	}

	if len(settings.Variants) == 0 {
		settings.Variants = []release.BuildVariant{
			{Name: "debug", IsDebug: true},
			{Name: "release"},
		}
	}

	if err := validateVariants(settings.Variants); err != nil {
		return err
	}

	if settings.Paths.Intermediates == "" {
		settings.Paths.Intermediates = release.DefaultIntermediatesDir
	}

	if settings.Paths.Symbols == "" {
		settings.Paths.Symbols = release.DefaultSymbolsDir
	}

	if settings.Paths.Release == "" {
		settings.Paths.Release = release.DefaultReleaseDir
	}

	if settings.Build.Command == nil {
		settings.Build.Command = []string{"./gradlew", ":app:externalNativeBuild{Variant}"}
	}

	if settings.Git.Binary == "" {
		settings.Git.Binary = "git"
	}

	if settings.Relay.Listen == "" {
		settings.Relay.Listen = DefaultRelayListen
	}

	return validateDevice(&settings.Device)
}

// validateVariants rejects empty and duplicated variant names.
func validateVariants(variants []release.BuildVariant) error {
	if len(variants) == 0 {
		return errNoVariants
	}

	seen := make(map[string]struct{}, len(variants))

	for _, v := range variants {
		if strings.TrimSpace(v.Name) == "" {
			return fmt.Errorf("variant name: %w", errNoVariants)
		}

		if _, ok := seen[v.Lower()]; ok {
			return fmt.Errorf("%s: %w", v.Name, errDuplicateVariant)
		}

		seen[v.Lower()] = struct{}{}
	}

	return nil
}

// validateDevice checks transport specific settings.
func validateDevice(device *Device) error {
	if device.Transport == "" {
		device.Transport = TransportADB
	}

	if device.ADBPath == "" {
		device.ADBPath = "adb"
	}

	if device.InstallDir == "" {
		device.InstallDir = release.DefaultInstallDir
	}

	if device.Timeout <= 0 {
		device.Timeout = DefaultTimeout
	}

	switch device.Transport {
	case TransportADB:
		return nil
	case TransportDir:
		if device.Root == "" {
			return errRootRequired
		}

		return nil
	case TransportRelay:
		if device.RelayAddress == "" {
			return errRelayAddressRequired
		}

		if _, _, err := net.SplitHostPort(device.RelayAddress); err != nil {
			return fmt.Errorf("invalid relay address: %w", err)
		}

		return nil
	default:
		return fmt.Errorf("%q: %w", device.Transport, errUnknownTransport)
	}
}

// Layout returns the artifact layout described by the settings.
func (c *Config) Layout() release.Layout {
	return release.Layout{
		ExecutableName:   c.Executable,
		IntermediatesDir: c.Paths.Intermediates,
		SymbolsDir:       c.Paths.Symbols,
		ReleaseDir:       c.Paths.Release,
		InstallDir:       c.Device.InstallDir,
	}
}

// Archs returns the configured architectures. Validate guarantees they parse.
func (c *Config) Archs() []release.Architecture {
	archs, err := release.ParseList(c.Architectures)
	if err != nil {
		return nil
	}

	return archs
}

// Variant looks up a configured variant by name.
func (c *Config) Variant(name string) (release.BuildVariant, error) {
	v, ok := release.FindVariant(c.Variants, name)
	if !ok {
		names := make([]string, len(c.Variants))
		for i, known := range c.Variants {
			names[i] = known.Name
		}

		return release.BuildVariant{}, fmt.Errorf("unknown variant %q (configured: %s)", name, strings.Join(names, ", "))
	}

	return v, nil
}

// HistoryPath returns the history database path, or "" when history is disabled.
func (c *Config) HistoryPath() string {
	switch c.HistoryFile {
	case "":
		return filepath.Join(c.Paths.Release, DefaultHistoryFilename)
	case "-", "off", "none":
		return ""
	default:
		return c.HistoryFile
	}
}
