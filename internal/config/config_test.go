package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/magic-mount/releaser/internal/domain/release"
)

// TestValidate checks defaults and the rejected configurations.
func TestValidate(t *testing.T) {
	t.Parallel()

	settings := new(Config)
	require.NoError(t, Validate(settings))
	require.Equal(t, release.DefaultExecutableName, settings.Executable)
	require.Len(t, settings.Architectures, 4)
	require.Len(t, settings.Variants, 2)
	require.Equal(t, TransportADB, settings.Device.Transport)
	require.Equal(t, release.DefaultInstallDir, settings.Device.InstallDir)
	require.Equal(t, DefaultTimeout, settings.Device.Timeout)

	// Bad executable.
	require.Error(t, Validate(&Config{Executable: "bin/magic_mount"}))

	// Unsupported architecture.
	require.ErrorIs(t, Validate(&Config{Architectures: []string{"riscv64"}}), release.ErrUnsupportedArchitecture)

	// Duplicate variant.
	settings = &Config{Variants: []release.BuildVariant{{Name: "release"}, {Name: "Release"}}}
	require.ErrorIs(t, Validate(settings), errDuplicateVariant)

	// Dir transport without root.
	settings = &Config{Device: Device{Transport: TransportDir}}
	require.ErrorIs(t, Validate(settings), errRootRequired)

	// Relay transport.
	settings = &Config{Device: Device{Transport: TransportRelay}}
	require.ErrorIs(t, Validate(settings), errRelayAddressRequired)

	settings = &Config{Device: Device{Transport: TransportRelay, RelayAddress: "bad-address"}}
	require.Error(t, Validate(settings))

	settings = &Config{Device: Device{Transport: TransportRelay, RelayAddress: "farm.local:50061"}}
	require.NoError(t, Validate(settings))

	// Unknown transport.
	require.ErrorIs(t, Validate(&Config{Device: Device{Transport: "usb"}}), errUnknownTransport)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	settings := &Config{
		Executable:    "magic_mount",
		Architectures: []string{"arm64-v8a", "x86_64"},
		Device: Device{
			Transport:      TransportDir,
			Root:           filepath.Join(dir, "device"),
			RequirePrimary: true,
			Properties: map[string]string{
				release.PropertyPrimaryABI: "x86_64",
			},
		},
	}

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings.Architectures, loaded.Architectures)
	require.Equal(t, settings.Device.Root, loaded.Device.Root)
	require.True(t, loaded.Device.RequirePrimary)
	require.Equal(t, "x86_64", loaded.Device.Properties[release.PropertyPrimaryABI])
	require.Equal(t, []release.Architecture{release.Arm64V8a, release.X86_64}, loaded.Archs())

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestLoad_MissingFile distinguishes an explicit path from the default one.
func TestLoad_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, release.DefaultExecutableName, cfg.Executable)

	_, err = Load("missing.yaml")
	require.Error(t, err)
}

// TestConfigHelpers covers variant lookup, layout and history path resolution.
func TestConfigHelpers(t *testing.T) {
	t.Parallel()

	cfg := Default()

	v, err := cfg.Variant("Release")
	require.NoError(t, err)
	require.Equal(t, "release", v.Name)

	_, err = cfg.Variant("profile")
	require.Error(t, err)

	layout := cfg.Layout()
	require.Equal(t, release.DefaultReleaseDir, layout.ReleaseDir)
	require.Equal(t, release.DefaultInstallDir, layout.InstallDir)

	require.Equal(t, filepath.Join(release.DefaultReleaseDir, DefaultHistoryFilename), cfg.HistoryPath())

	cfg.HistoryFile = "off"
	require.Empty(t, cfg.HistoryPath())

	cfg.HistoryFile = "/tmp/h.db"
	require.Equal(t, "/tmp/h.db", cfg.HistoryPath())
}
