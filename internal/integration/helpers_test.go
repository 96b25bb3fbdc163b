package integration

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/magic-mount/releaser/internal/config"
	"github.com/magic-mount/releaser/internal/domain/release"
)

// fakeToolchain builds per-ABI binaries and symbols with the shell, like the native build would.
var fakeToolchain = []string{
	"sh", "-c",
	"mkdir -p {obj_dir}/{arch} {symbols_dir}/{arch} && " +
		"echo binary-{arch}-{variant} > {obj_dir}/{arch}/magic_mount && " +
		"echo symbols-{arch} > {symbols_dir}/{arch}/magic_mount.debug",
}

// requireShell skips tests that drive the toolchain through sh.
func requireShell(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("the fake toolchain needs a POSIX shell")
	}
}

// workspace describes a temporary project checkout.
type workspace struct {
	dir        string
	configPath string
	deviceRoot string
	cfg        *config.Config
}

// newWorkspace writes settings targeting a directory-backed device reporting abiList.
func newWorkspace(t *testing.T, primary, abiList string) *workspace {
	t.Helper()

	dir := t.TempDir()
	deviceRoot := filepath.Join(dir, "device")
	require.NoError(t, os.MkdirAll(deviceRoot, 0o755))

	cfg := config.Default()
	cfg.Architectures = []string{release.Arm64V8a.String(), release.ArmeabiV7a.String()}
	cfg.Paths.Intermediates = filepath.Join(dir, "build", "intermediates", "cmake")
	cfg.Paths.Symbols = filepath.Join(dir, "build", "symbols")
	cfg.Paths.Release = filepath.Join(dir, "release")
	cfg.Build.Command = fakeToolchain
	cfg.Build.Dir = dir
	cfg.Git.Binary = writeFakeGit(t, dir)
	cfg.Device.Transport = config.TransportDir
	cfg.Device.Root = deviceRoot
	cfg.Device.Properties = map[string]string{
		release.PropertyPrimaryABI: primary,
		release.PropertyABIList:    abiList,
	}

	configPath := filepath.Join(dir, config.DefaultConfigFilename)
	require.NoError(t, config.Save(configPath, cfg))

	return &workspace{
		dir:        dir,
		configPath: configPath,
		deviceRoot: deviceRoot,
		cfg:        cfg,
	}
}

// writeFakeGit installs a git stand-in reporting 42 commits at a1b2c3d.
func writeFakeGit(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "fake-git")
	script := "#!/bin/sh\n" +
		"case \"$1\" in\n" +
		"rev-list) echo 42 ;;\n" +
		"rev-parse) echo a1b2c3d ;;\n" +
		"*) exit 1 ;;\n" +
		"esac\n"

	require.NoError(t, os.WriteFile(path, []byte(script), 0o755)) //nolint:gosec // Test helper must be executable.

	return path
}

// deviceFile returns the host path of a device file.
func (w *workspace) deviceFile(devicePath string) string {
	return filepath.Join(w.deviceRoot, filepath.FromSlash(devicePath))
}
