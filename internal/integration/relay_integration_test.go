package integration

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/magic-mount/releaser/internal/deploy"
	"github.com/magic-mount/releaser/internal/device"
	"github.com/magic-mount/releaser/internal/domain/release"
	"github.com/magic-mount/releaser/internal/service/common"
	"github.com/magic-mount/releaser/internal/service/relay"
)

// startRelay serves channel on a free local port and returns its address.
func startRelay(t *testing.T, channel device.Channel) string {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	spool := t.TempDir()

	go func() {
		done <- relay.Serve(ctx, lis, channel, spool)
	}()

	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})

	return lis.Addr().String()
}

// TestRelay_DeployThroughRelay deploys to a directory-backed device on the far side of a relay.
func TestRelay_DeployThroughRelay(t *testing.T) {
	t.Parallel()

	deviceRoot := t.TempDir()
	addr := startRelay(t, &device.Dir{
		Root: deviceRoot,
		Properties: map[string]string{
			release.PropertyPrimaryABI: "x86_64",
			release.PropertyABIList:    "x86_64,x86,mips",
		},
	})

	ctx := context.Background()

	client, err := common.Dial(ctx, addr, common.WithCallTimeout(5*time.Second))
	require.NoError(t, err)

	defer func() {
		_ = client.Close()
	}()

	dir := t.TempDir()
	layout := release.Layout{
		ExecutableName:   "magic_mount",
		IntermediatesDir: filepath.Join(dir, "cmake"),
		SymbolsDir:       filepath.Join(dir, "symbols"),
		ReleaseDir:       filepath.Join(dir, "release"),
		InstallDir:       release.DefaultInstallDir,
	}
	variant := release.BuildVariant{Name: "debug", IsDebug: true}

	for _, arch := range []release.Architecture{release.X86_64, release.X86} {
		binary := layout.BinaryPath(variant, arch)
		require.NoError(t, os.MkdirAll(filepath.Dir(binary), 0o755))
		require.NoError(t, os.WriteFile(binary, []byte("ELF-"+arch.String()), 0o600))
	}

	report, err := deploy.New(client, layout).DeployVariant(ctx, variant)
	require.NoError(t, err)
	require.Equal(t, "2 of 3 entries deployed, 1 skipped, 0 failed", report.Summary())

	// The canonical path did not exist before, so cleanup failed without aborting.
	require.NotEmpty(t, report.CleanupError)

	contents, err := os.ReadFile(filepath.Join(deviceRoot, "data", "local", "tmp", "magic_mount"))
	require.NoError(t, err)
	require.Equal(t, "ELF-x86_64", string(contents))

	info, err := os.Stat(filepath.Join(deviceRoot, "data", "local", "tmp", "magic_mount_x86"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

// TestRelay_UnreachableDevice maps a missing device root to ErrDeviceUnreachable on the client side.
func TestRelay_UnreachableDevice(t *testing.T) {
	t.Parallel()

	addr := startRelay(t, &device.Dir{Root: filepath.Join(t.TempDir(), "unplugged")})

	client, err := common.Dial(context.Background(), addr, common.WithCallTimeout(5*time.Second))
	require.NoError(t, err)

	defer func() {
		_ = client.Close()
	}()

	report, err := deploy.New(client, release.Layout{
		ExecutableName: "magic_mount",
		InstallDir:     release.DefaultInstallDir,
	}).DeployVariant(context.Background(), release.BuildVariant{Name: "release"})
	require.ErrorIs(t, err, release.ErrDeviceUnreachable)
	require.Nil(t, report)
}
