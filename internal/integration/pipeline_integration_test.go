package integration

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/magic-mount/releaser/internal/artifact"
	"github.com/magic-mount/releaser/internal/domain/release"
	"github.com/magic-mount/releaser/internal/repository/history"
	"github.com/magic-mount/releaser/internal/service/installer"
	"github.com/magic-mount/releaser/internal/service/packager"
	releasesvc "github.com/magic-mount/releaser/internal/service/release"
)

// TestPackage_BuildsAndArchives runs the package command with a shell toolchain and a fake git.
func TestPackage_BuildsAndArchives(t *testing.T) {
	t.Parallel()
	requireShell(t)

	w := newWorkspace(t, "arm64-v8a", "arm64-v8a")

	var out bytes.Buffer

	err := packager.Run(context.Background(), &packager.Options{
		ConfigPath: w.configPath,
		Variant:    "release",
		Output:     &out,
	})
	require.NoError(t, err)

	archivePath := filepath.Join(w.cfg.Paths.Release, "magic_mount-a1b2c3d-42-release.zip")
	require.Equal(t, archivePath+"\n", out.String())

	members, err := artifact.List(archivePath)
	require.NoError(t, err)
	require.Equal(t, []string{
		"arm64-v8a/magic_mount",
		"arm64-v8a/magic_mount.debug",
		"armeabi-v7a/magic_mount",
		"armeabi-v7a/magic_mount.debug",
	}, members)

	store, err := history.Open(w.cfg.HistoryPath())
	require.NoError(t, err)

	defer func() {
		_ = store.Close()
	}()

	entries, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, history.KindArchive, entries[0].Kind)
}

// TestPackage_SkipBuildWithoutOutputs fails with ErrPackagingFailed and writes nothing.
func TestPackage_SkipBuildWithoutOutputs(t *testing.T) {
	t.Parallel()
	requireShell(t)

	w := newWorkspace(t, "arm64-v8a", "arm64-v8a")

	err := packager.Run(context.Background(), &packager.Options{
		ConfigPath: w.configPath,
		Variant:    "debug",
		SkipBuild:  true,
		Output:     new(bytes.Buffer),
	})
	require.ErrorIs(t, err, release.ErrPackagingFailed)
	require.NoFileExists(t, filepath.Join(w.cfg.Paths.Release, "magic_mount-a1b2c3d-42-debug.zip"))
}

// TestRelease_AllVariantsShareRevision packages every variant under one revision.
func TestRelease_AllVariantsShareRevision(t *testing.T) {
	t.Parallel()
	requireShell(t)

	w := newWorkspace(t, "arm64-v8a", "arm64-v8a")

	var out bytes.Buffer

	require.NoError(t, releasesvc.Run(context.Background(), &releasesvc.Options{
		ConfigPath: w.configPath,
		Output:     &out,
	}))

	require.Equal(t,
		filepath.Join(w.cfg.Paths.Release, "magic_mount-a1b2c3d-42-debug.zip")+"\n"+
			filepath.Join(w.cfg.Paths.Release, "magic_mount-a1b2c3d-42-release.zip")+"\n",
		out.String())
}

// TestInstall_DeploysPerABI builds and installs on a directory-backed device listing an unsupported ABI.
func TestInstall_DeploysPerABI(t *testing.T) {
	t.Parallel()
	requireShell(t)

	w := newWorkspace(t, "arm64-v8a", "arm64-v8a, armeabi-v7a, riscv64")

	// A previous installation is cleaned up first.
	stale := w.deviceFile("/data/local/tmp/magic_mount")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o600))

	var out bytes.Buffer

	err := installer.Run(context.Background(), &installer.Options{
		ConfigPath: w.configPath,
		Variant:    "release",
		Output:     &out,
	})
	require.NoError(t, err)
	require.Contains(t, out.String(), "2 of 3 entries deployed, 1 skipped, 0 failed")

	primary, err := os.ReadFile(w.deviceFile("/data/local/tmp/magic_mount"))
	require.NoError(t, err)
	require.Equal(t, "binary-arm64-v8a-release\n", string(primary))

	secondary := w.deviceFile("/data/local/tmp/magic_mount_armeabi-v7a")

	info, err := os.Stat(secondary)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	require.NoFileExists(t, w.deviceFile("/data/local/tmp/magic_mount_riscv64"))

	// The run lock is released.
	require.NoFileExists(t, filepath.Join(w.cfg.Paths.Release, ".mm-release-install.lock"))

	store, err := history.Open(w.cfg.HistoryPath())
	require.NoError(t, err)

	defer func() {
		_ = store.Close()
	}()

	entries, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, history.KindDeployment, entries[0].Kind)

	report, err := store.Deployment(context.Background(), entries[0].ID)
	require.NoError(t, err)
	require.Equal(t, 2, report.Count(release.OutcomeDeployed))
	require.Equal(t, 1, report.Count(release.OutcomeSkippedUnsupported))
}

// TestInstall_StrictABIRejectsDevice verifies nothing is pushed when strict ABI checking fails.
func TestInstall_StrictABIRejectsDevice(t *testing.T) {
	t.Parallel()
	requireShell(t)

	w := newWorkspace(t, "arm64-v8a", "arm64-v8a,riscv64")

	err := installer.Run(context.Background(), &installer.Options{
		ConfigPath: w.configPath,
		Variant:    "release",
		StrictABI:  true,
		Output:     new(bytes.Buffer),
	})
	require.ErrorIs(t, err, release.ErrUnsupportedArchitecture)
	require.NoFileExists(t, w.deviceFile("/data/local/tmp/magic_mount"))
}

// TestInstall_NothingDeployed completes normally when the device lists no supported ABI,
// and fails only when asked to.
func TestInstall_NothingDeployed(t *testing.T) {
	t.Parallel()
	requireShell(t)

	w := newWorkspace(t, "riscv64", "riscv64")

	var out bytes.Buffer

	err := installer.Run(context.Background(), &installer.Options{
		ConfigPath: w.configPath,
		Variant:    "debug",
		Output:     &out,
	})
	require.NoError(t, err)
	require.Contains(t, out.String(), "no architecture deployed")

	err = installer.Run(context.Background(), &installer.Options{
		ConfigPath:            w.configPath,
		Variant:               "debug",
		SkipBuild:             true,
		FailIfNothingDeployed: true,
		Output:                new(bytes.Buffer),
	})
	require.ErrorIs(t, err, installer.ErrNothingDeployed)
}
