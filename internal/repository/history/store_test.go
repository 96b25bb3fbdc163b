package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/magic-mount/releaser/internal/domain/release"
)

func openStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "release", "history.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})

	return s
}

func sampleReport(started time.Time) *release.DeploymentReport {
	report := &release.DeploymentReport{
		ID:           "4a0b7a54-4f0c-4bde-8f1e-2b3ad0b1c001",
		Variant:      "release",
		Profile:      release.NewDeviceProfile("arm64-v8a", "arm64-v8a,armeabi-v7a,riscv64"),
		CleanupError: "",
		StartedAt:    started,
		FinishedAt:   started.Add(3 * time.Second),
	}

	report.
		Add(release.ArchitectureResult{
			Entry:      "arm64-v8a",
			Outcome:    release.OutcomeDeployed,
			Primary:    true,
			DevicePath: "/data/local/tmp/magic_mount",
		}).
		Add(release.ArchitectureResult{
			Entry:      "armeabi-v7a",
			Outcome:    release.OutcomeTransferFailed,
			DevicePath: "/data/local/tmp/magic_mount_armeabi-v7a",
			Reason:     "device offline",
		}).
		Add(release.ArchitectureResult{
			Entry:   "riscv64",
			Outcome: release.OutcomeSkippedUnsupported,
			Reason:  "unsupported architecture",
		})

	return report
}

// TestStore_DeploymentRoundtrip verifies a recorded report is loaded back with its results in order.
func TestStore_DeploymentRoundtrip(t *testing.T) {
	t.Parallel()

	s := openStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	want := sampleReport(started)

	require.NoError(t, s.RecordDeployment(ctx, want, "dev@host"))

	got, err := s.Deployment(ctx, want.ID)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

// TestStore_DeploymentNotFound verifies unknown IDs map to ErrNotFound.
func TestStore_DeploymentNotFound(t *testing.T) {
	t.Parallel()

	s := openStore(t)

	_, err := s.Deployment(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

// TestStore_ListNewestFirst mixes archives and deployments and checks ordering and limit.
func TestStore_ListNewestFirst(t *testing.T) {
	t.Parallel()

	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	s.now = func() time.Time { return base }

	archive := &release.PackagedArchive{
		FileName: "magic_mount-a1b2c3d-42-release.zip",
		Path:     "release/magic_mount-a1b2c3d-42-release.zip",
		Revision: release.RevisionInfo{CommitCount: 42, ShortHash: "a1b2c3d"},
		Variant:  "release",
		Members:  []string{"arm64-v8a/magic_mount"},
		Size:     128,
	}

	archiveID, err := s.RecordArchive(ctx, archive, "dev@host")
	require.NoError(t, err)
	require.NotEmpty(t, archiveID)

	report := sampleReport(base.Add(time.Minute))
	require.NoError(t, s.RecordDeployment(ctx, report, "dev@host"))

	entries, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.Equal(t, KindDeployment, entries[0].Kind)
	require.Equal(t, report.ID, entries[0].ID)
	require.Equal(t, report.Summary(), entries[0].Detail)
	require.True(t, entries[0].Success)

	require.Equal(t, KindArchive, entries[1].Kind)
	require.Equal(t, archiveID, entries[1].ID)
	require.Equal(t, archive.FileName, entries[1].Detail)
	require.Equal(t, base, entries[1].At)

	limited, err := s.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	require.Equal(t, KindDeployment, limited[0].Kind)
}

// TestStore_RecordDeploymentAssignsID verifies reports without an ID still get recorded.
func TestStore_RecordDeploymentAssignsID(t *testing.T) {
	t.Parallel()

	s := openStore(t)
	report := sampleReport(time.Now().UTC())
	report.ID = ""

	require.NoError(t, s.RecordDeployment(context.Background(), report, "dev@host"))
	require.NotEmpty(t, report.ID)

	// Duplicate IDs are rejected and leave no partial results behind.
	require.Error(t, s.RecordDeployment(context.Background(), report, "dev@host"))

	got, err := s.Deployment(context.Background(), report.ID)
	require.NoError(t, err)
	require.Len(t, got.Results, 3)
}
