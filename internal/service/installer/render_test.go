package installer

import (
	"bytes"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/magic-mount/releaser/internal/domain/release"
)

func sampleReport() *release.DeploymentReport {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	report := &release.DeploymentReport{
		ID:           "4a0b7a54-4f0c-4bde-8f1e-2b3ad0b1c001",
		Variant:      "release",
		Profile:      release.NewDeviceProfile("arm64-v8a", "arm64-v8a, armeabi-v7a, riscv64"),
		CleanupError: "remove /data/local/tmp/magic_mount: no such file",
		StartedAt:    started,
		FinishedAt:   started.Add(2 * time.Second),
	}

	return report.
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
}

// TestRender_Text compares the text rendering against the golden file.
func TestRender_Text(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReport(), FormatText))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "report_text", buf.Bytes())
}

// TestRender_YAML verifies the YAML rendering carries every result.
func TestRender_YAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReport(), FormatYAML))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, "release", decoded["variant"])
	require.Len(t, decoded["results"], 3)
	require.Contains(t, buf.String(), "outcome: skipped_unsupported")
	require.Contains(t, buf.String(), "primary_abi: arm64-v8a")
}

// TestValidateFormat rejects unknown formats.
func TestValidateFormat(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateFormat(""))
	require.NoError(t, ValidateFormat(FormatYAML))
	require.Error(t, ValidateFormat("json"))
	require.Error(t, Render(new(bytes.Buffer), sampleReport(), "json"))
}
