package release

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestArchitecture_IsSupported covers the allow-list and a few foreign ABIs.
func TestArchitecture_IsSupported(t *testing.T) {
	t.Parallel()

	for _, a := range Supported() {
		require.True(t, a.IsSupported(), a)
	}

	for _, value := range []string{"riscv64", "mips", "armeabi", "", "ARM64-V8A"} {
		require.False(t, Architecture(value).IsSupported(), value)
	}
}

// TestParse verifies parsing trims input and reports unsupported values.
func TestParse(t *testing.T) {
	t.Parallel()

	a, err := Parse(" arm64-v8a ")
	require.NoError(t, err)
	require.Equal(t, Arm64V8a, a)

	_, err = Parse("riscv64")
	require.ErrorIs(t, err, ErrUnsupportedArchitecture)

	archs, err := ParseList([]string{"x86", "x86_64"})
	require.NoError(t, err)
	require.Equal(t, []Architecture{X86, X86_64}, archs)

	_, err = ParseList([]string{"x86", "sparc"})
	require.ErrorIs(t, err, ErrUnsupportedArchitecture)
}

// TestNewDeviceProfile checks ABI list parsing keeps order and drops blanks.
func TestNewDeviceProfile(t *testing.T) {
	t.Parallel()

	profile := NewDeviceProfile("arm64-v8a\n", "arm64-v8a, armeabi-v7a,,riscv64\r\n")

	require.Equal(t, Arm64V8a, profile.PrimaryABI)
	require.Equal(t, []string{"arm64-v8a", "armeabi-v7a", "riscv64"}, profile.SupportedABIs)
	require.Equal(t, []string{"riscv64"}, profile.Unsupported())

	require.Empty(t, ParseABIList(""))
}

// TestBuildVariant checks name helpers.
func TestBuildVariant(t *testing.T) {
	t.Parallel()

	v := BuildVariant{Name: "release"}
	require.Equal(t, "Release", v.Capitalized())
	require.Equal(t, "release", v.SymbolsType())

	v = BuildVariant{Name: "RelWithDebInfo", BuildType: "release"}
	require.Equal(t, "relwithdebinfo", v.Lower())
	require.Equal(t, "release", v.SymbolsType())

	found, ok := FindVariant([]BuildVariant{{Name: "debug", IsDebug: true}, v}, "DEBUG")
	require.True(t, ok)
	require.True(t, found.IsDebug)

	_, ok = FindVariant(nil, "release")
	require.False(t, ok)

	require.Equal(t, "a1b2c3d-42", RevisionInfo{CommitCount: 42, ShortHash: "a1b2c3d"}.String())
}

// TestDeploymentReport_Summary covers success and zero-success wording.
func TestDeploymentReport_Summary(t *testing.T) {
	t.Parallel()

	report := new(DeploymentReport)
	report.
		Add(ArchitectureResult{Entry: "arm64-v8a", Outcome: OutcomeTransferFailed, Primary: true}).
		Add(ArchitectureResult{Entry: "riscv64", Outcome: OutcomeSkippedUnsupported})

	require.False(t, report.Succeeded())
	require.Equal(t, "no architecture deployed: 0 of 2 entries deployed, 1 skipped, 1 failed", report.Summary())

	primary, ok := report.Primary()
	require.True(t, ok)
	require.Equal(t, OutcomeTransferFailed, primary.Outcome)

	report.Add(ArchitectureResult{Entry: "armeabi-v7a", Outcome: OutcomeDeployed})
	require.True(t, report.Succeeded())
	require.Equal(t, "1 of 3 entries deployed, 1 skipped, 1 failed", report.Summary())
}
