package release

import (
	"fmt"
	"path"
	"path/filepath"
)

// Default locations matching the native build's output conventions.
const (
	DefaultExecutableName   = "magic_mount"
	DefaultIntermediatesDir = "build/intermediates/cmake"
	DefaultSymbolsDir       = "build/symbols"
	DefaultReleaseDir       = "release"
	DefaultInstallDir       = "/data/local/tmp"

	// SymbolsExtension is appended to the executable name for per-ABI debug symbol files.
	SymbolsExtension = ".debug"
)

// Layout resolves host and device paths of build artifacts.
type Layout struct {
	// ExecutableName is the file name of the native binary.
	ExecutableName string
	// IntermediatesDir holds "<variant>/obj/<arch>/" toolchain outputs.
	IntermediatesDir string
	// SymbolsDir holds "<build type>/" debug symbol directories.
	SymbolsDir string
	// ReleaseDir receives packaged archives.
	ReleaseDir string
	// InstallDir is the device directory binaries are pushed to.
	InstallDir string
}

// ObjDir returns the per-variant directory containing one sub-directory per ABI.
func (l Layout) ObjDir(v BuildVariant) string {
	return filepath.Join(l.IntermediatesDir, v.Lower(), "obj")
}

// ArchDir returns the output directory of one ABI.
func (l Layout) ArchDir(v BuildVariant, a Architecture) string {
	return filepath.Join(l.ObjDir(v), a.String())
}

// BinaryPath returns the compiled binary of one ABI.
func (l Layout) BinaryPath(v BuildVariant, a Architecture) string {
	return filepath.Join(l.ArchDir(v, a), l.ExecutableName)
}

// VariantSymbolsDir returns the symbols directory of a variant.
func (l Layout) VariantSymbolsDir(v BuildVariant) string {
	return filepath.Join(l.SymbolsDir, v.SymbolsType())
}

// SymbolsPath returns the conventional location of one ABI's debug symbols.
func (l Layout) SymbolsPath(v BuildVariant, a Architecture) string {
	return filepath.Join(l.VariantSymbolsDir(v), a.String(), l.ExecutableName+SymbolsExtension)
}

// ArchiveName returns "<exe>-<hash>-<count>-<variant>.zip".
func (l Layout) ArchiveName(rev RevisionInfo, v BuildVariant) string {
	return fmt.Sprintf("%s-%s-%d-%s.zip", l.ExecutableName, rev.ShortHash, rev.CommitCount, v.Lower())
}

// ArchivePath returns the archive location inside the release directory.
func (l Layout) ArchivePath(rev RevisionInfo, v BuildVariant) string {
	return filepath.Join(l.ReleaseDir, l.ArchiveName(rev, v))
}

// CanonicalDevicePath is the unqualified install location used for the primary ABI.
func (l Layout) CanonicalDevicePath() string {
	return path.Join(l.InstallDir, l.ExecutableName)
}

// DevicePath resolves the install location of an ABI list entry.
// The primary ABI gets the canonical path, every other entry is suffixed with "_<abi>".
func (l Layout) DevicePath(entry string, primary Architecture) string {
	if Architecture(entry) == primary {
		return l.CanonicalDevicePath()
	}

	return path.Join(l.InstallDir, l.ExecutableName+"_"+entry)
}
