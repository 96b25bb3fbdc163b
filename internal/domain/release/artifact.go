package release

// ArtifactSet is what the toolchain produced for one (variant, architecture) pair.
// The files belong to the toolchain output directory and are only ever read.
type ArtifactSet struct {
	Variant      BuildVariant
	Architecture Architecture
	// Binary is the host path of the compiled executable.
	Binary string
	// Symbols is the host path of the debug symbols, empty when none were produced.
	Symbols string
}

// PackagedArchive describes a written release archive.
type PackagedArchive struct {
	// FileName is the archive base name encoding revision and variant.
	FileName string `yaml:"file_name"`
	// Path is the archive location on disk.
	Path string `yaml:"path"`
	// Revision is the revision the archive was named after.
	Revision RevisionInfo `yaml:"revision"`
	// Variant is the lowercased variant name.
	Variant string `yaml:"variant"`
	// Members lists archive entries in stored order.
	Members []string `yaml:"members"`
	// Size is the archive size in bytes.
	Size int64 `yaml:"size"`
}
