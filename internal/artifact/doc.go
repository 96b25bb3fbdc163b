// Package artifact bundles a variant's toolchain outputs into a versioned
// zip archive.
//
// Per-architecture output directories are stored under their ABI name and the
// variant's symbols directory is layered on top at the archive root. Member
// order is sorted so repeated packaging of one revision yields the same
// listing. A missing source directory fails packaging: it means the build is
// incomplete.
package artifact
