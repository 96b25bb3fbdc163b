// Package packager builds a variant and zips its binaries and debug symbols
// into a release archive named after the current revision.
package packager
