// Package version exposes build metadata of mm-release.
//
// Version, Commit and BuildTime are injected with -ldflags "-X" and keep
// local-build defaults otherwise.
package version
