// Package nativebuild triggers the external native toolchain for a build
// variant. It only expands the configured command template and runs it; the
// toolchain owns every file it produces.
package nativebuild
