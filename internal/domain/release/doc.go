// Package release contains the core domain types of the release pipeline.
//
// It defines the revision identity that names every artifact of a run, build
// variants, the architecture allow-list, the on-disk layout of toolchain
// outputs, the device ABI profile, packaged archives and deployment reports,
// together with the error taxonomy shared by the pipeline stages.
package release
