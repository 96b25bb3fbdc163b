// Package config defines the release pipeline settings and provides helpers
// to load, validate and save them in YAML format.
//
// Validate fills every omitted field with the conventions of the native
// project (output directories, ABI allow-list, debug and release variants),
// so an absent configuration file still describes a working pipeline.
package config
