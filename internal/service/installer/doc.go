// Package installer builds a variant and deploys it to the configured device.
//
// Installs from one workspace are serialised through a run lock in the
// release directory. The resulting report is rendered as text or YAML and
// appended to the release history.
package installer
