// Package common holds helpers shared by several services.
//
// It provides the device relay client, the device channel factory, the
// workspace run lock and detection of the current system actor
// (hostname/username) for the release history.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
