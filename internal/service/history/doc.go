// Package history prints the release history recorded by package, release and install.
package history
