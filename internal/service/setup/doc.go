// Package setup writes a settings file populated with the default pipeline conventions.
package setup
