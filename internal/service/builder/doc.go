// Package builder runs the native build for one or all variants.
package builder
