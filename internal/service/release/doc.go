// Package release packages every configured variant against a single revision.
package release
