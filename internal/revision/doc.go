// Package revision derives the revision identity (commit count and short
// hash) that names every artifact produced in one run.
package revision
