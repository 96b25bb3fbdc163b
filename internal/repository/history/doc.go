// Package history keeps a SQLite log of produced archives and device deployments.
//
// The Store records every packaged archive and every deployment report with
// its per-architecture results, and lists them newest first for the
// "history" command.
package history
