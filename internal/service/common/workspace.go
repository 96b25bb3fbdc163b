//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/magic-mount/releaser/internal/artifact"
	"github.com/magic-mount/releaser/internal/config"
	"github.com/magic-mount/releaser/internal/domain/release"
	"github.com/magic-mount/releaser/internal/logger"
	"github.com/magic-mount/releaser/internal/nativebuild"
	"github.com/magic-mount/releaser/internal/repository/history"
	"github.com/magic-mount/releaser/internal/revision"
)

// Workspace bundles the settings and collaborators of one CLI run.
type Workspace struct {
	// Config holds the validated settings.
	Config *config.Config
	// Actor identifies the user running the command.
	Actor Actor
	// History is nil when the release history is disabled.
	History *history.Store
}

// OpenWorkspace loads settings from configPath and opens the release history.
func OpenWorkspace(ctx context.Context, configPath string) (*Workspace, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	actor, err := DetectActor()
	if err != nil {
		logger.WarnKV(ctx, "Unable to detect actor", "error", err)
	}

	w := &Workspace{
		Config: cfg,
		Actor:  actor,
	}

	if path := cfg.HistoryPath(); path != "" {
		w.History, err = history.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
	}

	return w, nil
}

// Close releases the history database.
func (w *Workspace) Close() error {
	return w.History.Close()
}

// Trigger returns the native build trigger described by the settings.
func (w *Workspace) Trigger() *nativebuild.Trigger {
	return &nativebuild.Trigger{
		Command: w.Config.Build.Command,
		Dir:     w.Config.Build.Dir,
		Layout:  w.Config.Layout(),
		Verbose: w.Config.Build.Verbose,
	}
}

// Packager returns the artifact packager described by the settings.
func (w *Workspace) Packager() *artifact.Packager {
	return &artifact.Packager{
		Layout: w.Config.Layout(),
		Archs:  w.Config.Archs(),
	}
}

// Revision derives the revision metadata once for the whole run.
func (w *Workspace) Revision(ctx context.Context) (release.RevisionInfo, error) {
	return revision.Derive(ctx, &revision.GitSource{
		Binary: w.Config.Git.Binary,
		Dir:    w.Config.Git.Dir,
	})
}

// Variants resolves the variant argument; an empty name or "all" selects every configured variant.
func (w *Workspace) Variants(name string) ([]release.BuildVariant, error) {
	if name == "" || name == "all" {
		return w.Config.Variants, nil
	}

	v, err := w.Config.Variant(name)
	if err != nil {
		return nil, err
	}

	return []release.BuildVariant{v}, nil
}

// InstallLockPath returns the run lock guarding installs from this workspace.
func (w *Workspace) InstallLockPath() string {
	return filepath.Join(w.Config.Paths.Release, InstallLockFilename)
}

// RecordArchive appends an archive to the history; failures are logged only.
func (w *Workspace) RecordArchive(ctx context.Context, archive *release.PackagedArchive) {
	if w.History == nil || archive == nil {
		return
	}

	id, err := w.History.RecordArchive(ctx, archive, w.Actor.String())
	if err != nil {
		logger.WarnKV(ctx, "Unable to record archive in history", "archive", archive.FileName, "error", err)

		return
	}

	logger.DebugKV(ctx, "Archive recorded", "history_id", id)
}

// RecordDeployment appends a deployment report to the history; failures are logged only.
func (w *Workspace) RecordDeployment(ctx context.Context, report *release.DeploymentReport) {
	if w.History == nil || report == nil {
		return
	}

	if err := w.History.RecordDeployment(ctx, report, w.Actor.String()); err != nil {
		logger.WarnKV(ctx, "Unable to record deployment in history", "report_id", report.ID, "error", err)

		return
	}

	logger.DebugKV(ctx, "Deployment recorded", "history_id", report.ID)
}
