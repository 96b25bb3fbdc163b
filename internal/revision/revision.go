package revision

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/magic-mount/releaser/internal/domain/release"
	"github.com/magic-mount/releaser/internal/logger"
)

// Source answers the two read-only revision queries.
type Source interface {
	CommitCount(ctx context.Context) (int, error)
	ShortHash(ctx context.Context) (string, error)
}

// Runner executes a command in dir and returns its standard output.
type Runner func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

var (
	// errNegativeCount is returned when the commit count cannot be a count.
	errNegativeCount = errors.New("negative commit count")
	// errEmptyHash is returned when the hash query printed nothing.
	errEmptyHash = errors.New("empty commit hash")
)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(exitErr.Stderr)))
		}

		return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}

	return out, nil
}

// GitSource queries a git work tree.
type GitSource struct {
	// Binary is the git executable.
	Binary string
	// Dir is the work tree to query.
	Dir string
	// Run executes git; ExecRunner when nil.
	Run Runner
}

// CommitCount returns the number of commits reachable from HEAD.
func (g *GitSource) CommitCount(ctx context.Context) (int, error) {
	out, err := g.git(ctx, "rev-list", "HEAD", "--count")
	if err != nil {
		return 0, err
	}

	count, err := strconv.Atoi(out)
	if err != nil {
		return 0, fmt.Errorf("parse commit count %q: %w", out, err)
	}

	if count < 0 {
		return 0, fmt.Errorf("%d: %w", count, errNegativeCount)
	}

	return count, nil
}

// ShortHash returns the abbreviated hash of HEAD.
func (g *GitSource) ShortHash(ctx context.Context) (string, error) {
	out, err := g.git(ctx, "rev-parse", "--verify", "--short", "HEAD")
	if err != nil {
		return "", err
	}

	if out == "" {
		return "", errEmptyHash
	}

	return out, nil
}

func (g *GitSource) git(ctx context.Context, args ...string) (string, error) {
	run := g.Run
	if run == nil {
		run = ExecRunner
	}

	binary := g.Binary
	if binary == "" {
		binary = "git"
	}

	out, err := run(ctx, g.Dir, binary, args...)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(out)), nil
}

// Derive queries source once and returns the revision of the work tree.
// Any failure wraps release.ErrVersionUnavailable.
func Derive(ctx context.Context, source Source) (release.RevisionInfo, error) {
	count, err := source.CommitCount(ctx)
	if err != nil {
		return release.RevisionInfo{}, fmt.Errorf("%w: commit count: %w", release.ErrVersionUnavailable, err)
	}

	hash, err := source.ShortHash(ctx)
	if err != nil {
		return release.RevisionInfo{}, fmt.Errorf("%w: short hash: %w", release.ErrVersionUnavailable, err)
	}

	rev := release.RevisionInfo{
		CommitCount: count,
		ShortHash:   hash,
	}

	logger.InfoKV(ctx, "Derived revision", "commit_count", rev.CommitCount, "short_hash", rev.ShortHash)

	return rev, nil
}
