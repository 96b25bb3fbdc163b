//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/mitchellh/go-ps"

	"github.com/magic-mount/releaser/internal/logger"
)

// InstallLockFilename is the marker guarding concurrent installs from one workspace.
const InstallLockFilename = ".mm-release-install.lock"

// ErrLocked is returned when another live process holds the lock.
var ErrLocked = errors.New("another mm-release process holds the lock")

// lockAttempts bounds how often a stale marker is taken over before giving up.
const lockAttempts = 3

// Lock is a marker file owned by the current process.
type Lock struct {
	path string
}

// AcquireLock creates the marker at path, replacing it when its owner is gone.
// The marker is written to a temporary file and hard-linked into place, so
// other processes never observe a partially written marker.
func AcquireLock(ctx context.Context, path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:mnd // Workspace directory.
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	contents := []byte(fmt.Sprintf("%d %s\n", os.Getpid(), currentExecutable()))

	for range lockAttempts {
		err := createMarker(path, contents)
		if err == nil {
			logger.DebugKV(ctx, "Lock acquired", "path", path, "pid", os.Getpid())

			return &Lock{path: path}, nil
		}

		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create lock: %w", err)
		}

		pid, executable, readErr := readMarker(path)
		if errors.Is(readErr, os.ErrNotExist) {
			// Released between the link and the read.
			continue
		}

		if readErr == nil && ownerAlive(pid, executable) {
			return nil, fmt.Errorf("%s (pid %d): %w", path, pid, ErrLocked)
		}

		logger.InfoKV(ctx, "Replacing stale lock", "path", path, "pid", pid)

		if err = removeStale(path, pid); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%s: %w", path, ErrLocked)
}

// Release removes the marker.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}

	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("release lock: %w", err)
	}

	return nil
}

// createMarker publishes contents at path; it fails with os.ErrExist when a marker is present.
func createMarker(path string, contents []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}

	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	_, err = tmp.Write(contents)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return err
	}

	return os.Link(tmp.Name(), path)
}

// removeStale moves the marker aside and deletes it only if it is still the
// stale one identified by stalePID. A marker published by a live process in
// the meantime is linked back and reported as ErrLocked.
func removeStale(path string, stalePID int) error {
	aside := path + ".stale-" + uuid.NewString()

	if err := os.Rename(path, aside); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("remove stale lock: %w", err)
	}

	defer func() {
		_ = os.Remove(aside)
	}()

	pid, executable, err := readMarker(aside)
	if err != nil || pid == stalePID || !ownerAlive(pid, executable) {
		return nil
	}

	if err = os.Link(aside, path); err != nil && !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("restore lock: %w", err)
	}

	return fmt.Errorf("%s (pid %d): %w", path, pid, ErrLocked)
}

func readMarker(path string) (int, string, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return 0, "", err
	}

	line := strings.TrimSpace(string(contents))
	if line == "" {
		return 0, "", fmt.Errorf("empty lock marker %s", path)
	}

	pidField, executable, _ := strings.Cut(line, " ")

	pid, err := strconv.Atoi(pidField)
	if err != nil {
		return 0, "", fmt.Errorf("lock marker pid: %w", err)
	}

	return pid, executable, nil
}

// ownerAlive checks the process table; a reused PID running another program does not count.
func ownerAlive(pid int, executable string) bool {
	process, err := ps.FindProcess(pid)
	if err != nil || process == nil {
		return false
	}

	return executable == "" || process.Executable() == executable
}

// currentExecutable returns the process name as the process table reports it.
func currentExecutable() string {
	process, err := ps.FindProcess(os.Getpid())
	if err != nil || process == nil {
		return ""
	}

	return process.Executable()
}
