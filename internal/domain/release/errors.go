package release

import "errors"

var (
	// ErrVersionUnavailable means revision metadata could not be derived; it aborts the run.
	ErrVersionUnavailable = errors.New("version unavailable")
	// ErrBuildFailed means the native toolchain did not complete for a variant.
	ErrBuildFailed = errors.New("native build failed")
	// ErrPackagingFailed means a variant's archive could not be produced.
	ErrPackagingFailed = errors.New("packaging failed")
	// ErrDeviceUnreachable means device discovery failed before any transfer.
	ErrDeviceUnreachable = errors.New("device unreachable")
	// ErrCleanupFailed is recorded, never returned, when no removal strategy succeeded.
	ErrCleanupFailed = errors.New("cleanup failed")
	// ErrUnsupportedArchitecture marks an ABI outside the allow-list.
	ErrUnsupportedArchitecture = errors.New("unsupported architecture")
	// ErrTransferFailed marks a failed push or chmod of one architecture's binary.
	ErrTransferFailed = errors.New("transfer failed")
	// ErrPrimaryTransferFailed is returned with the report when the primary ABI must succeed and did not.
	ErrPrimaryTransferFailed = errors.New("primary architecture transfer failed")
)
