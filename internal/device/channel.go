package device

import (
	"context"
	"os"
)

// Channel is the transport to one device.
type Channel interface {
	// GetProperty returns a system property value.
	GetProperty(ctx context.Context, key string) (string, error)
	// RemoveFile deletes a device file, through a privilege-escalation shell when escalate is set.
	RemoveFile(ctx context.Context, path string, escalate bool) error
	// PushFile copies a host file to the device.
	PushFile(ctx context.Context, localPath, devicePath string) error
	// Chmod changes the mode of a device file.
	Chmod(ctx context.Context, path string, mode os.FileMode) error
}
