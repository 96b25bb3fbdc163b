package device

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/magic-mount/releaser/internal/domain/release"

	// Ensure SHA256 is available for checksum verification.
	_ "crypto/sha256"
)

const (
	// pushedFileMode is the mode of a freshly pushed file, before Chmod.
	pushedFileMode os.FileMode = 0o644
	// dirMode is used for directories created under the root.
	dirMode os.FileMode = 0o755
	// checksumFunction verifies pushed content.
	checksumFunction = crypto.SHA256
)

// errRootMissing is returned when the directory standing in for the device does not exist.
var errRootMissing = errors.New("device root is not a directory")

// Dir is a Channel whose filesystem is a host directory.
// Pushed binaries are applied atomically and verified against their checksum.
type Dir struct {
	// Root is the host directory mapped to the device "/".
	Root string
	// Properties are reported by GetProperty; HostProperties when nil.
	Properties map[string]string
}

// HostProperties describes the host CPU as an Android device would.
func HostProperties() map[string]string {
	var primary, list string

	switch runtime.GOARCH {
	case "amd64":
		primary, list = release.X86_64.String(), "x86_64,x86"
	case "386":
		primary, list = release.X86.String(), "x86"
	case "arm64":
		primary, list = release.Arm64V8a.String(), "arm64-v8a,armeabi-v7a"
	case "arm":
		primary, list = release.ArmeabiV7a.String(), "armeabi-v7a"
	default:
		primary, list = runtime.GOARCH, runtime.GOARCH
	}

	return map[string]string{
		release.PropertyPrimaryABI: primary,
		release.PropertyABIList:    list,
	}
}

// GetProperty returns the configured property, or "" for unknown keys like getprop does.
func (d *Dir) GetProperty(_ context.Context, key string) (string, error) {
	if err := d.checkRoot(); err != nil {
		return "", err
	}

	properties := d.Properties
	if properties == nil {
		properties = HostProperties()
	}

	return properties[key], nil
}

// RemoveFile removes the file. Privileges do not apply to a host directory, so escalate is ignored.
func (d *Dir) RemoveFile(_ context.Context, devicePath string, _ bool) error {
	target, err := d.resolve(devicePath)
	if err != nil {
		return err
	}

	return os.Remove(target)
}

// PushFile replaces the device file with the local one through go-update.
func (d *Dir) PushFile(_ context.Context, localPath, devicePath string) error {
	target, err := d.resolve(devicePath)
	if err != nil {
		return err
	}

	checksum, err := fileChecksum(localPath)
	if err != nil {
		return err
	}

	if err = os.MkdirAll(filepath.Dir(target), dirMode); err != nil {
		return fmt.Errorf("create %s: %w", path.Dir(devicePath), err)
	}

	// go-update moves the current file aside first, so the target must exist.
	if _, err = os.Stat(target); errors.Is(err, os.ErrNotExist) {
		var placeholder *os.File

		if placeholder, err = os.OpenFile(target, os.O_CREATE|os.O_WRONLY, pushedFileMode); err != nil {
			return fmt.Errorf("create %s: %w", devicePath, err)
		}

		_ = placeholder.Close()
	}

	src, err := os.Open(filepath.Clean(localPath))
	if err != nil {
		return err
	}

	defer func() {
		_ = src.Close()
	}()

	options := goupdate.Options{
		TargetPath: target,
		TargetMode: pushedFileMode,
		Checksum:   checksum,
		Hash:       checksumFunction,
	}

	if err = goupdate.Apply(src, options); err != nil {
		return fmt.Errorf("apply %s: %w", devicePath, err)
	}

	return nil
}

// Chmod changes the file mode.
func (d *Dir) Chmod(_ context.Context, devicePath string, mode os.FileMode) error {
	target, err := d.resolve(devicePath)
	if err != nil {
		return err
	}

	return os.Chmod(target, mode)
}

// resolve maps an absolute device path under Root; ".." cannot escape it.
func (d *Dir) resolve(devicePath string) (string, error) {
	if err := d.checkRoot(); err != nil {
		return "", err
	}

	return filepath.Join(d.Root, filepath.FromSlash(path.Clean("/"+devicePath))), nil
}

func (d *Dir) checkRoot() error {
	info, err := os.Stat(d.Root)
	if err != nil {
		return fmt.Errorf("%s: %w", d.Root, errRootMissing)
	}

	if !info.IsDir() {
		return fmt.Errorf("%s: %w", d.Root, errRootMissing)
	}

	return nil
}

// fileChecksum hashes a local file with checksumFunction.
func fileChecksum(name string) ([]byte, error) {
	f, err := os.Open(filepath.Clean(name))
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = f.Close()
	}()

	hasher := checksumFunction.New()
	if _, err = io.Copy(hasher, f); err != nil {
		return nil, fmt.Errorf("checksum %s: %w", name, err)
	}

	return hasher.Sum(nil), nil
}
