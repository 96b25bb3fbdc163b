package device

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ADB talks to a device through the adb command line tool.
type ADB struct {
	// Path is the adb executable.
	Path string
	// Serial selects the device when several are attached.
	Serial string
	// Run executes adb; CombinedOutputRunner when nil.
	Run Runner
}

// CombinedOutputRunner runs a command with os/exec.
func CombinedOutputRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return out, err
		}

		return out, fmt.Errorf("%w: %s", err, msg)
	}

	return out, nil
}

// errShellFailed is returned when "adb shell" exits zero but reports an error marker.
var errShellFailed = errors.New("shell command failed")

// GetProperty runs "adb shell getprop <key>".
func (a *ADB) GetProperty(ctx context.Context, key string) (string, error) {
	out, err := a.adb(ctx, "shell", "getprop", key)
	if err != nil {
		return "", fmt.Errorf("getprop %s: %w", key, err)
	}

	return strings.TrimSpace(string(out)), nil
}

// RemoveFile runs "rm" in the device shell, wrapped in "su -c" when escalate is set.
// The exit status is checked through an echoed marker because old adb
// versions do not propagate the remote status.
func (a *ADB) RemoveFile(ctx context.Context, path string, escalate bool) error {
	command := "rm " + shellQuote(path)
	if escalate {
		command = "su -c " + shellQuote(command)
	}

	return a.shell(ctx, command)
}

// PushFile runs "adb push <local> <device>".
func (a *ADB) PushFile(ctx context.Context, localPath, devicePath string) error {
	if _, err := a.adb(ctx, "push", localPath, devicePath); err != nil {
		return fmt.Errorf("push %s: %w", localPath, err)
	}

	return nil
}

// Chmod runs "chmod <octal mode> <path>" in the device shell.
func (a *ADB) Chmod(ctx context.Context, path string, mode os.FileMode) error {
	return a.shell(ctx, fmt.Sprintf("chmod %o %s", mode.Perm(), shellQuote(path)))
}

// shellMarker is echoed after a shell command to detect its status.
const shellMarker = "__mm_status="

func (a *ADB) shell(ctx context.Context, command string) error {
	out, err := a.adb(ctx, "shell", command+"; echo "+shellMarker+"$?")
	if err != nil {
		return fmt.Errorf("%s: %w", command, err)
	}

	text := strings.TrimSpace(string(out))

	idx := strings.LastIndex(text, shellMarker)
	if idx < 0 {
		return nil
	}

	status := strings.TrimSpace(text[idx+len(shellMarker):])
	if status == "0" {
		return nil
	}

	detail := strings.TrimSpace(text[:idx])
	if detail == "" {
		return fmt.Errorf("%s: exit status %s: %w", command, status, errShellFailed)
	}

	return fmt.Errorf("%s: exit status %s: %s: %w", command, status, detail, errShellFailed)
}

func (a *ADB) adb(ctx context.Context, args ...string) ([]byte, error) {
	run := a.Run
	if run == nil {
		run = CombinedOutputRunner
	}

	binary := a.Path
	if binary == "" {
		binary = "adb"
	}

	if a.Serial != "" {
		args = append([]string{"-s", a.Serial}, args...)
	}

	return run(ctx, binary, args...)
}

// shellQuote quotes s for the device's POSIX shell.
func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, needsQuoting) < 0 {
		return s
	}

	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func needsQuoting(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	case strings.ContainsRune("/._-+=:,@%", r):
		return false
	default:
		return true
	}
}
