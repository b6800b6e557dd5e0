// Package trash provides cross-platform file removal. Files can be moved
// to the system trash where available, falling back to permanent deletion
// when no trash support is detected.
package trash

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

// commandTimeout is the maximum time to wait for trash commands.
const commandTimeout = 30 * time.Second

// Remove deletes a file. With useTrash it is moved to the system trash
// when possible; otherwise (or when no trash tool is available) it is
// removed permanently.
func Remove(path string, useTrash bool) error {
	if useTrash {
		return MoveToTrash(path)
	}
	return permanentDelete(path)
}

// MoveToTrash moves a file or directory to the system trash.
// On macOS: uses AppleScript to move to Trash.
// On Linux: uses gio trash or trash-cli.
// Falls back to permanent delete if no trash is available.
func MoveToTrash(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot trash %q: %w", path, err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("cannot resolve absolute path for %q: %w", path, err)
	}

	switch runtime.GOOS {
	case "darwin":
		return moveToTrashMacOS(absPath)
	case "linux":
		return moveToTrashLinux(absPath)
	default:
		return permanentDelete(absPath)
	}
}

// moveToTrashMacOS moves a file to Trash on macOS using AppleScript, which
// integrates with Finder's "Put Back".
func moveToTrashMacOS(path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	script := fmt.Sprintf(`tell application "Finder" to delete POSIX file %q`, path)
	cmd := exec.CommandContext(ctx, "osascript", "-e", script)
	if err := cmd.Run(); err != nil {
		return permanentDelete(path)
	}
	return nil
}

// moveToTrashLinux moves a file to trash on Linux using available tools.
func moveToTrashLinux(path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	// Try gio first (GNOME/GTK desktop environments).
	if gioPath, err := exec.LookPath("gio"); err == nil {
		cmd := exec.CommandContext(ctx, gioPath, "trash", path)
		if err := cmd.Run(); err == nil {
			return nil
		}
	}

	// Try trash-cli (cross-desktop, XDG compliant).
	if trashPath, err := exec.LookPath("trash-put"); err == nil {
		cmd := exec.CommandContext(ctx, trashPath, path)
		if err := cmd.Run(); err == nil {
			return nil
		}
	}

	return permanentDelete(path)
}

// permanentDelete removes a file or directory for good.
func permanentDelete(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to delete %q: %w", path, err)
	}
	return nil
}
