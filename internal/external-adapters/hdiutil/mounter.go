// Package hdiutil wraps the macOS disk-image tool for scoped read-only
// mounts.
package hdiutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"howett.net/plist"

	"github.com/doorman/doorman/internal/external-adapters/toolexec"
)

const hdiutilTool = "hdiutil"

// ErrArchitectureMismatch marks an attach refused because the image was
// built for a different CPU architecture than the host. Callers surface it
// distinctly from generic mount failures.
var ErrArchitectureMismatch = errors.New("disk image architecture mismatch")

var archFailureMarkers = []string{
	"incompatible architecture",
	"not compatible with this architecture",
}

// Mounter attaches disk images read-only at private mountpoints
type Mounter struct {
	runner *toolexec.Runner
}

// NewMounter creates a mounter sharing the given runner
func NewMounter(runner *toolexec.Runner) *Mounter {
	return &Mounter{runner: runner}
}

// attachEntity is one entry of the system-entities array in hdiutil attach
// -plist output
type attachEntity struct {
	ContentHint string `plist:"content-hint"`
	DevEntry    string `plist:"dev-entry"`
	MountPoint  string `plist:"mount-point"`
	VolumeKind  string `plist:"volume-kind"`
}

type attachResult struct {
	SystemEntities []attachEntity `plist:"system-entities"`
}

// Mount attaches the image read-only, unbrowsable, at a fresh private
// mountpoint and returns the mounted volume root
func (m *Mounter) Mount(ctx context.Context, imagePath string) (string, error) {
	if _, err := os.Stat(imagePath); err != nil {
		return "", fmt.Errorf("disk image not found: %w", err)
	}

	mountDir, err := os.MkdirTemp("", "doorman_dmg_")
	if err != nil {
		return "", fmt.Errorf("failed to create mountpoint: %w", err)
	}

	res, err := m.runner.Run(ctx, hdiutilTool, "attach", imagePath,
		"-plist", "-readonly", "-nobrowse", "-mountpoint", mountDir)
	if err != nil {
		_ = os.Remove(mountDir)
		return "", fmt.Errorf("failed to attach %s: %w", imagePath, err)
	}
	if res.ExitCode != 0 {
		_ = os.Remove(mountDir)
		combined := res.Combined()
		for _, marker := range archFailureMarkers {
			if strings.Contains(combined, marker) {
				return "", fmt.Errorf("%w: %s", ErrArchitectureMismatch, strings.TrimSpace(res.Stderr))
			}
		}
		return "", fmt.Errorf("hdiutil attach exited %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}

	if mp := MountPointFromPlist([]byte(res.Stdout)); mp != "" {
		return mp, nil
	}
	return mountDir, nil
}

// Unmount force-detaches the volume and drops the private mountpoint
func (m *Mounter) Unmount(ctx context.Context, volumePath string) error {
	res, err := m.runner.Run(ctx, hdiutilTool, "detach", volumePath, "-force")
	if err != nil {
		return fmt.Errorf("failed to detach %s: %w", volumePath, err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("hdiutil detach exited %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	// mountpoint directories created by Mount are empty after detach
	_ = os.Remove(volumePath)
	return nil
}

// MountPointFromPlist extracts the first mounted volume path from hdiutil
// attach -plist output. Returns empty when no entity mounted a volume.
func MountPointFromPlist(data []byte) string {
	var result attachResult
	if _, err := plist.Unmarshal(data, &result); err != nil {
		return ""
	}
	for _, entity := range result.SystemEntities {
		if entity.MountPoint != "" {
			return entity.MountPoint
		}
	}
	return ""
}

// IsHdiutilInstalled checks if hdiutil is available in PATH
func IsHdiutilInstalled() bool {
	return toolexec.IsInstalled(hdiutilTool)
}
