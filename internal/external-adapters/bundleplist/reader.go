// Package bundleplist reads bundle metadata out of Info.plist files.
package bundleplist

import (
	"fmt"
	"os"
	"path/filepath"

	"howett.net/plist"

	"github.com/doorman/doorman/internal/domain/entities"
)

// candidate Info.plist locations relative to a bundle root, in probe order
var infoPlistLocations = []string{
	filepath.Join("Contents", "Info.plist"),
	"Info.plist",
	filepath.Join("Resources", "Info.plist"),
}

// infoPlist maps the bundle keys doorman reports on
type infoPlist struct {
	BundleID    string `plist:"CFBundleIdentifier"`
	Name        string `plist:"CFBundleName"`
	DisplayName string `plist:"CFBundleDisplayName"`
	Version     string `plist:"CFBundleShortVersionString"`
	BuildNumber string `plist:"CFBundleVersion"`
	Executable  string `plist:"CFBundleExecutable"`
	MinimumOS   string `plist:"LSMinimumSystemVersion"`
}

// Reader extracts bundle identity metadata from Info.plist
type Reader struct{}

// NewReader creates an Info.plist reader
func NewReader() *Reader {
	return &Reader{}
}

// ReadBundleInfo locates and parses the bundle's Info.plist
func (r *Reader) ReadBundleInfo(bundlePath string) (*entities.BundleInfo, error) {
	for _, location := range infoPlistLocations {
		plistPath := filepath.Join(bundlePath, location)
		if _, err := os.Stat(plistPath); err != nil {
			continue
		}
		return ParseBundleInfo(plistPath)
	}
	return nil, fmt.Errorf("no Info.plist found under %s", bundlePath)
}

// ParseBundleInfo reads bundle metadata from a single plist file
func ParseBundleInfo(plistPath string) (*entities.BundleInfo, error) {
	data, err := os.ReadFile(plistPath) //nolint:gosec // G304: Path is constructed from validated bundle root
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", plistPath, err)
	}

	var info infoPlist
	if _, err := plist.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", plistPath, err)
	}

	name := info.Name
	if name == "" {
		name = info.DisplayName
	}
	version := info.Version
	if version == "" {
		version = info.BuildNumber
	}

	return &entities.BundleInfo{
		BundleID:   info.BundleID,
		Name:       name,
		Version:    version,
		Executable: info.Executable,
		MinimumOS:  info.MinimumOS,
	}, nil
}
