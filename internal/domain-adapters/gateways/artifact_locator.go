package gateways

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/doorman/doorman/internal/domain/entities"
)

// artifactLocator resolves caller-supplied targets to concrete artifacts
// using pure Go
type artifactLocator struct{}

// NewArtifactLocator creates a new artifact locator
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewArtifactLocator() *artifactLocator {
	return &artifactLocator{}
}

// Locate resolves target to an artifact. A target that is itself an
// installer artifact resolves directly; a plain folder is scanned for one,
// preferring entries whose name contains label.
func (l *artifactLocator) Locate(target, label string) (*entities.Artifact, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, entities.NewArtifactError(target, err)
	}

	if kind, ok := artifactKind(target, info.IsDir()); ok {
		return newArtifact(target, kind, label), nil
	}

	if !info.IsDir() {
		return nil, entities.NewArtifactError(target, fmt.Errorf("not a recognized installer artifact"))
	}

	return l.scanFolder(target, label)
}

// scanFolder picks one artifact out of a folder's immediate entries
func (l *artifactLocator) scanFolder(dir, label string) (*entities.Artifact, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, entities.NewArtifactError(dir, fmt.Errorf("failed to read folder: %w", err))
	}

	type candidate struct {
		path string
		kind string
	}

	// ReadDir sorts by name, which keeps folder resolution deterministic
	candidates := make([]candidate, 0)
	for _, entry := range dirEntries {
		path := filepath.Join(dir, entry.Name())
		if kind, ok := artifactKind(path, entry.IsDir()); ok {
			candidates = append(candidates, candidate{path: path, kind: kind})
		}
	}

	if len(candidates) == 0 {
		return nil, entities.NewArtifactError(dir, fmt.Errorf("no installer artifacts found"))
	}

	if label != "" {
		needle := strings.ToLower(label)
		for _, c := range candidates {
			if strings.Contains(strings.ToLower(filepath.Base(c.path)), needle) {
				return newArtifact(c.path, c.kind, label), nil
			}
		}
	}

	first := candidates[0]
	return newArtifact(first.path, first.kind, label), nil
}

// artifactKind maps a path to its artifact kind. Packages and disk images
// are files; application bundles are directories.
func artifactKind(path string, isDir bool) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case !isDir && ext == ".pkg":
		return entities.ArtifactKindPackage, true
	case !isDir && ext == ".dmg":
		return entities.ArtifactKindDiskImage, true
	case isDir && ext == ".app":
		return entities.ArtifactKindBundle, true
	}
	return "", false
}

// newArtifact fills the label from the file name when the caller gave none
func newArtifact(path, kind, label string) *entities.Artifact {
	if label == "" {
		base := filepath.Base(path)
		label = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return &entities.Artifact{Path: path, Kind: kind, Label: label}
}
