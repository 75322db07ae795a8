package gateways

import (
	"context"

	"github.com/doorman/doorman/internal/domain/entities"
)

// ArtifactLocator resolves a caller-supplied path (file or folder) to the
// concrete artifact to validate
type ArtifactLocator interface {
	// Locate resolves target to an artifact. For folders, an entry whose name
	// contains label is preferred over the first match.
	Locate(target, label string) (*entities.Artifact, error)
}

// ArtifactDigester fingerprints artifact files for the audit trail
type ArtifactDigester interface {
	// SHA256 returns the hex-encoded SHA-256 digest of the file at path
	SHA256(ctx context.Context, path string) (string, error)
}

// BundleInfoReader reads bundle metadata from an application's Info.plist
type BundleInfoReader interface {
	// ReadBundleInfo returns metadata for the bundle rooted at bundlePath
	ReadBundleInfo(bundlePath string) (*entities.BundleInfo, error)
}
