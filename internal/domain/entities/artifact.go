// Package entities defines core domain models and data structures.
package entities

// Artifact kinds accepted for validation.
const (
	ArtifactKindPackage   = "pkg"
	ArtifactKindDiskImage = "dmg"
	ArtifactKindBundle    = "bundle"
)

// Artifact represents the installer artifact selected for a validation run
type Artifact struct {
	Path  string
	Kind  string // "pkg", "dmg", "bundle"
	Label string // optional run label, also used to disambiguate artifacts in a folder
}
