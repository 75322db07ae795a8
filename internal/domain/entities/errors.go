package entities

import "fmt"

// Setup failure kinds. A setup failure aborts the run before traversal
// begins; no partial report is produced.
const (
	SetupKindAllowlist    = "allowlist"
	SetupKindArtifact     = "artifact"
	SetupKindMount        = "mount"
	SetupKindArchitecture = "architecture-mismatch"
	SetupKindTool         = "tool-unavailable"
)

// SetupError represents a fatal pre-traversal failure
type SetupError struct {
	Kind string // one of the SetupKind constants
	Path string // offending path, when known
	Err  error
}

func (e *SetupError) Error() string {
	if e.Path != "" && e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Path)
}

func (e *SetupError) Unwrap() error { return e.Err }

// NewAllowlistError reports an allowlist that is missing, unreadable,
// tampered, or yields zero identities
func NewAllowlistError(path string, err error) *SetupError {
	return &SetupError{Kind: SetupKindAllowlist, Path: path, Err: err}
}

// NewArtifactError reports a target path that cannot be resolved to an
// artifact
func NewArtifactError(path string, err error) *SetupError {
	return &SetupError{Kind: SetupKindArtifact, Path: path, Err: err}
}

// NewMountError reports a disk image that could not be attached or detached
func NewMountError(path string, err error) *SetupError {
	return &SetupError{Kind: SetupKindMount, Path: path, Err: err}
}

// NewArchitectureError reports a mount refused because the image was built
// for a different CPU architecture than the host
func NewArchitectureError(path string, err error) *SetupError {
	return &SetupError{Kind: SetupKindArchitecture, Path: path, Err: err}
}

// NewToolError reports a required external tool missing from PATH
func NewToolError(tool string, err error) *SetupError {
	return &SetupError{Kind: SetupKindTool, Path: tool, Err: err}
}

// ResolutionError represents a per-component identity lookup failure.
// It is recorded in the failing component's verdict and never aborts
// traversal.
type ResolutionError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolve identity of %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("resolve identity of %s: %s", e.Path, e.Reason)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
