package entities

import "io/fs"

// Entry kinds assigned by the classifier.
const (
	EntryKindDirectory  = "directory"
	EntryKindBundleRoot = "bundle-root"
	EntryKindNative     = "native-executable"
	EntryKindSymlink    = "symlink"
	EntryKindResource   = "resource"
	EntryKindPackage    = "package" // top-level flat package, never produced by traversal
)

// ScanNode represents a single filesystem entry observed during traversal
type ScanNode struct {
	RelPath string // relative to the bundle root, "/"-separated
	AbsPath string
	Kind    string // one of the EntryKind constants
	Size    int64
	Mode    fs.FileMode // lstat mode, symlinks are never followed
	Archs   []string    // CPU architectures for native executables ("arm64", "x86_64", ...)
}

// IsWorldWritable reports whether the node's mode grants write to others
func (n ScanNode) IsWorldWritable() bool {
	return n.Mode.Perm()&0o002 != 0
}

// HasSetUID reports whether the setuid bit is set
func (n ScanNode) HasSetUID() bool {
	return n.Mode&fs.ModeSetuid != 0
}

// HasSetGID reports whether the setgid bit is set
func (n ScanNode) HasSetGID() bool {
	return n.Mode&fs.ModeSetgid != 0
}
