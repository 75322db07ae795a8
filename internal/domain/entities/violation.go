package entities

// Violation kinds reported by the filesystem security checker.
const (
	ViolationSymlinkEscape = "symlink-escape"
	ViolationSymlinkCycle  = "symlink-cycle"
	ViolationWorldWritable = "world-writable"
	ViolationSetUID        = "setuid"
	ViolationSetGID        = "setgid"
)

// Violation represents one filesystem security finding on a single node
type Violation struct {
	Kind   string `json:"kind"` // one of the Violation constants
	Path   string `json:"path"` // bundle-relative path of the offending node
	Detail string `json:"detail,omitempty"`
	Fatal  bool   `json:"fatal"` // assigned at fold time from run configuration
}
