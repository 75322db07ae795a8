package entities

import "time"

// RunConfig carries every knob of a validation run. All paths and limits
// are explicit; nothing is read from process-wide state.
type RunConfig struct {
	Label                  string
	AllowlistPath          string
	AllowlistSignature     string // optional detached signature over the allowlist file
	AllowlistSignerKey     string // armored public key used to verify the signature
	FailOnWorldWritable    bool
	AllowedSymlinkPrefixes []string // symlink targets under these prefixes never count as escapes
	DeniedSymlinkTargets   []string // symlink targets under these prefixes always count as escapes
	SkipDirs               []string // directory names excluded from identity checks
	ParallelResolvers      int
	ToolTimeout            time.Duration
	Verbose                bool
}

// DefaultRunConfig returns the configuration used when no file or flag
// overrides a value
func DefaultRunConfig() RunConfig {
	return RunConfig{
		FailOnWorldWritable:  true,
		DeniedSymlinkTargets: defaultDeniedSymlinkTargets(),
		SkipDirs:             []string{"_CodeSignature", "_MASReceipt"},
		ParallelResolvers:    4,
		ToolTimeout:          2 * time.Minute,
	}
}

// defaultDeniedSymlinkTargets seeds the sensitive-path deny-list. The set is
// configurable and not assumed exhaustive.
func defaultDeniedSymlinkTargets() []string {
	return []string{
		"/etc",
		"/private/etc",
		"/var",
		"/private/var",
		"/tmp",
		"/private/tmp",
	}
}
