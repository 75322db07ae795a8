package entities

// Notarization assessment outcomes.
const (
	NotarizationAccepted     = "accepted"
	NotarizationRejected     = "rejected"
	NotarizationNotEvaluated = "not-evaluated"
)

// ComponentVerdict represents the validation outcome for one component.
// A component that needs an identity and has none is always a failure,
// regardless of allowlist content.
type ComponentVerdict struct {
	Index            int         `json:"index"` // traversal order, stable across runs
	Path             string      `json:"path"`  // bundle-relative, "." for the artifact itself
	Kind             string      `json:"kind"`  // one of the EntryKind constants
	NeedsIdentity    bool        `json:"needsIdentity"`
	Identity         string      `json:"identity,omitempty"` // ten-character Team ID when resolved
	IdentityErr      string      `json:"identityError,omitempty"`
	Notarization     string      `json:"notarization"`
	MatchedAllowlist bool        `json:"matchedAllowlist"`
	Archs            []string    `json:"archs,omitempty"`
	Violations       []Violation `json:"violations,omitempty"`
	Passed           bool        `json:"passed"`
}

// FatalViolations returns the subset of violations marked fatal
func (v ComponentVerdict) FatalViolations() []Violation {
	var fatal []Violation
	for _, violation := range v.Violations {
		if violation.Fatal {
			fatal = append(fatal, violation)
		}
	}
	return fatal
}
