package entities

import "time"

// ScanStats summarizes traversal effort for one run
type ScanStats struct {
	NodesVisited    int           `json:"nodesVisited"`
	NativeBinaries  int           `json:"nativeBinaries"`
	NestedBundles   int           `json:"nestedBundles"`
	SymlinksChecked int           `json:"symlinksChecked"`
	Duration        time.Duration `json:"duration"`
}

// ValidationReport is the aggregate result of one validation run.
// Constructed fresh per run and never mutated after being returned.
type ValidationReport struct {
	RunID                string             `json:"runId"`
	Label                string             `json:"label,omitempty"`
	ArtifactPath         string             `json:"artifactPath"`
	ArtifactKind         string             `json:"artifactKind"`
	ArtifactSHA256       string             `json:"artifactSha256,omitempty"`
	ArtifactNotarization string             `json:"artifactNotarization"` // one of the Notarization constants
	Bundle               *BundleInfo        `json:"bundle,omitempty"`
	Pass                 bool               `json:"pass"`
	Verdicts             []ComponentVerdict `json:"verdicts"` // failures first, then traversal order
	Stats                ScanStats          `json:"stats"`
	GeneratedAt          time.Time          `json:"generatedAt"`
}

// FailedVerdicts returns every verdict that did not pass, in report order
func (r *ValidationReport) FailedVerdicts() []ComponentVerdict {
	var failed []ComponentVerdict
	for _, v := range r.Verdicts {
		if !v.Passed {
			failed = append(failed, v)
		}
	}
	return failed
}
