package services

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/doorman/doorman/internal/domain/entities"
)

// Aggregator accumulates per-component outcomes into a running
// ValidationReport and derives the overall verdict. Overall pass requires
// the artifact itself notarized, every identity-requiring component matched
// against the allowlist, and no fatal violation anywhere.
type Aggregator struct {
	cfg    entities.RunConfig
	store  *allowlistStore
	report *entities.ValidationReport
}

// NewAggregator creates an aggregator for one run. A nil store switches the
// aggregator to inspection mode: identity requirements are recorded but not
// enforced, and only security violations can fail a component.
func NewAggregator(store *allowlistStore, cfg entities.RunConfig) *Aggregator {
	return &Aggregator{
		cfg:   cfg,
		store: store,
		report: &entities.ValidationReport{
			RunID:                uuid.NewString(),
			Label:                cfg.Label,
			ArtifactNotarization: entities.NotarizationNotEvaluated,
			Pass:                 true,
		},
	}
}

// FoldArtifact records the top-level artifact outcome. A rejected
// notarization fails the report; not-evaluated leaves it untouched.
func (a *Aggregator) FoldArtifact(artifact *entities.Artifact, notarization, sha256 string) {
	a.report.ArtifactPath = artifact.Path
	a.report.ArtifactKind = artifact.Kind
	a.report.ArtifactSHA256 = sha256
	a.report.ArtifactNotarization = notarization
	if notarization == entities.NotarizationRejected {
		a.report.Pass = false
	}
}

// FoldBundleInfo attaches bundle metadata to the report
func (a *Aggregator) FoldBundleInfo(info *entities.BundleInfo) {
	a.report.Bundle = info
}

// FoldStats records traversal statistics
func (a *Aggregator) FoldStats(stats entities.ScanStats) {
	a.report.Stats = stats
}

// Fold finalizes one component verdict and appends it to the report:
// violation severity is assigned from configuration, the identity is matched
// against the allowlist, and the per-component pass flag is derived.
func (a *Aggregator) Fold(v entities.ComponentVerdict) {
	for i := range v.Violations {
		v.Violations[i].Fatal = a.isFatal(v.Violations[i].Kind)
	}
	if a.store != nil && v.NeedsIdentity && v.Identity != "" {
		v.MatchedAllowlist = a.store.Contains(v.Identity)
	}
	v.Passed = a.componentPassed(v)
	if !v.Passed {
		a.report.Pass = false
	}
	a.report.Verdicts = append(a.report.Verdicts, v)
}

// Finalize orders the verdicts for presentation and returns the report.
// Failing components surface first; within each group traversal order is
// preserved.
func (a *Aggregator) Finalize() *entities.ValidationReport {
	sort.SliceStable(a.report.Verdicts, func(i, j int) bool {
		vi, vj := a.report.Verdicts[i], a.report.Verdicts[j]
		if vi.Passed != vj.Passed {
			return !vi.Passed
		}
		return vi.Index < vj.Index
	})
	a.report.GeneratedAt = time.Now().UTC()
	return a.report
}

// isFatal maps a violation kind to its severity. Setuid, setgid and both
// symlink kinds are always fatal; world-writable follows configuration.
func (a *Aggregator) isFatal(kind string) bool {
	switch kind {
	case entities.ViolationWorldWritable:
		return a.cfg.FailOnWorldWritable
	default:
		return true
	}
}

func (a *Aggregator) componentPassed(v entities.ComponentVerdict) bool {
	if a.store != nil && v.NeedsIdentity && (v.Identity == "" || !v.MatchedAllowlist) {
		return false
	}
	if v.Notarization == entities.NotarizationRejected {
		return false
	}
	for _, violation := range v.Violations {
		if violation.Fatal {
			return false
		}
	}
	return true
}
