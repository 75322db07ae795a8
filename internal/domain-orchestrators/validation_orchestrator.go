// Package orchestrators coordinates domain services and gateways into
// complete use cases.
package orchestrators

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/doorman/doorman/internal/domain/entities"
	"github.com/doorman/doorman/internal/domain/interfaces"
	"github.com/doorman/doorman/internal/domain/interfaces/gateways"
	"github.com/doorman/doorman/internal/domain/interfaces/repositories"
	"github.com/doorman/doorman/internal/domain/services"
)

// ValidationOrchestrator coordinates the complete trust validation workflow
// Following Clean Architecture: orchestrators coordinate services for complex use cases
type ValidationOrchestrator struct {
	logger     interfaces.Logger
	locator    gateways.ArtifactLocator
	digester   gateways.ArtifactDigester
	resolver   gateways.IdentityResolver
	mounter    gateways.ImageMounter
	infoReader gateways.BundleInfoReader
	allowlists repositories.AllowlistRepository
}

// NewValidationOrchestrator creates a new validation orchestrator
func NewValidationOrchestrator(
	logger interfaces.Logger,
	locator gateways.ArtifactLocator,
	digester gateways.ArtifactDigester,
	resolver gateways.IdentityResolver,
	mounter gateways.ImageMounter,
	infoReader gateways.BundleInfoReader,
	allowlists repositories.AllowlistRepository,
) *ValidationOrchestrator {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}

	return &ValidationOrchestrator{
		logger:     logger,
		locator:    locator,
		digester:   digester,
		resolver:   resolver,
		mounter:    mounter,
		infoReader: infoReader,
		allowlists: allowlists,
	}
}

// Validate runs the full trust validation for the artifact at target:
// notarization assessment, identity cross-check against the allowlist, and
// the filesystem security scan
func (o *ValidationOrchestrator) Validate(ctx context.Context, target string, cfg entities.RunConfig) (*entities.ValidationReport, error) {
	artifact, err := o.locator.Locate(target, cfg.Label)
	if err != nil {
		return nil, err
	}
	if cfg.Label == "" {
		cfg.Label = artifact.Label
	}

	o.logger.Info("validating artifact",
		interfaces.F("path", artifact.Path),
		interfaces.F("kind", artifact.Kind),
		interfaces.F("label", cfg.Label),
	)

	if cfg.AllowlistPath == "" {
		return nil, entities.NewAllowlistError("", fmt.Errorf("no allowlist configured"))
	}
	entries, err := o.allowlists.Load(ctx, cfg.AllowlistPath)
	if err != nil {
		return nil, err
	}
	store := services.NewAllowlistStore(entries)
	o.logger.Debug("allowlist loaded",
		interfaces.F("path", cfg.AllowlistPath),
		interfaces.F("identities", store.Len()),
	)

	if err := o.resolver.Preflight(artifact.Kind); err != nil {
		return nil, err
	}

	agg := services.NewAggregator(store, cfg)

	switch artifact.Kind {
	case entities.ArtifactKindPackage:
		err = o.validatePackage(ctx, artifact.Path, artifact, agg)
	case entities.ArtifactKindDiskImage:
		err = o.validateDiskImage(ctx, artifact, cfg, agg)
	case entities.ArtifactKindBundle:
		err = o.validateBundle(ctx, artifact.Path, artifact, cfg, agg)
	default:
		err = entities.NewArtifactError(artifact.Path, fmt.Errorf("unsupported artifact kind %q", artifact.Kind))
	}
	if err != nil {
		return nil, err
	}

	report := agg.Finalize()
	o.logger.Info("validation finished",
		interfaces.F("pass", report.Pass),
		interfaces.F("components", len(report.Verdicts)),
		interfaces.F("duration", report.Stats.Duration.String()),
	)
	return report, nil
}

// Inspect runs classification and the filesystem security scan only. No
// signature tool is invoked; identity requirements are recorded but not
// enforced.
func (o *ValidationOrchestrator) Inspect(ctx context.Context, target string, cfg entities.RunConfig) (*entities.ValidationReport, error) {
	artifact, err := o.locator.Locate(target, cfg.Label)
	if err != nil {
		return nil, err
	}
	if cfg.Label == "" {
		cfg.Label = artifact.Label
	}

	o.logger.Info("inspecting artifact",
		interfaces.F("path", artifact.Path),
		interfaces.F("kind", artifact.Kind),
	)

	agg := services.NewAggregator(nil, cfg)
	agg.FoldArtifact(artifact, entities.NotarizationNotEvaluated, o.fingerprint(ctx, artifact.Path))

	switch artifact.Kind {
	case entities.ArtifactKindPackage:
		start := time.Now()
		agg.Fold(packageVerdict(artifact.Path, entities.NotarizationNotEvaluated))
		agg.FoldStats(entities.ScanStats{NodesVisited: 1, Duration: time.Since(start)})
	case entities.ArtifactKindDiskImage:
		if err := o.inspectDiskImage(ctx, artifact, cfg, agg); err != nil {
			return nil, err
		}
	case entities.ArtifactKindBundle:
		if err := o.walkBundle(ctx, artifact.Path, cfg, agg, false); err != nil {
			return nil, err
		}
	default:
		return nil, entities.NewArtifactError(artifact.Path, fmt.Errorf("unsupported artifact kind %q", artifact.Kind))
	}

	return agg.Finalize(), nil
}

// validatePackage assesses and identity-checks a flat installer package.
// pkgPath is the package file to examine; artifact names the distributed
// file the report is about, which differs when the package came out of a
// disk image.
func (o *ValidationOrchestrator) validatePackage(ctx context.Context, pkgPath string, artifact *entities.Artifact, agg *services.Aggregator) error {
	start := time.Now()

	accepted, err := o.resolver.AssessNotarization(ctx, pkgPath, entities.ArtifactKindPackage)
	if err != nil {
		return fmt.Errorf("failed to assess %s: %w", pkgPath, err)
	}
	status := notarizationStatus(accepted)
	agg.FoldArtifact(artifact, status, o.fingerprint(ctx, artifact.Path))

	verdict := packageVerdict(pkgPath, status)
	identity, err := o.resolver.ResolvePackageIdentity(ctx, pkgPath)
	if err != nil {
		verdict.IdentityErr = err.Error()
		o.logger.Warn("installer identity unresolved",
			interfaces.F("path", pkgPath),
			interfaces.F("error", err.Error()),
		)
	} else {
		verdict.Identity = identity
	}
	agg.Fold(verdict)

	agg.FoldStats(entities.ScanStats{NodesVisited: 1, Duration: time.Since(start)})
	return nil
}

// validateBundle assesses a bundle and scans its tree. bundlePath is the
// bundle to examine; artifact names the distributed file the report is
// about.
func (o *ValidationOrchestrator) validateBundle(ctx context.Context, bundlePath string, artifact *entities.Artifact, cfg entities.RunConfig, agg *services.Aggregator) error {
	accepted, err := o.resolver.AssessNotarization(ctx, bundlePath, entities.ArtifactKindBundle)
	if err != nil {
		return fmt.Errorf("failed to assess %s: %w", bundlePath, err)
	}
	agg.FoldArtifact(artifact, notarizationStatus(accepted), o.fingerprint(ctx, artifact.Path))

	return o.walkBundle(ctx, bundlePath, cfg, agg, true)
}

// validateDiskImage mounts the image and validates whatever installer it
// carries. The mount is released on every exit path.
func (o *ValidationOrchestrator) validateDiskImage(ctx context.Context, artifact *entities.Artifact, cfg entities.RunConfig, agg *services.Aggregator) error {
	volume, err := o.mounter.Mount(ctx, artifact.Path)
	if err != nil {
		return err
	}
	defer o.detach(ctx, volume)

	inner, err := o.locator.Locate(volume, cfg.Label)
	if err != nil {
		return err
	}
	if err := o.resolver.Preflight(inner.Kind); err != nil {
		return err
	}

	switch inner.Kind {
	case entities.ArtifactKindBundle:
		return o.validateBundle(ctx, inner.Path, artifact, cfg, agg)
	case entities.ArtifactKindPackage:
		return o.validatePackage(ctx, inner.Path, artifact, agg)
	default:
		return entities.NewArtifactError(inner.Path, fmt.Errorf("nested disk images are not supported"))
	}
}

// inspectDiskImage mounts the image and scans its contents without touching
// the signature tools
func (o *ValidationOrchestrator) inspectDiskImage(ctx context.Context, artifact *entities.Artifact, cfg entities.RunConfig, agg *services.Aggregator) error {
	volume, err := o.mounter.Mount(ctx, artifact.Path)
	if err != nil {
		return err
	}
	defer o.detach(ctx, volume)

	inner, err := o.locator.Locate(volume, cfg.Label)
	if err != nil {
		return err
	}

	switch inner.Kind {
	case entities.ArtifactKindBundle:
		return o.walkBundle(ctx, inner.Path, cfg, agg, false)
	case entities.ArtifactKindPackage:
		agg.Fold(packageVerdict(inner.Path, entities.NotarizationNotEvaluated))
		agg.FoldStats(entities.ScanStats{NodesVisited: 1})
		return nil
	default:
		return entities.NewArtifactError(inner.Path, fmt.Errorf("nested disk images are not supported"))
	}
}

// walkBundle reads bundle metadata, walks the tree, optionally resolves
// component identities, and folds everything in traversal order
func (o *ValidationOrchestrator) walkBundle(ctx context.Context, bundlePath string, cfg entities.RunConfig, agg *services.Aggregator, resolve bool) error {
	if info, err := o.infoReader.ReadBundleInfo(bundlePath); err != nil {
		o.logger.Warn("bundle metadata unavailable",
			interfaces.F("bundle", bundlePath),
			interfaces.F("error", err.Error()),
		)
	} else {
		agg.FoldBundleInfo(info)
	}

	walker := services.NewWalker(services.NewClassifier(), cfg, o.logger)
	result, err := walker.Walk(bundlePath)
	if err != nil {
		return entities.NewArtifactError(bundlePath, err)
	}

	if resolve {
		o.resolveIdentities(ctx, bundlePath, result.Verdicts, cfg.ParallelResolvers)
	}

	for _, v := range result.Verdicts {
		agg.Fold(v)
	}
	agg.FoldStats(result.Stats)
	return nil
}

// resolveIdentities fills the signing identity of every identity-requiring
// verdict, a bounded number of lookups at a time. Each worker writes only
// its own element, so traversal order is untouched.
func (o *ValidationOrchestrator) resolveIdentities(ctx context.Context, root string, verdicts []entities.ComponentVerdict, parallel int) {
	if parallel < 1 {
		parallel = 1
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, parallel)
	for i := range verdicts {
		if !verdicts[i].NeedsIdentity {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(v *entities.ComponentVerdict) {
			defer wg.Done()
			defer func() { <-sem }()

			identity, err := o.resolver.ResolveIdentity(ctx, filepath.Join(root, v.Path))
			if err != nil {
				v.IdentityErr = err.Error()
				return
			}
			v.Identity = identity
		}(&verdicts[i])
	}
	wg.Wait()
}

// detach releases a mounted volume; a failed detach is reported but never
// overrides the run's outcome
func (o *ValidationOrchestrator) detach(ctx context.Context, volume string) {
	if err := o.mounter.Unmount(ctx, volume); err != nil {
		o.logger.Warn("failed to detach volume",
			interfaces.F("volume", volume),
			interfaces.F("error", err.Error()),
		)
	}
}

// fingerprint digests the artifact for the audit trail; failure downgrades
// to a warning because the digest never affects the verdict
func (o *ValidationOrchestrator) fingerprint(ctx context.Context, path string) string {
	digest, err := o.digester.SHA256(ctx, path)
	if err != nil {
		o.logger.Warn("failed to fingerprint artifact",
			interfaces.F("path", path),
			interfaces.F("error", err.Error()),
		)
		return ""
	}
	return digest
}

// packageVerdict is the single identity-requiring component of a flat
// installer package
func packageVerdict(pkgPath, notarization string) entities.ComponentVerdict {
	return entities.ComponentVerdict{
		Path:          filepath.Base(pkgPath),
		Kind:          entities.EntryKindPackage,
		NeedsIdentity: true,
		Notarization:  notarization,
	}
}

// notarizationStatus maps an assessment outcome to its report value
func notarizationStatus(accepted bool) string {
	if accepted {
		return entities.NotarizationAccepted
	}
	return entities.NotarizationRejected
}
