// Package gateways provides implementations of domain gateway interfaces.
package gateways

import (
	"context"
	"fmt"

	"github.com/doorman/doorman/internal/domain/entities"
	"github.com/doorman/doorman/internal/domain/interfaces"
	"github.com/doorman/doorman/internal/external-adapters/codesign"
	"github.com/doorman/doorman/internal/external-adapters/toolexec"
)

// CodesignGateway implements the IdentityResolver interface over the
// platform signature tools. Cryptographic verification stays in the tools;
// the gateway only normalizes their output.
type CodesignGateway struct {
	logger   interfaces.Logger
	assessor *codesign.Assessor
}

// NewCodesignGateway creates a new codesign gateway
func NewCodesignGateway(logger interfaces.Logger, runner *toolexec.Runner) *CodesignGateway {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}

	return &CodesignGateway{
		logger:   logger,
		assessor: codesign.NewAssessor(runner),
	}
}

// Preflight reports whether the tools needed for the artifact kind are
// available
func (g *CodesignGateway) Preflight(artifactKind string) error {
	if !codesign.IsSpctlInstalled() {
		return entities.NewToolError("spctl", fmt.Errorf("not found in PATH"))
	}
	if !codesign.IsCodesignInstalled() {
		return entities.NewToolError("codesign", fmt.Errorf("not found in PATH"))
	}
	if artifactKind == entities.ArtifactKindPackage && !codesign.IsPkgutilInstalled() {
		return entities.NewToolError("pkgutil", fmt.Errorf("not found in PATH"))
	}
	return nil
}

// ResolveIdentity returns the signing Team ID of a bundle or native binary
func (g *CodesignGateway) ResolveIdentity(ctx context.Context, path string) (string, error) {
	g.logger.Debug("resolving signing identity",
		interfaces.F("path", path),
	)

	teamID, err := g.assessor.TeamIdentifier(ctx, path)
	if err != nil {
		return "", &entities.ResolutionError{Path: path, Reason: "no team identifier", Err: err}
	}
	return teamID, nil
}

// ResolvePackageIdentity returns the signing Team ID of a flat installer
// package
func (g *CodesignGateway) ResolvePackageIdentity(ctx context.Context, pkgPath string) (string, error) {
	g.logger.Debug("resolving installer identity",
		interfaces.F("path", pkgPath),
	)

	teamID, err := g.assessor.InstallerIdentity(ctx, pkgPath)
	if err != nil {
		return "", &entities.ResolutionError{Path: pkgPath, Reason: "no installer identity", Err: err}
	}
	return teamID, nil
}

// AssessNotarization runs the Gatekeeper assessment appropriate for the
// artifact kind
func (g *CodesignGateway) AssessNotarization(ctx context.Context, path, artifactKind string) (bool, error) {
	assessType := codesign.AssessTypeExecute
	if artifactKind == entities.ArtifactKindPackage {
		assessType = codesign.AssessTypeInstall
	}

	g.logger.Info("assessing notarization",
		interfaces.F("path", path),
		interfaces.F("type", assessType),
	)

	accepted, err := g.assessor.Assess(ctx, path, assessType)
	if err != nil {
		return false, fmt.Errorf("notarization assessment failed: %w", err)
	}

	g.logger.Debug("assessment finished",
		interfaces.F("path", path),
		interfaces.F("accepted", accepted),
	)
	return accepted, nil
}
