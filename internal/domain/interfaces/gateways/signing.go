// Package gateways defines interfaces for external service adapters.
package gateways

import "context"

// IdentityResolver wraps the platform signature-verification tools and
// normalizes their output to a single identity token. Implementations never
// re-implement cryptographic verification.
type IdentityResolver interface {
	// Preflight reports whether the tools needed to validate an artifact of
	// the given kind are available
	Preflight(artifactKind string) error

	// ResolveIdentity returns the signing Team ID of a bundle or native binary
	ResolveIdentity(ctx context.Context, path string) (string, error)

	// ResolvePackageIdentity returns the signing Team ID of a flat installer package
	ResolvePackageIdentity(ctx context.Context, pkgPath string) (string, error)

	// AssessNotarization runs the Gatekeeper assessment appropriate for the
	// artifact kind ("pkg" assesses as install, anything else as execute)
	AssessNotarization(ctx context.Context, path, artifactKind string) (bool, error)
}
