// Package services defines interfaces for domain service contracts.
package services

import (
	"context"

	"github.com/doorman/doorman/internal/domain/entities"
)

// ValidationService defines the interface for running artifact validation
type ValidationService interface {
	// Validate runs the full trust validation for the artifact at target:
	// notarization assessment, identity cross-check against the allowlist,
	// and the filesystem security scan
	Validate(ctx context.Context, target string, cfg entities.RunConfig) (*entities.ValidationReport, error)

	// Inspect runs classification and the filesystem security scan only,
	// without touching the signature-verification tools. Useful on hosts
	// where those tools are unavailable.
	Inspect(ctx context.Context, target string, cfg entities.RunConfig) (*entities.ValidationReport, error)
}
