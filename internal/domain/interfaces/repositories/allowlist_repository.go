// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"

	"github.com/doorman/doorman/internal/domain/entities"
)

// AllowlistRepository defines the interface for loading trusted identities
type AllowlistRepository interface {
	// Load reads and parses an allowlist file, verifying its detached
	// signature when the repository was configured with one
	Load(ctx context.Context, path string) ([]entities.AllowlistEntry, error)
}
