package gateways

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// artifactDigester implements SHA-256 fingerprinting using pure Go
type artifactDigester struct{}

// NewArtifactDigester creates a new artifact digester
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewArtifactDigester() *artifactDigester {
	return &artifactDigester{}
}

// SHA256 returns the hex-encoded SHA-256 digest of the file at path
// Pure Go implementation - no external shasum binary needed
func (d *artifactDigester) SHA256(_ context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat file: %w", err)
	}

	// Bundles are directories; there is no single stream to fingerprint
	if info.IsDir() {
		return "", nil
	}

	//nolint:gosec // G304: File path is user-provided for fingerprinting
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
