package allowlist

import (
	"context"
	"fmt"
	"os"

	"github.com/doorman/doorman/internal/domain/entities"
	"github.com/doorman/doorman/internal/external-adapters/gpg"
)

// FileRepository implements repositories.AllowlistRepository over plain-text
// files, optionally gated on a detached GPG signature
type FileRepository struct {
	parser  *Parser
	sigPath string
	keyPath string
}

// NewFileRepository creates a repository that loads unsigned allowlists
func NewFileRepository() *FileRepository {
	return &FileRepository{
		parser: NewParser(),
	}
}

// NewSignedFileRepository creates a repository that refuses to load an
// allowlist unless the detached signature at sigPath verifies against the
// public key at keyPath
func NewSignedFileRepository(sigPath, keyPath string) *FileRepository {
	return &FileRepository{
		parser:  NewParser(),
		sigPath: sigPath,
		keyPath: keyPath,
	}
}

// Load reads, optionally verifies, and parses the allowlist at path
func (r *FileRepository) Load(_ context.Context, path string) ([]entities.AllowlistEntry, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, entities.NewAllowlistError(path, err)
	}

	if r.sigPath != "" {
		if err := r.verifySignature(path); err != nil {
			return nil, entities.NewAllowlistError(path, err)
		}
	}

	entries, err := r.parser.ParseFile(path)
	if err != nil {
		return nil, entities.NewAllowlistError(path, err)
	}

	return entries, nil
}

func (r *FileRepository) verifySignature(path string) error {
	verifier := gpg.NewVerifier()
	if err := verifier.ImportKeyFromFile(r.keyPath); err != nil {
		return fmt.Errorf("signer key: %w", err)
	}
	if _, err := verifier.VerifyDetached(path, r.sigPath); err != nil {
		return fmt.Errorf("signature check: %w", err)
	}
	return nil
}
