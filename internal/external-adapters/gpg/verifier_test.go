package gpg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Test importing key from file (armored format)
func TestVerifier_ImportKeyFromFile_Armored(t *testing.T) {
	v := NewVerifier()
	tmpDir := t.TempDir()

	// Create a test GPG public key (armored format)
	keyPath := filepath.Join(tmpDir, "test.asc")
	// This is a minimal valid GPG public key structure
	keyContent := `-----BEGIN PGP PUBLIC KEY BLOCK-----

mQENBGPexAMBCAC1kLz...
-----END PGP PUBLIC KEY BLOCK-----`

	if err := os.WriteFile(keyPath, []byte(keyContent), 0600); err != nil {
		t.Fatalf("Failed to create test key file: %v", err)
	}

	// Import should fail because it's not a real key, but we test the flow
	err := v.ImportKeyFromFile(keyPath)

	// We expect an error because the test key is invalid, but the function should execute
	if err == nil {
		t.Log("Import succeeded (test key might be valid)")
	} else if !strings.Contains(err.Error(), "failed to read key") {
		t.Errorf("Expected 'failed to read key' error, got: %v", err)
	}
}

// Test importing key from nonexistent file
func TestVerifier_ImportKeyFromFile_NonexistentFile(t *testing.T) {
	v := NewVerifier()

	err := v.ImportKeyFromFile("/nonexistent/key.asc")

	if err == nil {
		t.Fatal("Expected error for nonexistent file, got nil")
	}

	if !strings.Contains(err.Error(), "failed to open key file") {
		t.Errorf("Expected 'failed to open key file' error, got: %v", err)
	}
}

// Test importing key from file with no keys
func TestVerifier_ImportKeyFromFile_EmptyFile(t *testing.T) {
	v := NewVerifier()
	tmpDir := t.TempDir()

	keyPath := filepath.Join(tmpDir, "empty.asc")
	if err := os.WriteFile(keyPath, []byte("not a gpg key"), 0600); err != nil {
		t.Fatal(err)
	}

	err := v.ImportKeyFromFile(keyPath)

	if err == nil {
		t.Fatal("Expected error for invalid key file, got nil")
	}
}

// Test keyring starts empty
func TestVerifier_KeyringSize(t *testing.T) {
	v := NewVerifier()

	if size := v.KeyringSize(); size != 0 {
		t.Errorf("Initial keyring size = %d, want 0", size)
	}
}

// Test VerifyDetached without keys imported
func TestVerifier_VerifyDetached_NoKeysImported(t *testing.T) {
	v := NewVerifier()
	tmpDir := t.TempDir()

	testFile := filepath.Join(tmpDir, "allowlist.txt")
	sigFile := filepath.Join(tmpDir, "allowlist.txt.sig")

	if err := os.WriteFile(testFile, []byte("ABCDE12345"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(sigFile, []byte("fake sig"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := v.VerifyDetached(testFile, sigFile)

	if err == nil {
		t.Fatal("Expected error when no keys are imported, got nil")
	}

	if !strings.Contains(err.Error(), "no GPG keys imported") {
		t.Errorf("Expected 'no GPG keys imported' error, got: %v", err)
	}
}

// Test VerifyDetached with nonexistent files
func TestVerifier_VerifyDetached_NonexistentFiles(t *testing.T) {
	v := NewVerifier()
	v.keyring = append(v.keyring, nil) // bypass the empty-keyring guard

	// Nonexistent signature file
	_, err := v.VerifyDetached("/tmp/allowlist.txt", "/nonexistent/allowlist.sig")
	if err == nil {
		t.Fatal("Expected error for nonexistent signature file, got nil")
	}

	// Nonexistent data file
	tmpDir := t.TempDir()
	sigFile := filepath.Join(tmpDir, "allowlist.sig")
	//nolint:errcheck,gosec // G104: Test setup - failure will be caught by subsequent operations
	os.WriteFile(sigFile, []byte("fake"), 0600)

	_, err = v.VerifyDetached("/nonexistent/allowlist.txt", sigFile)
	if err == nil {
		t.Fatal("Expected error for nonexistent data file, got nil")
	}
}
