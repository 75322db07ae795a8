package services

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/doorman/doorman/internal/domain/entities"
)

// Test permission findings derived purely from the node mode
func TestSecurityChecker_Permissions(t *testing.T) {
	root := t.TempDir()
	checker, err := NewSecurityChecker(root, nil, nil)
	if err != nil {
		t.Fatalf("NewSecurityChecker() error = %v", err)
	}

	tests := []struct {
		name      string
		mode      fs.FileMode
		wantKinds []string
	}{
		{
			name:      "clean regular file",
			mode:      0o644,
			wantKinds: nil,
		},
		{
			name:      "world-writable file",
			mode:      0o666,
			wantKinds: []string{entities.ViolationWorldWritable},
		},
		{
			name:      "world-writable directory",
			mode:      fs.ModeDir | 0o777,
			wantKinds: []string{entities.ViolationWorldWritable},
		},
		{
			name:      "setuid binary",
			mode:      fs.ModeSetuid | 0o755,
			wantKinds: []string{entities.ViolationSetUID},
		},
		{
			name:      "setgid directory",
			mode:      fs.ModeDir | fs.ModeSetgid | 0o755,
			wantKinds: []string{entities.ViolationSetGID},
		},
		{
			name:      "setuid setgid world-writable all reported",
			mode:      fs.ModeSetuid | fs.ModeSetgid | 0o757,
			wantKinds: []string{entities.ViolationSetUID, entities.ViolationSetGID, entities.ViolationWorldWritable},
		},
		{
			name:      "socket is ignored",
			mode:      fs.ModeSocket | 0o777,
			wantKinds: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := entities.ScanNode{RelPath: "Contents/item", AbsPath: filepath.Join(root, "item"), Mode: tt.mode}
			violations := checker.Check(node)

			if len(violations) != len(tt.wantKinds) {
				t.Fatalf("Check() = %d violations, want %d: %v", len(violations), len(tt.wantKinds), violations)
			}
			for i, want := range tt.wantKinds {
				if violations[i].Kind != want {
					t.Errorf("violation[%d].Kind = %s, want %s", i, violations[i].Kind, want)
				}
				if violations[i].Path != node.RelPath {
					t.Errorf("violation[%d].Path = %s, want %s", i, violations[i].Path, node.RelPath)
				}
			}
		})
	}
}

// Test symlink targets inside the root pass, outside flag an escape
func TestSecurityChecker_SymlinkEscape(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()

	if err := os.WriteFile(filepath.Join(root, "target.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(outside, "victim.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	makeLink := func(name, target string) entities.ScanNode {
		link := filepath.Join(root, name)
		if err := os.Symlink(target, link); err != nil {
			t.Fatal(err)
		}
		return entities.ScanNode{RelPath: name, AbsPath: link, Kind: entities.EntryKindSymlink, Mode: fs.ModeSymlink | 0o777}
	}

	checker, err := NewSecurityChecker(root, nil, nil)
	if err != nil {
		t.Fatalf("NewSecurityChecker() error = %v", err)
	}

	t.Run("relative link inside root", func(t *testing.T) {
		node := makeLink("inside", "target.txt")
		if violations := checker.Check(node); len(violations) != 0 {
			t.Errorf("Check(inside link) = %v, want none", violations)
		}
	})

	t.Run("absolute link outside root", func(t *testing.T) {
		node := makeLink("escape", filepath.Join(outside, "victim.txt"))
		violations := checker.Check(node)
		if len(violations) != 1 || violations[0].Kind != entities.ViolationSymlinkEscape {
			t.Fatalf("Check(escape link) = %v, want one symlink-escape", violations)
		}
		if !strings.Contains(violations[0].Detail, "outside the bundle root") {
			t.Errorf("Detail = %q, want mention of bundle root", violations[0].Detail)
		}
	})

	t.Run("relative link climbing out of root", func(t *testing.T) {
		node := makeLink("climber", filepath.Join("..", "..", "etc"))
		violations := checker.Check(node)
		if len(violations) != 1 || violations[0].Kind != entities.ViolationSymlinkEscape {
			t.Fatalf("Check(climbing link) = %v, want one symlink-escape", violations)
		}
	})

	t.Run("dangling link", func(t *testing.T) {
		node := makeLink("dangling", "no-such-file")
		violations := checker.Check(node)
		if len(violations) != 1 || violations[0].Kind != entities.ViolationSymlinkEscape {
			t.Fatalf("Check(dangling link) = %v, want one symlink-escape", violations)
		}
		if !strings.Contains(violations[0].Detail, "does not resolve") {
			t.Errorf("Detail = %q, want mention of unresolvable target", violations[0].Detail)
		}
	})
}

// Test the sensitive-path deny-list and the allow-prefix exemption
func TestSecurityChecker_DenyAndAllowLists(t *testing.T) {
	root := t.TempDir()
	shared := t.TempDir()

	link := filepath.Join(root, "shared")
	if err := os.Symlink(shared, link); err != nil {
		t.Fatal(err)
	}
	node := entities.ScanNode{RelPath: "shared", AbsPath: link, Kind: entities.EntryKindSymlink, Mode: fs.ModeSymlink | 0o777}

	t.Run("outside target allowed by prefix", func(t *testing.T) {
		checker, err := NewSecurityChecker(root, nil, []string{shared})
		if err != nil {
			t.Fatal(err)
		}
		if violations := checker.Check(node); len(violations) != 0 {
			t.Errorf("Check(allowed link) = %v, want none", violations)
		}
	})

	t.Run("denied target flags", func(t *testing.T) {
		checker, err := NewSecurityChecker(root, []string{shared}, nil)
		if err != nil {
			t.Fatal(err)
		}
		violations := checker.Check(node)
		if len(violations) != 1 || violations[0].Kind != entities.ViolationSymlinkEscape {
			t.Fatalf("Check(denied link) = %v, want one symlink-escape", violations)
		}
		if !strings.Contains(violations[0].Detail, "denied path") {
			t.Errorf("Detail = %q, want mention of denied path", violations[0].Detail)
		}
	})

	t.Run("deny-list wins over allow-prefix", func(t *testing.T) {
		checker, err := NewSecurityChecker(root, []string{shared}, []string{shared})
		if err != nil {
			t.Fatal(err)
		}
		if violations := checker.Check(node); len(violations) != 1 {
			t.Errorf("Check(denied+allowed link) = %v, want one violation", violations)
		}
	})

	t.Run("denied prefix never matches partial segment", func(t *testing.T) {
		checker, err := NewSecurityChecker(root, []string{shared + "-other"}, []string{shared})
		if err != nil {
			t.Fatal(err)
		}
		if violations := checker.Check(node); len(violations) != 0 {
			t.Errorf("Check(sibling-named deny) = %v, want none", violations)
		}
	})
}

// Test root resolution failure surfaces as a constructor error
func TestSecurityChecker_MissingRoot(t *testing.T) {
	_, err := NewSecurityChecker(filepath.Join(t.TempDir(), "missing"), nil, nil)
	if err == nil {
		t.Fatal("Expected error for missing root, got nil")
	}
}

// Test segment-boundary prefix matching
func TestPathHasPrefix(t *testing.T) {
	tests := []struct {
		path   string
		prefix string
		want   bool
	}{
		{"/private/var/db", "/private/var", true},
		{"/private/var", "/private/var", true},
		{"/private/variable", "/private/var", false},
		{"/etc/hosts", "/etc", true},
		{"/etcetera", "/etc", false},
	}

	for _, tt := range tests {
		if got := pathHasPrefix(tt.path, tt.prefix); got != tt.want {
			t.Errorf("pathHasPrefix(%s, %s) = %v, want %v", tt.path, tt.prefix, got, tt.want)
		}
	}
}
