package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/doorman/doorman/internal/domain/entities"
)

// securityChecker evaluates a single entry for symlink-escape and
// dangerous-permission violations. Findings are collected, never thrown;
// severity is assigned later by the aggregator.
type securityChecker struct {
	realRoot        string // traversal root with symlinks resolved
	deniedTargets   []string
	allowedPrefixes []string
}

// NewSecurityChecker creates a checker scoped to the bundle rooted at root.
// deniedTargets always flag, even under allowedPrefixes.
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewSecurityChecker(root string, deniedTargets, allowedPrefixes []string) (*securityChecker, error) {
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve traversal root %s: %w", root, err)
	}
	realRoot, err = filepath.Abs(realRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to absolutize traversal root %s: %w", root, err)
	}
	return &securityChecker{
		realRoot:        realRoot,
		deniedTargets:   normalizePrefixes(deniedTargets),
		allowedPrefixes: normalizePrefixes(allowedPrefixes),
	}, nil
}

// normalizePrefixes resolves configured prefixes best-effort so that
// comparisons against resolved link targets hold on hosts where the prefix
// itself is a symlink (on macOS /etc, /var and /tmp live under /private).
func normalizePrefixes(prefixes []string) []string {
	out := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if resolved, err := filepath.EvalSymlinks(p); err == nil {
			p = resolved
		}
		out = append(out, filepath.Clean(p))
	}
	return out
}

// Check returns every violation found on the node. Symlinks get the escape
// check; regular files and directories get the permission checks. The two
// are independent and apply to native and inert entries alike.
func (s *securityChecker) Check(node entities.ScanNode) []entities.Violation {
	var violations []entities.Violation

	if node.Mode&os.ModeSymlink != 0 {
		if v := s.checkSymlink(node); v != nil {
			violations = append(violations, *v)
		}
		return violations
	}

	if !node.Mode.IsRegular() && !node.Mode.IsDir() {
		return violations
	}
	if node.HasSetUID() {
		violations = append(violations, entities.Violation{
			Kind:   entities.ViolationSetUID,
			Path:   node.RelPath,
			Detail: fmt.Sprintf("mode %04o carries the setuid bit", node.Mode.Perm()),
		})
	}
	if node.HasSetGID() {
		violations = append(violations, entities.Violation{
			Kind:   entities.ViolationSetGID,
			Path:   node.RelPath,
			Detail: fmt.Sprintf("mode %04o carries the setgid bit", node.Mode.Perm()),
		})
	}
	if node.IsWorldWritable() {
		violations = append(violations, entities.Violation{
			Kind:   entities.ViolationWorldWritable,
			Path:   node.RelPath,
			Detail: fmt.Sprintf("mode %04o grants write to others", node.Mode.Perm()),
		})
	}
	return violations
}

// checkSymlink guards against links that dereference outside the verified
// tree between scan time and later use of the same path.
func (s *securityChecker) checkSymlink(node entities.ScanNode) *entities.Violation {
	target, err := os.Readlink(node.AbsPath)
	if err != nil {
		return &entities.Violation{
			Kind:   entities.ViolationSymlinkEscape,
			Path:   node.RelPath,
			Detail: fmt.Sprintf("link target unreadable: %v", err),
		}
	}

	joined := target
	if !filepath.IsAbs(joined) {
		joined = filepath.Join(filepath.Dir(node.AbsPath), target)
	}
	resolved, err := filepath.EvalSymlinks(joined)
	if err != nil {
		return &entities.Violation{
			Kind:   entities.ViolationSymlinkEscape,
			Path:   node.RelPath,
			Detail: fmt.Sprintf("link target %s does not resolve: %v", target, err),
		}
	}

	// Targets strictly inside the verified tree are always fine.
	if pathHasPrefix(resolved, s.realRoot) {
		return nil
	}
	for _, denied := range s.deniedTargets {
		if pathHasPrefix(resolved, denied) {
			return &entities.Violation{
				Kind:   entities.ViolationSymlinkEscape,
				Path:   node.RelPath,
				Detail: fmt.Sprintf("link resolves to %s inside denied path %s", resolved, denied),
			}
		}
	}
	for _, allowed := range s.allowedPrefixes {
		if pathHasPrefix(resolved, allowed) {
			return nil
		}
	}
	return &entities.Violation{
		Kind:   entities.ViolationSymlinkEscape,
		Path:   node.RelPath,
		Detail: fmt.Sprintf("link resolves to %s outside the bundle root", resolved),
	}
}

// RealRoot returns the resolved traversal root the checker was built for
func (s *securityChecker) RealRoot() string {
	return s.realRoot
}

// pathHasPrefix reports whether path equals prefix or lies beneath it,
// comparing whole path segments
func pathHasPrefix(path, prefix string) bool {
	path = filepath.Clean(path)
	prefix = filepath.Clean(prefix)
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+string(filepath.Separator))
}
