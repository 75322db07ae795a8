package services

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/doorman/doorman/internal/domain/entities"
	"github.com/doorman/doorman/internal/domain/interfaces"
)

// WalkResult carries everything one traversal produced. Verdicts are in
// traversal order with identities still unresolved; the orchestrator fills
// them in and the aggregator folds them.
type WalkResult struct {
	Verdicts []entities.ComponentVerdict
	Stats    entities.ScanStats
}

// walker traverses a bundle depth-first in lexical entry order, classifies
// every node, security-checks it, and emits verdict skeletons. Symlinks are
// never followed.
type walker struct {
	classifier      *classifier
	skipDirs        map[string]bool
	deniedTargets   []string
	allowedPrefixes []string
	logger          interfaces.Logger
}

// walkState is the per-traversal bookkeeping
type walkState struct {
	checker  *securityChecker
	onPath   map[string]bool // real paths of directories on the current recursion stack
	verdicts []entities.ComponentVerdict
	stats    entities.ScanStats
}

// NewWalker creates a walker for the given run configuration
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewWalker(c *classifier, cfg entities.RunConfig, logger interfaces.Logger) *walker {
	skip := make(map[string]bool, len(cfg.SkipDirs))
	for _, name := range cfg.SkipDirs {
		skip[name] = true
	}
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &walker{
		classifier:      c,
		skipDirs:        skip,
		deniedTargets:   cfg.DeniedSymlinkTargets,
		allowedPrefixes: cfg.AllowedSymlinkPrefixes,
		logger:          logger,
	}
}

// Walk traverses the tree rooted at root. Repeated runs over an unmodified
// tree produce identical verdict ordering; per-node problems are collected
// into the result, never returned as errors.
func (w *walker) Walk(root string) (*WalkResult, error) {
	info, err := os.Lstat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat traversal root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("traversal root %s is not a directory", root)
	}
	checker, err := NewSecurityChecker(root, w.deniedTargets, w.allowedPrefixes)
	if err != nil {
		return nil, err
	}

	st := &walkState{
		checker: checker,
		onPath:  map[string]bool{},
	}
	start := time.Now()

	rootKind := entities.EntryKindDirectory
	if w.classifier.IsBundleRoot(filepath.Base(root)) {
		rootKind = entities.EntryKindBundleRoot
	}
	rootNode := entities.ScanNode{
		RelPath: ".",
		AbsPath: root,
		Kind:    rootKind,
		Size:    info.Size(),
		Mode:    info.Mode(),
	}
	st.stats.NodesVisited++
	if violations := checker.Check(rootNode); len(violations) > 0 {
		w.emit(st, rootNode, false, violations)
	}

	w.walkDir(st, root, "", false)
	st.stats.Duration = time.Since(start)

	return &WalkResult{Verdicts: st.verdicts, Stats: st.stats}, nil
}

// walkDir visits the children of absDir in lexical order, recursing
// depth-first. skipIdentity suppresses identity checks underneath skip-dirs
// while keeping the security checks active.
func (w *walker) walkDir(st *walkState, absDir, relDir string, skipIdentity bool) {
	if real, err := filepath.EvalSymlinks(absDir); err == nil {
		st.onPath[real] = true
		defer delete(st.onPath, real)
	}

	entries, err := os.ReadDir(absDir)
	if err != nil {
		w.logger.Warn("skipping unreadable directory", interfaces.F("path", absDir), interfaces.F("error", err))
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		abs := filepath.Join(absDir, name)
		rel := path.Join(relDir, name)

		info, err := entry.Info()
		if err != nil {
			w.logger.Warn("skipping unreadable entry", interfaces.F("path", abs), interfaces.F("error", err))
			continue
		}
		mode := info.Mode()

		var prefix []byte
		if mode.IsRegular() && info.Size() > 0 {
			if prefix, err = readPrefix(abs); err != nil {
				w.logger.Warn("prefix read failed", interfaces.F("path", abs), interfaces.F("error", err))
				prefix = nil
			}
		}

		kind, archs := w.classifier.Classify(name, mode, prefix)
		node := entities.ScanNode{
			RelPath: rel,
			AbsPath: abs,
			Kind:    kind,
			Size:    info.Size(),
			Mode:    mode,
			Archs:   archs,
		}
		st.stats.NodesVisited++

		violations := st.checker.Check(node)

		switch kind {
		case entities.EntryKindSymlink:
			st.stats.SymlinksChecked++
			if v := w.checkCycle(st, node); v != nil {
				violations = append(violations, *v)
			}
			if len(violations) > 0 {
				w.emit(st, node, false, violations)
			}

		case entities.EntryKindNative:
			st.stats.NativeBinaries++
			w.logger.Debug("native executable", interfaces.F("path", rel), interfaces.F("archs", archs))
			w.emit(st, node, !skipIdentity, violations)

		case entities.EntryKindBundleRoot:
			st.stats.NestedBundles++
			w.logger.Debug("nested bundle", interfaces.F("path", rel))
			// A nested bundle opens a fresh identity scope: it gets its own
			// verdict and its children are judged on their own identities.
			w.emit(st, node, !skipIdentity, violations)
			w.walkDir(st, abs, rel, skipIdentity)

		case entities.EntryKindDirectory:
			if len(violations) > 0 {
				w.emit(st, node, false, violations)
			}
			w.walkDir(st, abs, rel, skipIdentity || w.skipDirs[name])

		default:
			if len(violations) > 0 {
				w.emit(st, node, false, violations)
			}
		}
	}
}

// checkCycle flags a directory symlink that resolves to a directory on the
// current recursion stack. Links are never followed, so this exists to make
// adversarial cyclic bundles visible in the report rather than to bound
// traversal.
func (w *walker) checkCycle(st *walkState, node entities.ScanNode) *entities.Violation {
	resolved, err := filepath.EvalSymlinks(node.AbsPath)
	if err != nil {
		return nil // unresolvable targets are already flagged by the checker
	}
	if !st.onPath[resolved] {
		return nil
	}
	return &entities.Violation{
		Kind:   entities.ViolationSymlinkCycle,
		Path:   node.RelPath,
		Detail: fmt.Sprintf("link resolves to ancestor directory %s", resolved),
	}
}

// emit appends a verdict skeleton in traversal order
func (w *walker) emit(st *walkState, node entities.ScanNode, needsIdentity bool, violations []entities.Violation) {
	st.verdicts = append(st.verdicts, entities.ComponentVerdict{
		Index:         len(st.verdicts),
		Path:          node.RelPath,
		Kind:          node.Kind,
		NeedsIdentity: needsIdentity,
		Notarization:  entities.NotarizationNotEvaluated,
		Archs:         node.Archs,
		Violations:    violations,
	})
}

// readPrefix reads at most ClassifierPrefixLen leading bytes
func readPrefix(filePath string) ([]byte, error) {
	//nolint:gosec // G304: traversal opens every file under the scanned artifact root
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	//nolint:errcheck // Defer close
	defer f.Close()

	buf := make([]byte, ClassifierPrefixLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:n], nil
}
