package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/akolanti/smartsort/pkg/logger_i"
)

// Sandbox confines every file operation to a single root directory.
// Relative paths are resolved lexically and through symlinks before any syscall touches them.
type Sandbox struct {
	root   string
	logger *logger_i.Logger
}

// New creates the root if needed and canonicalizes it.
func New(root string) (*Sandbox, error) {
	if root == "" {
		return nil, errors.New("storage root is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage root %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root %s: %w", abs, err)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root %s: %w", abs, err)
	}
	info, err := os.Stat(canonical)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage root %s: %w", canonical, ErrNotDir)
	}
	return &Sandbox{
		root:   canonical,
		logger: logger_i.NewLogger("Storage"),
	}, nil
}

func (s *Sandbox) Root() string {
	return s.root
}

// Resolve maps rel onto an absolute path inside the root or fails with ErrPathTraversal.
func (s *Sandbox) Resolve(rel string) (string, error) {
	joined := filepath.Clean(filepath.Join(s.root, filepath.FromSlash(rel)))
	if filepath.IsAbs(rel) {
		joined = filepath.Clean(rel)
	}
	if !s.contains(joined) {
		s.logger.Warn("path traversal rejected", "path", rel)
		return "", pathErr("resolve", rel, ErrPathTraversal)
	}

	canonical, err := canonicalize(joined, 0)
	if err != nil {
		return "", translate("resolve", rel, err)
	}
	if !s.contains(canonical) {
		s.logger.Warn("symlink escape rejected", "path", rel, "target", canonical)
		return "", pathErr("resolve", rel, ErrPathTraversal)
	}
	return canonical, nil
}

// Rel converts an absolute path inside the root back to a slash separated relative path.
func (s *Sandbox) Rel(abs string) (string, error) {
	if !s.contains(abs) {
		return "", pathErr("rel", abs, ErrPathTraversal)
	}
	rel, err := filepath.Rel(s.root, abs)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel), nil
}

func (s *Sandbox) contains(p string) bool {
	if p == s.root {
		return true
	}
	prefix := s.root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(p, prefix)
}

const maxLinkDepth = 40

// canonicalize resolves symlinks on the longest existing prefix of p and re-appends the missing tail.
// Dangling links are followed by hand so their target is still checked against the root.
func canonicalize(p string, depth int) (string, error) {
	if depth > maxLinkDepth {
		return "", fmt.Errorf("%s: too many levels of symbolic links", p)
	}
	existing := p
	var tail []string
	for {
		_, err := os.Lstat(existing)
		if err == nil {
			break
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			break
		}
		tail = append(tail, filepath.Base(existing))
		existing = parent
	}

	resolved, err := filepath.EvalSymlinks(existing)
	if errors.Is(err, fs.ErrNotExist) {
		target, linkErr := os.Readlink(existing)
		if linkErr != nil {
			return "", err
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(existing), target)
		}
		resolved, err = canonicalize(target, depth+1)
	}
	if err != nil {
		return "", err
	}
	for i := len(tail) - 1; i >= 0; i-- {
		resolved = filepath.Join(resolved, tail[i])
	}
	return resolved, nil
}
