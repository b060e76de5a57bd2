// Package action applies validated operations to the filesystem. Every
// path is confined to one root directory; the executor refuses to touch
// anything that resolves outside it.
package action

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sandbox confines all filesystem work to one root directory.
type Sandbox struct {
	root string
}

// NewSandbox resolves the root through symlinks once, so later
// containment checks compare real paths.
func NewSandbox(root string) (*Sandbox, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("action: resolve root: %w", err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("action: resolve root: %w", err)
	}
	info, err := os.Stat(real)
	if err != nil {
		return nil, fmt.Errorf("action: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("action: root %s is not a directory", root)
	}
	return &Sandbox{root: real}, nil
}

// Root returns the resolved sandbox root.
func (s *Sandbox) Root() string { return s.root }

// Resolve maps a slash-relative path to an absolute path inside the
// root. The path itself may not exist yet; its nearest existing ancestor
// is resolved through symlinks and must still land inside the root, so a
// symlinked folder cannot smuggle writes outside.
func (s *Sandbox) Resolve(rel string) (string, error) {
	rel = filepath.FromSlash(strings.TrimSpace(rel))
	if rel == "" || rel == "." {
		return s.root, nil
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("action: %q is absolute", rel)
	}
	joined := filepath.Join(s.root, rel)
	if !strings.HasPrefix(joined, s.root+string(filepath.Separator)) && joined != s.root {
		return "", fmt.Errorf("action: %q escapes the root", rel)
	}

	real, err := resolveExistingAncestor(joined)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(real, s.root+string(filepath.Separator)) && real != s.root {
		return "", fmt.Errorf("action: %q resolves outside the root", rel)
	}
	return joined, nil
}

// resolveExistingAncestor walks up from the target until a path that
// exists, resolves it, and re-attaches the missing suffix.
func resolveExistingAncestor(target string) (string, error) {
	existing := target
	var missing []string
	for {
		if _, err := os.Lstat(existing); err == nil {
			break
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("action: stat %s: %w", existing, err)
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			break
		}
		missing = append([]string{filepath.Base(existing)}, missing...)
		existing = parent
	}
	real, err := filepath.EvalSymlinks(existing)
	if err != nil {
		return "", fmt.Errorf("action: resolve %s: %w", existing, err)
	}
	return filepath.Join(append([]string{real}, missing...)...), nil
}
