package action

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSandboxResolve(t *testing.T) {
	root := t.TempDir()
	s, err := NewSandbox(root)
	require.NoError(t, err)

	abs, err := s.Resolve("Documents/report.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Root(), "Documents", "report.pdf"), abs)

	abs, err = s.Resolve("brand/new/nested/folder")
	require.NoError(t, err, "nonexistent paths resolve through the nearest ancestor")
	assert.Equal(t, filepath.Join(s.Root(), "brand", "new", "nested", "folder"), abs)
}

func TestSandboxRejectsEscapes(t *testing.T) {
	root := t.TempDir()
	s, err := NewSandbox(root)
	require.NoError(t, err)

	for _, rel := range []string{"../outside.txt", "a/../../outside.txt", "/etc/passwd"} {
		_, err := s.Resolve(rel)
		assert.Error(t, err, "rel: %s", rel)
	}
}

func TestSandboxRejectsSymlinkEscape(t *testing.T) {
	outside := t.TempDir()
	root := t.TempDir()
	link := filepath.Join(root, "sneaky")
	require.NoError(t, os.Symlink(outside, link))

	s, err := NewSandbox(root)
	require.NoError(t, err)

	_, err = s.Resolve("sneaky/file.txt")
	assert.Error(t, err, "a symlink pointing outside the root is rejected")
}

func TestNewSandboxErrors(t *testing.T) {
	_, err := NewSandbox(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = NewSandbox(file)
	assert.Error(t, err)
}
