package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sortme/internal/category"
	"sortme/internal/profile"
)

func profFor(name string) *profile.FileProfile {
	sig := profile.ParseFilename(name)
	p := &profile.FileProfile{Path: name, Name: name, Tokens: sig.Tokens, Codes: sig.Codes}
	if i := lastDot(name); i >= 0 {
		p.Extension = name[i:]
	}
	return p
}

func lastDot(name string) int {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return i
		}
	}
	return -1
}

func cats(names ...string) []category.Category {
	out := make([]category.Category, 0, len(names))
	for _, n := range names {
		out = append(out, category.Category{Name: n, Path: n})
	}
	return out
}

func TestExtensionPrefWinsFirst(t *testing.T) {
	r := New(cats("Documents", "Reports"), map[string]string{".pdf": "Documents"})

	// "report" would also match the Reports category by name, but the
	// extension rule fires first.
	s := r.Resolve([]*profile.FileProfile{profFor("report-2024.pdf")})
	require.Len(t, s.Resolved, 1)
	assert.Equal(t, "Documents", s.Resolved[0].Category)
	assert.Equal(t, "extension:.pdf→Documents", s.Resolved[0].Reason)
	assert.Empty(t, s.Residual)
}

func TestCodeMatchBothDirections(t *testing.T) {
	r := New(cats("CS101 Notes"), nil)

	s := r.Resolve([]*profile.FileProfile{profFor("cs101_homework3.docx")})
	require.Len(t, s.Resolved, 1)
	assert.Equal(t, "CS101 Notes", s.Resolved[0].Category)
	assert.Equal(t, "code:CS101→CS101 Notes", s.Resolved[0].Reason)

	// Category named exactly by the code; file carries a longer code.
	r = New(cats("BIO2"), nil)
	s = r.Resolve([]*profile.FileProfile{profFor("BIO201-lab.pdf")})
	require.Len(t, s.Resolved, 1)
	assert.Equal(t, "BIO2", s.Resolved[0].Category)
}

func TestNameWordMatchSkipsShortWords(t *testing.T) {
	r := New(cats("To Do", "Tax Records"), nil)

	s := r.Resolve([]*profile.FileProfile{
		profFor("to-read-later.txt"),
		profFor("tax_return_2023.pdf"),
	})
	require.Len(t, s.Resolved, 1)
	assert.Equal(t, "Tax Records", s.Resolved[0].Category)
	assert.Equal(t, "name:tax→Tax Records", s.Resolved[0].Reason)
	require.Len(t, s.Residual, 1)
	assert.Equal(t, "to-read-later.txt", s.Residual[0].Path)
}

func TestNestedFilesAreIgnored(t *testing.T) {
	r := New(cats("Documents"), map[string]string{".pdf": "Documents"})

	s := r.Resolve([]*profile.FileProfile{
		profFor("loose.pdf"),
		{Path: "Documents/filed.pdf", Name: "filed.pdf", Extension: ".pdf"},
	})
	require.Len(t, s.Resolved, 1)
	assert.Equal(t, "loose.pdf", s.Resolved[0].Profile.Path)
	assert.Empty(t, s.Residual, "already-filed files are neither resolved nor residual")
}

func TestResolveIsDeterministic(t *testing.T) {
	r := New(cats("Documents", "Pictures"), map[string]string{".jpg": "Pictures"})
	input := []*profile.FileProfile{
		profFor("z-photo.jpg"),
		profFor("a-photo.jpg"),
		profFor("mystery.bin"),
	}

	first := r.Resolve(input)
	second := r.Resolve(input)
	assert.Equal(t, first, second)
	require.Len(t, first.Resolved, 2)
	assert.Equal(t, "a-photo.jpg", first.Resolved[0].Profile.Path, "resolved set is path ordered")
}
