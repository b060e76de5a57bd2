// Package preview renders a dry run: the directory listing as it is now
// against the listing the planned operations would produce, as a line
// diff. Nothing here touches the filesystem.
package preview

import (
	"path"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"sortme/internal/ops"
	"sortme/internal/profile"
)

type Line struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	OldLine int    `json:"old_line,omitempty"`
	NewLine int    `json:"new_line,omitempty"`
}

const (
	LineContext = "context"
	LineAdded   = "added"
	LineRemoved = "removed"
)

// Span is one run of a character diff between two notes.
type Span struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NoteChange shows how an annotate operation rewrites a file's note.
type NoteChange struct {
	Path  string `json:"path"`
	Old   string `json:"old,omitempty"`
	New   string `json:"new"`
	Spans []Span `json:"spans"`
}

// Preview is the dry-run outcome for one operation list.
type Preview struct {
	Before      string       `json:"before"`
	After       string       `json:"after"`
	Lines       []Line       `json:"lines"`
	NoteChanges []NoteChange `json:"note_changes,omitempty"`
	Truncated   bool         `json:"truncated"`
	Creates     int          `json:"creates"`
	Moves       int          `json:"moves"`
	Renames     int          `json:"renames"`
	Notes       int          `json:"notes"`
}

// MaxDiffLines caps the rendered diff so a pathological plan cannot
// produce an unbounded payload.
const MaxDiffLines = 5000

// Plan simulates the operations over the current index contents and
// diffs the two tree listings. Operations apply in order with move and
// rename semantics matching the executor, minus the filesystem. notes
// holds the current per-path notes so annotate rewrites can be shown.
func Plan(profiles []*profile.FileProfile, folders []string, notes map[string]string, list []ops.Operation) *Preview {
	files := map[string]bool{}
	dirs := map[string]bool{}
	for _, p := range profiles {
		files[p.Path] = true
		for d := path.Dir(p.Path); d != "." && d != "/"; d = path.Dir(d) {
			dirs[d] = true
		}
	}
	for _, f := range folders {
		if f != "" {
			dirs[f] = true
		}
	}

	before := render(files, dirs)

	pv := &Preview{}
	for _, op := range list {
		switch op.Kind {
		case ops.KindCreateFolder:
			fp := op.FolderPath()
			if !dirs[fp] {
				dirs[fp] = true
				pv.Creates++
			}
		case ops.KindMoveFile:
			if !files[op.SourcePath] {
				continue
			}
			target := path.Join(op.DestinationFolder, path.Base(op.SourcePath))
			if files[target] || target == op.SourcePath {
				continue
			}
			delete(files, op.SourcePath)
			files[target] = true
			dirs[op.DestinationFolder] = true
			pv.Moves++
		case ops.KindRenameFile:
			if !files[op.Path] {
				continue
			}
			target := path.Join(path.Dir(op.Path), op.NewName)
			if files[target] {
				continue
			}
			delete(files, op.Path)
			files[target] = true
			pv.Renames++
		case ops.KindAnnotate:
			pv.Notes++
			pv.NoteChanges = append(pv.NoteChanges, noteChange(op.Path, notes[op.Path], op.Note))
		}
	}

	after := render(files, dirs)
	pv.Before = before
	pv.After = after
	pv.Lines, pv.Truncated = diffListings(before, after, MaxDiffLines)
	return pv
}

// render builds a stable tree listing: every folder with a trailing
// slash, every file as-is, sorted as one list.
func render(files, dirs map[string]bool) string {
	entries := make([]string, 0, len(files)+len(dirs))
	for f := range files {
		entries = append(entries, f)
	}
	for d := range dirs {
		entries = append(entries, d+"/")
	}
	sort.Strings(entries)
	if len(entries) == 0 {
		return ""
	}
	return strings.Join(entries, "\n") + "\n"
}

// diffListings walks the two listings in lockstep. render emits sorted
// unique lines, so a line present in both sides is context and
// everything else is an exact add or remove; a heuristic edit script
// may legally render an untouched line as a remove plus re-add, which
// the dry run must never do.
func diffListings(before, after string, maxLines int) ([]Line, bool) {
	if lineCount(before)+lineCount(after) > maxLines {
		return nil, true
	}

	old := splitLines(before)
	cur := splitLines(after)
	var lines []Line
	i, j := 0, 0
	oldLine, newLine := 1, 1
	for i < len(old) || j < len(cur) {
		switch {
		case j >= len(cur) || (i < len(old) && old[i] < cur[j]):
			lines = append(lines, Line{Type: LineRemoved, Text: old[i], OldLine: oldLine})
			i++
			oldLine++
		case i >= len(old) || cur[j] < old[i]:
			lines = append(lines, Line{Type: LineAdded, Text: cur[j], NewLine: newLine})
			j++
			newLine++
		default:
			lines = append(lines, Line{Type: LineContext, Text: old[i], OldLine: oldLine, NewLine: newLine})
			i++
			j++
			oldLine++
			newLine++
		}
	}
	return lines, false
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

// noteChange renders the character diff of a rewritten note.
func noteChange(path, old, cur string) NoteChange {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(old, cur, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	nc := NoteChange{Path: path, Old: old, New: cur}
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			nc.Spans = append(nc.Spans, Span{Type: LineContext, Text: d.Text})
		case diffmatchpatch.DiffDelete:
			nc.Spans = append(nc.Spans, Span{Type: LineRemoved, Text: d.Text})
		case diffmatchpatch.DiffInsert:
			nc.Spans = append(nc.Spans, Span{Type: LineAdded, Text: d.Text})
		}
	}
	return nc
}

func lineCount(value string) int {
	if value == "" {
		return 0
	}
	return strings.Count(value, "\n") + 1
}
