package preview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sortme/internal/ops"
	"sortme/internal/profile"
)

func profs(paths ...string) []*profile.FileProfile {
	out := make([]*profile.FileProfile, 0, len(paths))
	for _, p := range paths {
		out = append(out, &profile.FileProfile{Path: p})
	}
	return out
}

func TestPlanMoveAndCreate(t *testing.T) {
	pv := Plan(profs("report.pdf", "photo.jpg"), nil, nil, []ops.Operation{
		{Kind: ops.KindCreateFolder, Name: "Documents"},
		{Kind: ops.KindMoveFile, SourcePath: "report.pdf", DestinationFolder: "Documents"},
	})

	assert.Equal(t, 1, pv.Creates)
	assert.Equal(t, 1, pv.Moves)
	assert.Equal(t, "photo.jpg\nreport.pdf\n", pv.Before)
	assert.Equal(t, "Documents/\nDocuments/report.pdf\nphoto.jpg\n", pv.After)

	var added, removed []string
	for _, l := range pv.Lines {
		switch l.Type {
		case LineAdded:
			added = append(added, l.Text)
		case LineRemoved:
			removed = append(removed, l.Text)
		}
	}
	assert.Equal(t, []string{"Documents/", "Documents/report.pdf"}, added)
	assert.Equal(t, []string{"report.pdf"}, removed)
}

func TestPlanSkipsImpossibleOps(t *testing.T) {
	pv := Plan(profs("a.txt"), nil, nil, []ops.Operation{
		{Kind: ops.KindMoveFile, SourcePath: "ghost.txt", DestinationFolder: "Docs"},
		{Kind: ops.KindRenameFile, Path: "ghost.txt", NewName: "x.txt"},
	})
	assert.Zero(t, pv.Moves)
	assert.Zero(t, pv.Renames)
	assert.Equal(t, pv.Before, pv.After)
	for _, l := range pv.Lines {
		assert.Equal(t, LineContext, l.Type)
	}
}

func TestPlanRenameAndNotes(t *testing.T) {
	pv := Plan(profs("Docs/IMG_1.jpg"), []string{"Docs"}, nil, []ops.Operation{
		{Kind: ops.KindRenameFile, Path: "Docs/IMG_1.jpg", NewName: "beach.jpg"},
		{Kind: ops.KindAnnotate, Path: "Docs/beach.jpg", Note: "summer"},
	})
	assert.Equal(t, 1, pv.Renames)
	assert.Equal(t, 1, pv.Notes)
	assert.Contains(t, pv.After, "Docs/beach.jpg")
	assert.NotContains(t, pv.After, "IMG_1")

	require.Len(t, pv.NoteChanges, 1)
	assert.Equal(t, "Docs/beach.jpg", pv.NoteChanges[0].Path)
	assert.Equal(t, "summer", pv.NoteChanges[0].New)
}

func TestPlanNoteRewriteSpans(t *testing.T) {
	notes := map[string]string{"report.pdf": "Q2 numbers"}
	pv := Plan(profs("report.pdf"), nil, notes, []ops.Operation{
		{Kind: ops.KindAnnotate, Path: "report.pdf", Note: "Q3 numbers"},
	})

	require.Len(t, pv.NoteChanges, 1)
	nc := pv.NoteChanges[0]
	assert.Equal(t, "Q2 numbers", nc.Old)
	assert.Equal(t, "Q3 numbers", nc.New)

	var old, cur string
	for _, sp := range nc.Spans {
		if sp.Type != LineAdded {
			old += sp.Text
		}
		if sp.Type != LineRemoved {
			cur += sp.Text
		}
	}
	assert.Equal(t, nc.Old, old, "spans reassemble the old note")
	assert.Equal(t, nc.New, cur, "spans reassemble the new note")
}

func TestDiffKeepsUntouchedFilesAsContext(t *testing.T) {
	pv := Plan(profs("a.txt", "m.txt", "z.txt"), nil, nil, []ops.Operation{
		{Kind: ops.KindCreateFolder, Name: "Docs"},
		{Kind: ops.KindMoveFile, SourcePath: "m.txt", DestinationFolder: "Docs"},
	})

	byText := map[string]string{}
	for _, l := range pv.Lines {
		byText[l.Text] = l.Type
	}
	assert.Equal(t, LineContext, byText["a.txt"])
	assert.Equal(t, LineContext, byText["z.txt"])
	assert.Equal(t, LineRemoved, byText["m.txt"])
	assert.Equal(t, LineAdded, byText["Docs/m.txt"])
}

func TestPlanCreateExistingFolderIsNoop(t *testing.T) {
	pv := Plan(nil, []string{"Docs"}, nil, []ops.Operation{
		{Kind: ops.KindCreateFolder, Name: "Docs"},
	})
	assert.Zero(t, pv.Creates)
	assert.Equal(t, pv.Before, pv.After)
}

func TestPlanEmpty(t *testing.T) {
	pv := Plan(nil, nil, nil, nil)
	require.NotNil(t, pv)
	assert.Empty(t, pv.Before)
	assert.Empty(t, pv.Lines)
	assert.False(t, pv.Truncated)
}
