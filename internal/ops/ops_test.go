package ops

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) Operation {
	t.Helper()
	op, err := Decode(json.RawMessage(raw))
	require.NoError(t, err)
	return op
}

func TestDecodeMoveFileAliases(t *testing.T) {
	canonical := decode(t, `{"action":"move_file","args":{"source_path":"a.pdf","destination_folder":"Documents"}}`)
	assert.Equal(t, KindMoveFile, canonical.Kind)
	assert.Equal(t, "a.pdf", canonical.SourcePath)
	assert.Equal(t, "Documents", canonical.DestinationFolder)

	aliased := decode(t, `{"action":"move","args":{"src":"a.pdf","dst":"Documents"}}`)
	assert.Equal(t, canonical, aliased)
}

func TestDecodeCreateFolderAliases(t *testing.T) {
	op := decode(t, `{"action":"create_file","args":{"name":"Invoices","parent":"Documents"}}`)
	assert.Equal(t, KindCreateFolder, op.Kind)
	assert.Equal(t, "Invoices", op.Name)
	assert.Equal(t, "Documents/Invoices", op.FolderPath())
}

func TestDecodeRenameAndAnnotate(t *testing.T) {
	rn := decode(t, `{"action":"rename","args":{"path":"IMG_001.jpg","new_name":"beach-trip.jpg"}}`)
	assert.Equal(t, KindRenameFile, rn.Kind)
	assert.Equal(t, "beach-trip.jpg", rn.NewName)

	an := decode(t, `{"action":"annotate","args":{"path":"report.pdf","note":"Q3 numbers"}}`)
	assert.Equal(t, KindAnnotate, an.Kind)
	assert.Equal(t, "Q3 numbers", an.Note)
}

func TestDecodeRejections(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"unknown action", `{"action":"delete_file","args":{"path":"a.txt"}}`},
		{"missing args", `{"action":"move_file","args":{}}`},
		{"absolute path", `{"action":"move_file","args":{"src":"/etc/passwd","dst":"Documents"}}`},
		{"traversal", `{"action":"move_file","args":{"src":"../outside.txt","dst":"Documents"}}`},
		{"separator in name", `{"action":"create_folder","args":{"name":"a/b"}}`},
		{"non-string arg", `{"action":"move_file","args":{"src":42,"dst":"Documents"}}`},
		{"empty note", `{"action":"annotate","args":{"path":"a.txt","note":"  "}}`},
		{"not an object", `["move_file"]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(json.RawMessage(tc.raw))
			assert.Error(t, err)
		})
	}
}

func TestValidateTraversalInCleanedPath(t *testing.T) {
	op := Operation{Kind: KindMoveFile, SourcePath: "Documents/../../escape.txt", DestinationFolder: "Documents"}
	assert.Error(t, op.Validate())
}

func TestSource(t *testing.T) {
	assert.Equal(t, "a.pdf", Operation{Kind: KindMoveFile, SourcePath: "a.pdf"}.Source())
	assert.Equal(t, "a.jpg", Operation{Kind: KindRenameFile, Path: "a.jpg"}.Source())
	assert.Equal(t, "a.txt", Operation{Kind: KindAnnotate, Path: "a.txt"}.Source())
	assert.Empty(t, Operation{Kind: KindCreateFolder, Name: "Docs"}.Source())
}

func TestDescribe(t *testing.T) {
	op := Operation{Kind: KindMoveFile, SourcePath: "a.pdf", DestinationFolder: "Documents"}
	assert.Equal(t, "move a.pdf -> Documents/", op.Describe())
}
