// Package ops defines the closed set of file operations the engine will
// ever perform. Anything the model proposes is decoded into this schema
// or rejected; there is no escape hatch to arbitrary actions.
package ops

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"
)

// Kind names one of the four permitted operations.
type Kind string

const (
	KindCreateFolder Kind = "create_folder"
	KindMoveFile     Kind = "move_file"
	KindRenameFile   Kind = "rename_file"
	KindAnnotate     Kind = "annotate"
)

// Operation is one validated file operation. Only the fields for its
// Kind are set; all paths are relative to the session root with forward
// slashes.
type Operation struct {
	Kind Kind `json:"kind"`

	// create_folder
	Name   string `json:"name,omitempty"`
	Parent string `json:"parent,omitempty"`

	// move_file
	SourcePath        string `json:"source_path,omitempty"`
	DestinationFolder string `json:"destination_folder,omitempty"`

	// rename_file and annotate
	Path string `json:"path,omitempty"`

	// rename_file
	NewName string `json:"new_name,omitempty"`

	// annotate
	Note string `json:"note,omitempty"`
}

// Rejection records why a proposed operation was dropped.
type Rejection struct {
	Raw    json.RawMessage `json:"raw"`
	Reason string          `json:"reason"`
}

// rawOp mirrors the shape the model emits: an action name plus a loose
// argument bag.
type rawOp struct {
	Action string                     `json:"action"`
	Args   map[string]json.RawMessage `json:"args"`
}

// Older model outputs drift toward these names; accept them silently.
var kindAliases = map[string]Kind{
	"create_folder": KindCreateFolder,
	"create_file":   KindCreateFolder,
	"mkdir":         KindCreateFolder,
	"move_file":     KindMoveFile,
	"move":          KindMoveFile,
	"rename_file":   KindRenameFile,
	"rename":        KindRenameFile,
	"annotate":      KindAnnotate,
	"note":          KindAnnotate,
}

var argAliases = map[string]string{
	"src":                "source_path",
	"source":             "source_path",
	"source_path":        "source_path",
	"file":               "source_path",
	"dst":                "destination_folder",
	"dest":               "destination_folder",
	"destination":        "destination_folder",
	"destination_folder": "destination_folder",
	"folder":             "destination_folder",
	"name":               "name",
	"folder_name":        "name",
	"parent":             "parent",
	"path":               "path",
	"new_name":           "new_name",
	"newname":            "new_name",
	"note":               "note",
	"text":               "note",
}

// Decode turns one raw model operation into a validated Operation.
func Decode(raw json.RawMessage) (Operation, error) {
	var r rawOp
	if err := json.Unmarshal(raw, &r); err != nil {
		return Operation{}, fmt.Errorf("ops: not an object: %w", err)
	}
	kind, ok := kindAliases[strings.ToLower(strings.TrimSpace(r.Action))]
	if !ok {
		return Operation{}, fmt.Errorf("ops: unknown action %q", r.Action)
	}

	args := map[string]string{}
	for key, val := range r.Args {
		canon, ok := argAliases[strings.ToLower(strings.TrimSpace(key))]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(val, &s); err != nil {
			return Operation{}, fmt.Errorf("ops: argument %q is not a string", key)
		}
		args[canon] = s
	}

	op := Operation{Kind: kind}
	switch kind {
	case KindCreateFolder:
		op.Name = args["name"]
		op.Parent = args["parent"]
	case KindMoveFile:
		op.SourcePath = args["source_path"]
		op.DestinationFolder = args["destination_folder"]
	case KindRenameFile:
		op.Path = pick(args, "path", "source_path")
		op.NewName = pick(args, "new_name", "name")
	case KindAnnotate:
		op.Path = pick(args, "path", "source_path")
		op.Note = args["note"]
	}
	if err := op.Validate(); err != nil {
		return Operation{}, err
	}
	return op, nil
}

func pick(args map[string]string, keys ...string) string {
	for _, k := range keys {
		if args[k] != "" {
			return args[k]
		}
	}
	return ""
}

// Validate checks structural soundness: required fields present, paths
// relative and confined, names free of separators.
func (op Operation) Validate() error {
	switch op.Kind {
	case KindCreateFolder:
		if err := checkName(op.Name); err != nil {
			return fmt.Errorf("ops: create_folder name: %w", err)
		}
		if op.Parent != "" {
			if err := checkRelPath(op.Parent); err != nil {
				return fmt.Errorf("ops: create_folder parent: %w", err)
			}
		}
	case KindMoveFile:
		if err := checkRelPath(op.SourcePath); err != nil {
			return fmt.Errorf("ops: move_file source: %w", err)
		}
		if err := checkRelPath(op.DestinationFolder); err != nil {
			return fmt.Errorf("ops: move_file destination: %w", err)
		}
	case KindRenameFile:
		if err := checkRelPath(op.Path); err != nil {
			return fmt.Errorf("ops: rename_file path: %w", err)
		}
		if err := checkName(op.NewName); err != nil {
			return fmt.Errorf("ops: rename_file new name: %w", err)
		}
	case KindAnnotate:
		if err := checkRelPath(op.Path); err != nil {
			return fmt.Errorf("ops: annotate path: %w", err)
		}
		if strings.TrimSpace(op.Note) == "" {
			return fmt.Errorf("ops: annotate note: empty")
		}
	default:
		return fmt.Errorf("ops: unknown kind %q", op.Kind)
	}
	return nil
}

// Describe renders the operation for ledgers and logs.
func (op Operation) Describe() string {
	switch op.Kind {
	case KindCreateFolder:
		if op.Parent != "" {
			return fmt.Sprintf("create folder %s/%s", op.Parent, op.Name)
		}
		return fmt.Sprintf("create folder %s", op.Name)
	case KindMoveFile:
		return fmt.Sprintf("move %s -> %s/", op.SourcePath, op.DestinationFolder)
	case KindRenameFile:
		return fmt.Sprintf("rename %s -> %s", op.Path, op.NewName)
	case KindAnnotate:
		return fmt.Sprintf("annotate %s", op.Path)
	}
	return string(op.Kind)
}

// Source is the existing file the operation reads from, empty for
// create_folder which references no file.
func (op Operation) Source() string {
	switch op.Kind {
	case KindMoveFile:
		return op.SourcePath
	case KindRenameFile, KindAnnotate:
		return op.Path
	}
	return ""
}

// FolderPath is the folder a create_folder operation produces, relative
// to the root.
func (op Operation) FolderPath() string {
	if op.Parent == "" {
		return op.Name
	}
	return path.Join(op.Parent, op.Name)
}

func checkName(name string) error {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return fmt.Errorf("empty")
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%q contains a path separator", name)
	case name == "." || name == "..":
		return fmt.Errorf("%q is reserved", name)
	}
	return nil
}

func checkRelPath(p string) error {
	p = strings.TrimSpace(p)
	switch {
	case p == "":
		return fmt.Errorf("empty")
	case strings.HasPrefix(p, "/") || strings.Contains(p, ":"):
		return fmt.Errorf("%q is not relative", p)
	}
	clean := path.Clean(strings.ReplaceAll(p, `\`, "/"))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("%q escapes the root", p)
	}
	return nil
}
