package action

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/rs/zerolog"

	"sortme/internal/ops"
)

// EntryStatus is the per-operation outcome.
type EntryStatus string

const (
	StatusApplied EntryStatus = "applied"
	StatusSkipped EntryStatus = "skipped"
	StatusFailed  EntryStatus = "failed"
)

// Entry is one row of the execution ledger.
type Entry struct {
	Op     ops.Operation `json:"op"`
	Status EntryStatus   `json:"status"`
	Reason string        `json:"reason,omitempty"`
}

// Ledger records what happened to every operation, in order. One bad
// operation never aborts the rest.
type Ledger struct {
	Entries []Entry `json:"entries"`
	Applied int     `json:"applied"`
	Skipped int     `json:"skipped"`
	Failed  int     `json:"failed"`
}

func (l *Ledger) add(op ops.Operation, status EntryStatus, reason string) {
	l.Entries = append(l.Entries, Entry{Op: op, Status: status, Reason: reason})
	switch status {
	case StatusApplied:
		l.Applied++
	case StatusSkipped:
		l.Skipped++
	case StatusFailed:
		l.Failed++
	}
}

// Summary renders the ledger for the user.
func (l *Ledger) Summary() string {
	if len(l.Entries) == 0 {
		return "no matching files"
	}
	return fmt.Sprintf("%d applied, %d skipped, %d failed", l.Applied, l.Skipped, l.Failed)
}

// NoteWriter stores the note an annotate operation carries.
type NoteWriter interface {
	SetNote(ctx context.Context, path, note string) error
}

// Executor applies operations inside one sandbox.
type Executor struct {
	sandbox   *Sandbox
	notes     NoteWriter
	overwrite bool
	logger    zerolog.Logger
}

func NewExecutor(sandbox *Sandbox, notes NoteWriter, overwrite bool, logger zerolog.Logger) *Executor {
	return &Executor{sandbox: sandbox, notes: notes, overwrite: overwrite, logger: logger}
}

// Execute applies the operations in order and returns the full ledger.
// Folder creations are expected first in the slice; the interpreter and
// session layer order them that way. Cancellation marks the remaining
// operations skipped rather than leaving their fate unrecorded.
func (e *Executor) Execute(ctx context.Context, list []ops.Operation) *Ledger {
	ledger := &Ledger{}
	for _, op := range list {
		if ctx.Err() != nil {
			ledger.add(op, StatusSkipped, "canceled")
			continue
		}
		status, reason := e.apply(ctx, op)
		ledger.add(op, status, reason)
		e.logger.Info().
			Str("op", op.Describe()).
			Str("status", string(status)).
			Str("reason", reason).
			Msg("execute.op")
	}
	return ledger
}

func (e *Executor) apply(ctx context.Context, op ops.Operation) (EntryStatus, string) {
	switch op.Kind {
	case ops.KindCreateFolder:
		return e.createFolder(op)
	case ops.KindMoveFile:
		return e.moveFile(op)
	case ops.KindRenameFile:
		return e.renameFile(op)
	case ops.KindAnnotate:
		return e.annotate(ctx, op)
	}
	return StatusFailed, fmt.Sprintf("unknown operation %q", op.Kind)
}

func (e *Executor) createFolder(op ops.Operation) (EntryStatus, string) {
	abs, err := e.sandbox.Resolve(op.FolderPath())
	if err != nil {
		return StatusFailed, err.Error()
	}
	if info, err := os.Stat(abs); err == nil {
		if info.IsDir() {
			return StatusSkipped, "folder already exists"
		}
		return StatusFailed, "a file with that name exists"
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return StatusFailed, err.Error()
	}
	return StatusApplied, ""
}

func (e *Executor) moveFile(op ops.Operation) (EntryStatus, string) {
	src, err := e.sandbox.Resolve(op.SourcePath)
	if err != nil {
		return StatusFailed, err.Error()
	}
	info, err := os.Stat(src)
	if err != nil {
		return StatusFailed, "source not found"
	}
	if info.IsDir() {
		return StatusFailed, "source is a folder"
	}

	dstDir, err := e.sandbox.Resolve(op.DestinationFolder)
	if err != nil {
		return StatusFailed, err.Error()
	}
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return StatusFailed, err.Error()
	}

	target := filepath.Join(dstDir, path.Base(op.SourcePath))
	if target == src {
		return StatusSkipped, "already in place"
	}
	if _, err := os.Stat(target); err == nil && !e.overwrite {
		return StatusSkipped, "destination exists"
	}
	if err := os.Rename(src, target); err != nil {
		return StatusFailed, err.Error()
	}
	return StatusApplied, ""
}

func (e *Executor) renameFile(op ops.Operation) (EntryStatus, string) {
	src, err := e.sandbox.Resolve(op.Path)
	if err != nil {
		return StatusFailed, err.Error()
	}
	if _, err := os.Stat(src); err != nil {
		return StatusFailed, "file not found"
	}

	rel := path.Join(path.Dir(op.Path), op.NewName)
	target, err := e.sandbox.Resolve(rel)
	if err != nil {
		return StatusFailed, err.Error()
	}
	if target == src {
		return StatusSkipped, "name unchanged"
	}
	if _, err := os.Stat(target); err == nil && !e.overwrite {
		return StatusSkipped, "a file with the new name exists"
	}
	if err := os.Rename(src, target); err != nil {
		return StatusFailed, err.Error()
	}
	return StatusApplied, ""
}

func (e *Executor) annotate(ctx context.Context, op ops.Operation) (EntryStatus, string) {
	if _, err := e.sandbox.Resolve(op.Path); err != nil {
		return StatusFailed, err.Error()
	}
	if e.notes == nil {
		return StatusFailed, "no note store configured"
	}
	if err := e.notes.SetNote(ctx, op.Path, op.Note); err != nil {
		return StatusFailed, err.Error()
	}
	return StatusApplied, ""
}
