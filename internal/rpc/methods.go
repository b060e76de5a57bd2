package rpc

import (
	"context"
	"encoding/json"
	"errors"

	"sortme/internal/category"
	"sortme/internal/errinfo"
	"sortme/internal/ops"
	"sortme/internal/session"
)

// EngineInfo describes the running engine to clients.
type EngineInfo struct {
	Name       string `json:"name"`
	Version    string `json:"version"`
	APIVersion string `json:"api_version"`
	Model      string `json:"model"`
	Root       string `json:"root"`
}

// RegisterMethods binds the engine surface onto the server.
func RegisterMethods(s *Server, info EngineInfo, sess *session.Session, cats *category.Store) {
	s.Register("EngineGetInfo", func(_ context.Context, _ json.RawMessage) (any, *Error) {
		return info, nil
	})

	s.Register("SessionScan", func(ctx context.Context, _ json.RawMessage) (any, *Error) {
		sum, err := sess.Scan(ctx)
		if err != nil {
			return nil, wrap(err)
		}
		return sum, nil
	})

	s.Register("SessionInterpret", func(ctx context.Context, params json.RawMessage) (any, *Error) {
		var p struct {
			Command string `json:"command"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		plan, err := sess.Interpret(ctx, p.Command)
		if err != nil {
			return nil, wrap(err)
		}
		return plan, nil
	})

	s.Register("SessionExecute", func(ctx context.Context, params json.RawMessage) (any, *Error) {
		var p struct {
			Ops []ops.Operation `json:"ops"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		for _, op := range p.Ops {
			if err := op.Validate(); err != nil {
				return nil, &Error{Message: err.Error(), Data: errinfo.OperationRejected(op.Path, err.Error())}
			}
		}
		ledger, err := sess.Execute(ctx, p.Ops)
		if err != nil {
			return nil, wrap(err)
		}
		return ledger, nil
	})

	s.Register("SessionOrganize", func(ctx context.Context, params json.RawMessage) (any, *Error) {
		var p struct {
			Command string `json:"command"`
			DryRun  bool   `json:"dry_run"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		res, err := sess.Organize(ctx, p.Command, p.DryRun)
		if err != nil {
			return nil, wrap(err)
		}
		return res, nil
	})

	s.Register("SessionPreview", func(ctx context.Context, params json.RawMessage) (any, *Error) {
		var p struct {
			Command string `json:"command"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		res, err := sess.Preview(ctx, p.Command)
		if err != nil {
			return nil, wrap(err)
		}
		return res, nil
	})

	s.Register("SessionCancel", func(_ context.Context, params json.RawMessage) (any, *Error) {
		var p struct {
			RunID string `json:"run_id"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return map[string]bool{"canceled": sess.Cancel(p.RunID)}, nil
	})

	s.Register("CategoriesList", func(ctx context.Context, _ json.RawMessage) (any, *Error) {
		list, err := cats.List(ctx)
		if err != nil {
			return nil, wrap(err)
		}
		return list, nil
	})

	s.Register("CategoriesAdd", func(ctx context.Context, params json.RawMessage) (any, *Error) {
		var p struct {
			Name string `json:"name"`
			Path string `json:"path"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		cat, err := cats.Add(ctx, p.Name, p.Path)
		if err != nil {
			return nil, wrap(err)
		}
		return cat, nil
	})

	s.Register("CategoriesRemove", func(ctx context.Context, params json.RawMessage) (any, *Error) {
		var p struct {
			Name string `json:"name"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		if err := cats.Remove(ctx, p.Name); err != nil {
			return nil, wrap(err)
		}
		return map[string]bool{"removed": true}, nil
	})

	s.Register("CategoriesSetExtensionPref", func(ctx context.Context, params json.RawMessage) (any, *Error) {
		var p struct {
			Extension string `json:"extension"`
			Category  string `json:"category"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		if err := cats.SetExtensionPref(ctx, p.Extension, p.Category); err != nil {
			return nil, wrap(err)
		}
		return map[string]bool{"set": true}, nil
	})

	s.Register("NotesGet", func(ctx context.Context, params json.RawMessage) (any, *Error) {
		var p struct {
			Path string `json:"path"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		note, err := cats.Note(ctx, p.Path)
		if err != nil {
			return nil, wrap(err)
		}
		return map[string]string{"path": p.Path, "note": note}, nil
	})

	s.Register("NotesSet", func(ctx context.Context, params json.RawMessage) (any, *Error) {
		var p struct {
			Path string `json:"path"`
			Note string `json:"note"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		if err := cats.SetNote(ctx, p.Path, p.Note); err != nil {
			return nil, wrap(err)
		}
		return map[string]bool{"set": true}, nil
	})
}

func decodeParams(params json.RawMessage, into any) *Error {
	if len(params) == 0 {
		return &Error{Message: "missing params"}
	}
	if err := json.Unmarshal(params, into); err != nil {
		return &Error{Message: "invalid params: " + err.Error()}
	}
	return nil
}

// wrap converts an engine error into an RPC error, surfacing structured
// ErrorInfo data when available.
func wrap(err error) *Error {
	var info *errinfo.ErrorInfo
	if errors.As(err, &info) {
		return &Error{Message: err.Error(), Data: info}
	}
	return &Error{Message: err.Error()}
}
