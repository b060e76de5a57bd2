// Package session ties the pipeline together: scan, resolve, interpret,
// preview, execute. One session owns one directory; at most one run is
// in flight at a time.
package session

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"sortme/internal/action"
	"sortme/internal/category"
	"sortme/internal/config"
	"sortme/internal/errinfo"
	"sortme/internal/index"
	"sortme/internal/interpret"
	"sortme/internal/ops"
	"sortme/internal/preview"
	"sortme/internal/profile"
	"sortme/internal/prompt"
	"sortme/internal/resolve"
)

// ScanSummary is the outcome of a directory scan.
type ScanSummary struct {
	Root            string              `json:"root"`
	Files           int                 `json:"files"`
	Issues          []profile.ScanIssue `json:"issues,omitempty"`
	CategoriesAdded []string            `json:"categories_added,omitempty"`
	ScannedAt       time.Time           `json:"scanned_at"`
}

// Plan is a fully interpreted command, ready to execute or preview.
// Resolved entries were placed by deterministic rules without the model;
// Ops is the complete ordered operation list including those placements.
type Plan struct {
	RunID        string          `json:"run_id"`
	Conversation string          `json:"conversation,omitempty"`
	Resolved     []resolve.Match `json:"resolved,omitempty"`
	Ops          []ops.Operation `json:"ops"`
	Rejected     []ops.Rejection `json:"rejected,omitempty"`
	Attempts     int             `json:"attempts"`
	Batches      int             `json:"batches"`
}

// Session drives one organized directory end to end.
type Session struct {
	cfg      config.Config
	sandbox  *action.Sandbox
	scanner  *profile.Scanner
	index    *index.Store
	cats     *category.Store
	compiler *prompt.Compiler
	interp   *interpret.Interpreter
	exec     *action.Executor
	logger   zerolog.Logger

	mu     sync.Mutex
	runID  string
	cancel context.CancelFunc

	notify func(method string, params any)
}

// SetNotifier installs the callback progress events go through,
// typically an RPC server's Notify. Must be set before runs start.
func (s *Session) SetNotifier(fn func(method string, params any)) {
	s.notify = fn
	s.interp.OnRetry(func(batch, attempt int, reason string) {
		s.event("InterpretRetry", map[string]any{
			"batch":   batch,
			"attempt": attempt,
			"reason":  reason,
		})
	})
}

func (s *Session) event(method string, params any) {
	if s.notify != nil {
		s.notify(method, params)
	}
}

// New wires a session from configuration. The generator is injected so
// serving and testing do not drag a live model endpoint in.
func New(cfg config.Config, gen interpret.Generator, cats *category.Store, logger zerolog.Logger) (*Session, error) {
	sandbox, err := action.NewSandbox(cfg.Root)
	if err != nil {
		return nil, err
	}
	policy := profile.ContentPolicy{
		Enabled:     cfg.Scan.ContentReading,
		Kinds:       map[string]bool{},
		MaxFileSize: cfg.Scan.MaxFileSize,
	}
	for _, k := range cfg.Scan.ContentKinds {
		policy.Kinds[k] = true
	}
	compiler := prompt.NewCompiler(cfg.Model.ContextTokens)
	return &Session{
		cfg:      cfg,
		sandbox:  sandbox,
		scanner:  profile.NewScanner(policy, cfg.Scan.Workers, logger),
		index:    index.NewStore(),
		cats:     cats,
		compiler: compiler,
		interp:   interpret.New(gen, compiler, cfg.Model.MaxAttempts, logger),
		exec:     action.NewExecutor(sandbox, cats, cfg.Execute.Overwrite, logger),
		logger:   logger,
	}, nil
}

// Index exposes the session's index store, mainly for the watcher.
func (s *Session) Index() *index.Store { return s.index }

// Root returns the resolved directory this session organizes.
func (s *Session) Root() string { return s.sandbox.Root() }

// begin claims the single run slot or reports the session busy.
func (s *Session) begin(parent context.Context) (context.Context, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil, "", errinfo.SessionBusy(s.runID)
	}
	ctx, cancel := context.WithCancel(parent)
	id := uuid.NewString()
	s.runID, s.cancel = id, cancel
	return ctx, id, nil
}

func (s *Session) finish(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runID == id {
		s.cancel()
		s.runID, s.cancel = "", nil
	}
}

// Cancel aborts the run with the given ID, or the current run when the
// ID is empty. Reports whether anything was canceled.
func (s *Session) Cancel(runID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil || (runID != "" && runID != s.runID) {
		return false
	}
	s.cancel()
	return true
}

// Scan profiles the directory, swaps the index, and registers existing
// top-level folders as categories.
func (s *Session) Scan(ctx context.Context) (*ScanSummary, error) {
	ctx, id, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.finish(id)
	return s.scanLocked(ctx)
}

// scanLocked is the scan body for callers that already hold the run
// slot.
func (s *Session) scanLocked(ctx context.Context) (*ScanSummary, error) {
	rep, err := s.scanner.Scan(ctx, s.sandbox.Root())
	if err != nil {
		if ctx.Err() != nil {
			return nil, errinfo.UserCanceled(errinfo.PhaseScan)
		}
		return nil, err
	}
	s.index.Rebuild(rep.Root, rep.ScannedAt, rep.Profiles)
	s.event("ScanProgress", map[string]any{
		"root":   rep.Root,
		"files":  len(rep.Profiles),
		"issues": len(rep.Issues),
		"done":   true,
	})

	added, err := s.cats.SyncFromRoot(ctx, topLevelDirs(rep.Profiles))
	if err != nil {
		return nil, err
	}
	return &ScanSummary{
		Root:            rep.Root,
		Files:           len(rep.Profiles),
		Issues:          rep.Issues,
		CategoriesAdded: added,
		ScannedAt:       rep.ScannedAt,
	}, nil
}

// Interpret turns a command into a plan without touching any file.
func (s *Session) Interpret(ctx context.Context, command string) (*Plan, error) {
	ctx, id, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.finish(id)
	return s.interpretLocked(ctx, id, command)
}

func (s *Session) interpretLocked(ctx context.Context, id, command string) (*Plan, error) {
	if s.index.Len() == 0 || s.index.Stale() {
		if _, err := s.scanLocked(ctx); err != nil {
			return nil, err
		}
	}

	cats, err := s.cats.List(ctx)
	if err != nil {
		return nil, err
	}
	prefs, err := s.cats.ExtensionPrefs(ctx)
	if err != nil {
		return nil, err
	}
	notes, err := s.cats.Notes(ctx)
	if err != nil {
		return nil, err
	}

	snap := s.index.Current()
	split := resolve.New(cats, prefs).Resolve(snap.All())
	res, err := s.interp.Interpret(ctx, prompt.Input{
		Command:    command,
		Categories: cats,
		Residual:   split.Residual,
		Notes:      notes,
	}, snap)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		RunID:        id,
		Conversation: res.Conversation,
		Attempts:     res.Attempts,
		Batches:      res.Batches,
		Rejected:     res.Rejected,
	}
	// A conversational answer from the model means the user asked a
	// question; rule placements stay unapplied. The canned no-residual
	// message (zero batches) still lets them through.
	if plan.Conversation != "" && res.Batches > 0 {
		return plan, nil
	}
	plan.Resolved = split.Resolved
	plan.Ops = combine(cats, split.Resolved, res.Accepted)
	if res.Batches == 0 && len(plan.Ops) > 0 {
		// Rule placements are still work; the no-match notice only
		// stands when the whole plan came up empty.
		plan.Conversation = ""
	}
	return plan, nil
}

// combine orders the final operation list: folders for rule-resolved
// placements first, then their moves in path order, then the model's
// operations exactly as accepted.
func combine(cats []category.Category, resolved []resolve.Match, accepted []ops.Operation) []ops.Operation {
	pathByName := map[string]string{}
	for _, c := range cats {
		pathByName[c.Name] = c.Path
	}

	seen := map[string]bool{}
	var folders []string
	for _, m := range resolved {
		dir := pathByName[m.Category]
		if dir == "" {
			dir = m.Category
		}
		if !seen[dir] {
			seen[dir] = true
			folders = append(folders, dir)
		}
	}
	sort.Strings(folders)

	out := make([]ops.Operation, 0, len(folders)+len(resolved)+len(accepted))
	for _, dir := range folders {
		out = append(out, folderOp(dir))
	}
	for _, m := range resolved {
		dir := pathByName[m.Category]
		if dir == "" {
			dir = m.Category
		}
		out = append(out, ops.Operation{
			Kind:              ops.KindMoveFile,
			SourcePath:        m.Profile.Path,
			DestinationFolder: dir,
		})
	}
	return append(out, accepted...)
}

func folderOp(dir string) ops.Operation {
	op := ops.Operation{Kind: ops.KindCreateFolder, Name: dir}
	if i := strings.LastIndex(dir, "/"); i >= 0 {
		op.Parent, op.Name = dir[:i], dir[i+1:]
	}
	return op
}

// Execute applies a previously built plan's operations.
func (s *Session) Execute(ctx context.Context, list []ops.Operation) (*action.Ledger, error) {
	ctx, id, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.finish(id)

	ledger := s.exec.Execute(ctx, list)
	if ledger.Applied > 0 {
		s.index.MarkStale()
	}
	return ledger, nil
}

// OrganizeResult is the end-to-end outcome of one command.
type OrganizeResult struct {
	Plan    *Plan            `json:"plan"`
	Ledger  *action.Ledger   `json:"ledger,omitempty"`
	Preview *preview.Preview `json:"preview,omitempty"`
}

// Organize runs the whole pipeline for one command. With dryRun (or the
// configured preview mode) it stops after rendering the would-be diff.
func (s *Session) Organize(ctx context.Context, command string, dryRun bool) (*OrganizeResult, error) {
	ctx, id, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.finish(id)

	plan, err := s.interpretLocked(ctx, id, command)
	if err != nil {
		return nil, err
	}
	res := &OrganizeResult{Plan: plan}
	if len(plan.Ops) == 0 {
		return res, nil
	}

	if dryRun || s.cfg.Execute.Preview {
		res.Preview = s.previewPlan(ctx, plan)
		return res, nil
	}

	res.Ledger = s.exec.Execute(ctx, plan.Ops)
	if res.Ledger.Applied > 0 {
		s.index.MarkStale()
	}
	s.logger.Info().
		Str("run_id", id).
		Str("outcome", res.Ledger.Summary()).
		Msg("session.organize_done")
	return res, nil
}

// Preview interprets a command and renders the diff without executing.
func (s *Session) Preview(ctx context.Context, command string) (*OrganizeResult, error) {
	ctx, id, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.finish(id)

	plan, err := s.interpretLocked(ctx, id, command)
	if err != nil {
		return nil, err
	}
	return &OrganizeResult{Plan: plan, Preview: s.previewPlan(ctx, plan)}, nil
}

func (s *Session) previewPlan(ctx context.Context, plan *Plan) *preview.Preview {
	var folders []string
	if cats, err := s.cats.List(ctx); err == nil {
		for _, c := range cats {
			folders = append(folders, c.Path)
		}
	}
	notes, err := s.cats.Notes(ctx)
	if err != nil {
		notes = nil
	}
	return preview.Plan(s.index.All(), folders, notes, plan.Ops)
}

// topLevelDirs extracts the first path segment of every nested profile.
func topLevelDirs(profiles []*profile.FileProfile) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range profiles {
		if i := strings.Index(p.Path, "/"); i > 0 {
			dir := p.Path[:i]
			if !seen[dir] {
				seen[dir] = true
				out = append(out, dir)
			}
		}
	}
	sort.Strings(out)
	return out
}
