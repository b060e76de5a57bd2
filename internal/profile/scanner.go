package profile

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ScanIssue records one file the scanner could not fully process. The
// scan itself never fails because of a single file.
type ScanIssue struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Report is the outcome of one directory scan.
type Report struct {
	Root      string        `json:"root"`
	Profiles  []*FileProfile `json:"profiles"`
	Issues    []ScanIssue   `json:"issues,omitempty"`
	ScannedAt time.Time     `json:"scanned_at"`
}

// Scanner walks a root directory and produces a FileProfile per eligible
// file. Content analysis fans out across a bounded worker pool; all
// workers join before the report is returned, so the caller can rebuild
// the index atomically.
type Scanner struct {
	policy  ContentPolicy
	workers int
	logger  zerolog.Logger
}

func NewScanner(policy ContentPolicy, workers int, logger zerolog.Logger) *Scanner {
	if workers <= 0 {
		workers = 4
	}
	return &Scanner{policy: policy, workers: workers, logger: logger}
}

// Scan walks root, skipping hidden files and directories, and profiles
// every regular file. Per-file read errors are contained as issues.
func (s *Scanner) Scan(ctx context.Context, root string) (*Report, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		rel  string
		abs  string
		size int64
	}
	var candidates []candidate

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = path
			}
			candidates = append(candidates, candidate{rel: filepath.ToSlash(rel), abs: path, size: -1})
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, infoErr := d.Info()
		var size int64 = -1
		if infoErr == nil {
			size = info.Size()
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		candidates = append(candidates, candidate{rel: filepath.ToSlash(rel), abs: path, size: size})
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	scannedAt := time.Now().UTC()
	profiles := make([]*FileProfile, len(candidates))
	var mu sync.Mutex
	var issues []ScanIssue

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p := s.profileOne(c.rel, c.abs, c.size, scannedAt)
			if p.Unreadable {
				mu.Lock()
				issues = append(issues, ScanIssue{Path: c.rel, Reason: "unreadable"})
				mu.Unlock()
			}
			profiles[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Path < profiles[j].Path })
	sort.Slice(issues, func(i, j int) bool { return issues[i].Path < issues[j].Path })

	s.logger.Info().
		Str("root", root).
		Int("files", len(profiles)).
		Int("issues", len(issues)).
		Msg("scan.complete")

	return &Report{Root: root, Profiles: profiles, Issues: issues, ScannedAt: scannedAt}, nil
}

func (s *Scanner) profileOne(rel, abs string, size int64, at time.Time) *FileProfile {
	name := filepath.Base(rel)
	ext := strings.ToLower(filepath.Ext(name))
	p := &FileProfile{
		Path:      rel,
		Name:      name,
		Extension: ext,
		Size:      size,
		Kind:      KindForExtension(ext),
		IndexedAt: at,
	}
	if size < 0 {
		p.Unreadable = true
		return p
	}

	sig := ParseFilename(name)
	p.Tokens = sig.Tokens
	p.Codes = sig.Codes
	p.Date = sig.Date
	p.TypeHint = sig.TypeHint
	p.Subjects = sig.Subjects

	if err := analyzeContent(p, abs, s.policy); err != nil {
		// Filename signals are kept; only the content pass failed.
		p.Unreadable = true
		s.logger.Debug().Str("path", rel).Err(err).Msg("scan.content_unreadable")
	}
	return p
}
